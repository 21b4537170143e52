// Package chart renders report series as pie-chart PNGs on disk.
package chart

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	gochart "github.com/wcharczuk/go-chart/v2"

	"textledger/internal/lock"
	"textledger/internal/report"
)

// ErrNothingToDraw is returned when the series has no positive total.
var ErrNothingToDraw = errors.New("nothing to draw")

const (
	defaultWidth  = 800
	defaultHeight = 800
	fileSuffix    = "_pie.png"
	staticPrefix  = "/static/"
)

// Renderer produces a chart for owner and returns a reference the reply can link.
type Renderer interface {
	Render(ctx context.Context, owner string, points []report.Point) (string, error)
}

// PieRenderer writes one image per owner, overwriting it on each report.
// Each call builds its own chart value; only the output file is shared, and
// writes to it are serialized per path.
type PieRenderer struct {
	dir     string
	baseURL string
	width   int
	height  int
	locks   *lock.Keyed
}

var _ Renderer = (*PieRenderer)(nil)

// NewPieRenderer stores images in dir and builds references as
// <baseURL>/static/<owner>_pie.png. An empty baseURL yields a relative path.
func NewPieRenderer(dir, baseURL string) (*PieRenderer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create chart directory: %w", err)
	}
	return &PieRenderer{
		dir:     dir,
		baseURL: strings.TrimRight(baseURL, "/"),
		width:   defaultWidth,
		height:  defaultHeight,
		locks:   lock.NewKeyed(),
	}, nil
}

// FileName is the image name for owner.
func FileName(owner string) string {
	return owner + fileSuffix
}

func (r *PieRenderer) Render(ctx context.Context, owner string, points []report.Point) (string, error) {
	values := make([]gochart.Value, 0, len(points))
	var total float64
	for _, p := range points {
		v := p.Value.Float64()
		if v <= 0 {
			continue
		}
		total += v
		values = append(values, gochart.Value{Value: v, Label: p.Label})
	}
	if total <= 0 {
		return "", ErrNothingToDraw
	}

	pie := gochart.PieChart{
		Width:  r.width,
		Height: r.height,
		Values: values,
	}

	name := FileName(owner)
	path := filepath.Join(r.dir, name)

	unlock, err := r.locks.Lock(ctx, path)
	if err != nil {
		return "", err
	}
	defer unlock()

	if err := writeAtomic(path, pie); err != nil {
		return "", err
	}
	return r.baseURL + staticPrefix + name, nil
}

func writeAtomic(path string, pie gochart.PieChart) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".pie-*.png")
	if err != nil {
		return fmt.Errorf("create chart file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := pie.Render(gochart.PNG, tmp); err != nil {
		tmp.Close()
		return fmt.Errorf("render chart: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close chart file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("save chart: %w", err)
	}
	return nil
}
