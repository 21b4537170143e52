package chart

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"textledger/internal/core"
	"textledger/internal/report"
)

var pngMagic = []byte{0x89, 'P', 'N', 'G'}

func TestPieRendererWritesPNG(t *testing.T) {
	dir := t.TempDir()
	r, err := NewPieRenderer(dir, "https://ledger.example.com/")
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}

	points := []report.Point{
		{Label: "food", Value: core.MustAmount("10")},
		{Label: "gas", Value: core.MustAmount("5")},
	}
	ref, err := r.Render(context.Background(), "+15550001", points)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if want := "https://ledger.example.com/static/+15550001_pie.png"; ref != want {
		t.Errorf("ref = %q, want %q", ref, want)
	}

	b, err := os.ReadFile(filepath.Join(dir, "+15550001_pie.png"))
	if err != nil {
		t.Fatalf("read chart: %v", err)
	}
	if !bytes.HasPrefix(b, pngMagic) {
		t.Errorf("chart is not a PNG")
	}

	leftovers, _ := filepath.Glob(filepath.Join(dir, ".pie-*"))
	if len(leftovers) != 0 {
		t.Errorf("temp files left behind: %v", leftovers)
	}
}

func TestPieRendererNothingToDraw(t *testing.T) {
	r, err := NewPieRenderer(t.TempDir(), "")
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	_, err = r.Render(context.Background(), "x", []report.Point{{Label: "refund", Value: core.MustAmount("-4")}})
	if !errors.Is(err, ErrNothingToDraw) {
		t.Fatalf("expected ErrNothingToDraw, got %v", err)
	}
}

func TestPieRendererConcurrentSameOwner(t *testing.T) {
	dir := t.TempDir()
	r, err := NewPieRenderer(dir, "")
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := r.Render(context.Background(), "shared", []report.Point{
				{Label: "a", Value: core.MustAmount("1")},
				{Label: "b", Value: core.MustAmount("2")},
			})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("render: %v", err)
		}
	}

	b, err := os.ReadFile(filepath.Join(dir, "shared_pie.png"))
	if err != nil || !bytes.HasPrefix(b, pngMagic) {
		t.Fatalf("chart missing or corrupt: %v", err)
	}
}
