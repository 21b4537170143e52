package http

import (
	"encoding/xml"
	"net/http"
)

const twimlContentType = "application/xml; charset=utf-8"

// twimlResponse is the messaging reply envelope Twilio expects from a webhook.
type twimlResponse struct {
	XMLName  xml.Name       `xml:"Response"`
	Messages []twimlMessage `xml:"Message"`
}

type twimlMessage struct {
	Body  string `xml:"Body"`
	Media string `xml:"Media,omitempty"`
}

func buildTwiML(body, media string) ([]byte, error) {
	out, err := xml.Marshal(twimlResponse{Messages: []twimlMessage{{Body: body, Media: media}}})
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), out...), nil
}

func writeTwiML(w http.ResponseWriter, body, media string) error {
	payload, err := buildTwiML(body, media)
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", twimlContentType)
	w.WriteHeader(http.StatusOK)
	_, err = w.Write(payload)
	return err
}
