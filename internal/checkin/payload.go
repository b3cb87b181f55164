package checkin

import (
	"encoding/json"
	"errors"
	"strings"
)

// scanPayload is the JSON encoded in the attendee's QR code.
type scanPayload struct {
	Ticket string `json:"ticket"`
}

// DecodePayload extracts the ticket secret from a decoded QR payload.
func DecodePayload(raw string) (string, error) {
	var p scanPayload
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return "", &DecodeError{Err: err}
	}
	secret := strings.TrimSpace(p.Ticket)
	if secret == "" {
		return "", &DecodeError{Err: errors.New("missing ticket field")}
	}
	return secret, nil
}
