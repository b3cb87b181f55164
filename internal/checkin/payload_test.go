package checkin

import (
	"errors"
	"testing"
)

func TestDecodePayload_OK(t *testing.T) {
	secret, err := DecodePayload(`{"ticket":"ABC123","event":"summit26"}`)
	if err != nil {
		t.Fatalf("DecodePayload: %v", err)
	}
	if secret != "ABC123" {
		t.Errorf("secret: got %q want %q", secret, "ABC123")
	}
}

func TestDecodePayload_Malformed(t *testing.T) {
	for _, raw := range []string{"", "ABC123", `{"ticket":`, `["ABC123"]`} {
		_, err := DecodePayload(raw)
		var de *DecodeError
		if !errors.As(err, &de) {
			t.Errorf("DecodePayload(%q): expected *DecodeError, got %v", raw, err)
		}
	}
}

func TestDecodePayload_MissingTicket(t *testing.T) {
	for _, raw := range []string{`{}`, `{"ticket":""}`, `{"ticket":"   "}`, `{"order":"X"}`} {
		_, err := DecodePayload(raw)
		var de *DecodeError
		if !errors.As(err, &de) {
			t.Errorf("DecodePayload(%q): expected *DecodeError, got %v", raw, err)
		}
	}
}
