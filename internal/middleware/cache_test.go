package middleware

import (
	"bytes"
	"net/http"
	"testing"
)

func TestPayloadRoundTrip(t *testing.T) {
	body := []byte(`[{"id":1,"name":"Notepad++"}]`)
	enc := encodePayload(http.StatusOK, "application/json", body)

	status, ct, got, ok := decodePayload(enc)
	if !ok {
		t.Fatal("decode failed")
	}
	if status != http.StatusOK || ct != "application/json" || !bytes.Equal(got, body) {
		t.Fatalf("round trip mismatch: status=%d ct=%q body=%q", status, ct, got)
	}
}

func TestDecodePayloadTruncated(t *testing.T) {
	if _, _, _, ok := decodePayload([]byte{0, 0, 0}); ok {
		t.Fatal("truncated payload decoded")
	}
	// Header length pointing past the buffer must be rejected.
	if _, _, _, ok := decodePayload([]byte{0, 0, 0, 200, 0, 0, 0, 99, 'x'}); ok {
		t.Fatal("oversized content-type length decoded")
	}
}
