package middleware

import (
	"bytes"
	"net/http"
	"testing"
)

func TestPayloadRoundTrip(t *testing.T) {
	hdr := http.Header{"Content-Type": []string{"application/json"}, "X-Custom": []string{"a", "b"}}
	body := []byte(`{"items":[]}`)

	bs, err := encodePayload(http.StatusOK, hdr, body)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	status, gotHdr, gotBody, ok := decodePayload(bs)
	if !ok {
		t.Fatal("decode failed")
	}
	if status != http.StatusOK {
		t.Errorf("status = %d", status)
	}
	if !bytes.Equal(gotBody, body) {
		t.Errorf("body = %q", gotBody)
	}
	if gotHdr.Get("Content-Type") != "application/json" {
		t.Errorf("header = %v", gotHdr)
	}
	if vals := gotHdr.Values("X-Custom"); len(vals) != 2 {
		t.Errorf("multi-value header lost: %v", vals)
	}
}

func TestDecodePayloadRejectsGarbage(t *testing.T) {
	for _, bs := range [][]byte{nil, {1, 2, 3}} {
		if _, _, _, ok := decodePayload(bs); ok {
			t.Errorf("decodePayload(%v) accepted short input", bs)
		}
	}
	// Header length pointing past the buffer must be rejected.
	bad := make([]byte, 8)
	bad[7] = 0xff
	if _, _, _, ok := decodePayload(bad); ok {
		t.Error("oversized header length accepted")
	}
}
