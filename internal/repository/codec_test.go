package repository

import (
	"testing"

	"bilimbagdar/internal/models"
)

func TestStringListRoundTrip(t *testing.T) {
	lists := [][]string{
		{},
		{"Теңдеуді түрлендіру"},
		{"a", "b", "c"},
		{"comma, inside", `quote " inside`, "new\nline"},
	}

	for _, in := range lists {
		encoded := encodeStringList(in)
		out := decodeStringList(encoded)
		if len(out) != len(in) {
			t.Fatalf("Round trip changed length: %v -> %v", in, out)
		}
		for i := range in {
			if out[i] != in[i] {
				t.Errorf("Round trip changed element %d: %q -> %q", i, in[i], out[i])
			}
		}
	}
}

func TestDecodeStringListMalformed(t *testing.T) {
	cases := []string{"", "not json", "{\"a\":1}", "[1,2,3]"}

	for _, in := range cases {
		out := decodeStringList(in)
		if out == nil {
			t.Errorf("decodeStringList(%q) returned nil, want empty slice", in)
		}
		if len(out) != 0 {
			t.Errorf("decodeStringList(%q) = %v, want empty", in, out)
		}
	}
}

func TestAttachmentsRoundTrip(t *testing.T) {
	in := []models.Attachment{
		{Name: "photo.jpg", Type: "image/jpeg", URL: "https://example.com/a.jpg", Size: 1024},
		{Name: "work.txt", Type: "text/plain", DataB64: "aGVsbG8=", Size: 5},
	}

	out := decodeAttachments(encodeAttachments(in))
	if len(out) != 2 {
		t.Fatalf("Expected 2 attachments, got %d", len(out))
	}
	if out[0].URL != in[0].URL || out[0].Name != in[0].Name {
		t.Errorf("URL attachment changed: %+v", out[0])
	}
	if out[1].DataB64 != in[1].DataB64 || out[1].Size != in[1].Size {
		t.Errorf("Inline attachment changed: %+v", out[1])
	}
}

func TestDecodeAttachmentsMalformed(t *testing.T) {
	out := decodeAttachments("garbage")
	if out == nil || len(out) != 0 {
		t.Errorf("Expected empty slice for malformed input, got %v", out)
	}
}
