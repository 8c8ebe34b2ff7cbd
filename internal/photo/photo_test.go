package photo

import (
	"errors"
	"io"
	"strings"
	"testing"
)

func TestNormalizeMime(t *testing.T) {
	if got := NormalizeMime("IMAGE/JPEG; charset=utf-8"); got != "image/jpeg" {
		t.Errorf("NormalizeMime = %q", got)
	}
	if got := NormalizeMime("  "); got != "" {
		t.Errorf("NormalizeMime(blank) = %q", got)
	}
}

func TestExtensionForMime(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"image/jpeg", ".jpg"},
		{"IMAGE/PNG", ".png"},
		{"image/gif", ".gif"},
		{"image/webp", ".webp"},
		{"application/pdf", ""},
	}
	for _, tc := range cases {
		if got := ExtensionForMime(tc.in); got != tc.want {
			t.Errorf("ExtensionForMime(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestSniffImagePNG(t *testing.T) {
	payload := "\x89PNG\r\n\x1a\n" + strings.Repeat("x", 600)
	reader, mime, err := SniffImage(strings.NewReader(payload), "")
	if err != nil {
		t.Fatalf("SniffImage: %v", err)
	}
	if mime != "image/png" {
		t.Errorf("mime = %q, want image/png", mime)
	}
	restored, err := io.ReadAll(reader)
	if err != nil {
		t.Fatal(err)
	}
	if string(restored) != payload {
		t.Error("sniffing consumed bytes from the stream")
	}
}

func TestSniffImageRejectsNonImage(t *testing.T) {
	_, _, err := SniffImage(strings.NewReader("%PDF-1.4 not an image"), "image/png")
	if !errors.Is(err, ErrNotImage) {
		t.Fatalf("err = %v, want ErrNotImage", err)
	}
}

func TestSniffImageDeclaredImageMimeWins(t *testing.T) {
	payload := "\x89PNG\r\n\x1a\npayload"
	_, mime, err := SniffImage(strings.NewReader(payload), "image/webp")
	if err != nil {
		t.Fatal(err)
	}
	if mime != "image/webp" {
		t.Errorf("mime = %q, want declared image/webp", mime)
	}
}
