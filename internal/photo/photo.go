// Package photo provides MIME normalization and content sniffing for
// image uploads (post photos and avatars).
package photo

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// sniffLen is how many leading bytes content sniffing inspects.
const sniffLen = 512

// ErrNotImage is returned when an upload does not look like an image.
var ErrNotImage = fmt.Errorf("upload is not an image")

// NormalizeMime normalizes MIME to lowercase token form, stripping parameters.
func NormalizeMime(raw string) string {
	mime := strings.ToLower(strings.TrimSpace(raw))
	if mime == "" {
		return ""
	}
	if idx := strings.Index(mime, ";"); idx >= 0 {
		mime = strings.TrimSpace(mime[:idx])
	}
	return mime
}

// ExtensionForMime maps an image MIME type to a file extension, or "" when
// unknown.
func ExtensionForMime(mime string) string {
	switch NormalizeMime(mime) {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	default:
		return ""
	}
}

// SniffImage reads the head of reader, verifies the content sniffs as an
// image, and returns a replacement reader with the consumed bytes restored
// plus the resolved MIME. The declared MIME wins over the sniffed one only
// when both agree the content is an image.
func SniffImage(reader io.Reader, declaredMime string) (io.Reader, string, error) {
	head := make([]byte, sniffLen)
	n, err := io.ReadFull(reader, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, "", fmt.Errorf("read upload: %w", err)
	}
	head = head[:n]

	sniffed := NormalizeMime(http.DetectContentType(head))
	if !strings.HasPrefix(sniffed, "image/") {
		return nil, "", ErrNotImage
	}

	mime := sniffed
	if declared := NormalizeMime(declaredMime); strings.HasPrefix(declared, "image/") {
		mime = declared
	}

	return io.MultiReader(bytes.NewReader(head), reader), mime, nil
}
