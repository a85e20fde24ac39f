package extract

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"
)

// TextExtractor handles plain-text and markdown payloads
type TextExtractor struct{}

func (e *TextExtractor) Extract(ctx context.Context, data []byte) (string, error) {
	if !utf8.Valid(data) {
		return "", fmt.Errorf("payload is not valid UTF-8")
	}
	return strings.TrimSpace(string(data)), nil
}
