package service

import "github.com/draftwise/draftwise/internal/domain"

// ChunkConfig controls how extracted text is split for embedding.
// Size and Overlap are measured in runes.
type ChunkConfig struct {
	Size    int
	Overlap int
}

// DefaultChunkConfig provides sane defaults for chunking.
func DefaultChunkConfig() ChunkConfig {
	return ChunkConfig{
		Size:    1000,
		Overlap: 200,
	}
}

// Chunk splits text into ordered segments of at most cfg.Size runes, each
// subsequent segment starting cfg.Size-cfg.Overlap runes after the previous
// segment's start. The final segment may be shorter. Empty input yields an
// empty slice. Pure function: same input and config always yield the same
// segments.
func Chunk(text string, cfg ChunkConfig) ([]string, error) {
	if cfg.Size <= 0 || cfg.Overlap < 0 || cfg.Overlap >= cfg.Size {
		return nil, domain.ErrInvalidChunkConfig
	}

	if text == "" {
		return []string{}, nil
	}

	runes := []rune(text)
	if len(runes) <= cfg.Size {
		return []string{text}, nil
	}

	stride := cfg.Size - cfg.Overlap
	chunks := make([]string, 0, (len(runes)+stride-1)/stride)
	for start := 0; start < len(runes); start += stride {
		end := start + cfg.Size
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[start:end]))
		if end == len(runes) {
			break
		}
	}

	return chunks, nil
}
