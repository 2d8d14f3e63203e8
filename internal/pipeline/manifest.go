package pipeline

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Sample is one entry of a JSONL dataset manifest.
type Sample struct {
	ID     string   `json:"id"`
	SeqLen int      `json:"seq_len"`
	Images []string `json:"images,omitempty"`
	Video  string   `json:"video,omitempty"`
}

// ReadManifest parses a JSONL manifest file, one sample per line.
// Blank lines are skipped; IDs must be unique and sequence lengths
// non-negative.
func ReadManifest(path string) ([]Sample, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open manifest: %w", err)
	}
	defer f.Close()

	var samples []Sample
	seen := make(map[string]struct{})

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		raw := strings.TrimSpace(scanner.Text())
		if raw == "" {
			continue
		}

		var s Sample
		if err := json.Unmarshal([]byte(raw), &s); err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrInvalidManifest, line, err)
		}
		if s.ID == "" {
			return nil, fmt.Errorf("%w: line %d: missing id", ErrInvalidManifest, line)
		}
		if _, dup := seen[s.ID]; dup {
			return nil, fmt.Errorf("%w: line %d: duplicate id %q", ErrInvalidManifest, line, s.ID)
		}
		if s.SeqLen < 0 {
			return nil, fmt.Errorf("%w: line %d: negative seq_len", ErrInvalidManifest, line)
		}
		seen[s.ID] = struct{}{}
		samples = append(samples, s)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	return samples, nil
}
