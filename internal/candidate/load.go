package candidate

import (
	"encoding/json"
	"fmt"
	"os"
)

// LoadJSON reads the harvester's links file: an object mapping each link to a
// two-element [seen, visited] array.
func LoadJSON(path string) (map[string]Stats, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read links file: %w", err)
	}
	return ParseJSON(data)
}

// ParseJSON decodes links-file content. Counters may be encoded as JSON
// numbers with a zero fractional part; negative values are rejected.
func ParseJSON(data []byte) (map[string]Stats, error) {
	var raw map[string][]float64
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse links file: %w", err)
	}
	out := make(map[string]Stats, len(raw))
	for link, counts := range raw {
		if len(counts) != 2 {
			return nil, fmt.Errorf("parse links file: %q: expected [seen, visited], got %d values", link, len(counts))
		}
		seen, err := toCount(counts[0])
		if err != nil {
			return nil, fmt.Errorf("parse links file: %q seen: %w", link, err)
		}
		visited, err := toCount(counts[1])
		if err != nil {
			return nil, fmt.Errorf("parse links file: %q visited: %w", link, err)
		}
		out[link] = Stats{Seen: seen, Visited: visited}
	}
	return out, nil
}

func toCount(v float64) (uint64, error) {
	if v < 0 || v != float64(uint64(v)) {
		return 0, fmt.Errorf("invalid count %v", v)
	}
	return uint64(v), nil
}
