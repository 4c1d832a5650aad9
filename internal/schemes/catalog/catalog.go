// Package catalog embeds the government scheme listings. The catalog is
// read-only and ships with the binary.
package catalog

import (
	_ "embed"
	"encoding/json"
	"fmt"

	"docverify/internal/schemes/models"
)

//go:embed schemes.json
var embedded []byte

// Load parses the embedded catalog.
func Load() ([]*models.Scheme, error) {
	return Parse(embedded)
}

// Parse decodes a JSON array of schemes and rejects invalid entries and
// duplicate IDs.
func Parse(data []byte) ([]*models.Scheme, error) {
	var schemes []*models.Scheme
	if err := json.Unmarshal(data, &schemes); err != nil {
		return nil, fmt.Errorf("decode scheme catalog: %w", err)
	}
	seen := make(map[string]struct{}, len(schemes))
	for i, s := range schemes {
		if s == nil {
			return nil, fmt.Errorf("scheme %d is null", i)
		}
		if err := s.Validate(); err != nil {
			return nil, fmt.Errorf("scheme %d (%s): %w", i, s.ID, err)
		}
		if _, dup := seen[s.ID]; dup {
			return nil, fmt.Errorf("duplicate scheme id %q", s.ID)
		}
		seen[s.ID] = struct{}{}
	}
	return schemes, nil
}
