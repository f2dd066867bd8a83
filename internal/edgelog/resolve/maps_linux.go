//go:build linux

package resolve

import (
	"fmt"
	"os"
)

const selfMaps = "/proc/self/maps"

func readMappings() ([]Mapping, error) {
	f, err := os.Open(selfMaps)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", selfMaps, err)
	}
	defer f.Close()

	mappings, _, err := parseMappings(f)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", selfMaps, err)
	}
	return mappings, nil
}
