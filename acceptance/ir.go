package acceptance

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
)

// MarshalFeature encodes a parsed feature as indented JSON so other tools
// can hand pre-parsed specs to the gwt reporter.
func MarshalFeature(feature *Feature) ([]byte, error) {
	return json.MarshalIndent(feature, "", "  ")
}

// UnmarshalFeature decodes JSON produced by MarshalFeature.
func UnmarshalFeature(data []byte) (*Feature, error) {
	var feature Feature
	if err := json.Unmarshal(data, &feature); err != nil {
		return nil, err
	}
	for i, sc := range feature.Scenarios {
		if sc.Status != "" && !sc.Status.IsKnown() {
			return nil, fmt.Errorf("scenario %d: unknown status %q", i, sc.Status)
		}
	}
	return &feature, nil
}

// LoadFeature reads a feature from path: .json files are decoded with
// UnmarshalFeature and anything else is parsed as a spec file.
func LoadFeature(path string, read func(string) ([]byte, error)) (*Feature, error) {
	data, err := read(path)
	if err != nil {
		return nil, err
	}
	if strings.EqualFold(filepath.Ext(path), ".json") {
		feature, err := UnmarshalFeature(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		if feature.SourceFile == "" {
			feature.SourceFile = path
		}
		return feature, nil
	}
	return ParseSpec(string(data), path)
}
