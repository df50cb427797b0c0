// Package rubric holds the static scoring schema that evaluator score
// sheets are validated against. Each submission category maps to an
// ordered list of criteria with per-criterion maximum points.
package rubric

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Criterion is a single scored rubric entry.
type Criterion struct {
	Key string  `yaml:"key"`
	Max float64 `yaml:"max"`
}

// Schema maps category codes to their scoring criteria.
type Schema struct {
	categories map[string][]Criterion
}

type schemaFile struct {
	Categories map[string][]Criterion `yaml:"categories"`
}

// Parse builds a schema from YAML bytes.
func Parse(data []byte) (*Schema, error) {
	var file schemaFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse rubric schema: %w", err)
	}

	if len(file.Categories) == 0 {
		return nil, fmt.Errorf("rubric schema defines no categories")
	}

	for code, criteria := range file.Categories {
		if len(criteria) == 0 {
			return nil, fmt.Errorf("rubric category %q has no criteria", code)
		}
		seen := make(map[string]struct{}, len(criteria))
		for _, criterion := range criteria {
			if criterion.Key == "" {
				return nil, fmt.Errorf("rubric category %q has a criterion without a key", code)
			}
			if criterion.Max <= 0 {
				return nil, fmt.Errorf("rubric criterion %q in category %q must have a positive max", criterion.Key, code)
			}
			if _, dup := seen[criterion.Key]; dup {
				return nil, fmt.Errorf("rubric criterion %q duplicated in category %q", criterion.Key, code)
			}
			seen[criterion.Key] = struct{}{}
		}
	}

	return &Schema{categories: file.Categories}, nil
}

// LoadFile reads a schema from a YAML file on disk.
func LoadFile(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rubric schema file: %w", err)
	}

	return Parse(data)
}

// Get returns the criteria for a category code.
func (s *Schema) Get(categoryCode string) ([]Criterion, bool) {
	criteria, ok := s.categories[categoryCode]
	return criteria, ok
}

// Validate checks a score sheet against the category's criteria: every
// criterion must be present, no extra keys are allowed, and each value
// must fall within [0, max].
func (s *Schema) Validate(categoryCode string, scores map[string]float64) error {
	criteria, ok := s.categories[categoryCode]
	if !ok {
		return fmt.Errorf("unknown rubric category %q", categoryCode)
	}

	expected := make(map[string]float64, len(criteria))
	for _, criterion := range criteria {
		expected[criterion.Key] = criterion.Max
	}

	for key := range scores {
		if _, ok := expected[key]; !ok {
			return fmt.Errorf("unexpected score key %q for category %q", key, categoryCode)
		}
	}

	for _, criterion := range criteria {
		value, ok := scores[criterion.Key]
		if !ok {
			return fmt.Errorf("missing score for criterion %q", criterion.Key)
		}
		if value < 0 || value > criterion.Max {
			return fmt.Errorf("score %.2f for criterion %q is outside [0, %.2f]", value, criterion.Key, criterion.Max)
		}
	}

	return nil
}

// Total sums a validated score sheet.
func Total(scores map[string]float64) float64 {
	var total float64
	for _, value := range scores {
		total += value
	}
	return total
}
