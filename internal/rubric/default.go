package rubric

// Default returns the built-in schema used when no rubric file is
// configured. The categories mirror configs/rubric.yaml.
func Default() *Schema {
	return &Schema{categories: map[string][]Criterion{
		"painting": {
			{Key: "composition", Max: 25},
			{Key: "technique", Max: 25},
			{Key: "originality", Max: 25},
			{Key: "impression", Max: 25},
		},
		"photography": {
			{Key: "composition", Max: 30},
			{Key: "lighting", Max: 30},
			{Key: "originality", Max: 40},
		},
		"writing": {
			{Key: "structure", Max: 20},
			{Key: "style", Max: 30},
			{Key: "originality", Max: 30},
			{Key: "impact", Max: 20},
		},
	}}
}
