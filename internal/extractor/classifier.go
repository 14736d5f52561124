package extractor

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed categories.yaml
var categoriesYAML []byte

// Category is one sensitive-data category with its ordered keyword list.
// Categories are evaluated in declaration order; the first match wins.
type Category struct {
	Name      string   `yaml:"name"`
	Keywords  []string `yaml:"keywords"`
	DateHints []string `yaml:"date_hints"`
}

type categoryTable struct {
	Categories []Category `yaml:"categories"`
}

// Classifier matches column names against the category keyword table. It is
// pure: no I/O, no mutation of its inputs.
type Classifier struct {
	categories []Category
}

// NewClassifier loads the embedded category table.
func NewClassifier() (*Classifier, error) {
	return NewClassifierFromYAML(categoriesYAML)
}

// NewClassifierFromYAML builds a classifier from an external category table,
// so categories can be extended without touching control flow.
func NewClassifierFromYAML(data []byte) (*Classifier, error) {
	var table categoryTable
	if err := yaml.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("failed to parse category table: %w", err)
	}
	if len(table.Categories) == 0 {
		return nil, fmt.Errorf("category table declares no categories")
	}
	return &Classifier{categories: table.Categories}, nil
}

// Classify walks every column of the metadata and returns one finding per
// matched column. Columns with no keyword match are omitted. This stage
// never fails; an empty result is valid output.
func (c *Classifier) Classify(meta *SchemaMetadata) []SensitiveFinding {
	if meta == nil {
		return nil
	}
	var findings []SensitiveFinding
	for _, schema := range meta.Schemas {
		for _, table := range schema.Tables {
			for _, column := range table.Columns {
				finding, ok := c.classifyColumn(column)
				if !ok {
					continue
				}
				finding.Schema = schema.Name
				finding.Table = table.Name
				findings = append(findings, finding)
			}
		}
	}
	return findings
}

// classifyColumn tests one column against the categories in priority order.
// Exact keyword equality yields high confidence, a substring match medium,
// and a date-typed hint match low.
func (c *Classifier) classifyColumn(column Column) (SensitiveFinding, bool) {
	lower := strings.ToLower(column.Name)

	for _, category := range c.categories {
		for _, keyword := range category.Keywords {
			if lower == keyword {
				return SensitiveFinding{
					Column:         column.Name,
					DataType:       column.DataType,
					Category:       category.Name,
					PatternMatched: keyword,
					Confidence:     ConfidenceHigh,
				}, true
			}
			if strings.Contains(lower, keyword) {
				return SensitiveFinding{
					Column:         column.Name,
					DataType:       column.DataType,
					Category:       category.Name,
					PatternMatched: keyword,
					Confidence:     ConfidenceMedium,
				}, true
			}
		}
	}

	if !isDateType(column.DataType) {
		return SensitiveFinding{}, false
	}
	for _, category := range c.categories {
		for _, hint := range category.DateHints {
			if strings.Contains(lower, hint) {
				return SensitiveFinding{
					Column:         column.Name,
					DataType:       column.DataType,
					Category:       category.Name,
					PatternMatched: hint,
					Confidence:     ConfidenceLow,
				}, true
			}
		}
	}
	return SensitiveFinding{}, false
}

func isDateType(dataType string) bool {
	lower := strings.ToLower(dataType)
	return strings.Contains(lower, "date") || strings.Contains(lower, "timestamp")
}
