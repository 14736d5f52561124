package extractor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleMetadata() *SchemaMetadata {
	return &SchemaMetadata{
		Dialect:  "postgresql",
		Database: "shop",
		Schemas: []Schema{{
			Name: "public",
			Tables: []Table{
				{Name: "users", Columns: []Column{
					{Name: "email", DataType: "character varying"},
					{Name: "password_hash", DataType: "character varying"},
					{Name: "first_name", DataType: "character varying"},
				}},
				{Name: "orders", Columns: []Column{
					{Name: "order_number", DataType: "character varying"},
				}},
				{Name: "products", Columns: []Column{
					{Name: "sku", DataType: "character varying"},
				}},
			},
		}},
	}
}

func TestClassify_SampleSchema(t *testing.T) {
	c, err := NewClassifier()
	require.NoError(t, err)

	findings := c.Classify(sampleMetadata())
	require.Len(t, findings, 3)

	byColumn := make(map[string]SensitiveFinding)
	for _, f := range findings {
		byColumn[f.Column] = f
	}

	assert.Equal(t, "PII", byColumn["email"].Category)
	assert.Equal(t, ConfidenceHigh, byColumn["email"].Confidence)

	// Authentication outranks PII, so password_hash is never classified as
	// PII even though it contains a name-like fragment.
	assert.Equal(t, "Authentication", byColumn["password_hash"].Category)
	assert.Equal(t, ConfidenceMedium, byColumn["password_hash"].Confidence)
	assert.Equal(t, "password", byColumn["password_hash"].PatternMatched)

	assert.Equal(t, "PII", byColumn["first_name"].Category)

	// Non-sensitive columns are omitted, not reported as unknown
	_, found := byColumn["order_number"]
	assert.False(t, found)
	_, found = byColumn["sku"]
	assert.False(t, found)
}

func TestClassify_ConfidenceLevels(t *testing.T) {
	c, err := NewClassifier()
	require.NoError(t, err)

	meta := &SchemaMetadata{Schemas: []Schema{{
		Name: "public",
		Tables: []Table{{Name: "patients", Columns: []Column{
			{Name: "ssn", DataType: "text"},            // exact keyword
			{Name: "customer_email", DataType: "text"}, // substring
			{Name: "born_on", DataType: "date"},        // neither keyword nor hint
		}}},
	}}}

	findings := c.Classify(meta)
	byColumn := make(map[string]SensitiveFinding)
	for _, f := range findings {
		byColumn[f.Column] = f
	}

	require.Contains(t, byColumn, "ssn")
	assert.Equal(t, ConfidenceHigh, byColumn["ssn"].Confidence)

	require.Contains(t, byColumn, "customer_email")
	assert.Equal(t, ConfidenceMedium, byColumn["customer_email"].Confidence)

	assert.NotContains(t, byColumn, "born_on")
}

func TestClassify_DateHint(t *testing.T) {
	c, err := NewClassifier()
	require.NoError(t, err)

	meta := &SchemaMetadata{Schemas: []Schema{{
		Name: "public",
		Tables: []Table{{Name: "people", Columns: []Column{
			{Name: "dob", DataType: "date"},
			{Name: "dob", DataType: "integer"},
		}}},
	}}}

	findings := c.Classify(meta)
	// Only the date-typed column matches the hint; the integer twin has no
	// keyword match at all.
	require.Len(t, findings, 1)
	assert.Equal(t, "PII", findings[0].Category)
	assert.Equal(t, ConfidenceLow, findings[0].Confidence)
	assert.Equal(t, "date", findings[0].DataType)
}

func TestClassify_NeverFails(t *testing.T) {
	c, err := NewClassifier()
	require.NoError(t, err)

	assert.Nil(t, c.Classify(nil))
	assert.Empty(t, c.Classify(&SchemaMetadata{}))
}

func TestNewClassifierFromYAML_Invalid(t *testing.T) {
	_, err := NewClassifierFromYAML([]byte("categories: [what"))
	require.Error(t, err)

	_, err = NewClassifierFromYAML([]byte("categories: []"))
	require.Error(t, err)
}
