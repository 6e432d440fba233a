package store

import (
	_ "embed"
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed schema/company.schema.json
var companySchemaJSON []byte

// SchemaViolation is one failed schema constraint on a company record.
type SchemaViolation struct {
	Field       string
	Description string
}

func (v SchemaViolation) String() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Description)
}

// ValidateCompanyJSON checks raw company record bytes against the published
// schema. A nil slice means the record conforms.
func ValidateCompanyJSON(data []byte) ([]SchemaViolation, error) {
	schema := gojsonschema.NewBytesLoader(companySchemaJSON)
	document := gojsonschema.NewBytesLoader(data)

	result, err := gojsonschema.Validate(schema, document)
	if err != nil {
		return nil, fmt.Errorf("schema validation: %w", err)
	}
	if result.Valid() {
		return nil, nil
	}

	violations := make([]SchemaViolation, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		violations = append(violations, SchemaViolation{
			Field:       e.Field(),
			Description: e.Description(),
		})
	}
	return violations, nil
}
