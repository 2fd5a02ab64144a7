package api

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

const (
	activateSchemaJSON = `{
  "type": "object",
  "properties": {
    "config": {"type": "object"},
    "sessionId": {"type": ["string", "null"]}
  },
  "required": ["config"]
}`

	querySchemaJSON = `{
  "type": "object",
  "properties": {
    "query": {"type": "string"},
    "sessionId": {"type": "string"}
  },
  "required": ["query", "sessionId"]
}`
)

// bodySchema validates a JSON request body and reports violations as error
// records in field declaration order.
type bodySchema struct {
	schema *gojsonschema.Schema
	fields []string
}

func mustBodySchema(schemaJSON string, fields ...string) *bodySchema {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(schemaJSON))
	if err != nil {
		panic(fmt.Sprintf("invalid request schema: %v", err))
	}
	return &bodySchema{schema: schema, fields: fields}
}

var (
	activateSchema = mustBodySchema(activateSchemaJSON, "config", "sessionId")
	querySchema    = mustBodySchema(querySchemaJSON, "query", "sessionId")
)

// Validate returns nil when body satisfies the schema.
func (s *bodySchema) Validate(body []byte) []ErrorRecord {
	if len(strings.TrimSpace(string(body))) == 0 {
		return []ErrorRecord{{Field: "body", Message: "field required", Type: "value_error.missing"}}
	}
	if !json.Valid(body) {
		return []ErrorRecord{{Field: "body", Message: "invalid JSON body", Type: "value_error.jsondecode"}}
	}

	result, err := s.schema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return []ErrorRecord{{Field: "body", Message: err.Error(), Type: "value_error.jsondecode"}}
	}
	if result.Valid() {
		return nil
	}

	records := make([]ErrorRecord, 0, len(result.Errors()))
	for _, re := range result.Errors() {
		records = append(records, toErrorRecord(re))
	}
	slices.SortStableFunc(records, func(a, b ErrorRecord) int {
		return s.rank(a.Field) - s.rank(b.Field)
	})
	return records
}

func (s *bodySchema) rank(field string) int {
	name, _, _ := strings.Cut(strings.TrimPrefix(field, "body."), ".")
	if i := slices.Index(s.fields, name); i >= 0 {
		return i
	}
	return len(s.fields)
}

func toErrorRecord(re gojsonschema.ResultError) ErrorRecord {
	field := re.Field()
	if re.Type() == "required" {
		if prop, ok := re.Details()["property"].(string); ok {
			switch {
			case field == gojsonschema.STRING_CONTEXT_ROOT:
				field = prop
			case field != prop && !strings.HasSuffix(field, "."+prop):
				field = field + "." + prop
			}
		}
	}
	if field == gojsonschema.STRING_CONTEXT_ROOT {
		field = "body"
	} else {
		field = "body." + field
	}

	switch re.Type() {
	case "required":
		return ErrorRecord{Field: field, Message: "field required", Type: "value_error.missing"}
	case "invalid_type":
		expected, _ := re.Details()["expected"].(string)
		return ErrorRecord{Field: field, Message: typeMessage(expected), Type: typeCode(expected)}
	default:
		return ErrorRecord{Field: field, Message: re.Description(), Type: "value_error." + re.Type()}
	}
}

func typeMessage(expected string) string {
	switch {
	case strings.Contains(expected, "object"):
		return "value is not a valid dict"
	case strings.Contains(expected, "string"):
		return "str type expected"
	default:
		return "invalid type, expected " + expected
	}
}

func typeCode(expected string) string {
	switch {
	case strings.Contains(expected, "object"):
		return "type_error.dict"
	case strings.Contains(expected, "string"):
		return "type_error.str"
	default:
		return "type_error"
	}
}
