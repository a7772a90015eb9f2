package upstream

import (
	"encoding/json"
	"fmt"
)

// StringField extracts a required string field from a JSON object body.
// A body that is not a JSON object, or whose field is absent, null or not a
// string, yields a ContractError.
func StringField(category Category, body []byte, field string) (string, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(body, &obj); err != nil {
		return "", &ContractError{Category: category, Field: field, Err: err}
	}

	raw, ok := obj[field]
	if !ok || string(raw) == "null" {
		return "", &ContractError{Category: category, Field: field}
	}

	var value string
	if err := json.Unmarshal(raw, &value); err != nil {
		return "", &ContractError{
			Category: category,
			Field:    field,
			Err:      fmt.Errorf("field %q is not a string: %w", field, err),
		}
	}
	return value, nil
}
