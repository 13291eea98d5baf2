package usecases

import (
	"bytes"
	"encoding/json"
	"io"
	"strings"

	"github.com/samirrijal/stopsapi/internal/core/domain"
)

// ParsePatch decodes a JSON object of field -> value and validates each
// entry in document order, stopping at the first violation.
func ParsePatch(body []byte) ([]domain.FieldUpdate, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, domain.Invalidf("No fields provided for update")
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	tok, err := dec.Token()
	if err != nil {
		return nil, domain.Invalidf("malformed JSON body")
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		if tok == nil {
			return nil, domain.Invalidf("No fields provided for update")
		}
		return nil, domain.Invalidf("request body must be a JSON object")
	}

	var updates []domain.FieldUpdate
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, domain.Invalidf("malformed JSON body")
		}
		key, _ := tok.(string)

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, domain.Invalidf("malformed JSON body")
		}

		u, err := parseField(key, raw)
		if err != nil {
			return nil, err
		}
		updates = append(updates, u)
	}
	if _, err := dec.Token(); err != nil {
		return nil, domain.Invalidf("malformed JSON body")
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, domain.Invalidf("malformed JSON body")
	}

	if len(updates) == 0 {
		return nil, domain.Invalidf("No fields provided for update")
	}
	return updates, nil
}

func parseField(key string, raw json.RawMessage) (domain.FieldUpdate, error) {
	field, ok := domain.ParseStopField(key)
	if !ok {
		return domain.FieldUpdate{}, domain.Invalidf("%s is not an updatable field", key)
	}

	text := strings.TrimSpace(string(raw))
	if text == "null" {
		return domain.FieldUpdate{}, domain.Invalidf("%s is empty", key)
	}

	if strings.HasPrefix(text, `"`) {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return domain.FieldUpdate{}, domain.Invalidf("%s is malformed", key)
		}
		if s == "" {
			return domain.FieldUpdate{}, domain.Invalidf("%s is empty", key)
		}
		if field.IsNumeric() {
			return domain.FieldUpdate{}, domain.Invalidf("%s is an invalid input for %s", s, key)
		}
		if field == domain.FieldLastUpdated && !domain.ValidPatchTimestamp(s) {
			return domain.FieldUpdate{}, domain.Invalidf("%s is an invalid format for %s", s, key)
		}
		return domain.FieldUpdate{Field: field, Value: s}, nil
	}

	if !field.IsNumeric() {
		return domain.FieldUpdate{}, domain.Invalidf("%s must be a string", key)
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		return domain.FieldUpdate{}, domain.Invalidf("%s is an invalid input for %s", text, key)
	}
	check := domain.ValidateLatitude
	if field == domain.FieldLongitude {
		check = domain.ValidateLongitude
	}
	if err := check(f); err != nil {
		return domain.FieldUpdate{}, err
	}
	return domain.FieldUpdate{Field: field, Value: f}, nil
}
