package vika

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
)

// FundCodeField is the datasheet column holding the fund code. It is the
// natural key of every row and part of the contract with the remote schema.
const FundCodeField = "基金代码"

// Fields are the named cells of a single row.
type Fields map[string]any

// Key returns the trimmed fund code of the row, or "" if there is none.
func (f Fields) Key() string { return keyString(f[FundCodeField]) }

// keyString normalizes a cell value read from the key column.
func keyString(v any) string {
	switch k := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(k)
	case json.Number:
		return k.String()
	case float64:
		return fmt.Sprintf("%.0f", k)
	case fmt.Stringer:
		return strings.TrimSpace(k.String())
	default:
		return strings.TrimSpace(fmt.Sprint(k))
	}
}

// RemoteRecord is a row as currently stored in the datasheet.
type RemoteRecord struct {
	RecordID string `json:"recordId"`
	Fields   Fields `json:"fields"`
}

// Update replaces the fields of an existing row.
type Update struct {
	RecordID string `json:"recordId"`
	Fields   Fields `json:"fields"`
}

// Schema describes the columns written by the reconciler. The key column is
// always FundCodeField.
type Schema struct {
	Fields []string
}

// Validate checks the schema once, before any remote call.
func (s Schema) Validate() error {
	if len(s.Fields) == 0 {
		return fmt.Errorf("%w: schema has no field", ErrNotConfigured)
	}
	seen := make(map[string]struct{}, len(s.Fields))
	for _, name := range s.Fields {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("%w: schema has an empty field name", ErrNotConfigured)
		}
		if _, dup := seen[name]; dup {
			return fmt.Errorf("%w: schema field %q is declared twice", ErrNotConfigured, name)
		}
		seen[name] = struct{}{}
	}
	if !slices.Contains(s.Fields, FundCodeField) {
		return fmt.Errorf("%w: schema does not contain the key field %q", ErrNotConfigured, FundCodeField)
	}
	return nil
}

// Check validates the desired records against the schema: every record has a
// key, only known fields, and no two records share a key.
func (s Schema) Check(desired []Fields) error {
	known := make(map[string]struct{}, len(s.Fields))
	for _, name := range s.Fields {
		known[name] = struct{}{}
	}
	keys := make(map[string]int, len(desired))
	for i, rec := range desired {
		key := rec.Key()
		if key == "" {
			return fmt.Errorf("%w: record #%d has no %s", ErrInvalidRecord, i, FundCodeField)
		}
		if j, dup := keys[key]; dup {
			return fmt.Errorf("%w: records #%d and #%d share the key %q", ErrInvalidRecord, j, i, key)
		}
		keys[key] = i
		for name := range rec {
			if _, ok := known[name]; !ok {
				return fmt.Errorf("%w: record %q has field %q outside the schema", ErrInvalidRecord, key, name)
			}
		}
	}
	return nil
}
