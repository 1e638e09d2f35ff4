// Package mapping associates the importer's logical fields with column
// positions in a source file. The association is user-declared per import
// session and persisted as a small YAML file.
package mapping

import (
	"fmt"
	"os"

	"avolkov/finaudit/internal/tsv"

	"gopkg.in/yaml.v3"
)

// Logical field names. These are the labels of the original application's
// mapping dialog and double as the keys of the persisted mapping file.
const (
	FieldDate         = "Дата"
	FieldDocNumber    = "Номер док."
	FieldType         = "Тип"
	FieldAmount       = "Сумма"
	FieldPayer        = "Плательщик"
	FieldCounterparty = "Контрагент"
	FieldDescription  = "Назначение"
)

// Unmapped marks a logical field with no source column.
const Unmapped = -1

// TargetFields lists the fields offered for mapping, in dialog order.
var TargetFields = []string{
	FieldDate,
	FieldDocNumber,
	FieldType,
	FieldAmount,
	FieldPayer,
	FieldCounterparty,
	FieldDescription,
}

// FieldMapping maps a logical field name to a zero-based column index.
// Absent keys and Unmapped both mean "no column".
type FieldMapping map[string]int

// New returns a mapping with every target field unmapped.
func New() FieldMapping {
	m := make(FieldMapping, len(TargetFields))
	for _, field := range TargetFields {
		m[field] = Unmapped
	}
	return m
}

// Resolve returns the cleaned cell value for a logical field. An unmapped
// field, an out-of-range column or a short row all degrade to the empty
// string; Resolve never fails a row.
func (m FieldMapping) Resolve(row []string, field string) string {
	idx, ok := m[field]
	if !ok || idx == Unmapped {
		return ""
	}
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return tsv.CleanCell(row[idx])
}

// Load reads a mapping from a YAML file.
func Load(path string) (FieldMapping, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading mapping file: %w", err)
	}

	var m FieldMapping
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("error parsing mapping file: %w", err)
	}
	return m, nil
}

// Save writes the mapping to a YAML file.
func (m FieldMapping) Save(path string) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("error marshaling mapping: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("error writing mapping file: %w", err)
	}
	return nil
}
