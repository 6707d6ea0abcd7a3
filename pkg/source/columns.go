package source

import (
	"fmt"
	"sort"
)

// Field names accepted in a column map.
const (
	FieldFamily           = "family"
	FieldControlID        = "control_id"
	FieldName             = "name"
	FieldControl          = "control"
	FieldImplementation   = "implementation"
	FieldResponsibility   = "responsibility"
	FieldRelated          = "related"
	FieldReference        = "reference"
	FieldBaseline         = "baseline"
	FieldHVAStandards     = "hva_standards"
	FieldPrivacyStandards = "privacy_standards"
	FieldDiscussion       = "discussion"
)

var knownFields = map[string]bool{
	FieldFamily:           true,
	FieldControlID:        true,
	FieldName:             true,
	FieldControl:          true,
	FieldImplementation:   true,
	FieldResponsibility:   true,
	FieldRelated:          true,
	FieldReference:        true,
	FieldBaseline:         true,
	FieldHVAStandards:     true,
	FieldPrivacyStandards: true,
	FieldDiscussion:       true,
}

var requiredFields = []string{FieldFamily, FieldControlID, FieldName, FieldControl}

// ColumnMap maps a field name to a 0-based column index.
type ColumnMap map[string]int

// DefaultColumnMap returns the column layout of the standard control workbook.
func DefaultColumnMap() ColumnMap {
	return ColumnMap{
		FieldFamily:           0,
		FieldControlID:        1,
		FieldName:             2,
		FieldControl:          3,
		FieldDiscussion:       4,
		FieldRelated:          5,
		FieldReference:        6,
		FieldBaseline:         7,
		FieldImplementation:   8,
		FieldResponsibility:   9,
		FieldHVAStandards:     10,
		FieldPrivacyStandards: 11,
	}
}

// Validate checks that required fields are mapped and indexes are sane.
func (m ColumnMap) Validate() error {
	for _, field := range requiredFields {
		if _, ok := m[field]; !ok {
			return fmt.Errorf("column map: missing required field %q", field)
		}
	}
	fields := make([]string, 0, len(m))
	for field := range m {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	for _, field := range fields {
		if !knownFields[field] {
			return fmt.Errorf("column map: unknown field %q", field)
		}
		if m[field] < 0 {
			return fmt.Errorf("column map: field %q has negative index %d", field, m[field])
		}
	}
	return nil
}

// row builds a Row from one record; missing cells read as empty.
func (m ColumnMap) row(record []string) Row {
	cell := func(field string) string {
		i, ok := m[field]
		if !ok || i >= len(record) {
			return ""
		}
		return record[i]
	}
	return Row{
		Family:           cell(FieldFamily),
		ControlID:        cell(FieldControlID),
		Name:             cell(FieldName),
		ControlText:      cell(FieldControl),
		Implementation:   cell(FieldImplementation),
		Responsibility:   cell(FieldResponsibility),
		Related:          cell(FieldRelated),
		Reference:        cell(FieldReference),
		Baseline:         cell(FieldBaseline),
		HVAStandards:     cell(FieldHVAStandards),
		PrivacyStandards: cell(FieldPrivacyStandards),
		Discussion:       cell(FieldDiscussion),
	}
}
