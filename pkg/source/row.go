// Package source reads control rows from exported spreadsheets.
package source

import (
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Row holds the field values of one spreadsheet control row.
type Row struct {
	Family           string `json:"family"`
	ControlID        string `json:"control_id"`
	Name             string `json:"name"`
	ControlText      string `json:"control_text,omitempty"`
	Implementation   string `json:"implementation,omitempty"`
	Responsibility   string `json:"responsibility,omitempty"`
	Related          string `json:"related,omitempty"`
	Reference        string `json:"reference,omitempty"`
	Baseline         string `json:"baseline,omitempty"`
	HVAStandards     string `json:"hva_standards,omitempty"`
	PrivacyStandards string `json:"privacy_standards,omitempty"`
	Discussion       string `json:"discussion,omitempty"`

	// Line is the 1-based record number in the source file.
	Line int `json:"line,omitempty"`
}

var controlIDPattern = regexp.MustCompile(`^[A-Za-z]{2,3}-\d+(\(\s*\d+\s*\))*$`)

// HasControlText reports whether the row carries a statement to parse.
func (r Row) HasControlText() bool {
	return strings.TrimSpace(r.ControlText) != ""
}

// Validate checks the identifying fields of the row.
func (r Row) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Family, validation.By(requireText("ctlcat.row.family_required", "family is required"))),
		validation.Field(&r.ControlID,
			validation.By(requireText("ctlcat.row.control_id_required", "control id is required")),
			validation.By(func(value any) error {
				id := strings.TrimSpace(value.(string))
				if id != "" && !controlIDPattern.MatchString(id) {
					return validation.NewError("ctlcat.row.control_id_invalid", "control id must look like AC-2 or AC-2(1)")
				}
				return nil
			}),
		),
		validation.Field(&r.Name, validation.By(requireText("ctlcat.row.name_required", "name is required"))),
	)
}

func requireText(code, message string) validation.RuleFunc {
	return func(value any) error {
		if strings.TrimSpace(value.(string)) == "" {
			return validation.NewError(code, message)
		}
		return nil
	}
}
