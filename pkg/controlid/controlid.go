// Package controlid derives catalog identifiers from spreadsheet control ids.
package controlid

import (
	"regexp"
	"strings"
)

// Identifier suffixes appended to a normalized control id.
const (
	SuffixStatement      = "_smt"
	SuffixImplementation = "_imp"
	SuffixHVA            = "_hva"
	SuffixPrivacy        = "_prv"
	SuffixGuidance       = "_gdn"
)

var enhancementPattern = regexp.MustCompile(`\(\s*(\d+)\s*\)`)

// Normalize converts a control id such as "AC-2(1)" into "ac-2.1".
func Normalize(controlID string) string {
	id := strings.TrimSpace(controlID)
	id = enhancementPattern.ReplaceAllString(id, ".$1")
	return strings.ToLower(id)
}

// StatementID returns the statement part id for a control, e.g. "ac-2.1_smt".
func StatementID(controlID string) string {
	return Normalize(controlID) + SuffixStatement
}

// TrimStatement removes a literal "_smt" suffix from id.
func TrimStatement(id string) string {
	return strings.TrimSuffix(strings.TrimSpace(id), SuffixStatement)
}

// PartID swaps the statement suffix of statementID for suffix.
func PartID(statementID, suffix string) string {
	return TrimStatement(statementID) + suffix
}

// GroupID returns the lower-cased family prefix of a control id ("AC-2" -> "ac").
func GroupID(controlID string) string {
	id := strings.TrimSpace(controlID)
	if i := strings.Index(id, "-"); i > 0 {
		return strings.ToLower(id[:i])
	}
	if len(id) > 2 {
		id = id[:2]
	}
	return strings.ToLower(id)
}

// SortID returns the sort key used for a control's sort-id property.
func SortID(controlID string) string {
	return strings.ToLower(strings.TrimSpace(controlID))
}

// Join dot-joins prefix and labels into a part id.
func Join(prefix string, labels ...string) string {
	if len(labels) == 0 {
		return prefix
	}
	return prefix + "." + strings.Join(labels, ".")
}
