// Package catalog assembles control rows into an OSCAL-shaped control catalog.
package catalog

import (
	"github.com/coolbeans/ctlcat/pkg/part"
)

// Document is the serialized root object.
type Document struct {
	Catalog Catalog `json:"catalog"`
}

// Catalog groups controls by family.
type Catalog struct {
	UUID     string   `json:"uuid"`
	Metadata Metadata `json:"metadata"`
	Groups   []Group  `json:"groups,omitempty"`
}

// Metadata describes the catalog document.
type Metadata struct {
	Title        string `json:"title"`
	LastModified string `json:"last-modified"`
	Version      string `json:"version"`
	OSCALVersion string `json:"oscal-version"`
}

// Group holds the controls of one family.
type Group struct {
	ID       string    `json:"id"`
	Class    string    `json:"class"`
	Title    string    `json:"title"`
	Controls []Control `json:"controls"`
}

// Control is one catalog control with its statement and annotation parts.
type Control struct {
	ID    string          `json:"id"`
	Class string          `json:"class"`
	Title string          `json:"title"`
	Props []part.Property `json:"props,omitempty"`
	Links []Link          `json:"links,omitempty"`
	Parts []part.Part     `json:"parts,omitempty"`
}

// Link references another control.
type Link struct {
	Href string `json:"href"`
	Rel  string `json:"rel"`
}

// Report summarizes one build.
type Report struct {
	Rows     int    `json:"rows"`
	Controls int    `json:"controls"`
	Groups   int    `json:"groups"`
	Skipped  []Skip `json:"skipped,omitempty"`
}

// Skip records a row that was dropped under the skip policy.
type Skip struct {
	ControlID string `json:"control_id"`
	Line      int    `json:"line"`
	Reason    string `json:"reason"`
}

// Controls returns every control across groups, in order.
func (d *Document) Controls() []Control {
	var controls []Control
	for _, g := range d.Catalog.Groups {
		controls = append(controls, g.Controls...)
	}
	return controls
}
