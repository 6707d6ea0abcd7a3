// Package part renders outline trees into labelled catalog parts.
package part

import (
	"github.com/coolbeans/ctlcat/pkg/controlid"
	"github.com/coolbeans/ctlcat/pkg/outline"
)

// Part kinds.
const (
	KindStatement      = "statement"
	KindItem           = "item"
	KindImplementation = "implementation"
	KindHVA            = "hva"
	KindPrivacy        = "privacy"
	KindGuidance       = "guidance"
)

// PropLabel is the name of the property carrying an item's marker label.
const PropLabel = "label"

// Property is a name/value annotation on a part or control.
type Property struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Part is one rendered unit of a control. Parts is nil when the part has no
// children so that serialized output omits the field entirely.
type Part struct {
	ID    string     `json:"id"`
	Kind  string     `json:"name"`
	Props []Property `json:"props,omitempty"`
	Prose string     `json:"prose,omitempty"`
	Parts []Part     `json:"parts,omitempty"`
}

// Label returns the value of the part's label property.
func (p Part) Label() string {
	for _, prop := range p.Props {
		if prop.Name == PropLabel {
			return prop.Value
		}
	}
	return ""
}

// Statement wraps the rendered items of root in a statement part with the
// given id. Item ids are rooted at the id without its "_smt" suffix. Prose
// that preceded the first marker is kept on the wrapper.
func Statement(root *outline.Node, statementID string) Part {
	stmt := Part{
		ID:   statementID,
		Kind: KindStatement,
	}
	if root == nil {
		return stmt
	}
	if prose, ok := root.Prose(); ok {
		stmt.Prose = prose
	}
	stmt.Parts = Items(root, controlid.TrimStatement(statementID))
	return stmt
}

// Items renders the children of root, depth first in insertion order. The
// root itself only contributes prefix to the ids.
func Items(root *outline.Node, prefix string) []Part {
	if root == nil {
		return nil
	}
	return renderChildren(root, prefix)
}

func renderChildren(n *outline.Node, prefix string) []Part {
	if n.Children.Len() == 0 {
		return nil
	}
	parts := make([]Part, 0, n.Children.Len())
	for _, child := range n.Children.Nodes() {
		id := controlid.Join(prefix, child.Label)
		item := Part{
			ID:    id,
			Kind:  KindItem,
			Props: []Property{{Name: PropLabel, Value: child.Label}},
			Parts: renderChildren(child, id),
		}
		if prose, ok := child.Prose(); ok {
			item.Prose = prose
		}
		parts = append(parts, item)
	}
	return parts
}

// Additional builds a flat annotation part such as implementation notes.
func Additional(id, kind, prose string) Part {
	return Part{
		ID:    id,
		Kind:  kind,
		Prose: prose,
	}
}
