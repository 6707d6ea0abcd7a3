// Package outline reconstructs the three-level outline of a control statement
// from its positional markers: "(a)" at depth 1, "1." at depth 2 and "a." at
// depth 3. Lines without a marker are prose of the most recently opened node.
package outline

import (
	"regexp"
	"strings"
)

// OrphanPolicy decides what happens to a marker whose parent is not open.
type OrphanPolicy int

const (
	// OrphanError fails the parse with a *StructuralError.
	OrphanError OrphanPolicy = iota
	// OrphanAsProse treats the offending line as a continuation line.
	OrphanAsProse
)

// Option configures a Parser.
type Option func(*Parser)

// WithOrphanPolicy sets how markers with a missing parent are handled.
func WithOrphanPolicy(policy OrphanPolicy) Option {
	return func(p *Parser) {
		p.orphans = policy
	}
}

// WithTrimContinuation makes continuation lines contribute their trimmed text
// instead of the original line.
func WithTrimContinuation(trim bool) Option {
	return func(p *Parser) {
		p.trimContinuation = trim
	}
}

// Parser splits control statement text into an outline tree.
type Parser struct {
	depth1Pattern *regexp.Regexp
	depth2Pattern *regexp.Regexp
	depth3Pattern *regexp.Regexp

	orphans          OrphanPolicy
	trimContinuation bool
}

// NewParser creates a Parser with the marker patterns compiled.
func NewParser(opts ...Option) *Parser {
	p := &Parser{
		depth1Pattern: regexp.MustCompile(`^\(([a-z])\)`),
		depth2Pattern: regexp.MustCompile(`^([1-9])\.\s`),
		depth3Pattern: regexp.MustCompile(`^([a-z])\.\s`),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

var defaultParser = NewParser()

// Parse parses text with the default parser.
func Parse(text, statementID string) (*Node, error) {
	return defaultParser.Parse(text, statementID)
}

// state is the single open path from the root to the newest node.
type state struct {
	root   *Node
	depth1 *Node
	depth2 *Node
	open   *Node
}

// Parse builds the outline for text under a root labelled statementID. On a
// structural error no tree is returned.
func (p *Parser) Parse(text, statementID string) (*Node, error) {
	root := NewNode(statementID)
	st := &state{root: root, open: root}

	for i, raw := range splitLines(text) {
		line := strings.TrimSpace(raw)

		if label, prose, ok := p.matchDepth1(line); ok {
			node := NewNode(label)
			node.SetProse(prose)
			root.Children.Set(label, node)
			st.depth1, st.depth2, st.open = node, nil, node
			continue
		}

		if label, prose, ok := match(p.depth2Pattern, line); ok {
			if st.depth1 == nil {
				if err := p.orphan(i+1, line, 2, 1); err != nil {
					return nil, err
				}
				p.appendContinuation(st.open, raw, line)
				continue
			}
			node := NewNode(label)
			node.SetProse(prose)
			st.depth1.Children.Set(label, node)
			st.depth2, st.open = node, node
			continue
		}

		if label, prose, ok := match(p.depth3Pattern, line); ok {
			if st.depth1 == nil || st.depth2 == nil {
				missing := 2
				if st.depth1 == nil {
					missing = 1
				}
				if err := p.orphan(i+1, line, 3, missing); err != nil {
					return nil, err
				}
				p.appendContinuation(st.open, raw, line)
				continue
			}
			node := NewNode(label)
			node.SetProse(prose)
			st.depth2.Children.Set(label, node)
			st.open = node
			continue
		}

		p.appendContinuation(st.open, raw, line)
	}

	return root, nil
}

// matchDepth1 strips "(x)" and at most one following space.
func (p *Parser) matchDepth1(line string) (label, prose string, ok bool) {
	loc := p.depth1Pattern.FindStringSubmatchIndex(line)
	if loc == nil {
		return "", "", false
	}
	rest := line[loc[1]:]
	rest = strings.TrimPrefix(rest, " ")
	return line[loc[2]:loc[3]], rest, true
}

// match strips a dotted marker together with the whitespace the pattern consumed.
func match(pattern *regexp.Regexp, line string) (label, prose string, ok bool) {
	loc := pattern.FindStringSubmatchIndex(line)
	if loc == nil {
		return "", "", false
	}
	return line[loc[2]:loc[3]], line[loc[1]:], true
}

func (p *Parser) orphan(lineNo int, line string, depth, missing int) error {
	if p.orphans == OrphanAsProse {
		return nil
	}
	return &StructuralError{Line: lineNo, Text: line, Depth: depth, Missing: missing}
}

func (p *Parser) appendContinuation(node *Node, raw, trimmed string) {
	if p.trimContinuation {
		node.AppendLine(trimmed)
		return
	}
	node.AppendLine(raw)
}

// splitLines splits on \r\n, \r and \n. A trailing terminator does not yield
// an extra empty line.
func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = strings.TrimSuffix(text, "\n")
	return strings.Split(text, "\n")
}
