package catalog

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/coolbeans/ctlcat/pkg/controlid"
	"github.com/coolbeans/ctlcat/pkg/logging"
	"github.com/coolbeans/ctlcat/pkg/outline"
	"github.com/coolbeans/ctlcat/pkg/part"
	"github.com/coolbeans/ctlcat/pkg/source"
)

// ErrorPolicy decides what a structural or row error does to the build.
type ErrorPolicy string

const (
	// PolicyAbort fails the whole build on the first bad control.
	PolicyAbort ErrorPolicy = "abort"
	// PolicySkip drops the bad control and records it in the Report.
	PolicySkip ErrorPolicy = "skip"
	// PolicyProse keeps orphan markers as prose; invalid rows are skipped.
	PolicyProse ErrorPolicy = "prose"
)

// Valid reports whether p is a known policy.
func (p ErrorPolicy) Valid() bool {
	switch p {
	case PolicyAbort, PolicySkip, PolicyProse:
		return true
	}
	return false
}

// Defaults for catalog metadata.
const (
	DefaultVersion      = "1.0"
	DefaultOSCALVersion = "1.0.0"
	DefaultControlClass = "ARS-5.0-Mandatory"
	GroupClass          = "family"
	PropSortID          = "sort-id"
	RelRelated          = "related"
)

// Options configures a Builder. Zero values take defaults.
type Options struct {
	Title        string
	Version      string
	OSCALVersion string
	ControlClass string
	Policy       ErrorPolicy
	// Workers bounds concurrent statement parsing. Zero means GOMAXPROCS.
	Workers int
	// TrimContinuation trims continuation lines before they join prose.
	TrimContinuation bool

	Logger  logging.Logger
	Now     func() time.Time
	NewUUID func() uuid.UUID
}

// Builder turns control rows into a catalog document.
type Builder struct {
	opts   Options
	parser *outline.Parser
	log    logging.Logger
}

// NewBuilder validates opts and creates a Builder.
func NewBuilder(opts Options) (*Builder, error) {
	if strings.TrimSpace(opts.Title) == "" {
		return nil, fmt.Errorf("catalog title is required")
	}
	if opts.Version == "" {
		opts.Version = DefaultVersion
	}
	if opts.OSCALVersion == "" {
		opts.OSCALVersion = DefaultOSCALVersion
	}
	if opts.ControlClass == "" {
		opts.ControlClass = DefaultControlClass
	}
	if opts.Policy == "" {
		opts.Policy = PolicyAbort
	}
	if !opts.Policy.Valid() {
		return nil, fmt.Errorf("unknown structural error policy %q", opts.Policy)
	}
	if opts.Workers < 0 {
		return nil, fmt.Errorf("workers must not be negative")
	}
	if opts.Workers == 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewUUID == nil {
		opts.NewUUID = uuid.New
	}

	log := opts.Logger
	if log == nil {
		log = logging.Nop()
	}

	parserOpts := []outline.Option{outline.WithTrimContinuation(opts.TrimContinuation)}
	if opts.Policy == PolicyProse {
		parserOpts = append(parserOpts, outline.WithOrphanPolicy(outline.OrphanAsProse))
	}

	return &Builder{
		opts:   opts,
		parser: outline.NewParser(parserOpts...),
		log:    log,
	}, nil
}

// job is one row with control text awaiting its statement parse.
type job struct {
	row   source.Row
	group int
	root  *outline.Node
	err   error
}

// Build assembles rows into a document. Consecutive rows of the same family
// form one group; rows without control text only contribute to grouping.
func (b *Builder) Build(ctx context.Context, rows []source.Row) (*Document, *Report, error) {
	report := &Report{Rows: len(rows)}

	var groups []Group
	var jobs []*job
	family := ""
	for i, row := range rows {
		if i == 0 || row.Family != family {
			groups = append(groups, Group{
				ID:    controlid.GroupID(row.ControlID),
				Class: GroupClass,
				Title: strings.TrimSpace(row.Family),
			})
			family = row.Family
		}
		if !row.HasControlText() {
			continue
		}
		if err := row.Validate(); err != nil {
			cerr := &ControlError{ControlID: row.ControlID, Line: row.Line, Err: fmt.Errorf("%w: %w", ErrInvalidRow, err)}
			if err := b.reject(report, cerr); err != nil {
				return nil, report, err
			}
			continue
		}
		jobs = append(jobs, &job{row: row, group: len(groups) - 1})
	}

	if err := b.parseAll(ctx, jobs); err != nil {
		return nil, report, err
	}

	for _, j := range jobs {
		if j.err != nil {
			cerr := &ControlError{ControlID: j.row.ControlID, Line: j.row.Line, Err: j.err}
			if err := b.reject(report, cerr); err != nil {
				return nil, report, err
			}
			continue
		}
		groups[j.group].Controls = append(groups[j.group].Controls, b.control(j.row, j.root))
		report.Controls++
	}

	doc := &Document{
		Catalog: Catalog{
			UUID: b.opts.NewUUID().String(),
			Metadata: Metadata{
				Title:        b.opts.Title,
				LastModified: b.opts.Now().Format(time.RFC3339),
				Version:      b.opts.Version,
				OSCALVersion: b.opts.OSCALVersion,
			},
		},
	}
	for _, g := range groups {
		if len(g.Controls) > 0 {
			doc.Catalog.Groups = append(doc.Catalog.Groups, g)
		}
	}
	report.Groups = len(doc.Catalog.Groups)

	b.log.Debug("catalog built",
		"rows", report.Rows,
		"controls", report.Controls,
		"groups", report.Groups,
		"skipped", len(report.Skipped))

	return doc, report, nil
}

// reject applies the error policy to a failed control.
func (b *Builder) reject(report *Report, cerr *ControlError) error {
	if b.opts.Policy == PolicyAbort {
		return cerr
	}
	b.log.Warn("skipping control", "control", cerr.ControlID, "line", cerr.Line, "error", cerr.Err)
	report.Skipped = append(report.Skipped, Skip{
		ControlID: cerr.ControlID,
		Line:      cerr.Line,
		Reason:    cerr.Err.Error(),
	})
	return nil
}

// parseAll parses every statement with at most Workers goroutines. Results
// land on the job, so output order follows row order.
func (b *Builder) parseAll(ctx context.Context, jobs []*job) error {
	var wg sync.WaitGroup
	semaphore := make(chan struct{}, b.opts.Workers)

	for _, j := range jobs {
		if err := ctx.Err(); err != nil {
			wg.Wait()
			return err
		}
		wg.Add(1)
		go func(j *job) {
			defer wg.Done()

			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			if ctx.Err() != nil {
				j.err = ctx.Err()
				return
			}
			j.root, j.err = b.parser.Parse(j.row.ControlText, controlid.StatementID(j.row.ControlID))
		}(j)
	}
	wg.Wait()

	return ctx.Err()
}

func (b *Builder) control(row source.Row, root *outline.Node) Control {
	sid := controlid.StatementID(row.ControlID)
	rawID := strings.TrimSpace(row.ControlID)

	parts := []part.Part{part.Statement(root, sid)}
	annotations := []struct {
		suffix string
		kind   string
		text   string
	}{
		{controlid.SuffixImplementation, part.KindImplementation, row.Implementation},
		{controlid.SuffixHVA, part.KindHVA, row.HVAStandards},
		{controlid.SuffixPrivacy, part.KindPrivacy, row.PrivacyStandards},
		{controlid.SuffixGuidance, part.KindGuidance, row.Discussion},
	}
	for _, a := range annotations {
		if text := strings.TrimSpace(a.text); text != "" {
			parts = append(parts, part.Additional(controlid.PartID(sid, a.suffix), a.kind, text))
		}
	}

	return Control{
		ID:    controlid.TrimStatement(sid),
		Class: b.opts.ControlClass,
		Title: strings.TrimSpace(row.Name),
		Props: []part.Property{
			{Name: part.PropLabel, Value: rawID},
			{Name: PropSortID, Value: controlid.SortID(rawID)},
		},
		Links: relatedLinks(row.Related),
		Parts: parts,
	}
}

// relatedLinks splits a related-controls cell on spaces and commas. Entries
// starting with "None" are placeholders and are dropped.
func relatedLinks(related string) []Link {
	related = strings.TrimSpace(related)
	if related == "" {
		return nil
	}
	var links []Link
	seen := make(map[string]bool)
	for _, entry := range strings.Split(strings.ReplaceAll(related, " ", ","), ",") {
		if strings.HasPrefix(entry, "None") {
			continue
		}
		id := controlid.Normalize(entry)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		links = append(links, Link{Href: "#" + id, Rel: RelRelated})
	}
	return links
}
