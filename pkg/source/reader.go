package source

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// DefaultSkipRows skips the title and header rows of an exported workbook.
const DefaultSkipRows = 2

// Options controls how a control sheet is read.
type Options struct {
	// Encoding of the input: "utf-8" (default), "windows-1252" or "iso-8859-1".
	Encoding string `yaml:"encoding"`
	// SkipRows is the number of leading records ignored before data rows.
	SkipRows int `yaml:"skip_rows"`
	// MaxRows stops reading after this many data records. Zero means no limit.
	MaxRows int `yaml:"max_rows"`
	// Columns maps fields to column indexes.
	Columns ColumnMap `yaml:"columns"`
}

// DefaultOptions returns options for the standard workbook export.
func DefaultOptions() Options {
	return Options{
		Encoding: "utf-8",
		SkipRows: DefaultSkipRows,
		Columns:  DefaultColumnMap(),
	}
}

var encodings = map[string]encoding.Encoding{
	"":             unicode.UTF8BOM,
	"utf-8":        unicode.UTF8BOM,
	"utf8":         unicode.UTF8BOM,
	"windows-1252": charmap.Windows1252,
	"cp1252":       charmap.Windows1252,
	"iso-8859-1":   charmap.ISO8859_1,
	"latin1":       charmap.ISO8859_1,
}

// SupportedEncoding reports whether name is a known input encoding.
func SupportedEncoding(name string) bool {
	_, ok := encodings[strings.ToLower(strings.TrimSpace(name))]
	return ok
}

// Reader reads control rows from CSV input.
type Reader struct {
	opts Options
}

// NewReader creates a Reader, filling unset options with defaults.
func NewReader(opts Options) (*Reader, error) {
	if opts.Columns == nil {
		opts.Columns = DefaultColumnMap()
	}
	if err := opts.Columns.Validate(); err != nil {
		return nil, err
	}
	if !SupportedEncoding(opts.Encoding) {
		return nil, fmt.Errorf("unsupported encoding %q", opts.Encoding)
	}
	if opts.SkipRows < 0 || opts.MaxRows < 0 {
		return nil, fmt.Errorf("skip_rows and max_rows must not be negative")
	}
	return &Reader{opts: opts}, nil
}

// Read decodes every data row from r. Records whose first cell is blank are
// skipped, matching the blank spacer rows of the workbook.
func (sr *Reader) Read(r io.Reader) ([]Row, error) {
	enc := encodings[strings.ToLower(strings.TrimSpace(sr.opts.Encoding))]

	cr := csv.NewReader(transform.NewReader(r, enc.NewDecoder()))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	var rows []Row
	record := 0
	data := 0
	for {
		fields, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading record %d: %w", record+1, err)
		}
		record++

		if record <= sr.opts.SkipRows {
			continue
		}
		if sr.opts.MaxRows > 0 && data >= sr.opts.MaxRows {
			break
		}
		data++

		if len(fields) == 0 || strings.TrimSpace(fields[0]) == "" {
			continue
		}
		row := sr.opts.Columns.row(fields)
		row.Line = record
		rows = append(rows, row)
	}

	return rows, nil
}

// ReadFile reads rows from the file at path.
func (sr *Reader) ReadFile(path string) ([]Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening source: %w", err)
	}
	defer f.Close()

	rows, err := sr.Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rows, nil
}

// Expand resolves each pattern to files. Plain paths are kept as given;
// patterns are expanded with doublestar ("**" matches across directories).
// The result keeps first-seen order and has no duplicates.
func Expand(patterns []string) ([]string, error) {
	seen := make(map[string]bool)
	var files []string

	for _, pattern := range patterns {
		if _, err := os.Stat(pattern); err == nil {
			if !seen[pattern] {
				seen[pattern] = true
				files = append(files, pattern)
			}
			continue
		}

		matches, err := doublestar.FilepathGlob(pattern)
		if err != nil {
			return nil, fmt.Errorf("expanding %q: %w", pattern, err)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("no source files match %q", pattern)
		}
		sort.Strings(matches)
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				files = append(files, m)
			}
		}
	}

	return files, nil
}
