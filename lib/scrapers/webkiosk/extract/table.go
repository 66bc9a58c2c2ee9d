package extract

import (
	"context"
	"errors"
	"fmt"
	"kioskassist/lib/htmlutil"
	"kioskassist/lib/textutil"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

var ErrNoDataFound = errors.New("could not find the data table on the page")

// ParseAnomaly is a table row that looked like data but could not be
// decoded, it is skipped and never fails the whole table.
type ParseAnomaly struct {
	Kind Kind
	// position of the row in the table, the header row is 0
	Row   int
	Cells []string
	Err   error
}

func (a *ParseAnomaly) Error() string {
	return fmt.Sprintf("%s: row %d: %s", a.Kind, a.Row, a.Err.Error())
}

func (a *ParseAnomaly) Unwrap() error {
	return a.Err
}

// Extraction is the outcome of decoding one page. A page without the
// table and a table without data rows both have no records, TableFound
// tells them apart.
type Extraction[T any] struct {
	Records    []T
	TableFound bool
	Anomalies  []*ParseAnomaly
}

// Err is ErrNoDataFound when the page had no table. It only classifies
// the page, no records is still a valid result.
func (e Extraction[T]) Err() error {
	if !e.TableFound {
		return ErrNoDataFound
	}
	return nil
}

type Extractor struct {
	cfg Config
}

func NewExtractor(cfg Config) (Extractor, error) {
	cfg, err := cfg.withDefaults()
	if err != nil {
		return Extractor{}, err
	}
	return Extractor{cfg: cfg}, nil
}

func DefaultExtractor() Extractor {
	return Extractor{cfg: DefaultConfig()}
}

func (e Extractor) Config() Config {
	return e.cfg
}

var ordinal = regexp.MustCompile(`^\d+\.?$`)

type dataRow struct {
	index int
	cells []string
}

type table struct {
	header []string
	rows   []dataRow
}

func tableRows(sel *goquery.Selection) *goquery.Selection {
	rows := sel.ChildrenFiltered("thead, tbody, tfoot").ChildrenFiltered("tr")
	if rows.Length() == 0 {
		rows = sel.ChildrenFiltered("tr")
	}
	return rows
}

func rowCells(tr *goquery.Selection, skipNested bool) []string {
	var cells []string
	tr.ChildrenFiltered("td, th").Each(func(_ int, cell *goquery.Selection) {
		// layout cells wrapping a whole table say nothing about this row
		if skipNested && cell.Find("table").Length() > 0 {
			cells = append(cells, "")
			return
		}
		cells = append(cells, htmlutil.SelectionText(cell))
	})
	return cells
}

// readTable takes the last heading row before the first data row as the
// header, portal tables often open with a title row spanning all columns.
func readTable(sel *goquery.Selection) table {
	var t table
	seenData := false
	tableRows(sel).Each(func(i int, tr *goquery.Selection) {
		cells := rowCells(tr, false)
		heading := len(cells) == 0 ||
			tr.ChildrenFiltered("th").Length() > 0 ||
			!ordinal.MatchString(cells[0])
		if heading && !seenData {
			if len(cells) >= 2 {
				t.header = rowCells(tr, true)
			}
			return
		}
		seenData = true
		t.rows = append(t.rows, dataRow{index: i, cells: cells})
	})
	return t
}

func (e Extractor) locate(doc *goquery.Document, tc TableConfig) *goquery.Selection {
	for _, selector := range tc.Selectors {
		if selector == "" {
			continue
		}
		match := doc.Find(selector).First()
		if match.Length() == 0 {
			continue
		}
		if goquery.NodeName(match) != "table" {
			match = match.Find("table").First()
		}
		if match.Length() > 0 {
			return match
		}
	}

	if len(tc.HeaderLabels) == 0 {
		return nil
	}
	tables := doc.Find("table")
	matchers := []func(string) bool{
		func(h string) bool { return textutil.MatchName(h, tc.HeaderLabels) },
		func(h string) bool { return textutil.FuzzyMatchName(h, tc.HeaderLabels, e.cfg.FuzzyThreshold) },
	}
	for _, matches := range matchers {
		var found *goquery.Selection
		tables.EachWithBreak(func(_ int, t *goquery.Selection) bool {
			for _, h := range readTable(t).header {
				if h != "" && matches(h) {
					found = t
					return false
				}
			}
			return true
		})
		if found != nil {
			return found
		}
	}
	return nil
}

func (e Extractor) findTable(ctx context.Context, kind Kind, markup []byte) (table, bool) {
	span := trace.SpanFromContext(ctx)

	doc, err := htmlutil.ParseDocument(markup)
	if err != nil {
		slog.WarnContext(ctx, "failed to parse page", "kind", kind, "err", err)
		span.RecordError(err)
		return table{}, false
	}
	sel := e.locate(doc, e.cfg.table(kind))
	if sel == nil || sel.Length() == 0 {
		span.AddEvent("table not found")
		return table{}, false
	}
	return readTable(sel), true
}

type column struct {
	labels  []string
	exclude []string
	// position used when the header matches no column at all
	fallback int
}

func (e Extractor) headerMatches(h string, col column, fuzzy bool) bool {
	if h == "" || textutil.MatchName(h, col.exclude) {
		return false
	}
	if fuzzy {
		return textutil.FuzzyMatchName(h, col.labels, e.cfg.FuzzyThreshold)
	}
	return textutil.MatchName(h, col.labels)
}

// resolveColumns maps each column to its index in the header, -1 when
// the header does not have it. Labels are tried in order so the most
// specific label of a column should come first.
func (e Extractor) resolveColumns(header []string, columns []column) []int {
	out := make([]int, len(columns))
	used := map[int]bool{}
	matched := 0

	for i, col := range columns {
		out[i] = -1
	search:
		for _, label := range col.labels {
			single := column{labels: []string{label}, exclude: col.exclude}
			for j, h := range header {
				if !used[j] && e.headerMatches(h, single, false) {
					out[i] = j
					used[j] = true
					matched++
					break search
				}
			}
		}
	}
	for i, col := range columns {
		if out[i] >= 0 {
			continue
		}
		for j, h := range header {
			if !used[j] && e.headerMatches(h, col, true) {
				out[i] = j
				used[j] = true
				matched++
				break
			}
		}
	}

	if matched == 0 {
		for i, col := range columns {
			out[i] = col.fallback
		}
	}
	return out
}

func cell(cells []string, idx int) string {
	if idx < 0 || idx >= len(cells) {
		return ""
	}
	return cells[idx]
}

func (e Extractor) absent(s string) bool {
	s = strings.TrimSpace(s)
	for _, p := range e.cfg.Placeholders {
		if strings.EqualFold(s, p) {
			return true
		}
	}
	return s == ""
}

func (e Extractor) text(s string) string {
	if e.absent(s) {
		return ""
	}
	return s
}

var numericRun = regexp.MustCompile(`[0-9]+(?:\.[0-9]+)?|\.[0-9]+`)

// number reads the one numeric run of a cell, ignoring units and
// decoration around it. Placeholders and cells without any digits are
// absent, a cell with several runs (eg. "8/10") is an error.
func (e Extractor) number(s string) (*float64, error) {
	if e.absent(s) {
		return nil, nil
	}
	runs := numericRun.FindAllString(s, -1)
	if len(runs) == 0 {
		return nil, nil
	}
	if len(runs) > 1 {
		return nil, fmt.Errorf("%q holds more than one number", s)
	}
	value, err := strconv.ParseFloat(runs[0], 64)
	if err != nil {
		return nil, fmt.Errorf("%q is not a number", s)
	}
	return &value, nil
}

var (
	subjectThenCode = regexp.MustCompile(`^(.*?)\s*(?:-|\(|\[)\s*([0-9]{2}[A-Z][0-9A-Z]{3,9})\s*[\)\]]?$`)
	codeThenSubject = regexp.MustCompile(`^([0-9]{2}[A-Z][0-9A-Z]{3,9})\s*-\s*(.+)$`)
)

// splitSubject separates the subject code the portal appends (or
// prepends) to subject names, eg. "DATA STRUCTURES - 18B11CI311".
func splitSubject(text string) (name, code string) {
	if m := subjectThenCode.FindStringSubmatch(text); m != nil && m[1] != "" {
		return m[1], m[2]
	}
	if m := codeThenSubject.FindStringSubmatch(text); m != nil {
		return m[2], m[1]
	}
	return text, ""
}

func (e Extractor) subject(cells []string, subjectIdx, codeIdx int) (string, string, error) {
	name, code := splitSubject(e.text(cell(cells, subjectIdx)))
	if explicit := e.text(cell(cells, codeIdx)); explicit != "" {
		code = explicit
	}
	if name == "" {
		return "", "", errors.New("missing subject")
	}
	return name, code, nil
}

type rowDecoder[T any] func(cells []string) ([]T, error)

func safeDecode[T any](cells []string, decode rowDecoder[T]) (records []T, err error) {
	defer func() {
		r := recover()
		if r != nil {
			records = nil
			err = fmt.Errorf("panic while decoding row: %v", r)
		}
	}()
	return decode(cells)
}

func decodeRows[T any](ctx context.Context, kind Kind, t table, minColumns int, decode rowDecoder[T]) Extraction[T] {
	span := trace.SpanFromContext(ctx)

	out := Extraction[T]{TableFound: true}
	skipped := 0
	for _, row := range t.rows {
		if len(row.cells) == 0 || len(row.cells) < minColumns || !ordinal.MatchString(row.cells[0]) {
			skipped++
			continue
		}

		records, err := safeDecode(row.cells, decode)
		if err != nil {
			anomaly := &ParseAnomaly{
				Kind:  kind,
				Row:   row.index,
				Cells: row.cells,
				Err:   err,
			}
			slog.WarnContext(ctx, "skipped malformed row", "kind", kind, "row", row.index, "err", err)
			anomalyCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", string(kind))))
			out.Anomalies = append(out.Anomalies, anomaly)
			continue
		}
		out.Records = append(out.Records, records...)
	}

	span.SetAttributes(
		attribute.Int("records", len(out.Records)),
		attribute.Int("skipped_rows", skipped),
		attribute.Int("anomalies", len(out.Anomalies)),
	)
	return out
}

func extractKind[T any](ctx context.Context, e Extractor, kind Kind, markup []byte, decode func(header []string) rowDecoder[T]) Extraction[T] {
	ctx, span := tracer.Start(ctx, "extract:"+string(kind))
	defer span.End()

	t, ok := e.findTable(ctx, kind, markup)
	if !ok {
		return Extraction[T]{}
	}
	return decodeRows(ctx, kind, t, e.cfg.table(kind).MinColumns, decode(t.header))
}
