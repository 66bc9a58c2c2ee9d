package extract

import (
	"context"
	"regexp"
	"strings"
)

const (
	marksSubject = iota
	marksCode
	marksExam
	marksMax
	marksObtained
	marksGrade
)

var marksColumns = []column{
	marksSubject:  {labels: []string{"subject", "course"}, exclude: []string{"code"}, fallback: 1},
	marksCode:     {labels: []string{"subjectcode", "code"}, fallback: -1},
	marksExam:     {labels: []string{"examtype", "exam", "event", "test"}, fallback: 2},
	marksMax:      {labels: []string{"maxmarks", "max", "outof", "fullmarks"}, fallback: 3},
	marksObtained: {labels: []string{"obtained", "secured", "score", "marks"}, exclude: []string{"max", "outof", "full"}, fallback: 4},
	marksGrade:    {labels: []string{"grade"}, fallback: 5},
}

// pivot layouts carry one column per exam, eg. "T1 (20)"
var pivotHeader = regexp.MustCompile(`^(.+?)\s*\(\s*(\d+(?:\.\d+)?)\s*\)$`)

type pivotColumn struct {
	index    int
	examType string
	max      string
}

func (e Extractor) pivotColumns(header []string, skip ...int) []pivotColumn {
	var out []pivotColumn
outer:
	for i, h := range header {
		for _, s := range skip {
			if i == s {
				continue outer
			}
		}
		m := pivotHeader.FindStringSubmatch(h)
		if m == nil {
			continue
		}
		out = append(out, pivotColumn{
			index:    i,
			examType: strings.TrimSpace(m[1]),
			max:      m[2],
		})
	}
	return out
}

func (e Extractor) Marks(ctx context.Context, markup []byte) Extraction[Marks] {
	return extractKind(ctx, e, KindMarks, markup, func(header []string) rowDecoder[Marks] {
		cols := e.resolveColumns(header, marksColumns)

		var pivot []pivotColumn
		if header != nil && cols[marksExam] < 0 {
			pivot = e.pivotColumns(header, cols[marksSubject], cols[marksCode])
		}
		if len(pivot) > 0 {
			return e.pivotMarks(cols, pivot)
		}
		return e.rowMarks(cols)
	})
}

func (e Extractor) rowMarks(cols []int) rowDecoder[Marks] {
	return func(cells []string) ([]Marks, error) {
		subject, code, err := e.subject(cells, cols[marksSubject], cols[marksCode])
		if err != nil {
			return nil, err
		}
		obtained, err := e.number(cell(cells, cols[marksObtained]))
		if err != nil {
			return nil, err
		}
		// not graded yet
		if obtained == nil {
			return nil, nil
		}
		maxMarks, err := e.number(cell(cells, cols[marksMax]))
		if err != nil {
			return nil, err
		}
		return []Marks{{
			Subject:       subject,
			SubjectCode:   code,
			ExamType:      e.text(cell(cells, cols[marksExam])),
			MaxMarks:      maxMarks,
			ObtainedMarks: *obtained,
			Grade:         e.text(cell(cells, cols[marksGrade])),
		}}, nil
	}
}

func (e Extractor) pivotMarks(cols []int, pivot []pivotColumn) rowDecoder[Marks] {
	return func(cells []string) ([]Marks, error) {
		subject, code, err := e.subject(cells, cols[marksSubject], cols[marksCode])
		if err != nil {
			return nil, err
		}

		var out []Marks
		for _, p := range pivot {
			obtained, err := e.number(cell(cells, p.index))
			if err != nil {
				return nil, err
			}
			if obtained == nil {
				continue
			}
			maxMarks, err := e.number(p.max)
			if err != nil {
				return nil, err
			}
			out = append(out, Marks{
				Subject:       subject,
				SubjectCode:   code,
				ExamType:      p.examType,
				MaxMarks:      maxMarks,
				ObtainedMarks: *obtained,
				Grade:         e.text(cell(cells, cols[marksGrade])),
			})
		}
		return out, nil
	}
}
