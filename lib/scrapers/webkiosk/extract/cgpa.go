package extract

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

const (
	cgpaSemester = iota
	cgpaGradePoints
	cgpaCourseCredits
	cgpaEarnedCredits
	cgpaSGPA
	cgpaCGPA
)

var cgpaColumns = []column{
	cgpaSemester:      {labels: []string{"semester", "sem"}, fallback: 0},
	cgpaGradePoints:   {labels: []string{"pointssecured", "gradepoints", "points"}, fallback: 4},
	cgpaCourseCredits: {labels: []string{"coursecredit", "registeredcredit", "totalcredit"}, fallback: 2},
	cgpaEarnedCredits: {labels: []string{"earnedcredit", "earned"}, fallback: 3},
	cgpaSGPA:          {labels: []string{"sgpa"}, fallback: 5},
	cgpaCGPA:          {labels: []string{"cgpa"}, fallback: 6},
}

func (e Extractor) semester(cells []string, idx int) (int, error) {
	text := e.text(cell(cells, idx))
	if text == "" {
		text = cells[0]
	}
	text = strings.TrimSuffix(strings.TrimSpace(text), ".")
	semester, err := strconv.Atoi(text)
	if err != nil {
		return 0, fmt.Errorf("%q is not a semester", text)
	}
	return semester, nil
}

func (e Extractor) CGPA(ctx context.Context, markup []byte) Extraction[CGPARecord] {
	return extractKind(ctx, e, KindCGPA, markup, func(header []string) rowDecoder[CGPARecord] {
		cols := e.resolveColumns(header, cgpaColumns)

		return func(cells []string) ([]CGPARecord, error) {
			semester, err := e.semester(cells, cols[cgpaSemester])
			if err != nil {
				return nil, err
			}

			var values [5]*float64
			for i, idx := range []int{
				cols[cgpaGradePoints],
				cols[cgpaCourseCredits],
				cols[cgpaEarnedCredits],
				cols[cgpaSGPA],
				cols[cgpaCGPA],
			} {
				values[i], err = e.number(cell(cells, idx))
				if err != nil {
					return nil, err
				}
			}

			return []CGPARecord{{
				Semester:      semester,
				GradePoints:   values[0],
				CourseCredits: values[1],
				EarnedCredits: values[2],
				SGPA:          values[3],
				CGPA:          values[4],
			}}, nil
		}
	})
}
