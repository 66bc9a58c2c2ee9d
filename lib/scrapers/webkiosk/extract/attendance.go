package extract

import "context"

// ResolvePercentage picks the overall attendance of a subject from the
// columns the portal filled in: the combined lecture+tutorial value, the
// mean of lecture and tutorial, lecture alone, practical alone, tutorial
// alone and finally 0.
func ResolvePercentage(combined, lecture, tutorial, practical *float64) float64 {
	switch {
	case combined != nil:
		return *combined
	case lecture != nil && tutorial != nil:
		return (*lecture + *tutorial) / 2
	case lecture != nil:
		return *lecture
	case practical != nil:
		return *practical
	case tutorial != nil:
		return *tutorial
	}
	return 0
}

const (
	attSubject = iota
	attCode
	attCombined
	attLecture
	attTutorial
	attPractical
)

var attendanceColumns = []column{
	attSubject:   {labels: []string{"subject", "course"}, exclude: []string{"code"}, fallback: 1},
	attCode:      {labels: []string{"subjectcode", "code"}, fallback: -1},
	attCombined:  {labels: []string{"lecture+tutorial", "l+t"}, fallback: 2},
	attLecture:   {labels: []string{"lecture"}, exclude: []string{"tutorial", "+"}, fallback: 3},
	attTutorial:  {labels: []string{"tutorial"}, exclude: []string{"lecture", "+"}, fallback: 4},
	attPractical: {labels: []string{"practical"}, fallback: 5},
}

func (e Extractor) Attendance(ctx context.Context, markup []byte) Extraction[Attendance] {
	return extractKind(ctx, e, KindAttendance, markup, func(header []string) rowDecoder[Attendance] {
		cols := e.resolveColumns(header, attendanceColumns)

		return func(cells []string) ([]Attendance, error) {
			subject, code, err := e.subject(cells, cols[attSubject], cols[attCode])
			if err != nil {
				return nil, err
			}

			var values [4]*float64
			for i, idx := range []int{cols[attCombined], cols[attLecture], cols[attTutorial], cols[attPractical]} {
				values[i], err = e.number(cell(cells, idx))
				if err != nil {
					return nil, err
				}
			}
			combined, lecture, tutorial, practical := values[0], values[1], values[2], values[3]

			return []Attendance{{
				Subject:                subject,
				SubjectCode:            code,
				Percentage:             ResolvePercentage(combined, lecture, tutorial, practical),
				LecturePercent:         lecture,
				TutorialPercent:        tutorial,
				PracticalPercent:       practical,
				LectureTutorialPercent: combined,
			}}, nil
		}
	})
}
