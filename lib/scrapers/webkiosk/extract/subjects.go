package extract

import (
	"context"
	"errors"
)

const (
	subjCode = iota
	subjName
	subjCredits
	subjType
	subjComponents
)

var subjectColumns = []column{
	subjCode:       {labels: []string{"subjectcode", "coursecode", "code"}, fallback: 1},
	subjName:       {labels: []string{"subjectname", "subject", "course"}, exclude: []string{"code"}, fallback: 2},
	subjCredits:    {labels: []string{"credit"}, fallback: 3},
	subjType:       {labels: []string{"coursetype", "subjecttype", "type", "elective"}, fallback: 4},
	subjComponents: {labels: []string{"component", "l/t/p", "ltp"}, fallback: 5},
}

func (e Extractor) Subjects(ctx context.Context, markup []byte) Extraction[SubjectInfo] {
	return extractKind(ctx, e, KindSubjects, markup, func(header []string) rowDecoder[SubjectInfo] {
		cols := e.resolveColumns(header, subjectColumns)

		return func(cells []string) ([]SubjectInfo, error) {
			subject, code, err := e.subject(cells, cols[subjName], cols[subjCode])
			if err != nil {
				return nil, err
			}
			credits, err := e.number(cell(cells, cols[subjCredits]))
			if err != nil {
				return nil, err
			}
			return []SubjectInfo{{
				Subject:     subject,
				SubjectCode: code,
				Credits:     credits,
				CourseType:  e.text(cell(cells, cols[subjType])),
				Components:  e.text(cell(cells, cols[subjComponents])),
			}}, nil
		}
	})
}

const (
	facSubject = iota
	facCode
	facLecture
	facTutorial
	facPractical
)

var facultyColumns = []column{
	facSubject:   {labels: []string{"subject", "course"}, exclude: []string{"code", "faculty"}, fallback: 1},
	facCode:      {labels: []string{"subjectcode", "code"}, fallback: -1},
	facLecture:   {labels: []string{"lecture"}, exclude: []string{"tutorial"}, fallback: 2},
	facTutorial:  {labels: []string{"tutorial"}, exclude: []string{"lecture"}, fallback: 3},
	facPractical: {labels: []string{"practical"}, fallback: 4},
}

func (e Extractor) SubjectFaculty(ctx context.Context, markup []byte) Extraction[SubjectFaculty] {
	return extractKind(ctx, e, KindFaculty, markup, func(header []string) rowDecoder[SubjectFaculty] {
		cols := e.resolveColumns(header, facultyColumns)

		return func(cells []string) ([]SubjectFaculty, error) {
			subject, code, err := e.subject(cells, cols[facSubject], cols[facCode])
			if err != nil {
				return nil, err
			}
			return []SubjectFaculty{{
				Subject:          subject,
				SubjectCode:      code,
				LectureFaculty:   e.text(cell(cells, cols[facLecture])),
				TutorialFaculty:  e.text(cell(cells, cols[facTutorial])),
				PracticalFaculty: e.text(cell(cells, cols[facPractical])),
			}}, nil
		}
	})
}

const (
	discDate = iota
	discReason
	discAction
	discRemarks
)

var disciplinaryColumns = []column{
	discDate:    {labels: []string{"date"}, fallback: 1},
	discReason:  {labels: []string{"reason", "description", "offence", "detail"}, fallback: 2},
	discAction:  {labels: []string{"actiontaken", "action", "penalty"}, fallback: 3},
	discRemarks: {labels: []string{"remark"}, fallback: 4},
}

func (e Extractor) DisciplinaryActions(ctx context.Context, markup []byte) Extraction[DisciplinaryAction] {
	return extractKind(ctx, e, KindDisciplinary, markup, func(header []string) rowDecoder[DisciplinaryAction] {
		cols := e.resolveColumns(header, disciplinaryColumns)

		return func(cells []string) ([]DisciplinaryAction, error) {
			action := DisciplinaryAction{
				Date:    e.text(cell(cells, cols[discDate])),
				Reason:  e.text(cell(cells, cols[discReason])),
				Action:  e.text(cell(cells, cols[discAction])),
				Remarks: e.text(cell(cells, cols[discRemarks])),
			}
			if action.Reason == "" && action.Action == "" {
				return nil, errors.New("missing reason and action")
			}
			return []DisciplinaryAction{action}, nil
		}
	})
}

const (
	seatDate = iota
	seatTime
	seatSubject
	seatCode
	seatRoom
	seatSeat
)

var seatingColumns = []column{
	seatDate:    {labels: []string{"date"}, fallback: 1},
	seatTime:    {labels: []string{"time", "shift", "slot"}, fallback: 2},
	seatSubject: {labels: []string{"subject", "course", "paper"}, exclude: []string{"code"}, fallback: 3},
	seatCode:    {labels: []string{"subjectcode", "code"}, fallback: -1},
	seatRoom:    {labels: []string{"room", "venue", "hall"}, fallback: 4},
	seatSeat:    {labels: []string{"seat"}, fallback: 5},
}

func (e Extractor) SeatingPlan(ctx context.Context, markup []byte) Extraction[SeatingPlan] {
	return extractKind(ctx, e, KindSeating, markup, func(header []string) rowDecoder[SeatingPlan] {
		cols := e.resolveColumns(header, seatingColumns)

		return func(cells []string) ([]SeatingPlan, error) {
			subject, code, err := e.subject(cells, cols[seatSubject], cols[seatCode])
			if err != nil {
				return nil, err
			}
			return []SeatingPlan{{
				Subject:     subject,
				SubjectCode: code,
				Date:        e.text(cell(cells, cols[seatDate])),
				Time:        e.text(cell(cells, cols[seatTime])),
				Room:        e.text(cell(cells, cols[seatRoom])),
				Seat:        e.text(cell(cells, cols[seatSeat])),
			}}, nil
		}
	})
}
