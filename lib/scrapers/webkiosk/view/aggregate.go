package view

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"kioskassist/lib/scrapers/webkiosk/core"
	"kioskassist/lib/scrapers/webkiosk/extract"
	"sync"
)

// Result is the outcome of one category of an aggregate fetch, a failed
// category never hides the records of the others.
type Result[T any] struct {
	Records []T   `json:"records"`
	Err     error `json:"-"`
}

type resultJson[T any] struct {
	Records []T    `json:"records"`
	Error   string `json:"error,omitempty"`
}

// MarshalJSON writes a failed category's error message next to its
// (empty) records.
func (r Result[T]) MarshalJSON() ([]byte, error) {
	out := resultJson[T]{Records: r.Records}
	if r.Err != nil {
		out.Error = r.Err.Error()
	}
	return json.Marshal(out)
}

type AcademicData struct {
	Attendance   Result[extract.Attendance]         `json:"attendance"`
	Subjects     Result[extract.SubjectInfo]        `json:"subjects"`
	Faculty      Result[extract.SubjectFaculty]     `json:"faculty"`
	Disciplinary Result[extract.DisciplinaryAction] `json:"disciplinary"`
}

// Err joins the errors of every failed category.
func (d AcademicData) Err() error {
	return errors.Join(
		categoryErr("attendance", d.Attendance.Err),
		categoryErr("subjects", d.Subjects.Err),
		categoryErr("faculty", d.Faculty.Err),
		categoryErr("disciplinary", d.Disciplinary.Err),
	)
}

type ExamData struct {
	Marks   Result[extract.Marks]       `json:"marks"`
	CGPA    Result[extract.CGPARecord]  `json:"cgpa"`
	Seating Result[extract.SeatingPlan] `json:"seating"`
}

func (d ExamData) Err() error {
	return errors.Join(
		categoryErr("marks", d.Marks.Err),
		categoryErr("cgpa", d.CGPA.Err),
		categoryErr("seating", d.Seating.Err),
	)
}

func categoryErr(category string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", category, err)
}

func collect[T any](
	ctx context.Context,
	wg *sync.WaitGroup,
	f *Fetcher,
	out *Result[T],
	kind extract.Kind,
	path string,
	decode func(context.Context, []byte) extract.Extraction[T],
) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		records, err := fetchKind(ctx, f, kind, path, decode)
		*out = Result[T]{Records: records, Err: err}
	}()
}

// AllAcademicData logs in once and fetches attendance, subjects, faculty
// and disciplinary actions concurrently. The error is only set when the
// login failed, failed categories are reported in their Result.
func (f *Fetcher) AllAcademicData(ctx context.Context, creds *core.Credentials) (AcademicData, error) {
	ctx, span := tracer.Start(ctx, "fetcher:AllAcademicData")
	defer span.End()

	_, err := f.Guardian.EnsureSession(ctx, creds)
	if err != nil {
		span.RecordError(err)
		return AcademicData{}, err
	}

	var data AcademicData
	wg := sync.WaitGroup{}
	collect(ctx, &wg, f, &data.Attendance, extract.KindAttendance, f.endpoints.Attendance, f.extractor.Attendance)
	collect(ctx, &wg, f, &data.Subjects, extract.KindSubjects, f.endpoints.Subjects, f.extractor.Subjects)
	collect(ctx, &wg, f, &data.Faculty, extract.KindFaculty, f.endpoints.Faculty, f.extractor.SubjectFaculty)
	collect(ctx, &wg, f, &data.Disciplinary, extract.KindDisciplinary, f.endpoints.Disciplinary, f.extractor.DisciplinaryActions)
	wg.Wait()

	return data, nil
}

// AllExamData is AllAcademicData for marks, cgpa and seating plans.
func (f *Fetcher) AllExamData(ctx context.Context, creds *core.Credentials) (ExamData, error) {
	ctx, span := tracer.Start(ctx, "fetcher:AllExamData")
	defer span.End()

	_, err := f.Guardian.EnsureSession(ctx, creds)
	if err != nil {
		span.RecordError(err)
		return ExamData{}, err
	}

	var data ExamData
	wg := sync.WaitGroup{}
	collect(ctx, &wg, f, &data.Marks, extract.KindMarks, f.endpoints.Marks, f.extractor.Marks)
	collect(ctx, &wg, f, &data.CGPA, extract.KindCGPA, f.endpoints.CGPA, f.extractor.CGPA)
	collect(ctx, &wg, f, &data.Seating, extract.KindSeating, f.endpoints.Seating, f.extractor.SeatingPlan)
	wg.Wait()

	return data, nil
}
