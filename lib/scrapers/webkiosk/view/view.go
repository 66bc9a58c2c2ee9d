package view

import (
	"context"
	"errors"
	"fmt"
	"kioskassist/lib/scrapers/webkiosk/core"
	"kioskassist/lib/scrapers/webkiosk/extract"
	"kioskassist/lib/scrapers/webkiosk/session"
	"kioskassist/lib/telemetry"
	"log/slog"
	"net/http"

	"dario.cat/mergo"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = telemetry.Tracer("kioskassist.lib.scrapers.webkiosk.view")

// Endpoints are the data pages of each record kind, relative to the
// portal root.
type Endpoints struct {
	Attendance   string `json:"attendance"`
	Marks        string `json:"marks"`
	CGPA         string `json:"cgpa"`
	Subjects     string `json:"subjects"`
	Faculty      string `json:"faculty"`
	Disciplinary string `json:"disciplinary"`
	Seating      string `json:"seating"`
}

func DefaultEndpoints() Endpoints {
	return Endpoints{
		Attendance:   "StudentFiles/Academic/StudentAttendanceList.jsp",
		Marks:        "StudentFiles/Exam/StudentEventMarksView.jsp",
		CGPA:         "StudentFiles/Exam/StudCGPAReport.jsp",
		Subjects:     "StudentFiles/Academic/StudSubjectTaken.jsp",
		Faculty:      "StudentFiles/Academic/StudSubjectFaculty.jsp",
		Disciplinary: "StudentFiles/Academic/StudentDisciplinaryAction.jsp",
		Seating:      "StudentFiles/Exam/StudViewSeatPlan.jsp",
	}
}

type Options struct {
	Endpoints Endpoints      `json:"endpoints"`
	Extract   extract.Config `json:"extract"`
}

type Fetcher struct {
	Guardian  *session.Guardian
	extractor extract.Extractor
	endpoints Endpoints
}

func NewFetcher(guardian *session.Guardian, opts Options) (*Fetcher, error) {
	err := mergo.Merge(&opts.Endpoints, DefaultEndpoints())
	if err != nil {
		return nil, err
	}
	extractor, err := extract.NewExtractor(opts.Extract)
	if err != nil {
		return nil, err
	}
	return &Fetcher{
		Guardian:  guardian,
		extractor: extractor,
		endpoints: opts.Endpoints,
	}, nil
}

// Login authenticates and, since `creds` are explicit, saves them to the
// credential cache.
func (f *Fetcher) Login(ctx context.Context, creds core.Credentials) error {
	_, err := f.Guardian.EnsureSession(ctx, &creds)
	return err
}

func (f *Fetcher) fetchPage(ctx context.Context, path string) ([]byte, error) {
	client := f.Guardian.Client()
	res, err := client.Fetch(ctx, core.Request{Method: http.MethodGet, Path: path})
	if err != nil {
		return nil, err
	}
	if client.SessionExpired(res) {
		return nil, core.ErrSessionTimeout
	}
	if res.Status != http.StatusOK {
		return nil, fmt.Errorf("%w: %s returned status %d", core.ErrPageUnavailable, path, res.Status)
	}
	return res.Body, nil
}

// fetchKind fetches and decodes one page of an already established
// session, a timed out session is logged into again and the page fetched
// exactly once more.
func fetchKind[T any](
	ctx context.Context,
	f *Fetcher,
	kind extract.Kind,
	path string,
	decode func(context.Context, []byte) extract.Extraction[T],
) ([]T, error) {
	ctx, span := tracer.Start(ctx, "fetcher:"+string(kind))
	defer span.End()

	generation := f.Guardian.Generation()
	body, err := f.fetchPage(ctx, path)
	if errors.Is(err, core.ErrSessionTimeout) {
		span.AddEvent("session timed out, logging in again")
		err = f.Guardian.ReloginAfter(ctx, generation)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to login again")
			return nil, err
		}
		body, err = f.fetchPage(ctx, path)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch page")
		return nil, err
	}

	result := decode(ctx, body)
	span.SetAttributes(
		attribute.Int("records", len(result.Records)),
		attribute.Int("anomalies", len(result.Anomalies)),
	)
	// a page without the table is a student without such records
	err = result.Err()
	if err != nil {
		span.AddEvent("no data table", trace.WithAttributes(attribute.String("reason", err.Error())))
		slog.DebugContext(ctx, "page has no data table", "kind", kind, "path", path)
		return nil, nil
	}
	return result.Records, nil
}

func getKind[T any](
	ctx context.Context,
	f *Fetcher,
	creds *core.Credentials,
	kind extract.Kind,
	path string,
	decode func(context.Context, []byte) extract.Extraction[T],
) ([]T, error) {
	_, err := f.Guardian.EnsureSession(ctx, creds)
	if err != nil {
		return nil, err
	}
	return fetchKind(ctx, f, kind, path, decode)
}

// each getter logs in with `creds` (or the cached credentials when nil)
// before fetching.

func (f *Fetcher) Attendance(ctx context.Context, creds *core.Credentials) ([]extract.Attendance, error) {
	return getKind(ctx, f, creds, extract.KindAttendance, f.endpoints.Attendance, f.extractor.Attendance)
}

func (f *Fetcher) Marks(ctx context.Context, creds *core.Credentials) ([]extract.Marks, error) {
	return getKind(ctx, f, creds, extract.KindMarks, f.endpoints.Marks, f.extractor.Marks)
}

func (f *Fetcher) CGPA(ctx context.Context, creds *core.Credentials) ([]extract.CGPARecord, error) {
	return getKind(ctx, f, creds, extract.KindCGPA, f.endpoints.CGPA, f.extractor.CGPA)
}

func (f *Fetcher) Subjects(ctx context.Context, creds *core.Credentials) ([]extract.SubjectInfo, error) {
	return getKind(ctx, f, creds, extract.KindSubjects, f.endpoints.Subjects, f.extractor.Subjects)
}

func (f *Fetcher) SubjectFaculty(ctx context.Context, creds *core.Credentials) ([]extract.SubjectFaculty, error) {
	return getKind(ctx, f, creds, extract.KindFaculty, f.endpoints.Faculty, f.extractor.SubjectFaculty)
}

func (f *Fetcher) DisciplinaryActions(ctx context.Context, creds *core.Credentials) ([]extract.DisciplinaryAction, error) {
	return getKind(ctx, f, creds, extract.KindDisciplinary, f.endpoints.Disciplinary, f.extractor.DisciplinaryActions)
}

func (f *Fetcher) SeatingPlan(ctx context.Context, creds *core.Credentials) ([]extract.SeatingPlan, error) {
	return getKind(ctx, f, creds, extract.KindSeating, f.endpoints.Seating, f.extractor.SeatingPlan)
}
