// Package snapshots records a daily attendance snapshot per subject so
// changes can be tracked over time.
package snapshots

import (
	"context"
	"database/sql"
	"kioskassist/lib/scrapers/webkiosk/extract"
	"kioskassist/lib/sqliteutil"
	"kioskassist/lib/telemetry"
	"kioskassist/lib/timezone"
	"kioskassist/services/snapshots/db"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = telemetry.Tracer("kioskassist.services.snapshots")

type Store struct {
	db  *sql.DB
	qry *db.Queries
}

func NewStore(database *sql.DB) Store {
	return Store{
		db:  database,
		qry: db.New(database),
	}
}

func Open(path string) (Store, error) {
	database, err := sqliteutil.OpenDB(db.Schema, path)
	if err != nil {
		return Store{}, err
	}
	return NewStore(database), nil
}

func (s Store) Close() error {
	return s.db.Close()
}

type SubjectSnapshot struct {
	Subject    string  `json:"subject"`
	Percentage float64 `json:"percentage"`
}

type StudentSnapshot struct {
	EnrollmentID string            `json:"enrollment_id"`
	Subjects     []SubjectSnapshot `json:"subjects"`
}

// FromAttendance turns scraped attendance into a snapshot, rows without
// a subject name are dropped.
func FromAttendance(enrollmentId string, records []extract.Attendance) StudentSnapshot {
	snapshot := StudentSnapshot{EnrollmentID: enrollmentId}
	for _, r := range records {
		if r.Subject == "" {
			continue
		}
		snapshot.Subjects = append(snapshot.Subjects, SubjectSnapshot{
			Subject:    r.Subject,
			Percentage: r.Percentage,
		})
	}
	return snapshot
}

type PushRequest struct {
	Time     time.Time
	Students []StudentSnapshot
}

// Push stores the snapshots, replacing whatever was pushed earlier on the
// same (IST) day for the same students.
func (s Store) Push(ctx context.Context, req PushRequest) error {
	ctx, span := tracer.Start(ctx, "Push")
	defer span.End()

	err := s.push(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to push snapshots")
		return err
	}
	return nil
}

func (s Store) push(ctx context.Context, req PushRequest) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	txqry := s.qry.WithTx(tx)

	startOfToday := timezone.StartOfDay(req.Time)
	startOfTomorrow := startOfToday.AddDate(0, 0, 1)

	enrollments := make([]string, len(req.Students))
	for i, v := range req.Students {
		enrollments[i] = v.EnrollmentID
	}
	err = txqry.DeleteAttendanceSnapshotsIn(ctx, db.DeleteAttendanceSnapshotsInParams{
		After:       startOfToday.Unix(),
		Before:      startOfTomorrow.Unix(),
		Enrollments: enrollments,
	})
	if err != nil {
		return err
	}

	for _, student := range req.Students {
		for _, subject := range student.Subjects {
			err := txqry.CreateStudentSubject(ctx, db.CreateStudentSubjectParams{
				EnrollmentID: student.EnrollmentID,
				Subject:      subject.Subject,
			})
			if err != nil {
				return err
			}

			studentSubjectId, err := txqry.GetStudentSubjectId(ctx, db.GetStudentSubjectIdParams{
				EnrollmentID: student.EnrollmentID,
				Subject:      subject.Subject,
			})
			if err != nil {
				return err
			}

			err = txqry.CreateAttendanceSnapshot(ctx, db.CreateAttendanceSnapshotParams{
				StudentSubjectID: studentSubjectId,
				Time:             req.Time.Unix(),
				Percentage:       subject.Percentage,
			})
			if err != nil {
				return err
			}
		}
	}
	return tx.Commit()
}

type AttendanceSnapshot struct {
	Time       time.Time `json:"time"`
	Percentage float64   `json:"percentage"`
}

type SubjectSeries struct {
	Subject   string               `json:"subject"`
	Snapshots []AttendanceSnapshot `json:"snapshots"`
}

// Change is the difference between the two most recent snapshots.
func (s SubjectSeries) Change() (float64, bool) {
	if len(s.Snapshots) < 2 {
		return 0, false
	}
	last := s.Snapshots[len(s.Snapshots)-1]
	previous := s.Snapshots[len(s.Snapshots)-2]
	return last.Percentage - previous.Percentage, true
}

// Pull returns every subject's snapshots in chronological order, subjects
// are in the order they were first seen.
func (s Store) Pull(ctx context.Context, enrollmentId string) ([]SubjectSeries, error) {
	ctx, span := tracer.Start(ctx, "Pull")
	defer span.End()
	span.SetAttributes(attribute.String("enrollment_id", enrollmentId))

	rows, err := s.qry.GetAttendanceSnapshots(ctx, enrollmentId)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to read snapshots")
		return nil, err
	}

	var subjects []SubjectSeries
	index := make(map[string]int)
	for _, r := range rows {
		i, ok := index[r.Subject]
		if !ok {
			i = len(subjects)
			index[r.Subject] = i
			subjects = append(subjects, SubjectSeries{Subject: r.Subject})
		}
		subjects[i].Snapshots = append(subjects[i].Snapshots, AttendanceSnapshot{
			Time:       time.Unix(r.Time, 0).In(timezone.Location),
			Percentage: r.Percentage,
		})
	}
	return subjects, nil
}
