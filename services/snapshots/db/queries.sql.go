package db

import (
	"context"
	"strings"
)

const createStudentSubject = `insert into student_subject(enrollment_id, subject) values (?, ?)
on conflict do nothing`

type CreateStudentSubjectParams struct {
	EnrollmentID string
	Subject      string
}

func (q *Queries) CreateStudentSubject(ctx context.Context, arg CreateStudentSubjectParams) error {
	_, err := q.db.ExecContext(ctx, createStudentSubject, arg.EnrollmentID, arg.Subject)
	return err
}

const getStudentSubjectId = `select id from student_subject
where enrollment_id = ? and subject = ?`

type GetStudentSubjectIdParams struct {
	EnrollmentID string
	Subject      string
}

func (q *Queries) GetStudentSubjectId(ctx context.Context, arg GetStudentSubjectIdParams) (int64, error) {
	row := q.db.QueryRowContext(ctx, getStudentSubjectId, arg.EnrollmentID, arg.Subject)
	var id int64
	err := row.Scan(&id)
	return id, err
}

const createAttendanceSnapshot = `insert into attendance_snapshot(student_subject_id, time, percentage)
values (?, ?, ?)`

type CreateAttendanceSnapshotParams struct {
	StudentSubjectID int64
	Time             int64
	Percentage       float64
}

func (q *Queries) CreateAttendanceSnapshot(ctx context.Context, arg CreateAttendanceSnapshotParams) error {
	_, err := q.db.ExecContext(ctx, createAttendanceSnapshot, arg.StudentSubjectID, arg.Time, arg.Percentage)
	return err
}

const deleteAttendanceSnapshotsIn = `delete from attendance_snapshot
where time >= ? and time < ? and student_subject_id in (
    select id from student_subject where enrollment_id in (/*SLICE:enrollments*/?)
)`

type DeleteAttendanceSnapshotsInParams struct {
	After       int64
	Before      int64
	Enrollments []string
}

func (q *Queries) DeleteAttendanceSnapshotsIn(ctx context.Context, arg DeleteAttendanceSnapshotsInParams) error {
	if len(arg.Enrollments) == 0 {
		return nil
	}
	query := deleteAttendanceSnapshotsIn
	var queryParams []interface{}
	queryParams = append(queryParams, arg.After)
	queryParams = append(queryParams, arg.Before)
	for _, v := range arg.Enrollments {
		queryParams = append(queryParams, v)
	}
	query = strings.Replace(query, "/*SLICE:enrollments*/?", strings.Repeat(",?", len(arg.Enrollments))[1:], 1)
	_, err := q.db.ExecContext(ctx, query, queryParams...)
	return err
}

const getAttendanceSnapshots = `select student_subject.subject, attendance_snapshot.time, attendance_snapshot.percentage
from attendance_snapshot
inner join student_subject on student_subject.id = attendance_snapshot.student_subject_id
where student_subject.enrollment_id = ?
order by student_subject.id, attendance_snapshot.time`

type GetAttendanceSnapshotsRow struct {
	Subject    string
	Time       int64
	Percentage float64
}

func (q *Queries) GetAttendanceSnapshots(ctx context.Context, enrollmentID string) ([]GetAttendanceSnapshotsRow, error) {
	rows, err := q.db.QueryContext(ctx, getAttendanceSnapshots, enrollmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []GetAttendanceSnapshotsRow
	for rows.Next() {
		var i GetAttendanceSnapshotsRow
		if err := rows.Scan(&i.Subject, &i.Time, &i.Percentage); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
