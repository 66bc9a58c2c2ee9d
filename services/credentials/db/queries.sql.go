package db

import "context"

type Credential struct {
	EnrollmentID string
	DateOfBirth  string
	Password     string
	UserType     string
	SavedAt      int64
}

const saveCredentials = `insert into credentials(id, enrollment_id, date_of_birth, password, user_type, saved_at)
values (1, ?, ?, ?, ?, ?)
on conflict (id) do update set
    enrollment_id = excluded.enrollment_id,
    date_of_birth = excluded.date_of_birth,
    password = excluded.password,
    user_type = excluded.user_type,
    saved_at = excluded.saved_at`

type SaveCredentialsParams struct {
	EnrollmentID string
	DateOfBirth  string
	Password     string
	UserType     string
	SavedAt      int64
}

func (q *Queries) SaveCredentials(ctx context.Context, arg SaveCredentialsParams) error {
	_, err := q.db.ExecContext(ctx, saveCredentials,
		arg.EnrollmentID,
		arg.DateOfBirth,
		arg.Password,
		arg.UserType,
		arg.SavedAt,
	)
	return err
}

const getCredentials = `select enrollment_id, date_of_birth, password, user_type, saved_at from credentials
where id = 1`

func (q *Queries) GetCredentials(ctx context.Context) (Credential, error) {
	row := q.db.QueryRowContext(ctx, getCredentials)
	var i Credential
	err := row.Scan(
		&i.EnrollmentID,
		&i.DateOfBirth,
		&i.Password,
		&i.UserType,
		&i.SavedAt,
	)
	return i, err
}

const deleteCredentials = `delete from credentials`

func (q *Queries) DeleteCredentials(ctx context.Context) error {
	_, err := q.db.ExecContext(ctx, deleteCredentials)
	return err
}
