// Package credentials keeps the credentials of the last successful login
// in sqlite so later commands can log in without asking again.
package credentials

import (
	"context"
	"database/sql"
	"errors"
	"kioskassist/lib/scrapers/webkiosk/core"
	"kioskassist/lib/sqliteutil"
	"kioskassist/lib/telemetry"
	"kioskassist/lib/timezone"
	"kioskassist/services/credentials/db"
	"log/slog"

	"go.opentelemetry.io/otel/codes"
)

var tracer = telemetry.Tracer("kioskassist.services.credentials")

type Store struct {
	db  *sql.DB
	qry *db.Queries
	// nil saves the password as-is
	sealer *Sealer
}

func NewStore(database *sql.DB) Store {
	return Store{
		db:  database,
		qry: db.New(database),
	}
}

// Open opens (or creates) the store at `path`, a file, `:memory:` or a
// libsql url.
func Open(path string) (Store, error) {
	database, err := sqliteutil.OpenDB(db.Schema, path)
	if err != nil {
		return Store{}, err
	}
	return NewStore(database), nil
}

// WithSealer returns a store that encrypts the password before saving it.
func (s Store) WithSealer(sealer Sealer) Store {
	s.sealer = &sealer
	return s
}

func (s Store) Close() error {
	return s.db.Close()
}

func (s Store) Save(ctx context.Context, creds core.Credentials) error {
	ctx, span := tracer.Start(ctx, "Save")
	defer span.End()

	password := creds.Password
	if s.sealer != nil {
		sealed, err := s.sealer.Seal(password)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to seal password")
			return err
		}
		password = sealed
	}

	err := s.qry.SaveCredentials(ctx, db.SaveCredentialsParams{
		EnrollmentID: creds.EnrollmentID,
		DateOfBirth:  creds.DateOfBirth,
		Password:     password,
		UserType:     creds.UserType,
		SavedAt:      timezone.Now().Unix(),
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to save credentials")
		return err
	}
	return nil
}

// Load returns false when nothing is saved, when the saved record is
// missing any field or when the password cannot be unsealed.
func (s Store) Load(ctx context.Context) (core.Credentials, bool, error) {
	ctx, span := tracer.Start(ctx, "Load")
	defer span.End()

	row, err := s.qry.GetCredentials(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Credentials{}, false, nil
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to read credentials")
		return core.Credentials{}, false, err
	}

	password := row.Password
	if isSealed(password) {
		if s.sealer == nil {
			slog.WarnContext(ctx, "saved password is sealed but no secret was given")
			return core.Credentials{}, false, nil
		}
		password, err = s.sealer.Open(password)
		if err != nil {
			slog.WarnContext(ctx, "failed to unseal saved password, was the secret changed?", "err", err)
			span.RecordError(err)
			return core.Credentials{}, false, nil
		}
	}

	creds := core.Credentials{
		EnrollmentID: row.EnrollmentID,
		DateOfBirth:  row.DateOfBirth,
		Password:     password,
		UserType:     row.UserType,
	}
	if !creds.Complete() {
		span.AddEvent("saved credentials are incomplete")
		return core.Credentials{}, false, nil
	}
	return creds, true, nil
}

func (s Store) Clear(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "Clear")
	defer span.End()

	err := s.qry.DeleteCredentials(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to clear credentials")
		return err
	}
	return nil
}
