package commands

import (
	"context"
	"kioskassist/lib/restyutil"
	"kioskassist/lib/scrapers/webkiosk/core"
	"kioskassist/lib/scrapers/webkiosk/session"
	"kioskassist/lib/scrapers/webkiosk/view"
	"kioskassist/services/credentials"
	"log/slog"
	"path/filepath"

	"github.com/google/uuid"
)

// env is everything a command needs to talk to the portal, it is built
// once per invocation before the command runs.
type env struct {
	config      Config
	credentials credentials.Store
	guardian    *session.Guardian
	fetcher     *view.Fetcher
}

func newEnv(config Config, verbose bool) (*env, error) {
	if verbose {
		// one directory per invocation so concurrent runs never mix dumps
		output, err := restyutil.NewFilesystemOutput(filepath.Join(".dev", "resty", "kiosk-cli", uuid.NewString()))
		if err != nil {
			slog.Warn("failed to create http dump directory", "err", err)
		} else {
			core.SetRestyInstrumentOutput(output)
		}
	}

	secret, err := credentials.LoadOrCreateSecret(config.CredentialsSecret)
	if err != nil {
		return nil, err
	}
	sealer, err := credentials.NewSealer(secret)
	if err != nil {
		return nil, err
	}
	store, err := credentials.Open(config.CredentialsDb)
	if err != nil {
		return nil, err
	}
	store = store.WithSealer(sealer)

	client, err := core.NewClient(config.Portal)
	if err != nil {
		store.Close()
		return nil, err
	}
	settle, err := config.settleDelay()
	if err != nil {
		store.Close()
		return nil, err
	}
	guardian := session.NewGuardian(client, session.Options{
		Cache:       store,
		SettleDelay: settle,
	})
	fetcher, err := view.NewFetcher(guardian, config.View)
	if err != nil {
		store.Close()
		return nil, err
	}

	return &env{
		config:      config,
		credentials: store,
		guardian:    guardian,
		fetcher:     fetcher,
	}, nil
}

func (e *env) Close() error {
	return e.credentials.Close()
}

type envKey struct{}

func withEnv(ctx context.Context, e *env) context.Context {
	return context.WithValue(ctx, envKey{}, e)
}

func getEnv(ctx context.Context) *env {
	return ctx.Value(envKey{}).(*env)
}
