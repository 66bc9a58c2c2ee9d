package main

import (
	"context"
	"kioskassist/cmd/kiosk-cli/commands"
	"kioskassist/lib/serviceutil"
	"kioskassist/lib/telemetry"
	"log/slog"
	"os"
)

func main() {
	telemetry.InitSlog(false)
	ctx := serviceutil.SignalContext()

	tel, err := telemetry.SetupFromEnv(ctx, "kiosk-cli")
	if err != nil {
		slog.Warn("failed to setup telemetry", "err", err)
	}
	code := commands.ExecuteContext(ctx)

	// ctx is already cancelled after ctrl+c, spans still need flushing
	err = tel.Shutdown(context.Background())
	if err != nil {
		slog.Warn("failed to shutdown telemetry", "err", err)
	}
	os.Exit(code)
}
