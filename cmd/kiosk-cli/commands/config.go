package commands

import (
	"errors"
	"fmt"
	"kioskassist/lib/configutil"
	"kioskassist/lib/scrapers/webkiosk/core"
	"kioskassist/lib/scrapers/webkiosk/view"
	"kioskassist/services/snapshots"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

type WatchConfig struct {
	// cron expression (or descriptor like "@every 6h"), evaluated in IST
	Schedule string `json:"schedule"`
	// subjects under this percentage trigger an alert
	Threshold float64              `json:"threshold" validate:"gte=0,lte=100"`
	AlertTo   []string             `json:"alert_to" validate:"omitempty,dive,email"`
	Smtp      snapshots.SmtpConfig `json:"smtp"`
}

type Config struct {
	Portal      core.Options `json:"portal"`
	View        view.Options `json:"view"`
	SettleDelay string       `json:"settle_delay" validate:"required"`
	// a local file, `:memory:` or a libsql url
	CredentialsDb string `json:"credentials_db" validate:"required"`
	// the saved password is encrypted with a key derived from this file
	CredentialsSecret string      `json:"credentials_secret" validate:"required"`
	SnapshotsDb       string      `json:"snapshots_db" validate:"required"`
	Watch             WatchConfig `json:"watch"`
}

func dataDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".kiosk-cli"
	}
	return filepath.Join(dir, "kiosk-cli")
}

func defaultConfig() Config {
	dir := dataDir()
	return Config{
		SettleDelay:       "1s",
		CredentialsDb:     filepath.Join(dir, "credentials.db"),
		CredentialsSecret: filepath.Join(dir, "credentials.key"),
		SnapshotsDb:       filepath.Join(dir, "snapshots.db"),
		Watch: WatchConfig{
			Schedule:  "0 9 * * *",
			Threshold: 75,
		},
	}
}

var validate = validator.New()

func describeValidation(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	messages := make([]string, len(fieldErrs))
	for i, e := range fieldErrs {
		switch e.Tag() {
		case "required":
			messages[i] = fmt.Sprintf("%s is required", e.Namespace())
		case "email":
			messages[i] = fmt.Sprintf("%s must be a valid email address", e.Namespace())
		default:
			messages[i] = fmt.Sprintf("%s failed validation '%s=%s'", e.Namespace(), e.Tag(), e.Param())
		}
	}
	return errors.New(strings.Join(messages, ", "))
}

func readConfig(path string) (Config, error) {
	config, err := configutil.ReadConfigWithDefaults(path, defaultConfig())
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	err = validate.Struct(config)
	if err != nil {
		return Config{}, fmt.Errorf("invalid config %s: %w", path, describeValidation(err))
	}
	return config, nil
}

func (c Config) settleDelay() (time.Duration, error) {
	delay, err := time.ParseDuration(c.SettleDelay)
	if err != nil {
		return 0, fmt.Errorf("settle_delay: %w", err)
	}
	return delay, nil
}
