package core

import (
	"errors"
	"fmt"
)

var (
	ErrLoginPageUnavailable   = errors.New("webkiosk login page is unavailable")
	ErrCaptchaNotFound        = errors.New("could not find the captcha on the login page")
	ErrAuthenticationRejected = errors.New("webkiosk rejected the login, check your enrollment number, date of birth and password")
	ErrSessionTimeout         = errors.New("webkiosk session has timed out")
	ErrNoCredentials          = errors.New("no credentials were provided and none are saved")
	ErrPageUnavailable        = errors.New("webkiosk page is unavailable")
)

// TransportError is a network level failure (dns, dial, tls, timeouts,
// cancellation) that happened while talking to the portal.
type TransportError struct {
	Op  string
	Url string
	Err error
}

func (e *TransportError) Error() string {
	if e.Url == "" {
		return fmt.Sprintf("%s: transport error: %s", e.Op, e.Err.Error())
	}
	return fmt.Sprintf("%s %s: transport error: %s", e.Op, e.Url, e.Err.Error())
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Retryable reports whether trying again later without new input might succeed.
func Retryable(err error) bool {
	var transport *TransportError
	switch {
	case errors.As(err, &transport):
		return true
	case errors.Is(err, ErrLoginPageUnavailable),
		errors.Is(err, ErrCaptchaNotFound),
		errors.Is(err, ErrSessionTimeout),
		errors.Is(err, ErrPageUnavailable):
		return true
	}
	return false
}

// Actionable reports whether the user has to supply (new) credentials.
func Actionable(err error) bool {
	return errors.Is(err, ErrAuthenticationRejected) || errors.Is(err, ErrNoCredentials)
}
