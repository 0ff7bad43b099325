// Package webhook holds the form payloads the call platform posts and the
// credential check for its callbacks.
package webhook

import (
	"crypto/subtle"
	"errors"
	"strings"
)

// CallEvent is posted to the call-event endpoint on every step of a call.
type CallEvent struct {
	From      string `form:"from"`
	To        string `form:"to"`
	CallID    string `form:"callid"`
	Direction string `form:"direction"`
}

// Normalize strips the spacing some platforms add to displayed numbers.
func (e *CallEvent) Normalize() {
	e.From = strings.ReplaceAll(strings.TrimSpace(e.From), " ", "")
	e.To = strings.ReplaceAll(strings.TrimSpace(e.To), " ", "")
	e.CallID = strings.TrimSpace(e.CallID)
}

// RecordingEvent is posted when a record action finishes.
type RecordingEvent struct {
	CallID   string `form:"callid"`
	WavURL   string `form:"wav"`
	Duration string `form:"duration"`
}

// Credentials are the basic-auth user and password embedded in callback URLs.
type Credentials struct {
	User     string
	Password string
}

var ErrBadCredentials = errors.New("webhook credentials mismatch")

func (c Credentials) Enabled() bool {
	return c.User != ""
}

func (c Credentials) Verify(user, password string) error {
	userOK := subtle.ConstantTimeCompare([]byte(user), []byte(c.User)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(c.Password)) == 1
	if !userOK || !passOK {
		return ErrBadCredentials
	}
	return nil
}
