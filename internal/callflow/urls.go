package callflow

import (
	"net/url"
	"strconv"
	"strings"
)

// URLs builds the absolute callback and audio URLs handed to the platform.
type URLs struct {
	base     string
	hookBase string
}

// NewURLs takes the public base URL. When user is set the webhook URLs carry
// basic auth credentials, which the platform sends back on each callback.
func NewURLs(base, user, password string) (URLs, error) {
	base = strings.TrimRight(base, "/")
	u, err := url.Parse(base)
	if err != nil {
		return URLs{}, err
	}
	hook := base
	if user != "" {
		u.User = url.UserPassword(user, password)
		hook = u.String()
	}
	return URLs{base: base, hookBase: hook}, nil
}

// Calls is the call-event URL for the given position.
func (u URLs) Calls(ind Indicator) string {
	q := url.Values{}
	q.Set("mode", ind.Mode())
	if ind.State == StateReply && ind.Wait > 0 {
		q.Set("wait", strconv.Itoa(ind.Wait))
	}
	return u.hookBase + "/calls?" + q.Encode()
}

// Recordings is the recording-finished URL for a turn.
func (u URLs) Recordings(turn int) string {
	return u.hookBase + "/recordings?turn=" + strconv.Itoa(turn)
}

// Audio is the public URL of a file served from the audio directory.
func (u URLs) Audio(name string) string {
	return u.base + "/audio/" + url.PathEscape(name)
}
