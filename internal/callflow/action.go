package callflow

import "encoding/json"

// Action is one call action returned to the platform. Exactly one of Play,
// Record or Connect.
type Action interface {
	Kind() string
}

// Play plays an audio URL. Without Next the call ends after playback.
type Play struct {
	URL       string `json:"play"`
	Next      string `json:"next,omitempty"`
	Skippable bool   `json:"skippable,omitempty"`
}

func (Play) Kind() string { return "play" }

// Record records the caller and posts the file to Callback.
type Record struct {
	Callback         string
	SilenceDetection bool
	TimeLimit        int
	Next             string
}

func (Record) Kind() string { return "record" }

func (r Record) MarshalJSON() ([]byte, error) {
	silence := "no"
	if r.SilenceDetection {
		silence = "yes"
	}
	return json.Marshal(struct {
		Record           string `json:"record"`
		SilenceDetection string `json:"silencedetection"`
		TimeLimit        int    `json:"timelimit"`
		Next             string `json:"next,omitempty"`
	}{r.Callback, silence, r.TimeLimit, r.Next})
}

// Connect forwards the call to another number.
type Connect struct {
	Number string `json:"connect"`
}

func (Connect) Kind() string { return "connect" }
