package callflow

import (
	"regexp"
	"strconv"
	"strings"
)

type State int

const (
	StateUnset State = iota
	StateRecord
	StateReply
	StateClosing
)

func (s State) String() string {
	switch s {
	case StateRecord:
		return "record"
	case StateReply:
		return "reply"
	case StateClosing:
		return "closing"
	default:
		return "unset"
	}
}

// Indicator is the conversation position carried in the callback URL.
type Indicator struct {
	State State
	Turn  int
	// Wait counts "please wait" cycles already played for a reply.
	Wait int
}

var modePattern = regexp.MustCompile(`^(record|reply)([1-9][0-9]?)$`)

// ParseIndicator reads the mode and wait query values. Anything it does
// not recognise is Unset.
func ParseIndicator(mode, wait string) Indicator {
	mode = strings.ToLower(strings.TrimSpace(mode))
	if mode == "closing" {
		return Indicator{State: StateClosing}
	}

	m := modePattern.FindStringSubmatch(mode)
	if m == nil {
		return Indicator{}
	}
	turn, _ := strconv.Atoi(m[2])

	ind := Indicator{State: StateRecord, Turn: turn}
	if m[1] == "reply" {
		ind.State = StateReply
		if w, err := strconv.Atoi(wait); err == nil && w > 0 {
			ind.Wait = w
		}
	}
	return ind
}

// Mode renders the indicator back into its mode query value.
func (i Indicator) Mode() string {
	switch i.State {
	case StateRecord, StateReply:
		return i.State.String() + strconv.Itoa(i.Turn)
	case StateClosing:
		return "closing"
	default:
		return ""
	}
}

// within reports whether a turn-bearing indicator fits maxTurns.
func (i Indicator) within(maxTurns int) bool {
	switch i.State {
	case StateRecord, StateReply:
		return i.Turn >= 1 && i.Turn <= maxTurns
	default:
		return true
	}
}

func RecordTurn(n int) Indicator { return Indicator{State: StateRecord, Turn: n} }
func ReplyTurn(n int) Indicator  { return Indicator{State: StateReply, Turn: n} }
func Closing() Indicator         { return Indicator{State: StateClosing} }
