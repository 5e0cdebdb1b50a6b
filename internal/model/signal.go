package model

// Action is the discrete decision for one bar.
type Action int

const (
	Sell Action = -1
	Hold Action = 0
	Buy  Action = 1
)

func (a Action) String() string {
	switch a {
	case Buy:
		return "BUY"
	case Sell:
		return "SELL"
	default:
		return "HOLD"
	}
}

// Signal is a per-bar decision with an optional human-readable reason.
type Signal struct {
	Action Action `json:"action"`
	Reason string `json:"reason,omitempty"`
}

// HoldSignal is the default when no rule fires.
var HoldSignal = Signal{Action: Hold}

// Fired reports whether the signal is anything other than Hold.
func (s Signal) Fired() bool { return s.Action != Hold }
