package egress

// JobPhase is the closed set of backend job phases. Callback payloads carry
// either a symbolic name or a numeric code; both encodings are resolved into
// this enumeration once at the boundary so the reconciliation logic never
// inspects raw status values.
type JobPhase int

const (
	PhaseUnknown JobPhase = iota
	PhaseStarting
	PhaseActive
	PhaseEnding
	PhaseComplete
	PhaseFailed
	PhaseAborted
	PhaseLimitReached
)

var phaseNames = map[JobPhase]string{
	PhaseUnknown:      "unknown",
	PhaseStarting:     "starting",
	PhaseActive:       "active",
	PhaseEnding:       "ending",
	PhaseComplete:     "complete",
	PhaseFailed:       "failed",
	PhaseAborted:      "aborted",
	PhaseLimitReached: "limit_reached",
}

func (p JobPhase) String() string {
	if name, ok := phaseNames[p]; ok {
		return name
	}
	return "unknown"
}

// IsTerminal reports whether the phase means the backend job has finished.
func (p JobPhase) IsTerminal() bool {
	switch p {
	case PhaseEnding, PhaseComplete, PhaseFailed, PhaseAborted, PhaseLimitReached:
		return true
	default:
		return false
	}
}

var symbolicPhases = map[string]JobPhase{
	"EGRESS_STARTING":      PhaseStarting,
	"EGRESS_ACTIVE":        PhaseActive,
	"EGRESS_ENDING":        PhaseEnding,
	"EGRESS_COMPLETE":      PhaseComplete,
	"EGRESS_FAILED":        PhaseFailed,
	"EGRESS_ABORTED":       PhaseAborted,
	"EGRESS_LIMIT_REACHED": PhaseLimitReached,
}

var numericPhases = map[int64]JobPhase{
	0: PhaseStarting,
	1: PhaseActive,
	2: PhaseEnding,
	3: PhaseComplete,
	4: PhaseFailed,
	5: PhaseAborted,
	6: PhaseLimitReached,
}

func phaseFromSymbol(symbol string) JobPhase {
	if phase, ok := symbolicPhases[symbol]; ok {
		return phase
	}
	return PhaseUnknown
}

func phaseFromCode(code int64) JobPhase {
	if phase, ok := numericPhases[code]; ok {
		return phase
	}
	return PhaseUnknown
}
