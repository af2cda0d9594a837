package migration

// State is a step of a migration run.
type State int

const (
	StateIdle State = iota
	StatePreflight
	StateCopying
	StateCommitted
	StateRolledBack
	StateReportWritten
	StateDone
)

var stateNames = [...]string{
	StateIdle:          "idle",
	StatePreflight:     "preflight",
	StateCopying:       "copying",
	StateCommitted:     "committed",
	StateRolledBack:    "rolled back",
	StateReportWritten: "report written",
	StateDone:          "done",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}

	return stateNames[s]
}
