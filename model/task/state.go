package task

// State represents the lifecycle state of a platform task. The platform
// reports states as free-form strings; only the terminal ones are fixed
// contract for this client.
type State string

const (
	StateSuccess        State = "Success"
	StateSuccessHolding State = "SuccessHolding"
	StateFailed         State = "Failed"
	StateFailedHolding  State = "FailedHolding"
	StateCancelled      State = "Cancelled"
	StateKilled         State = "Killed"
	StateException      State = "Exception"
)

var terminalStates = map[State]struct{}{
	StateSuccess:        {},
	StateSuccessHolding: {},
	StateFailed:         {},
	StateFailedHolding:  {},
	StateCancelled:      {},
	StateKilled:         {},
	StateException:      {},
}

// IsTerminal reports whether the state can no longer change.
func (s State) IsTerminal() bool {
	_, ok := terminalStates[s]
	return ok
}

// IsSuccess reports whether the task completed successfully.
func (s State) IsSuccess() bool {
	return s == StateSuccess || s == StateSuccessHolding
}
