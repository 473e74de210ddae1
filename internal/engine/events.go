package engine

// Event is raised by the engine after a mutation has been applied.
type Event interface {
	eventName() string
}

// LunchThresholdCrossed fires when a completed work session exceeded the
// mandatory lunch threshold and received an automatic deduction.
type LunchThresholdCrossed struct {
	SessionID string
}

// StateChanged fires after every successful mutation.
type StateChanged struct {
	Reason string
}

func (LunchThresholdCrossed) eventName() string { return "lunch_threshold_crossed" }
func (StateChanged) eventName() string          { return "state_changed" }

// Listener receives engine events. Listeners are invoked after the engine
// lock has been released and may call back into query methods.
type Listener interface {
	OnEvent(Event)
}

// ListenerFunc adapts a function to Listener.
type ListenerFunc func(Event)

func (f ListenerFunc) OnEvent(e Event) { f(e) }

type noopListener struct{}

func (noopListener) OnEvent(Event) {}
