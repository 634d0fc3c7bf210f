package fsm

import "fmt"

type State string

type Event string

const (
	StateIdle        State = "idle"
	StateLoading     State = "loading"
	StateActive      State = "active"
	StateSummarizing State = "summarizing"
	StateComplete    State = "complete"
	StateErrored     State = "errored"
)

const (
	EventStart      Event = "start"
	EventLoaded     Event = "loaded"
	EventLoadFailed Event = "load_failed"
	EventFinish     Event = "finish"
	EventAbort      Event = "abort"
	EventSummarized Event = "summarized"
	EventFail       Event = "fail"
	EventRestart    Event = "restart"
)

// Transition returns the state reached by applying event to current.
func Transition(current State, event Event) (State, error) {
	if event == EventRestart {
		switch current {
		case StateIdle, StateLoading, StateActive, StateSummarizing, StateComplete, StateErrored:
			return StateIdle, nil
		default:
			return current, fmt.Errorf("unknown state %q", current)
		}
	}

	switch current {
	case StateIdle:
		switch event {
		case EventStart:
			return StateLoading, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateLoading:
		switch event {
		case EventLoaded:
			return StateActive, nil
		case EventLoadFailed:
			return StateIdle, nil
		case EventFail:
			return StateErrored, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateActive:
		switch event {
		case EventFinish:
			return StateSummarizing, nil
		case EventAbort:
			return StateIdle, nil
		case EventFail:
			return StateErrored, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateSummarizing:
		switch event {
		case EventSummarized:
			return StateComplete, nil
		case EventFail:
			return StateErrored, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateComplete, StateErrored:
		return current, invalidTransition(current, event)
	default:
		return current, fmt.Errorf("unknown state %q", current)
	}
}

func invalidTransition(state State, event Event) error {
	return fmt.Errorf("invalid transition: %s --(%s)--> ?", state, event)
}
