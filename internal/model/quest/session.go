package quest

import "time"

// State tracks how far a traveller has progressed through the onboarding
// conversation. It is a closed enumeration; transitions happen only through
// the table in Next.
type State int

const (
	// StateInit is the starting state: no live location received yet.
	StateInit State = iota
	// StateLocationShared means a live location is known but no quest text
	// has been collected, so nothing is forwarded yet.
	StateLocationShared
	// StateQuestShared is the steady state: live location updates are
	// forwarded to the realtime backend together with the stored quest.
	StateQuestShared
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "INIT"
	case StateLocationShared:
		return "LOCATION_SHARED"
	case StateQuestShared:
		return "QUEST_SHARED"
	default:
		return "UNKNOWN"
	}
}

// Event labels the inbound occurrences that may advance a session.
type Event int

const (
	// EventLiveLocation is a location share carrying a positive live period.
	EventLiveLocation Event = iota
	// EventQuestText is a plain text message from the traveller.
	EventQuestText
	// EventEdit is an explicit request to replace the stored quest.
	EventEdit
)

// transitions lists every state change the conversation permits. Any
// (state, event) pair absent here is a no-op, which is how e.g. quest text
// arriving while still in INIT is ignored rather than acted on.
var transitions = map[State]map[Event]State{
	StateInit: {
		EventLiveLocation: StateLocationShared,
	},
	StateLocationShared: {
		EventLiveLocation: StateLocationShared,
		EventQuestText:    StateQuestShared,
	},
	StateQuestShared: {
		EventLiveLocation: StateQuestShared,
		EventEdit:         StateLocationShared,
	},
}

// Next returns the state reached from s by event. ok is false when the
// transition is not permitted; callers treat that as a silent no-op.
func Next(s State, e Event) (next State, ok bool) {
	next, ok = transitions[s][e]
	return next, ok
}

// Session is the per-traveller conversation record. One exists per chat
// identity, created lazily on the first inbound event.
//
// Quest is non-empty only while State is StateQuestShared.
type Session struct {
	Identity  int64
	State     State
	Quest     string
	UpdatedAt time.Time
}
