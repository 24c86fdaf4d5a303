package models

// ViewMode selects which data-access path a class listing uses.
type ViewMode int

const (
	ModeAnonymous ViewMode = iota
	ModeUpcoming
	ModeHistory
)

func (m ViewMode) String() string {
	switch m {
	case ModeAnonymous:
		return "anonymous"
	case ModeUpcoming:
		return "upcoming"
	case ModeHistory:
		return "history"
	}
	return "unknown"
}

// ResolveMode picks the listing mode for a request. Anonymous callers always
// get ModeAnonymous, even when they ask for history.
func ResolveMode(viewer *Identity, historyRequested bool) ViewMode {
	if !viewer.Authenticated() {
		return ModeAnonymous
	}
	if historyRequested {
		return ModeHistory
	}
	return ModeUpcoming
}

// ToggleResult is the outcome of flipping a member's attendance.
type ToggleResult string

const (
	ToggleCreated ToggleResult = "created"
	ToggleRemoved ToggleResult = "removed"
)

// ClassDetails is a single class plus the viewer's attendance.
type ClassDetails struct {
	GymClass
	Attending bool `json:"attending"`
}
