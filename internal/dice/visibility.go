package dice

// Visibility is the audience scope attached to a roll result.
//
// Intended semantics: public rolls are viewable by all session
// participants, private rolls by the acting user and the game master,
// whispers by the game master and one named target.
type Visibility string

const (
	VisibilityPublic  Visibility = "public"
	VisibilityPrivate Visibility = "private"
	VisibilityWhisper Visibility = "whisper"
)

// Valid reports whether v is one of the three known scopes.
func (v Visibility) Valid() bool {
	switch v {
	case VisibilityPublic, VisibilityPrivate, VisibilityWhisper:
		return true
	}
	return false
}

// ScopedResult wraps a roll with its visibility and ownership.
type ScopedResult struct {
	Result     Result     `json:"result"`
	Visibility Visibility `json:"visibility"`
	Owner      string     `json:"owner"`
	Target     string     `json:"target,omitempty"`
}

// ResolveVisibility tags a roll result with its audience scope and
// owner. It does not yet filter result fields per viewer; that part
// lands together with multi-client delivery.
func ResolveVisibility(result Result, visibility Visibility, userID, targetID string) ScopedResult {
	if !visibility.Valid() {
		visibility = VisibilityPublic
	}
	scoped := ScopedResult{
		Result:     result,
		Visibility: visibility,
		Owner:      userID,
	}
	if visibility == VisibilityWhisper {
		scoped.Target = targetID
	}
	return scoped
}
