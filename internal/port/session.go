package port

import "github.com/DanielCifuentes1997/AiVi-bot/internal/domain"

// SessionStore keeps per-browser session state keyed by an opaque token.
// Every accessor returns copies; callers never share memory with the store.
type SessionStore interface {
	// Create replaces any session under token. An empty token gets a new one.
	Create(token, identityID, displayName string) (*domain.Session, error)

	// Get returns the live session or ErrNoActiveSession.
	Get(token string) (*domain.Session, error)

	// AppendTurn adds a turn to the transcript and marks the session modified.
	// It fails with ErrNoActiveSession unless the session under token still
	// belongs to identityID.
	AppendTurn(token, identityID string, turn domain.Turn) error

	// ClearTranscript empties the transcript, keeping the identity fields,
	// and returns the turns it removed.
	ClearTranscript(token string) ([]domain.Turn, error)

	// Destroy removes the session.
	Destroy(token string)
}
