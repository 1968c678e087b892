package domain

import "time"

// Sentiment is the tone tag attached to every chat turn.
type Sentiment string

// The assistant converses in Spanish, so the model is asked for these words.
const (
	SentimentPositive Sentiment = "positivo"
	SentimentNegative Sentiment = "negativo"
	SentimentNeutral  Sentiment = "neutro"
)

// ParseSentiment maps raw model output to a Sentiment. Anything that is not
// exactly one of the three tags (after trimming, ignoring case) is neutral.
func ParseSentiment(raw string) Sentiment {
	switch s := Sentiment(normalize(raw)); s {
	case SentimentPositive, SentimentNegative, SentimentNeutral:
		return s
	default:
		return SentimentNeutral
	}
}

// Turn is one exchange of the conversation transcript.
type Turn struct {
	Prompt    string    `json:"prompt"`
	Response  string    `json:"response"`
	Sentiment Sentiment `json:"sentiment"`
	At        time.Time `json:"at"`
}

// Session is the per-browser state created after a successful face match.
type Session struct {
	Token       string    `json:"-"`
	IdentityID  string    `json:"user_id"`
	DisplayName string    `json:"user_name"`
	Transcript  []Turn    `json:"transcript"`
	Modified    bool      `json:"-"`
	CreatedAt   time.Time `json:"created_at"`
	LastSeen    time.Time `json:"last_seen"`
}

// Window returns the last n turns in insertion order.
func (s *Session) Window(n int) []Turn {
	if n <= 0 || len(s.Transcript) == 0 {
		return nil
	}
	start := len(s.Transcript) - n
	if start < 0 {
		start = 0
	}
	out := make([]Turn, len(s.Transcript)-start)
	copy(out, s.Transcript[start:])
	return out
}

// Clone returns a deep copy safe to hand out of a store.
func (s *Session) Clone() *Session {
	c := *s
	if s.Transcript != nil {
		c.Transcript = make([]Turn, len(s.Transcript))
		copy(c.Transcript, s.Transcript)
	}
	return &c
}
