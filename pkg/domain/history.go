package domain

import "time"

// Turn is one question/answer exchange of a chat session.
type Turn struct {
	Query     string    `json:"query"`
	Intent    Intent    `json:"intent"`
	Response  string    `json:"response"`
	Image     string    `json:"image,omitempty"`
	Video     string    `json:"video,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// TurnFromState builds the history record of a finished run.
func TurnFromState(s *PipelineState, at time.Time) Turn {
	return Turn{
		Query:     s.OriginalQuery,
		Intent:    s.Intent,
		Response:  s.Response,
		Image:     s.Image,
		Video:     s.Video,
		CreatedAt: at,
	}
}

// Conversation is the persisted history of a chat session.
type Conversation struct {
	SessionID string    `json:"session_id"`
	Turns     []Turn    `json:"turns"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewConversation creates an empty conversation.
func NewConversation(sessionID string) *Conversation {
	return &Conversation{
		SessionID: sessionID,
		Turns:     []Turn{},
	}
}

// Append adds a turn and bumps UpdatedAt.
func (c *Conversation) Append(t Turn) {
	c.Turns = append(c.Turns, t)
	c.UpdatedAt = t.CreatedAt
}

// Last returns at most n of the most recent turns. n <= 0 returns all turns.
func (c *Conversation) Last(n int) []Turn {
	if n <= 0 || n >= len(c.Turns) {
		return c.Turns
	}
	return c.Turns[len(c.Turns)-n:]
}

// Clone returns a copy whose turn slice is independent of c.
func (c *Conversation) Clone() *Conversation {
	out := *c
	out.Turns = append([]Turn(nil), c.Turns...)
	if out.Turns == nil {
		out.Turns = []Turn{}
	}
	return &out
}
