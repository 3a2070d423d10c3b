package domain

import "time"

// Conversation is the durable snapshot of one campaign automaton run.
// The automaton is not memory-resident between messages: CurrentState and
// Extended together are the entire resting point, reconstructed on each
// dispatch without replaying history.
type Conversation struct {
	ID           string
	SeniorID     string
	Campaign     string
	CurrentState string

	// Extended is the free-form scratch bag carried between transitions
	// (draft ID, captured values). String keyed and string valued; the
	// typed accessors live in pkg/extstate.
	Extended map[string]string

	// Active is false once a terminal state is reached. At most one active
	// conversation exists per (SeniorID, Campaign).
	Active bool

	// Version supports optimistic concurrency in stores that cannot rely
	// on an external lock. Incremented on every successful Save.
	Version int64

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewConversation creates a fresh conversation resting at the start state.
func NewConversation(id, seniorID, campaign string) *Conversation {
	now := time.Now().UTC()
	return &Conversation{
		ID:           id,
		SeniorID:     seniorID,
		Campaign:     campaign,
		CurrentState: StartState,
		Extended:     make(map[string]string),
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// Direction distinguishes who produced a message.
type Direction string

const (
	DirectionInbound  Direction = "inbound"
	DirectionOutbound Direction = "outbound"
)

// Message is an append-only journal entry for one conversation.
// Never mutated after creation.
type Message struct {
	ID             string
	ConversationID string
	Direction      Direction
	Content        string

	// Event is the trigger name carried by an inbound message, empty for
	// outbound prompts.
	Event string

	CreatedAt time.Time
}

// ReplyOption is one entry of the menu shown to the user for the current
// state: a human-readable label paired with the trigger it dispatches.
type ReplyOption struct {
	Text    string `json:"text"`
	Trigger string `json:"trigger"`
}
