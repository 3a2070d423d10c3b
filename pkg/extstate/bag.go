// Package extstate wraps the conversation's free-form key/value scratch
// data in typed accessors and a versioned wire encoding. Well-known keys
// are constants here so the action pipeline never spells them inline;
// unrecognized keys survive round trips untouched.
package extstate

// Well-known keys. Actions read and write these; everything else in the
// bag is campaign-specific scratch.
const (
	KeyDraftID        = "draftId"
	KeyFinalRequestID = "finalRequestId"
)

// Bag is the extended state of one conversation. Not safe for concurrent
// use; dispatch serializes access per conversation.
type Bag map[string]string

// New returns an empty bag.
func New() Bag {
	return make(Bag)
}

// Clone returns an independent copy.
func (b Bag) Clone() Bag {
	out := make(Bag, len(b))
	for k, v := range b {
		out[k] = v
	}
	return out
}

// Clear removes every key. Used by the restart action.
func (b Bag) Clear() {
	for k := range b {
		delete(b, k)
	}
}

// Get returns the raw value for a key.
func (b Bag) Get(key string) (string, bool) {
	v, ok := b[key]
	return v, ok
}

// Set stores a raw value.
func (b Bag) Set(key, value string) {
	b[key] = value
}

// DraftID returns the draft reference held by this conversation, if any.
func (b Bag) DraftID() (string, bool) {
	return b.Get(KeyDraftID)
}

// SetDraftID records the draft reference.
func (b Bag) SetDraftID(id string) {
	b.Set(KeyDraftID, id)
}

// FinalRequestID returns the canonical request created at finalize, if any.
func (b Bag) FinalRequestID() (string, bool) {
	return b.Get(KeyFinalRequestID)
}

// SetFinalRequestID records the canonical request reference.
func (b Bag) SetFinalRequestID(id string) {
	b.Set(KeyFinalRequestID, id)
}
