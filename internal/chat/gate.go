package chat

import (
	"strings"
	"sync"
	"time"
)

// Outcome classifies an actor's reply against their pending confirmation.
type Outcome int

const (
	// OutcomeNone means no pending entry, or the reply matched neither
	// vocabulary; the pending entry (if any) is left in place.
	OutcomeNone Outcome = iota

	// OutcomeAffirmed means the reply confirmed the pending action. The
	// entry is removed before it is returned, so it executes at most once.
	OutcomeAffirmed

	// OutcomeRejected means the reply cancelled the pending action.
	OutcomeRejected
)

// pendingEntry is one parked destructive action awaiting confirmation.
type pendingEntry struct {
	action   *Action
	parkedAt time.Time
}

// Gate parks destructive actions per actor until an affirmative reply.
//
// One pending entry per actor: parking a second action replaces the first.
// Expired entries are swept lazily on the next access for that actor; a TTL
// of zero keeps entries until resolved.
type Gate struct {
	mu      sync.Mutex
	pending map[string]pendingEntry
	ttl     time.Duration
	affirm  []string
	reject  []string
	now     func() time.Time
}

// NewGate creates a confirmation gate with the given reply vocabularies.
func NewGate(ttl time.Duration, affirmWords, rejectWords []string) *Gate {
	return &Gate{
		pending: make(map[string]pendingEntry),
		ttl:     ttl,
		affirm:  lowerAll(affirmWords),
		reject:  lowerAll(rejectWords),
		now:     time.Now,
	}
}

// Park stores an action awaiting confirmation from the actor.
func (g *Gate) Park(actor string, action *Action) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.pending[actor] = pendingEntry{action: action, parkedAt: g.now()}
}

// Pending reports whether the actor has an unexpired pending action.
func (g *Gate) Pending(actor string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.lookup(actor)
	return ok
}

// Resolve classifies the actor's reply against their pending action.
//
// The check and the removal happen under one lock, so concurrent affirmative
// replies cannot both claim the same action. An unmatched reply returns
// OutcomeNone and leaves the entry parked.
func (g *Gate) Resolve(actor, message string) (Outcome, *Action) {
	g.mu.Lock()
	defer g.mu.Unlock()

	entry, ok := g.lookup(actor)
	if !ok {
		return OutcomeNone, nil
	}

	switch {
	case matchesVocabulary(message, g.affirm):
		delete(g.pending, actor)
		return OutcomeAffirmed, entry.action
	case matchesVocabulary(message, g.reject):
		delete(g.pending, actor)
		return OutcomeRejected, entry.action
	default:
		return OutcomeNone, nil
	}
}

// lookup returns the actor's entry, deleting it first if expired.
// Callers must hold g.mu.
func (g *Gate) lookup(actor string) (pendingEntry, bool) {
	entry, ok := g.pending[actor]
	if !ok {
		return pendingEntry{}, false
	}
	if g.ttl > 0 && g.now().Sub(entry.parkedAt) > g.ttl {
		delete(g.pending, actor)
		return pendingEntry{}, false
	}
	return entry, true
}

// matchesVocabulary reports whether the message matches any vocabulary
// entry: single words against the lower-cased token set, multi-word entries
// as phrases.
func matchesVocabulary(message string, vocabulary []string) bool {
	lowered := strings.ToLower(message)
	tokens := strings.Fields(lowered)

	for _, entry := range vocabulary {
		if strings.Contains(entry, " ") {
			if strings.Contains(lowered, entry) {
				return true
			}
			continue
		}
		for _, token := range tokens {
			if token == entry {
				return true
			}
		}
	}
	return false
}

func lowerAll(words []string) []string {
	out := make([]string, len(words))
	for i, w := range words {
		out[i] = strings.ToLower(w)
	}
	return out
}
