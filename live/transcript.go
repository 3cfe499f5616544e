package live

import (
	"strings"
	"sync"
)

// Turn is one user utterance and the model's reply.
type Turn struct {
	User  string `json:"user"`
	Model string `json:"model"`
}

// Empty reports whether neither side has text.
func (t Turn) Empty() bool {
	return t.User == "" && t.Model == ""
}

// Transcript accumulates incremental text per turn and keeps the ordered log
// of completed turns. It is safe for concurrent use.
type Transcript struct {
	mu    sync.Mutex
	user  strings.Builder
	model strings.Builder
	log   []Turn
}

// AppendUser adds a user-side delta to the current turn.
func (t *Transcript) AppendUser(delta string) Turn {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.user.WriteString(delta)
	return t.currentLocked()
}

// AppendModel adds a model-side delta to the current turn.
func (t *Transcript) AppendModel(delta string) Turn {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.model.WriteString(delta)
	return t.currentLocked()
}

// CompleteTurn appends the current turn to the log, resets both
// accumulators and returns the finalized turn.
func (t *Transcript) CompleteTurn() Turn {
	t.mu.Lock()
	defer t.mu.Unlock()
	turn := t.currentLocked()
	t.log = append(t.log, turn)
	t.user.Reset()
	t.model.Reset()
	return turn
}

// Current returns the turn being accumulated.
func (t *Transcript) Current() Turn {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.currentLocked()
}

// Log returns a copy of the completed turns.
func (t *Transcript) Log() []Turn {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Turn, len(t.log))
	copy(out, t.log)
	return out
}

// Reset clears the log and the current turn.
func (t *Transcript) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.log = nil
	t.user.Reset()
	t.model.Reset()
}

func (t *Transcript) currentLocked() Turn {
	return Turn{User: t.user.String(), Model: t.model.String()}
}
