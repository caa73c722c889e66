package assistant

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/auditlens/auditlens/llm"
)

// transcriptMaxMessages caps how much history one chat session keeps;
// older turns fall off the front.
const transcriptMaxMessages = 40

type transcript struct {
	messages []llm.Message
	touched  time.Time
}

// TranscriptStore holds per-chat-session conversation history in memory
// so the chat endpoint can echo the full transcript back. It is not the
// prompt context - callers pass history explicitly per turn. Transcripts
// untouched past the idle window are removed by SweepIdle.
type TranscriptStore struct {
	mu          sync.RWMutex
	transcripts map[string]*transcript
	now         func() time.Time
}

func NewTranscriptStore() *TranscriptStore {
	return NewTranscriptStoreWithClock(time.Now)
}

func NewTranscriptStoreWithClock(clock func() time.Time) *TranscriptStore {
	return &TranscriptStore{
		transcripts: make(map[string]*transcript),
		now:         clock,
	}
}

// Resolve returns id when a transcript exists for it, otherwise
// allocates a fresh chat session id.
func (t *TranscriptStore) Resolve(id string) string {
	t.mu.RLock()
	_, ok := t.transcripts[id]
	t.mu.RUnlock()
	if id != "" && ok {
		return id
	}
	return uuid.NewString()
}

// Get returns a copy of the transcript for id.
func (t *TranscriptStore) Get(id string) []llm.Message {
	t.mu.RLock()
	defer t.mu.RUnlock()
	entry, ok := t.transcripts[id]
	if !ok {
		return nil
	}
	out := make([]llm.Message, len(entry.messages))
	copy(out, entry.messages)
	return out
}

// Append adds messages to the transcript, trimming from the front when
// the cap is exceeded, and returns a copy of the result. The transcript's
// idle clock restarts on every append.
func (t *TranscriptStore) Append(id string, messages ...llm.Message) []llm.Message {
	t.mu.Lock()
	defer t.mu.Unlock()

	entry, ok := t.transcripts[id]
	if !ok {
		entry = &transcript{}
		t.transcripts[id] = entry
	}
	history := append(entry.messages, messages...)
	if len(history) > transcriptMaxMessages {
		history = history[len(history)-transcriptMaxMessages:]
	}
	entry.messages = history
	entry.touched = t.now()

	out := make([]llm.Message, len(history))
	copy(out, history)
	return out
}

// Clear drops one chat session's history.
func (t *TranscriptStore) Clear(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.transcripts, id)
}

// SweepIdle removes transcripts untouched for longer than maxIdle and
// returns how many were removed. Without it, abandoned chat sessions
// would accumulate for the life of the process.
func (t *TranscriptStore) SweepIdle(maxIdle time.Duration) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	cutoff := t.now().Add(-maxIdle)
	removed := 0
	for id, entry := range t.transcripts {
		if entry.touched.Before(cutoff) {
			delete(t.transcripts, id)
			removed++
		}
	}
	if removed > 0 {
		log.Debug().Int("removed", removed).Msg("swept idle chat transcripts")
	}
	return removed
}
