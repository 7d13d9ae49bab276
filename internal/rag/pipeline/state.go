package pipeline

import (
	"sync"

	"github.com/dkurup/agenticrag/internal/domain/ragModel"
)

// State carries one question through the answer loop. The original
// question never changes after construction; rewrites only touch the
// working query. Retrieval workers append hits concurrently, so hit
// access is guarded.
type State struct {
	Question string

	mu             sync.Mutex
	query          string
	needsRetrieval bool
	hits           []ragModel.ChunkHit
	draftAnswer    string
	accepted       bool
	attempt        int
}

func NewState(question string) *State {
	return &State{
		Question: question,
		query:    question,
	}
}

func (s *State) Query() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.query
}

func (s *State) SetQuery(query string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if query == "" {
		return
	}
	s.query = query
}

func (s *State) NeedsRetrieval() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.needsRetrieval
}

func (s *State) SetNeedsRetrieval(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.needsRetrieval = v
}

// AddHits appends one retriever's results. Safe to call from the
// fan-out workers.
func (s *State) AddHits(hits []ragModel.ChunkHit) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hits = append(s.hits, hits...)
}

func (s *State) Hits() []ragModel.ChunkHit {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ragModel.ChunkHit, len(s.hits))
	copy(out, s.hits)
	return out
}

// ReplaceHits swaps the accumulated hits for the aggregated set.
func (s *State) ReplaceHits(hits []ragModel.ChunkHit) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hits = hits
}

func (s *State) ClearHits() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hits = nil
}

func (s *State) DraftAnswer() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draftAnswer
}

func (s *State) SetDraftAnswer(answer string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.draftAnswer = answer
}

func (s *State) Accepted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accepted
}

func (s *State) SetAccepted(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accepted = v
}

func (s *State) Attempt() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attempt
}

func (s *State) IncrementAttempt() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attempt++
}
