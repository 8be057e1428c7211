package storage

import "sync"

// State holds the most recent transcript and user request for the lifetime
// of the process. Each slot is guarded on its own: the pair is not updated
// atomically, so a reader may see a new transcript next to an old request.
type State struct {
	transcriptMu sync.RWMutex
	transcript   string

	requestMu   sync.RWMutex
	userRequest string
}

// NewState returns a State with both slots empty.
func NewState() *State {
	return &State{}
}

// SetTranscript overwrites the transcript slot.
func (s *State) SetTranscript(text string) {
	s.transcriptMu.Lock()
	defer s.transcriptMu.Unlock()
	s.transcript = text
}

// Transcript returns the last stored transcript.
func (s *State) Transcript() string {
	s.transcriptMu.RLock()
	defer s.transcriptMu.RUnlock()
	return s.transcript
}

// SetUserRequest overwrites the user request slot.
func (s *State) SetUserRequest(text string) {
	s.requestMu.Lock()
	defer s.requestMu.Unlock()
	s.userRequest = text
}

// UserRequest returns the last stored user request.
func (s *State) UserRequest() string {
	s.requestMu.RLock()
	defer s.requestMu.RUnlock()
	return s.userRequest
}
