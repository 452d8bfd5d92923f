package call

import (
	"sync"
	"time"
)

// Direction distinguishes who placed the call.
type Direction int

const (
	Inbound Direction = iota
	Outbound
)

func (d Direction) String() string {
	if d == Outbound {
		return "outbound"
	}
	return "inbound"
}

// State is the orchestrator's turn state.
type State int

const (
	StateAwaitingGreeting State = iota
	StateListening
	StateTranscribing
	StateReasoning
	StateSpeaking
	StateEnded
)

var stateNames = [...]string{
	"awaiting_greeting",
	"listening",
	"transcribing",
	"reasoning",
	"speaking",
	"ended",
}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

// Session is the per-call record. Exactly one orchestrator and one relay
// exist per session; the trio is destroyed together when the call ends.
type Session struct {
	ID        string
	StreamSID string
	Direction Direction
	CreatedAt time.Time

	mu           sync.Mutex
	state        State
	lastActivity time.Time
	turns        int

	// pendingContext is the outbound context consumed at greeting time,
	// retained so the first reasoning turn gets it as ground truth.
	pendingContext string
}

// NewSession creates a session for a just-started media stream.
func NewSession(callID, streamSID string, direction Direction) *Session {
	now := time.Now()
	return &Session{
		ID:           callID,
		StreamSID:    streamSID,
		Direction:    direction,
		CreatedAt:    now,
		lastActivity: now,
	}
}

// State returns the current turn state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) setState(st State) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

// Touch records caller speech, resetting the idle clock.
func (s *Session) Touch() {
	s.mu.Lock()
	s.lastActivity = time.Now()
	s.mu.Unlock()
}

// IdleFor returns how long the call has gone without caller speech.
func (s *Session) IdleFor() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return time.Since(s.lastActivity)
}

// NextTurn increments and returns the turn index, starting at 1.
func (s *Session) NextTurn() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns++
	return s.turns
}

// Turns returns how many turns have started.
func (s *Session) Turns() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.turns
}

func (s *Session) setPendingContext(ctx string) {
	s.mu.Lock()
	s.pendingContext = ctx
	s.mu.Unlock()
}

// takePendingContext returns the stored outbound context once.
func (s *Session) takePendingContext() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pendingContext == "" {
		return "", false
	}
	ctx := s.pendingContext
	s.pendingContext = ""
	return ctx, true
}
