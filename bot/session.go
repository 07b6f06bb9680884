package bot

import (
	"context"
	"sync"
	"time"
)

// State identifies which input the bot is waiting for from a user
type State string

const (
	StateAwaitingPointName      State = "awaiting_point_name"
	StateAwaitingInitialBalance State = "awaiting_initial_balance"
	StateAwaitingWithdrawAmount State = "awaiting_withdraw_amount"
)

// Session stores temporary conversation state for a user. A user with no
// session is idle.
type Session struct {
	UserID          int64
	ChatID          int64
	State           State
	MemberID        int64 // target member for balance flows
	PromptMessageID int   // last prompt sent, retracted when superseded
	Timestamp       time.Time
}

// SessionStore keeps per-user conversation sessions and serializes update
// handling per user id.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[int64]*Session

	queuesMu sync.Mutex
	queues   map[int64][]func()
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[int64]*Session),
		queues:   make(map[int64][]func()),
	}
}

// Get retrieves the session for a user, nil when idle
func (s *SessionStore) Get(userID int64) *Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sessions[userID]
}

// Put stores a session, replacing any previous one
func (s *SessionStore) Put(session *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session.Timestamp = time.Now()
	s.sessions[session.UserID] = session
}

// Delete removes a user's session. Deleting an absent session is a no-op.
func (s *SessionStore) Delete(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, userID)
}

// SetPrompt records the message id of the active prompt
func (s *SessionStore) SetPrompt(userID int64, messageID int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if session, ok := s.sessions[userID]; ok {
		session.PromptMessageID = messageID
		session.Timestamp = time.Now()
	}
}

// Enqueue appends a job to the user's queue and runs the queue in
// arrival order. The first job for an idle user starts a drain
// goroutine; it exits once the queue empties, so queues clean up
// without a sweeper. Distinct users proceed in parallel.
func (s *SessionStore) Enqueue(userID int64, job func()) {
	s.queuesMu.Lock()
	_, draining := s.queues[userID]
	s.queues[userID] = append(s.queues[userID], job)
	s.queuesMu.Unlock()

	if !draining {
		go s.drain(userID)
	}
}

func (s *SessionStore) drain(userID int64) {
	for {
		s.queuesMu.Lock()
		queue := s.queues[userID]
		if len(queue) == 0 {
			delete(s.queues, userID)
			s.queuesMu.Unlock()
			return
		}
		job := queue[0]
		s.queues[userID] = queue[1:]
		s.queuesMu.Unlock()

		job()
	}
}

// StartSweeper removes sessions older than an hour until ctx is done
func (s *SessionStore) StartSweeper(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.sweep()
			}
		}
	}()
}

func (s *SessionStore) sweep() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for userID, session := range s.sessions {
		if now.Sub(session.Timestamp) > time.Hour {
			delete(s.sessions, userID)
		}
	}
}
