package memory

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// BotFactory builds a fresh bot for a new session.
type BotFactory func(persona string) *Bot

// Sessions owns one Bot per session key and serializes turns within a
// session. Different sessions run concurrently.
type Sessions struct {
	newBot BotFactory
	idle   time.Duration
	now    func() time.Time

	mu       sync.Mutex
	sessions map[string]*session
}

type session struct {
	mu       sync.Mutex
	bot      *Bot
	lastUsed time.Time
}

// NewSessions creates a session registry. Sessions unused for idle are
// dropped by Sweep; idle <= 0 keeps them forever.
func NewSessions(factory BotFactory, idle time.Duration) *Sessions {
	return &Sessions{
		newBot:   factory,
		idle:     idle,
		now:      time.Now,
		sessions: make(map[string]*session),
	}
}

// Chat runs one turn in session id. The persona is fixed when the session
// is created.
func (s *Sessions) Chat(ctx context.Context, id, persona, input string) Reply {
	sess := s.get(id, persona)

	sess.mu.Lock()
	defer sess.mu.Unlock()

	reply := sess.bot.Chat(ctx, input)
	s.touch(sess)
	return reply
}

func (s *Sessions) get(id, persona string) *session {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		sess = &session{bot: s.newBot(persona)}
		s.sessions[id] = sess
		slog.Debug("chat session created", "session_id", id, "persona", persona)
	}
	sess.lastUsed = s.now()
	return sess
}

func (s *Sessions) touch(sess *session) {
	s.mu.Lock()
	sess.lastUsed = s.now()
	s.mu.Unlock()
}

// Len returns the number of live sessions.
func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Sweep drops sessions idle since before now minus the idle window and
// returns how many were dropped. Sessions mid-turn are kept.
func (s *Sessions) Sweep(now time.Time) int {
	if s.idle <= 0 {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	dropped := 0
	for id, sess := range s.sessions {
		if now.Sub(sess.lastUsed) < s.idle {
			continue
		}
		if !sess.mu.TryLock() {
			continue
		}
		delete(s.sessions, id)
		sess.mu.Unlock()
		dropped++
	}
	return dropped
}

// Run sweeps idle sessions every interval until ctx is done.
func (s *Sessions) Run(ctx context.Context, interval time.Duration) {
	if s.idle <= 0 || interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := s.Sweep(now); n > 0 {
				slog.Info("idle chat sessions dropped", "count", n)
			}
		}
	}
}
