package services

import (
	"sync"
	"time"

	"gitcloner/internal/models"

	"github.com/google/uuid"
)

// Session 登录会话。令牌为不可猜测的随机串，只存在于内存，
// 进程重启后全部失效
type Session struct {
	Token     string    `json:"token"`
	UserID    uint      `json:"user_id"`
	Username  string    `json:"username"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired 会话是否已过期
func (s *Session) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// SessionService 内存会话表，token -> Session
type SessionService struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	duration time.Duration
}

// NewSessionService 创建会话服务
func NewSessionService(duration time.Duration) *SessionService {
	return &SessionService{
		sessions: make(map[string]*Session),
		duration: duration,
	}
}

// Create 登录成功后签发会话
func (s *SessionService) Create(user *models.User) *Session {
	now := time.Now()
	session := &Session{
		Token:     uuid.NewString(),
		UserID:    user.ID,
		Username:  user.Username,
		IssuedAt:  now,
		ExpiresAt: now.Add(s.duration),
	}

	s.mu.Lock()
	s.sessions[session.Token] = session
	s.mu.Unlock()
	return session
}

// Validate 按令牌查找会话。过期会话视为不存在并顺带清除
func (s *SessionService) Validate(token string) (*Session, bool) {
	s.mu.RLock()
	session, ok := s.sessions[token]
	s.mu.RUnlock()
	if !ok {
		return nil, false
	}

	if session.Expired(time.Now()) {
		s.Remove(token)
		return nil, false
	}
	return session, true
}

// Remove 登出时销毁会话
func (s *SessionService) Remove(token string) {
	s.mu.Lock()
	delete(s.sessions, token)
	s.mu.Unlock()
}

// Sweep 清除所有已过期会话，返回清除数量
func (s *SessionService) Sweep() int {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for token, session := range s.sessions {
		if session.Expired(now) {
			delete(s.sessions, token)
			removed++
		}
	}
	return removed
}

// Count 当前有效会话数（含未被清理的过期项）
func (s *SessionService) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
