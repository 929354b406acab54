// Package session holds the operator's token and cached company record and
// keeps them in sync with the persisted storage keys.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/BruksfildServices01/clientflow/internal/events"
	"github.com/BruksfildServices01/clientflow/internal/models"
	"github.com/BruksfildServices01/clientflow/internal/storage"
)

type Session struct {
	Token        string          `json:"-"`
	RefreshToken string          `json:"-"`
	Company      *models.Company `json:"company,omitempty"`
}

func (s Session) Authenticated() bool {
	return s.Token != ""
}

// Store is safe for concurrent use. Writers persist first and swap the
// in-memory session second, so a reader never sees a session that is not
// on disk yet.
type Store struct {
	storage storage.Storage
	bus     *events.Bus
	log     *zap.Logger
	now     func() time.Time

	refresher Refresher

	mu      sync.RWMutex
	current Session
}

// Refresher trades a refresh token for a new token pair.
// *apiclient.AuthService satisfies it.
type Refresher interface {
	Refresh(ctx context.Context, refreshToken string) (access, refresh string, err error)
}

// UseRefresher lets Restore renew an expired token instead of dropping the
// session. The API client depends on the store, so this is set after both
// exist.
func (s *Store) UseRefresher(r Refresher) {
	s.refresher = r
}

func NewStore(st storage.Storage, bus *events.Bus, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{
		storage: st,
		bus:     bus,
		log:     log,
		now:     time.Now,
	}
}

// Restore loads the persisted session. Token and company must both be
// present; anything less yields an empty session.
func (s *Store) Restore(ctx context.Context) (Session, error) {
	token, hasToken, err := s.storage.Get(ctx, storage.KeyToken)
	if err != nil {
		return Session{}, fmt.Errorf("restore token: %w", err)
	}
	rawUser, hasUser, err := s.storage.Get(ctx, storage.KeyUser)
	if err != nil {
		return Session{}, fmt.Errorf("restore user: %w", err)
	}

	if !hasToken || !hasUser || token == "" {
		s.set(Session{})
		return Session{}, nil
	}

	var company models.Company
	if err := json.Unmarshal([]byte(rawUser), &company); err != nil {
		s.log.Warn("discarding unreadable cached company", zap.Error(err))
		return Session{}, s.clear(ctx)
	}

	refresh, _, err := s.storage.Get(ctx, storage.KeyRefreshToken)
	if err != nil {
		return Session{}, fmt.Errorf("restore refresh token: %w", err)
	}

	if s.expired(token) {
		if sess, ok := s.renew(ctx, refresh, &company); ok {
			return sess, nil
		}
		s.log.Info("persisted token expired, clearing session")
		return Session{}, s.clear(ctx)
	}

	sess := Session{Token: token, RefreshToken: refresh, Company: &company}
	s.set(sess)
	return sess, nil
}

// renew exchanges refreshToken for a new pair and persists it. A rotated
// refresh token replaces the old one; an empty one keeps it.
func (s *Store) renew(ctx context.Context, refreshToken string, company *models.Company) (Session, bool) {
	if s.refresher == nil || refreshToken == "" {
		return Session{}, false
	}
	access, rotated, err := s.refresher.Refresh(ctx, refreshToken)
	if err != nil {
		s.log.Warn("token refresh failed", zap.Error(err))
		return Session{}, false
	}
	if access == "" {
		return Session{}, false
	}
	if rotated == "" {
		rotated = refreshToken
	}

	sess := Session{Token: access, RefreshToken: rotated, Company: company}
	if err := s.Save(ctx, sess); err != nil {
		s.log.Warn("failed to persist refreshed token", zap.Error(err))
		return Session{}, false
	}
	s.log.Info("session token refreshed", zap.Int64("company_id", company.ID))
	return sess, true
}

// expired reports whether token is a JWT with an exp in the past. Opaque
// tokens never expire client-side.
func (s *Store) expired(token string) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return !exp.After(s.now())
}

// Save persists token, refresh token and company in one atomic write.
func (s *Store) Save(ctx context.Context, sess Session) error {
	if sess.Token == "" || sess.Company == nil {
		return errors.New("session requires token and company")
	}
	user, err := json.Marshal(sess.Company)
	if err != nil {
		return fmt.Errorf("encode company: %w", err)
	}

	values := map[string]string{
		storage.KeyToken: sess.Token,
		storage.KeyUser:  string(user),
	}
	if sess.RefreshToken != "" {
		values[storage.KeyRefreshToken] = sess.RefreshToken
	}
	if err := s.storage.SetMany(ctx, values); err != nil {
		return err
	}
	s.set(sess)
	return nil
}

// UpdateCompany replaces the cached company of the current session.
func (s *Store) UpdateCompany(ctx context.Context, company *models.Company) error {
	cur := s.Current()
	if !cur.Authenticated() {
		return errors.New("no active session")
	}
	cur.Company = company
	return s.Save(ctx, cur)
}

// Logout clears the persisted session. Calling it without a session is fine.
func (s *Store) Logout(ctx context.Context) error {
	return s.clear(ctx)
}

// HandleUnauthorized tears the session down after a 401 and emits one
// logout event. It performs no HTTP of its own.
func (s *Store) HandleUnauthorized(ctx context.Context) {
	if err := s.clear(ctx); err != nil {
		s.log.Error("failed to clear session after 401", zap.Error(err))
	}
	if s.bus != nil {
		s.bus.Publish(events.Logout("unauthorized"))
	}
}

func (s *Store) clear(ctx context.Context) error {
	err := s.storage.Delete(ctx, storage.SessionKeys...)
	s.set(Session{})
	if err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

func (s *Store) set(sess Session) {
	s.mu.Lock()
	s.current = sess
	s.mu.Unlock()
}

func (s *Store) Current() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

func (s *Store) CurrentCompany() *models.Company {
	return s.Current().Company
}

// Token is read by the API client on every request.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.Token
}

func (s *Store) OnboardingSeen(ctx context.Context) (bool, error) {
	v, ok, err := s.storage.Get(ctx, storage.KeyOnboardingSeen)
	if err != nil {
		return false, err
	}
	return ok && v == "1", nil
}

func (s *Store) MarkOnboardingSeen(ctx context.Context) error {
	return s.storage.SetMany(ctx, map[string]string{storage.KeyOnboardingSeen: "1"})
}
