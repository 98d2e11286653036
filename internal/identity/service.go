// Package identity manages the account registry and the active session.
// The application has exactly one active session at a time, persisted
// under the current-session marker so a restart resumes it.
package identity

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/bizflow/bizflow/internal/hash"
	"github.com/bizflow/bizflow/internal/kvstore"
	"github.com/bizflow/bizflow/internal/models"
)

var ErrInvalidCredentials = errors.New("invalid email or password")
var ErrEmailTaken = errors.New("email already registered")

// Subscriber is called synchronously after the active session changes.
// It receives the new session identity, nil after a logout. Subscribers
// must not call back into the Service.
type Subscriber func(*models.User)

type Service struct {
	store kvstore.Store
	log   *slog.Logger

	mu      sync.Mutex
	current *models.User
	subs    []Subscriber
}

// NewService hydrates the active session from the persisted marker, if any.
func NewService(store kvstore.Store, log *slog.Logger) (*Service, error) {
	s := &Service{store: store, log: log}
	raw, ok, err := store.Get(kvstore.SessionKey)
	if err != nil {
		return nil, err
	}
	if ok {
		var u models.User
		if err := json.Unmarshal([]byte(raw), &u); err != nil {
			return nil, fmt.Errorf("decode session marker: %w", err)
		}
		s.current = &u
		log.Info("session restored", "user_id", u.ID, "role", u.Role)
	}
	return s, nil
}

// Subscribe registers fn for session-change notifications.
func (s *Service) Subscribe(fn Subscriber) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs = append(s.subs, fn)
}

// CurrentUser returns a copy of the active session identity, nil if none.
func (s *Service) CurrentUser() *models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return nil
	}
	u := *s.current
	return &u
}

// Login verifies email and password against the registry. On success it
// bumps the account's last-active timestamp, persists the registry,
// establishes the session, and notifies subscribers. A failed login has
// no side effects.
func (s *Service) Login(email, password string) (*models.User, error) {
	s.mu.Lock()
	accounts, err := s.loadAccounts()
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}

	idx := -1
	for i := range accounts {
		if accounts[i].Email == email && hash.CheckPassword(accounts[i].PasswordHash, password) {
			idx = i
			break
		}
	}
	if idx == -1 {
		s.mu.Unlock()
		s.log.Warn("login failed", "email", email)
		return nil, ErrInvalidCredentials
	}

	prevActive := accounts[idx].LastActive
	accounts[idx].LastActive = models.NowMillis()
	if err := s.saveAccounts(accounts); err != nil {
		s.mu.Unlock()
		return nil, err
	}

	u := accounts[idx].SessionUser()
	subs, err := s.establishSession(u)
	if err != nil {
		// no session was established; undo the last-active bump so the
		// registry does not record a login that failed
		accounts[idx].LastActive = prevActive
		if rerr := s.saveAccounts(accounts); rerr != nil {
			s.log.Error("restore registry after session write failure", "error", rerr)
		}
		s.mu.Unlock()
		return nil, err
	}
	s.mu.Unlock()

	s.log.Info("login", "user_id", u.ID, "role", u.Role)
	notify(subs, &u)
	out := u
	return &out, nil
}

// Signup registers a new account and logs it in. Role defaults to "user"
// and subscription to "free". A duplicate email fails with no side effects.
func (s *Service) Signup(name, email, password, role, subscription string) (*models.User, error) {
	if role == "" {
		role = models.RoleUser
	}
	if subscription == "" {
		subscription = models.SubscriptionFree
	}

	pwHash, err := hash.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	s.mu.Lock()
	accounts, err := s.loadAccounts()
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	for i := range accounts {
		if accounts[i].Email == email {
			s.mu.Unlock()
			s.log.Warn("signup rejected", "email", email, "reason", "email taken")
			return nil, ErrEmailTaken
		}
	}

	account := models.Account{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: pwHash,
		Role:         role,
		Subscription: subscription,
		LastActive:   models.NowMillis(),
	}
	accounts = append(accounts, account)
	if err := s.saveAccounts(accounts); err != nil {
		s.mu.Unlock()
		return nil, err
	}

	u := account.SessionUser()
	subs, err := s.establishSession(u)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	s.log.Info("signup", "user_id", u.ID, "role", u.Role)
	notify(subs, &u)
	out := u
	return &out, nil
}

// Logout clears the active session and removes the persisted marker.
func (s *Service) Logout() error {
	s.mu.Lock()
	if err := s.store.Delete(kvstore.SessionKey); err != nil {
		s.mu.Unlock()
		return err
	}
	s.current = nil
	subs := append([]Subscriber(nil), s.subs...)
	s.mu.Unlock()

	s.log.Info("logout")
	notify(subs, nil)
	return nil
}

// Accounts returns every registered account, credential-stripped. Feeds
// the admin portal's user list.
func (s *Service) Accounts() ([]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	accounts, err := s.loadAccounts()
	if err != nil {
		return nil, err
	}
	users := make([]models.User, len(accounts))
	for i, a := range accounts {
		users[i] = a.SessionUser()
	}
	return users, nil
}

// establishSession persists the marker and sets the session. Caller holds
// the lock; the returned subscriber snapshot is notified after unlocking.
func (s *Service) establishSession(u models.User) ([]Subscriber, error) {
	data, err := json.Marshal(u)
	if err != nil {
		return nil, fmt.Errorf("encode session marker: %w", err)
	}
	if err := s.store.Set(kvstore.SessionKey, string(data)); err != nil {
		return nil, err
	}
	s.current = &u
	return append([]Subscriber(nil), s.subs...), nil
}

func (s *Service) loadAccounts() ([]models.Account, error) {
	raw, ok, err := s.store.Get(kvstore.AccountsKey)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	var accounts []models.Account
	if err := json.Unmarshal([]byte(raw), &accounts); err != nil {
		return nil, fmt.Errorf("decode account registry: %w", err)
	}
	return accounts, nil
}

func (s *Service) saveAccounts(accounts []models.Account) error {
	data, err := json.Marshal(accounts)
	if err != nil {
		return fmt.Errorf("encode account registry: %w", err)
	}
	return s.store.Set(kvstore.AccountsKey, string(data))
}

func notify(subs []Subscriber, u *models.User) {
	for _, fn := range subs {
		if u == nil {
			fn(nil)
			continue
		}
		cu := *u
		fn(&cu)
	}
}
