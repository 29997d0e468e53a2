package session

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/hobbynet/hobnet/internal/api"
	"github.com/hobbynet/hobnet/internal/bus"
	"github.com/hobbynet/hobnet/internal/status"
	"go.uber.org/zap"
)

// Service owns the authenticated-user context: identity, bearer
// credential and request status. It is the single writer of session
// state; every other store reads it and never mutates it.
//
// Invariant: IsLoggedIn is true iff both user and token are present.
type Service struct {
	api       *api.Client
	bus       *bus.Bus
	logger    *zap.Logger
	credsPath string

	mu      sync.RWMutex
	machine *status.Machine
	user    *api.User
	token   string
	errMsg  string
}

// persisted is the on-disk shape of credentials.json.
type persisted struct {
	Token string    `json:"token"`
	User  *api.User `json:"user"`
}

// New creates a session service persisting to credsPath. The service
// registers itself as the client's unauthorized hook: a 401 on any
// private call forces a global logout.
func New(client *api.Client, b *bus.Bus, logger *zap.Logger, credsPath string) *Service {
	s := &Service{
		api:       client,
		bus:       b,
		logger:    logger,
		credsPath: credsPath,
		machine:   status.NewMachine(b),
	}
	client.SetOnUnauthorized(s.handleUnauthorized)
	return s
}

// Restore reads persisted credentials at startup. Returns true when a
// usable session was restored. A credential whose token already expired
// is discarded instead of restored.
func (s *Service) Restore() bool {
	data, err := os.ReadFile(s.credsPath)
	if err != nil {
		return false
	}
	var p persisted
	if err := json.Unmarshal(data, &p); err != nil || p.User == nil || p.Token == "" {
		return false
	}
	if TokenExpired(p.Token) {
		s.logger.Info("persisted credential expired, discarding")
		_ = os.Remove(s.credsPath)
		return false
	}

	s.mu.Lock()
	s.user = p.User
	s.token = p.Token
	s.machine = status.NewMachineAt(s.bus, status.Succeeded)
	s.mu.Unlock()

	s.api.SetToken(p.Token)
	s.publishChanged()
	s.logger.Info("session restored", zap.Int("user_id", p.User.ID))
	return true
}

// Login authenticates and then fetches the profile with the received
// credential. On any failure the credential is not kept.
func (s *Service) Login(ctx context.Context, email, password string) error {
	if err := s.begin(); err != nil {
		return err
	}
	return s.completeLogin(ctx, email, password)
}

// Register creates an account and delegates to login. When the account
// is created but the follow-up login fails, the operation as a whole
// fails and the error says so.
func (s *Service) Register(ctx context.Context, name, email, password string, hobbies []string) error {
	if err := s.begin(); err != nil {
		return err
	}
	if err := s.api.Signup(ctx, name, email, password, hobbies); err != nil {
		s.fail(api.Message(err, "Signup failed"))
		return err
	}
	if err := s.completeLogin(ctx, email, password); err != nil {
		return fmt.Errorf("account created but login failed: %w", err)
	}
	return nil
}

func (s *Service) begin() error {
	if err := s.machine.Transition(status.Loading); err != nil {
		return err
	}
	s.mu.Lock()
	s.errMsg = ""
	s.mu.Unlock()
	return nil
}

func (s *Service) completeLogin(ctx context.Context, email, password string) error {
	creds, err := s.api.Login(ctx, email, password)
	if err != nil {
		s.fail(api.Message(err, "Login failed"))
		return err
	}

	// Install the token so the profile fetch carries it.
	s.api.SetToken(creds.AccessToken)

	user, err := s.api.Me(ctx)
	if err != nil {
		// Partial login: drop the credential again.
		s.api.ClearToken()
		s.fail(api.Message(err, "Failed to fetch profile"))
		return err
	}

	s.mu.Lock()
	s.user = user
	s.token = creds.AccessToken
	s.mu.Unlock()

	if err := s.persist(); err != nil {
		s.logger.Warn("failed to persist session", zap.Error(err))
	}
	_ = s.machine.Transition(status.Succeeded)
	s.publishChanged()
	s.logger.Info("logged in", zap.Int("user_id", user.ID))
	return nil
}

func (s *Service) fail(msg string) {
	s.mu.Lock()
	s.errMsg = msg
	s.mu.Unlock()
	_ = s.machine.Transition(status.Failed)
}

// Logout clears persisted and in-memory session state and resets status
// to idle. No remote endpoint is called.
func (s *Service) Logout() {
	s.mu.Lock()
	s.user = nil
	s.token = ""
	s.errMsg = ""
	s.mu.Unlock()

	s.api.ClearToken()
	_ = os.Remove(s.credsPath)

	switch s.machine.Current() {
	case status.Succeeded, status.Failed:
		_ = s.machine.Transition(status.Idle)
	}

	s.bus.Publish(bus.Event{Topic: bus.TopicSessionLoggedOut})
	s.publishChanged()
	s.logger.Info("logged out")
}

// handleUnauthorized is invoked by the API client when any private call
// receives a 401, regardless of which operation triggered it.
func (s *Service) handleUnauthorized() {
	if !s.IsLoggedIn() {
		return
	}
	s.logger.Warn("credential rejected by server, logging out")
	s.Logout()
}

// UpdateProfile replaces the profile with the server's response. The
// session status machine is not involved; failures surface on the form.
func (s *Service) UpdateProfile(ctx context.Context, fields map[string]any) error {
	user, err := s.api.UpdateMe(ctx, fields)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.user = user
	s.mu.Unlock()
	if err := s.persist(); err != nil {
		s.logger.Warn("failed to persist session", zap.Error(err))
	}
	s.publishChanged()
	return nil
}

// AddMembership records a group membership with set semantics: a repeat
// join never duplicates the id.
func (s *Service) AddMembership(groupID int) {
	s.mu.Lock()
	changed := false
	if s.user != nil && !slices.Contains(s.user.GroupMemberships, groupID) {
		s.user.GroupMemberships = append(s.user.GroupMemberships, groupID)
		changed = true
	}
	s.mu.Unlock()

	if changed {
		if err := s.persist(); err != nil {
			s.logger.Warn("failed to persist session", zap.Error(err))
		}
		s.publishChanged()
	}
}

// RemoveMembership removes exactly the given group id.
func (s *Service) RemoveMembership(groupID int) {
	s.mu.Lock()
	changed := false
	if s.user != nil {
		before := len(s.user.GroupMemberships)
		s.user.GroupMemberships = slices.DeleteFunc(s.user.GroupMemberships, func(id int) bool {
			return id == groupID
		})
		changed = len(s.user.GroupMemberships) != before
	}
	s.mu.Unlock()

	if changed {
		if err := s.persist(); err != nil {
			s.logger.Warn("failed to persist session", zap.Error(err))
		}
		s.publishChanged()
	}
}

// IsMember reports whether the user belongs to the given group.
func (s *Service) IsMember(groupID int) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user != nil && slices.Contains(s.user.GroupMemberships, groupID)
}

// IsLoggedIn reports whether both user and token are present.
func (s *Service) IsLoggedIn() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user != nil && s.token != ""
}

// User returns a copy of the current user, or nil.
func (s *Service) User() *api.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	u.GroupMemberships = slices.Clone(s.user.GroupMemberships)
	u.Hobbies = slices.Clone(s.user.Hobbies)
	return &u
}

// Token returns the current bearer credential, or empty.
func (s *Service) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Status returns the session request status.
func (s *Service) Status() status.Status {
	s.mu.RLock()
	m := s.machine
	s.mu.RUnlock()
	return m.Current()
}

// Err returns the last session error message, or empty.
func (s *Service) Err() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.errMsg
}

func (s *Service) persist() error {
	s.mu.RLock()
	p := persisted{Token: s.token, User: s.user}
	s.mu.RUnlock()

	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.credsPath), 0700); err != nil {
		return err
	}
	return os.WriteFile(s.credsPath, data, 0600)
}

func (s *Service) publishChanged() {
	s.bus.Publish(bus.Event{Topic: bus.TopicSessionChanged, Payload: s.IsLoggedIn()})
}
