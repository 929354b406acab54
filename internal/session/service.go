package session

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/BruksfildServices01/clientflow/internal/events"
	"github.com/BruksfildServices01/clientflow/internal/httperr"
	"github.com/BruksfildServices01/clientflow/internal/models"
)

const loginFallbackMessage = "Erro ao fazer login"

type Credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Authenticator talks to the auth endpoints of the API.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (*models.LoginResult, error)
	Logout(ctx context.Context) error
}

// LoginError carries the message shown on the login form.
type LoginError struct {
	Message string
	Err     error
}

func (e *LoginError) Error() string { return e.Message }

func (e *LoginError) Unwrap() error { return e.Err }

type Service struct {
	store       *Store
	auth        Authenticator
	validate    *validator.Validate
	log         *zap.Logger
	checkDomain func(email string) bool
}

type Option func(*Service)

// WithEmailDomainCheck rejects logins whose e-mail domain does not resolve.
func WithEmailDomainCheck(check func(email string) bool) Option {
	return func(s *Service) { s.checkDomain = check }
}

func NewService(store *Store, auth Authenticator, log *zap.Logger, opts ...Option) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Service{
		store:    store,
		auth:     auth,
		validate: validator.New(),
		log:      log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Restore(ctx context.Context) (Session, error) {
	return s.store.Restore(ctx)
}

// Login authenticates and persists the session. A failed login never
// touches storage.
func (s *Service) Login(ctx context.Context, creds Credentials) (*models.Company, error) {
	creds.Email = strings.ToLower(strings.TrimSpace(creds.Email))

	if err := s.validate.Struct(creds); err != nil {
		return nil, &LoginError{Message: "Informe um e-mail válido e a senha.", Err: err}
	}
	if s.checkDomain != nil && !s.checkDomain(creds.Email) {
		return nil, &LoginError{Message: "O domínio do e-mail informado não parece ser válido."}
	}

	res, err := s.auth.Login(ctx, creds.Email, creds.Password)
	if err != nil {
		msg := httperr.Message(err, loginFallbackMessage)
		s.log.Warn("login failed", zap.String("email", creds.Email), zap.String("reason", msg))
		return nil, &LoginError{Message: msg, Err: err}
	}
	if res == nil || res.AccessToken == "" {
		return nil, &LoginError{Message: "Resposta inválida do servidor"}
	}

	company := res.Company
	sess := Session{
		Token:        res.AccessToken,
		RefreshToken: res.RefreshToken,
		Company:      &company,
	}
	if err := s.store.Save(ctx, sess); err != nil {
		return nil, &LoginError{Message: loginFallbackMessage, Err: err}
	}

	s.log.Info("login succeeded", zap.Int64("company_id", company.ID))
	return &company, nil
}

// Logout revokes the session remotely when possible and always clears it
// locally.
func (s *Service) Logout(ctx context.Context) error {
	if s.store.Current().Authenticated() {
		if err := s.auth.Logout(ctx); err != nil {
			s.log.Warn("remote logout failed", zap.Error(err))
		}
	}
	if err := s.store.Logout(ctx); err != nil {
		return err
	}
	if s.store.bus != nil {
		s.store.bus.Publish(events.Logout("user"))
	}
	return nil
}
