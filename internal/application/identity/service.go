// Package identity implements the single-user signup, login and
// password flows. The password digest lives in the app config; the
// authenticated flag is persisted separately so a restart does not log
// the user out.
package identity

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	appaudit "github.com/bizmob/backend/internal/application/audit"
	auditlog "github.com/bizmob/backend/internal/domain/audit"
	"github.com/bizmob/backend/internal/domain/settings"
	"github.com/bizmob/backend/internal/domain/shared"
	"github.com/bizmob/backend/internal/infrastructure/auth"
	"github.com/bizmob/backend/internal/store"
)

// AuthFlagStore persists whether the device is currently logged in.
type AuthFlagStore interface {
	SetAuthenticated(ctx context.Context, authenticated bool) error
	Authenticated(ctx context.Context) (bool, error)
}

// SignupInput carries the initial setup form.
type SignupInput struct {
	BusinessName   string
	UserName       string
	Currency       string
	CurrencyCode   string
	CurrencySymbol string
	Language       settings.Language
	Password       string
}

// Service manages the single local account.
type Service struct {
	store *store.Store
	flags AuthFlagStore
	jwt   *auth.JWTService
	rec   *appaudit.Recorder
	log   *zap.Logger
}

// NewService creates an identity service. A nil jwt service disables
// token issuance; Login then returns an empty token.
func NewService(store *store.Store, flags AuthFlagStore, jwt *auth.JWTService, rec *appaudit.Recorder, log *zap.Logger) *Service {
	return &Service{store: store, flags: flags, jwt: jwt, rec: rec, log: log}
}

// Signup creates the app config with a hashed password. Refused when
// the app is already configured.
func (s *Service) Signup(ctx context.Context, in SignupInput) error {
	if err := validatePassword(in.Password); err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	var serr error
	s.store.Mutate(func(st *store.State) {
		if st.Config != nil {
			serr = shared.NewDomainError("ALREADY_CONFIGURED", "Application has already been set up")
			return
		}
		config, cerr := settings.NewAppConfig(in.BusinessName, in.UserName, in.Currency,
			in.CurrencyCode, in.CurrencySymbol, in.Language, string(hash))
		if cerr != nil {
			serr = cerr
			return
		}
		st.Config = config
		s.rec.Success(st, auditlog.EventCreate, auditlog.EntityConfig, "",
			"Business "+config.BusinessName+" configured")
	})
	if serr != nil {
		return serr
	}
	return s.flags.SetAuthenticated(ctx, true)
}

// Login verifies the password. Success returns a sync token and
// persists the authenticated flag; both outcomes are audited.
func (s *Service) Login(ctx context.Context, password string) (string, error) {
	var (
		userName string
		lerr     error
	)
	s.store.Mutate(func(st *store.State) {
		if st.Config == nil {
			lerr = shared.ErrNotConfigured
			return
		}
		if cerr := bcrypt.CompareHashAndPassword([]byte(st.Config.PasswordHash), []byte(password)); cerr != nil {
			s.rec.Failure(st, auditlog.EventLogin, auditlog.EntityConfig, "",
				"Login attempt rejected", shared.ErrInvalidCredentials.Message)
			lerr = shared.ErrInvalidCredentials
			return
		}
		userName = st.Config.UserName
		s.rec.Success(st, auditlog.EventLogin, auditlog.EntityConfig, "", "User logged in")
	})
	if lerr != nil {
		return "", lerr
	}

	if err := s.flags.SetAuthenticated(ctx, true); err != nil {
		return "", err
	}

	if s.jwt == nil {
		return "", nil
	}
	return s.jwt.Generate(userName)
}

// Logout clears the persisted authenticated flag.
func (s *Service) Logout(ctx context.Context) error {
	s.store.Mutate(func(st *store.State) {
		s.rec.Success(st, auditlog.EventLogin, auditlog.EntityConfig, "", "User logged out")
	})
	return s.flags.SetAuthenticated(ctx, false)
}

// Authenticated reports the persisted login state.
func (s *Service) Authenticated(ctx context.Context) (bool, error) {
	return s.flags.Authenticated(ctx)
}

// ChangePassword verifies the current password and stores a new hash.
func (s *Service) ChangePassword(ctx context.Context, current, next string) error {
	if err := validatePassword(next); err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(next), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	var cerr error
	s.store.Mutate(func(st *store.State) {
		if st.Config == nil {
			cerr = shared.ErrNotConfigured
			return
		}
		if verr := bcrypt.CompareHashAndPassword([]byte(st.Config.PasswordHash), []byte(current)); verr != nil {
			s.rec.Failure(st, auditlog.EventUpdate, auditlog.EntityConfig, "",
				"Password change rejected", shared.ErrInvalidCredentials.Message)
			cerr = shared.ErrInvalidCredentials
			return
		}
		st.Config.SetPasswordHash(string(hash))
		s.rec.Success(st, auditlog.EventUpdate, auditlog.EntityConfig, "", "Password changed")
	})
	return cerr
}

func validatePassword(password string) error {
	if len(password) < 6 {
		return shared.NewDomainError("INVALID_PASSWORD", "Password must be at least 6 characters")
	}
	return nil
}
