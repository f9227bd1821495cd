// Package settings updates the app config singleton.
package settings

import (
	"context"

	"go.uber.org/zap"

	appaudit "github.com/bizmob/backend/internal/application/audit"
	auditlog "github.com/bizmob/backend/internal/domain/audit"
	"github.com/bizmob/backend/internal/domain/settings"
	"github.com/bizmob/backend/internal/domain/shared"
	"github.com/bizmob/backend/internal/store"
)

// Service reads and updates the configuration.
type Service struct {
	store *store.Store
	rec   *appaudit.Recorder
	log   *zap.Logger
}

// NewService creates a settings service.
func NewService(store *store.Store, rec *appaudit.Recorder, log *zap.Logger) *Service {
	return &Service{store: store, rec: rec, log: log}
}

// Get returns a copy of the current config.
func (s *Service) Get(ctx context.Context) (*settings.AppConfig, error) {
	var (
		config *settings.AppConfig
		err    error
	)
	s.store.View(func(st *store.State) {
		if st.Config == nil {
			err = shared.ErrNotConfigured
			return
		}
		c := *st.Config
		config = &c
	})
	return config, err
}

// UpdateBusinessInfo changes the business and user names.
func (s *Service) UpdateBusinessInfo(ctx context.Context, businessName, userName string) error {
	return s.update(func(st *store.State) error {
		old := shared.NewChanges().
			Set("businessName", st.Config.BusinessName, businessName).
			Set("userName", st.Config.UserName, userName)
		if err := st.Config.UpdateBusinessInfo(businessName, userName); err != nil {
			return err
		}
		s.rec.Changed(st, auditlog.EventUpdate, auditlog.EntityConfig, "", "Business info updated", old)
		return nil
	})
}

// UpdateCurrency changes the display currency.
func (s *Service) UpdateCurrency(ctx context.Context, currency, code, symbol string) error {
	return s.update(func(st *store.State) error {
		changes := shared.NewChanges().Set("currency", st.Config.Currency, currency)
		st.Config.UpdateCurrency(currency, code, symbol)
		s.rec.Changed(st, auditlog.EventUpdate, auditlog.EntityConfig, "", "Currency updated", changes)
		return nil
	})
}

// UpdateLanguage changes the UI language.
func (s *Service) UpdateLanguage(ctx context.Context, language settings.Language) error {
	return s.update(func(st *store.State) error {
		changes := shared.NewChanges().Set("language", st.Config.Language, language)
		if err := st.Config.UpdateLanguage(language); err != nil {
			return err
		}
		s.rec.Changed(st, auditlog.EventUpdate, auditlog.EntityConfig, "", "Language updated", changes)
		return nil
	})
}

func (s *Service) update(fn func(*store.State) error) error {
	var err error
	s.store.Mutate(func(st *store.State) {
		if st.Config == nil {
			err = shared.ErrNotConfigured
			return
		}
		err = fn(st)
	})
	return err
}
