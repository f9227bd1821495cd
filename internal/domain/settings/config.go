package settings

import (
	"time"

	"github.com/bizmob/backend/internal/domain/shared"
)

// Language is the UI language selected at signup.
type Language string

const (
	LanguageEnglish Language = "en"
	LanguageFrench  Language = "fr"
	LanguageSpanish Language = "es"
	LanguageArabic  Language = "ar"
)

// AppConfig is the process-wide singleton holding business identity and
// preferences. It is created at signup, mutated by settings updates and
// cleared on reset.
type AppConfig struct {
	BusinessName      string     `json:"businessName"`
	UserName          string     `json:"userName"`
	Currency          string     `json:"currency"`
	CurrencyCode      string     `json:"currencyCode"`
	CurrencySymbol    string     `json:"currencySymbol"`
	Language          Language   `json:"language"`
	IsRTL             bool       `json:"isRTL"`
	PasswordHash      string     `json:"passwordHash"`
	LastSyncTimestamp *time.Time `json:"lastSyncTimestamp,omitempty"`
	Version           int        `json:"version"`
}

// NewAppConfig creates the config at signup time.
func NewAppConfig(businessName, userName, currency, currencyCode, currencySymbol string, language Language, passwordHash string) (*AppConfig, error) {
	if businessName == "" || userName == "" {
		return nil, shared.NewDomainError("INVALID_CONFIG", "Business name and user name are required")
	}
	if err := validateLanguage(language); err != nil {
		return nil, err
	}

	return &AppConfig{
		BusinessName:   businessName,
		UserName:       userName,
		Currency:       currency,
		CurrencyCode:   currencyCode,
		CurrencySymbol: currencySymbol,
		Language:       language,
		IsRTL:          language == LanguageArabic,
		PasswordHash:   passwordHash,
		Version:        1,
	}, nil
}

// UpdateBusinessInfo changes the business and user names.
func (c *AppConfig) UpdateBusinessInfo(businessName, userName string) error {
	if businessName == "" || userName == "" {
		return shared.NewDomainError("INVALID_CONFIG", "Business name and user name are required")
	}

	c.BusinessName = businessName
	c.UserName = userName
	c.Version++

	return nil
}

// UpdateCurrency changes the display currency.
func (c *AppConfig) UpdateCurrency(currency, currencyCode, currencySymbol string) {
	c.Currency = currency
	c.CurrencyCode = currencyCode
	c.CurrencySymbol = currencySymbol
	c.Version++
}

// UpdateLanguage changes the UI language.
func (c *AppConfig) UpdateLanguage(language Language) error {
	if err := validateLanguage(language); err != nil {
		return err
	}

	c.Language = language
	c.IsRTL = language == LanguageArabic
	c.Version++

	return nil
}

// SetPasswordHash stores a new password digest.
func (c *AppConfig) SetPasswordHash(hash string) {
	c.PasswordHash = hash
	c.Version++
}

// MarkSynced records the time of the last successful snapshot sync.
func (c *AppConfig) MarkSynced(at time.Time) {
	t := at
	c.LastSyncTimestamp = &t
}

func validateLanguage(language Language) error {
	switch language {
	case LanguageEnglish, LanguageFrench, LanguageSpanish, LanguageArabic:
		return nil
	default:
		return shared.NewDomainError("INVALID_LANGUAGE", "Language must be 'en', 'fr', 'es' or 'ar'")
	}
}
