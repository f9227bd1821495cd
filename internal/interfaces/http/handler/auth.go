package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/bizmob/backend/internal/application/identity"
	appsettings "github.com/bizmob/backend/internal/application/settings"
	"github.com/bizmob/backend/internal/domain/settings"
)

// SignupRequest is the initial setup payload.
type SignupRequest struct {
	BusinessName   string `json:"businessName" binding:"required,max=200"`
	UserName       string `json:"userName" binding:"required,max=200"`
	Currency       string `json:"currency"`
	CurrencyCode   string `json:"currencyCode"`
	CurrencySymbol string `json:"currencySymbol"`
	Language       string `json:"language" binding:"required,oneof=en fr es ar"`
	Password       string `json:"password" binding:"required,min=6"`
}

// LoginRequest is the login payload.
type LoginRequest struct {
	Password string `json:"password" binding:"required"`
}

// ChangePasswordRequest is the password change payload.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required,min=6"`
}

// BusinessInfoRequest updates the business identity.
type BusinessInfoRequest struct {
	BusinessName string `json:"businessName" binding:"required,max=200"`
	UserName     string `json:"userName" binding:"required,max=200"`
}

// CurrencyRequest updates the display currency.
type CurrencyRequest struct {
	Currency       string `json:"currency" binding:"required"`
	CurrencyCode   string `json:"currencyCode"`
	CurrencySymbol string `json:"currencySymbol"`
}

// LanguageRequest updates the UI language.
type LanguageRequest struct {
	Language string `json:"language" binding:"required,oneof=en fr es ar"`
}

// AuthHandler serves the account and settings endpoints.
type AuthHandler struct {
	BaseHandler
	identity *identity.Service
	settings *appsettings.Service
}

// NewAuthHandler creates an auth handler.
func NewAuthHandler(identitySvc *identity.Service, settingsSvc *appsettings.Service) *AuthHandler {
	return &AuthHandler{identity: identitySvc, settings: settingsSvc}
}

// Signup handles POST /auth/signup
func (h *AuthHandler) Signup(c *gin.Context) {
	var req SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	err := h.identity.Signup(c.Request.Context(), identity.SignupInput{
		BusinessName:   req.BusinessName,
		UserName:       req.UserName,
		Currency:       req.Currency,
		CurrencyCode:   req.CurrencyCode,
		CurrencySymbol: req.CurrencySymbol,
		Language:       settings.Language(req.Language),
		Password:       req.Password,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, gin.H{"configured": true})
}

// Login handles POST /auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	token, err := h.identity.Login(c.Request.Context(), req.Password)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gin.H{"token": token})
}

// Logout handles POST /auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.identity.Logout(c.Request.Context()); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// ChangePassword handles POST /auth/password
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	if err := h.identity.ChangePassword(c.Request.Context(), req.CurrentPassword, req.NewPassword); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// GetSettings handles GET /settings
func (h *AuthHandler) GetSettings(c *gin.Context) {
	config, err := h.settings.Get(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	// The password digest never leaves the server.
	config.PasswordHash = ""
	h.Success(c, config)
}

// UpdateBusinessInfo handles PUT /settings/business
func (h *AuthHandler) UpdateBusinessInfo(c *gin.Context) {
	var req BusinessInfoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	if err := h.settings.UpdateBusinessInfo(c.Request.Context(), req.BusinessName, req.UserName); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// UpdateCurrency handles PUT /settings/currency
func (h *AuthHandler) UpdateCurrency(c *gin.Context) {
	var req CurrencyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	if err := h.settings.UpdateCurrency(c.Request.Context(), req.Currency, req.CurrencyCode, req.CurrencySymbol); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// UpdateLanguage handles PUT /settings/language
func (h *AuthHandler) UpdateLanguage(c *gin.Context) {
	var req LanguageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	if err := h.settings.UpdateLanguage(c.Request.Context(), settings.Language(req.Language)); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
