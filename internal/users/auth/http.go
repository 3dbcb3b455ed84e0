// Copyright (c) 2026 Wafya. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/wafya/internal/platform/ctxutil"
	"github.com/taibuivan/wafya/internal/platform/middleware"
	requestutil "github.com/taibuivan/wafya/internal/platform/request"
	"github.com/taibuivan/wafya/internal/platform/respond"
	"github.com/taibuivan/wafya/internal/platform/sec"
)

// # Definitions & Constructors

// Handler implements the account and credential HTTP endpoints.
//
// This layer is strictly responsible for transport concerns (status codes, JSON).
type Handler struct {
	authService   *Service
	authenticator *Authenticator
	limiter       *middleware.RateLimiter

	// exposeTokens returns raw reset and verification tokens in responses.
	// Only enabled in development, where no mailer is wired.
	exposeTokens bool
}

// NewHandler constructs a [Handler]. limiter may be nil to disable the credential throttle.
func NewHandler(service *Service, authenticator *Authenticator, limiter *middleware.RateLimiter, exposeTokens bool) *Handler {
	return &Handler{
		authService:   service,
		authenticator: authenticator,
		limiter:       limiter,
		exposeTokens:  exposeTokens,
	}
}

// Routes returns a [chi.Router] configured with authentication-specific routes.
//
// # Endpoints
//   - POST   /register, /login, /refresh, /forgot-password, /reset-password (throttled)
//   - GET    /verify-email/{token}, /session (anonymous allowed)
//   - POST   /logout, /change-password, /2fa/setup, /2fa/enable, /2fa/disable
//   - GET    /profile
//   - DELETE /account
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	// Credential endpoints share a tighter per-IP budget.
	router.Group(func(r chi.Router) {
		if handler.limiter != nil {
			r.Use(handler.limiter.Handler)
		}
		r.Post("/register", handler.register)
		r.Post("/login", handler.login)
		r.Post("/refresh", handler.refresh)
		r.Post("/refresh-token", handler.refresh)
		r.Post("/forgot-password", handler.forgotPassword)
		r.Post("/reset-password", handler.resetPassword)
	})

	router.Get("/verify-email/{token}", handler.verifyEmail)
	router.With(handler.authenticator.Optional).Get("/session", handler.session)

	// Protected endpoints
	router.Group(func(r chi.Router) {
		r.Use(handler.authenticator.Authenticate)
		r.Post("/logout", handler.logout)
		r.Get("/profile", handler.profile)
		r.Post("/change-password", handler.changePassword)
		r.Post("/2fa/setup", handler.setupTwoFactor)
		r.Post("/2fa/enable", handler.enableTwoFactor)
		r.Post("/2fa/disable", handler.disableTwoFactor)
		r.Delete("/account", handler.deleteAccount)
	})

	return router
}

// # Request Payloads

type registerRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Phone     string `json:"phone"`
	Role      string `json:"role"`
}

type loginRequest struct {
	Email         string `json:"email"`
	Password      string `json:"password"`
	TwoFactorCode string `json:"twoFactorCode"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

type resetPasswordRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

type enableTwoFactorRequest struct {
	Token string `json:"token"`
}

type passwordRequest struct {
	Password string `json:"password"`
}

// # Response Payloads

type tokenResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int64  `json:"expiresIn"`
}

type messageResponse struct {
	Message string `json:"message"`
	Token   string `json:"token,omitempty"`
}

func (handler *Handler) tokens(pair *sec.TokenPair) tokenResponse {
	return tokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresIn:    int64(handler.authService.tokens.AccessTTL().Seconds()),
	}
}

// exposed returns token only when raw tokens may be shown to the caller.
func (handler *Handler) exposed(token string) string {
	if !handler.exposeTokens {
		return ""
	}
	return token
}

/*
Register handles the creation of a new account.

POST /api/v1/auth/register

Response:
  - 201: Account, token pair and requiresVerification
  - 400: VALIDATION_ERROR
  - 409: EMAIL_ALREADY_EXISTS
*/
func (handler *Handler) register(writer http.ResponseWriter, request *http.Request) {
	var input registerRequest
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	result, err := handler.authService.Register(request.Context(), RegisterInput{
		Email:     input.Email,
		Password:  input.Password,
		FirstName: input.FirstName,
		LastName:  input.LastName,
		Phone:     input.Phone,
		Role:      input.Role,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	body := map[string]any{
		"message":              "Account created",
		"user":                 result.Identity,
		"tokens":               handler.tokens(result.Tokens),
		"requiresVerification": !result.Identity.IsVerified,
	}
	if token := handler.exposed(result.VerificationToken); token != "" {
		body["verificationToken"] = token
	}

	respond.Created(writer, body)
}

/*
Login authenticates an account.

POST /api/v1/auth/login

Response:
  - 200: Account and token pair, or requiresTwoFactor with userId
  - 401: INVALID_CREDENTIALS, ACCOUNT_DISABLED, INVALID_2FA_CODE
  - 423: ACCOUNT_LOCKED with lockedUntil
*/
func (handler *Handler) login(writer http.ResponseWriter, request *http.Request) {
	var input loginRequest
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	result, err := handler.authService.Login(request.Context(), LoginInput{
		Email:         input.Email,
		Password:      input.Password,
		TwoFactorCode: input.TwoFactorCode,
		ClientIP:      ctxutil.GetClientIP(request.Context()),
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if result.RequiresTwoFactor {
		respond.OK(writer, map[string]any{
			"message":           "Two-factor code required",
			"requiresTwoFactor": true,
			"userId":            result.UserID,
		})
		return
	}

	respond.OK(writer, map[string]any{
		"message": "Login successful",
		"user":    result.Identity,
		"tokens":  handler.tokens(result.Tokens),
	})
}

// refresh exchanges a refresh token for a new pair.
func (handler *Handler) refresh(writer http.ResponseWriter, request *http.Request) {
	var input refreshRequest
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	pair, err := handler.authService.Refresh(request.Context(), input.RefreshToken)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]any{"tokens": handler.tokens(pair)})
}

/*
Logout acknowledges a client-side logout.

POST /api/v1/auth/logout

Tokens are not revoked server-side; they lapse at their expiry.
*/
func (handler *Handler) logout(writer http.ResponseWriter, request *http.Request) {
	principal, err := requestutil.RequiredPrincipal(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	handler.authService.Logout(request.Context(), principal)
	respond.OK(writer, messageResponse{Message: "Logged out"})
}

// forgotPassword always answers the same way, whether or not the address is known.
func (handler *Handler) forgotPassword(writer http.ResponseWriter, request *http.Request) {
	var input forgotPasswordRequest
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	token, err := handler.authService.ForgotPassword(request.Context(), input.Email)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, messageResponse{
		Message: "If this email is registered, a reset link has been sent.",
		Token:   handler.exposed(token),
	})
}

/*
ResetPassword completes the password recovery flow.

POST /api/v1/auth/reset-password

Response:
  - 200: Password updated, lockout cleared
  - 400: INVALID_RESET_TOKEN or VALIDATION_ERROR
*/
func (handler *Handler) resetPassword(writer http.ResponseWriter, request *http.Request) {
	var input resetPasswordRequest
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.authService.ResetPassword(request.Context(), input.Token, input.Password); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, messageResponse{Message: "Password reset successfully"})
}

// verifyEmail consumes the token from the emailed link.
func (handler *Handler) verifyEmail(writer http.ResponseWriter, request *http.Request) {
	if err := handler.authService.VerifyEmail(request.Context(), requestutil.Param(request, "token")); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, messageResponse{Message: "Email verified successfully"})
}

// session reports whether the caller holds a usable access token, without failing when it does not.
func (handler *Handler) session(writer http.ResponseWriter, request *http.Request) {
	principal := requestutil.Principal(request)
	if principal == nil {
		respond.OK(writer, map[string]any{"authenticated": false})
		return
	}

	respond.OK(writer, map[string]any{
		"authenticated": true,
		"user":          principal,
	})
}

// profile returns the live account of the caller.
func (handler *Handler) profile(writer http.ResponseWriter, request *http.Request) {
	principal, err := requestutil.RequiredPrincipal(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	identity, err := handler.authService.Profile(request.Context(), principal.ID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]any{"user": identity})
}

func (handler *Handler) changePassword(writer http.ResponseWriter, request *http.Request) {
	principal, err := requestutil.RequiredPrincipal(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input changePasswordRequest
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.authService.ChangePassword(request.Context(), principal.ID, input.CurrentPassword, input.NewPassword); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, messageResponse{Message: "Password changed successfully"})
}

/*
SetupTwoFactor starts enrolment.

POST /api/v1/auth/2fa/setup

Response:
  - 200: secret and qrCode (otpauth URI)
  - 400: 2FA_ALREADY_ENABLED
*/
func (handler *Handler) setupTwoFactor(writer http.ResponseWriter, request *http.Request) {
	principal, err := requestutil.RequiredPrincipal(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	secret, err := handler.authService.SetupTwoFactor(request.Context(), principal.ID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]any{
		"message": "Two-factor secret generated",
		"secret":  secret.Secret,
		"qrCode":  secret.URI,
	})
}

// enableTwoFactor confirms enrolment; the backup codes are shown exactly once.
func (handler *Handler) enableTwoFactor(writer http.ResponseWriter, request *http.Request) {
	principal, err := requestutil.RequiredPrincipal(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input enableTwoFactorRequest
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	backupCodes, err := handler.authService.EnableTwoFactor(request.Context(), principal.ID, input.Token)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]any{
		"message":     "Two-factor authentication enabled",
		"backupCodes": backupCodes,
	})
}

func (handler *Handler) disableTwoFactor(writer http.ResponseWriter, request *http.Request) {
	principal, err := requestutil.RequiredPrincipal(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input passwordRequest
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.authService.DisableTwoFactor(request.Context(), principal.ID, input.Password); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, messageResponse{Message: "Two-factor authentication disabled"})
}

// deleteAccount soft-deletes the caller after a password re-check.
func (handler *Handler) deleteAccount(writer http.ResponseWriter, request *http.Request) {
	principal, err := requestutil.RequiredPrincipal(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input passwordRequest
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.authService.DeleteAccount(request.Context(), principal.ID, input.Password); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, messageResponse{Message: "Account deleted"})
}
