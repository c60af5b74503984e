package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/brightlens/brokerportal/internal/application"
	"github.com/brightlens/brokerportal/internal/domain/entity"
	"github.com/brightlens/brokerportal/pkg/helpers"
	"github.com/brightlens/brokerportal/pkg/response"
	"github.com/brightlens/brokerportal/pkg/validation"
)

type AuthHandler struct {
	Svc    *application.AuthService
	JWT    *helpers.JWTManager
	Logger *logrus.Logger
}

func NewAuthHandler(svc *application.AuthService, jwt *helpers.JWTManager, logger *logrus.Logger) *AuthHandler {
	return &AuthHandler{Svc: svc, JWT: jwt, Logger: logger}
}

type registerRequest struct {
	Email              string `json:"email" binding:"required,email"`
	Password           string `json:"password" binding:"required,pwd"`
	ConfirmPassword    string `json:"confirm_password" binding:"required,eqfield=Password"`
	FirstName          string `json:"first_name" binding:"required"`
	LastName           string `json:"last_name" binding:"required"`
	Phone              string `json:"phone" binding:"omitempty,phone"`
	CompanyName        string `json:"company_name" binding:"required"`
	BrokerLicense      string `json:"broker_license" binding:"required"`
	LicenseState       string `json:"license_state"`
	VerificationMethod string `json:"verification_method" binding:"required,oneof=email sms"`
	AcceptTerms        bool   `json:"accept_terms" binding:"eq=true"`
	AcceptPrivacy      bool   `json:"accept_privacy" binding:"eq=true"`
	MarketingConsent   bool   `json:"marketing_consent"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type verifyOTPRequest struct {
	Code string `json:"code" binding:"required,otp"`
}

type resendOTPRequest struct {
	Type string `json:"type" binding:"required,oneof=email sms"`
}

func userSummary(u *entity.User) gin.H {
	return gin.H{
		"id":          u.ID,
		"email":       u.Email,
		"first_name":  u.FirstName,
		"last_name":   u.LastName,
		"phone":       u.Phone,
		"is_verified": u.IsVerified,
		"created_at":  u.CreatedAt,
	}
}

func brokerSummary(b *entity.Broker) gin.H {
	if b == nil {
		return nil
	}
	return gin.H{
		"id":                  b.ID,
		"company_name":        b.CompanyName,
		"broker_license":      b.BrokerLicense,
		"license_state":       b.LicenseState,
		"verification_status": b.VerificationStatus,
		"created_at":          b.CreatedAt,
	}
}

// Register POST /api/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}

	res, err := h.Svc.Register(c.Request.Context(), application.RegisterInput{
		Email:         req.Email,
		Password:      req.Password,
		FirstName:     req.FirstName,
		LastName:      req.LastName,
		Phone:         req.Phone,
		CompanyName:   req.CompanyName,
		BrokerLicense: req.BrokerLicense,
		LicenseState:  req.LicenseState,
		Method:        entity.Channel(req.VerificationMethod),
	})
	if err != nil {
		// Duplicates are deliberately not distinguishable to the caller.
		if errors.Is(err, application.ErrDuplicateEmail) || errors.Is(err, application.ErrDuplicateLicense) {
			h.Logger.WithError(err).WithField("email", req.Email).Info("registration rejected")
			response.Error[any](c, http.StatusBadRequest, "Registration failed", nil)
			return
		}
		h.Logger.WithError(err).Error("registration failed")
		response.Error[any](c, http.StatusInternalServerError, "Something went wrong. Please try again", nil)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{
		"user":               userSummary(res.User),
		"broker":             brokerSummary(res.Broker),
		"needs_verification": res.NeedsVerification,
	}, "Registration successful. Please verify your account", nil)
}

// Login POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}

	u, broker, token, err := h.Svc.Login(c.Request.Context(), req.Email, req.Password)
	switch {
	case errors.Is(err, application.ErrInvalidCredentials):
		response.Error[any](c, http.StatusUnauthorized, "Invalid email or password", nil)
		return
	case errors.Is(err, application.ErrNotVerified):
		response.Error[any](c, http.StatusUnauthorized, "Account not verified. Please verify your account first", nil)
		return
	case err != nil:
		h.Logger.WithError(err).Error("login failed")
		response.Error[any](c, http.StatusInternalServerError, "Something went wrong. Please try again", nil)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"user":   userSummary(u),
		"broker": brokerSummary(broker),
		"token":  token,
	}, "Login successful", nil)
}

// VerifyOTP POST /api/auth/verify-otp (bearer token, unverified accounts allowed)
func (h *AuthHandler) VerifyOTP(c *gin.Context) {
	var req verifyOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}

	uid := c.GetString("userID")
	err := h.Svc.VerifyOTP(c.Request.Context(), uid, req.Code)
	switch {
	case errors.Is(err, application.ErrOTPNotFound):
		response.Error[any](c, http.StatusBadRequest, "Verification code not found. Please request a new code", nil)
		return
	case errors.Is(err, application.ErrOTPExpired):
		response.Error[any](c, http.StatusBadRequest, "Verification code has expired. Please request a new code", nil)
		return
	case errors.Is(err, application.ErrTooManyAttempts):
		response.Error[any](c, http.StatusBadRequest, "Too many verification attempts. Please request a new code", nil)
		return
	case errors.Is(err, application.ErrInvalidCode):
		response.Error[any](c, http.StatusBadRequest, "Invalid verification code", nil)
		return
	case errors.Is(err, application.ErrVerificationPersist):
		response.Error[any](c, http.StatusBadRequest, "Verification could not be completed. Please try again", nil)
		return
	case err != nil:
		h.Logger.WithError(err).WithField("user_id", uid).Error("otp verification failed")
		response.Error[any](c, http.StatusInternalServerError, "Something went wrong. Please try again", nil)
		return
	}

	response.Success[any](c, http.StatusOK, gin.H{"verified": true}, "Account verified", nil)
}

// ResendOTP POST /api/auth/resend-otp (bearer token)
func (h *AuthHandler) ResendOTP(c *gin.Context) {
	var req resendOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}

	uid := c.GetString("userID")
	err := h.Svc.ResendOTP(c.Request.Context(), uid, entity.Channel(req.Type))
	switch {
	case errors.Is(err, application.ErrAccountNotFound):
		response.Error[any](c, http.StatusBadRequest, "Account not found", nil)
		return
	case errors.Is(err, application.ErrNotificationFailed):
		response.Error[any](c, http.StatusBadRequest, "Failed to send verification code. Please try again", nil)
		return
	case err != nil:
		h.Logger.WithError(err).WithField("user_id", uid).Error("otp resend failed")
		response.Error[any](c, http.StatusInternalServerError, "Something went wrong. Please try again", nil)
		return
	}

	response.Success[any](c, http.StatusOK, gin.H{"sent": true}, "Verification code sent", nil)
}

// Profile GET /api/auth/profile (bearer token)
func (h *AuthHandler) Profile(c *gin.Context) {
	uid := c.GetString("userID")
	u, broker, err := h.Svc.GetProfile(c.Request.Context(), uid)
	if err != nil {
		if errors.Is(err, application.ErrAccountNotFound) {
			response.Error[any](c, http.StatusNotFound, "Account not found", nil)
			return
		}
		h.Logger.WithError(err).WithField("user_id", uid).Error("profile load failed")
		response.Error[any](c, http.StatusInternalServerError, "Something went wrong. Please try again", nil)
		return
	}
	response.Success(c, http.StatusOK, gin.H{
		"user":   userSummary(u),
		"broker": brokerSummary(broker),
	}, "profile", nil)
}

// Logout POST /api/auth/logout (bearer token). Tokens are stateless, so
// this is an acknowledgement; the client discards its copy.
func (h *AuthHandler) Logout(c *gin.Context) {
	response.Success[any](c, http.StatusOK, gin.H{"logged_out": true}, "Logged out", nil)
}

// Status GET /api/auth/status (token optional)
func (h *AuthHandler) Status(c *gin.Context) {
	auth := c.GetHeader("Authorization")
	token, ok := strings.CutPrefix(auth, "Bearer ")
	if !ok || token == "" {
		response.Success[any](c, http.StatusOK, gin.H{"authenticated": false}, "status", nil)
		return
	}
	claims, err := h.JWT.ParseToken(token)
	if err != nil {
		response.Success[any](c, http.StatusOK, gin.H{"authenticated": false}, "status", nil)
		return
	}
	response.Success[any](c, http.StatusOK, gin.H{
		"authenticated": true,
		"verified":      claims.Verified,
		"user_id":       claims.UserID,
	}, "status", nil)
}
