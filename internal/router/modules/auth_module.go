package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/brightlens/brokerportal/internal/container"
	handlers "github.com/brightlens/brokerportal/internal/interface/http"
	"github.com/brightlens/brokerportal/internal/interface/middleware"
	"github.com/brightlens/brokerportal/pkg/helpers"
)

type AuthModule struct {
	Handler *handlers.AuthHandler
	JWT     *helpers.JWTManager
}

func NewAuthModule(h *handlers.AuthHandler, jwt *helpers.JWTManager) *AuthModule {
	return &AuthModule{Handler: h, JWT: jwt}
}

func (m *AuthModule) Register(rg *gin.RouterGroup) {
	rdb := container.GetRedis()

	// Registration/login: 10 per 15 minutes per client.
	credLimiter := middleware.RateLimit(rdb, 10, 15*time.Minute, middleware.KeyByIPAndPath())
	// OTP operations: 5 per 5 minutes per client.
	otpLimiter := middleware.RateLimit(rdb, 5, 5*time.Minute, middleware.KeyByIPAndPath())

	rg.POST("/auth/register", credLimiter, m.Handler.Register)
	rg.POST("/auth/login", credLimiter, m.Handler.Login)
	rg.GET("/auth/status", m.Handler.Status)

	// Bearer-token endpoints; unverified accounts are allowed so they
	// can complete verification.
	auth := rg.Group("/")
	auth.Use(middleware.BearerAuth(m.JWT))
	{
		auth.POST("/auth/verify-otp", otpLimiter, m.Handler.VerifyOTP)
		auth.POST("/auth/resend-otp", otpLimiter, m.Handler.ResendOTP)
		auth.GET("/auth/profile", m.Handler.Profile)
		auth.POST("/auth/logout", m.Handler.Logout)
	}
}
