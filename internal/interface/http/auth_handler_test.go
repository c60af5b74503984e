package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brightlens/brokerportal/internal/application"
	"github.com/brightlens/brokerportal/internal/domain/entity"
	"github.com/brightlens/brokerportal/internal/interface/middleware"
	"github.com/brightlens/brokerportal/pkg/helpers"
	"github.com/brightlens/brokerportal/pkg/validation"
)

type memUsers struct {
	byID   map[string]*entity.User
	nextID int
}

func (m *memUsers) Create(_ context.Context, u *entity.User) error {
	m.nextID++
	u.ID = fmt.Sprintf("user-%d", m.nextID)
	u.CreatedAt = time.Now()
	cp := *u
	m.byID[u.ID] = &cp
	return nil
}

func (m *memUsers) GetByID(_ context.Context, id string) (*entity.User, error) {
	u, ok := m.byID[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	for _, u := range m.byID {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memUsers) SetVerified(_ context.Context, id string) error {
	m.byID[id].IsVerified = true
	return nil
}

func (m *memUsers) Delete(_ context.Context, id string) error {
	delete(m.byID, id)
	return nil
}

type memBrokers struct {
	byUser map[string]*entity.Broker
}

func (m *memBrokers) Create(_ context.Context, b *entity.Broker) error {
	b.ID = "broker-" + b.UserID
	cp := *b
	m.byUser[b.UserID] = &cp
	return nil
}

func (m *memBrokers) GetByUserID(_ context.Context, userID string) (*entity.Broker, error) {
	b, ok := m.byUser[userID]
	if !ok {
		return nil, nil
	}
	cp := *b
	return &cp, nil
}

func (m *memBrokers) GetByLicense(_ context.Context, license string) (*entity.Broker, error) {
	for _, b := range m.byUser {
		if b.BrokerLicense == license {
			cp := *b
			return &cp, nil
		}
	}
	return nil, nil
}

type memOTPs struct {
	byID   map[string]*entity.OTPRecord
	nextID int
}

func (m *memOTPs) Create(_ context.Context, o *entity.OTPRecord) error {
	m.nextID++
	o.ID = fmt.Sprintf("otp-%d", m.nextID)
	o.CreatedAt = time.Now().Add(time.Duration(m.nextID) * time.Millisecond)
	cp := *o
	m.byID[o.ID] = &cp
	return nil
}

func (m *memOTPs) GetLatestUnverified(_ context.Context, userID string) (*entity.OTPRecord, error) {
	var recs []*entity.OTPRecord
	for _, r := range m.byID {
		if r.UserID == userID && !r.Verified {
			recs = append(recs, r)
		}
	}
	if len(recs) == 0 {
		return nil, nil
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].CreatedAt.After(recs[j].CreatedAt) })
	cp := *recs[0]
	return &cp, nil
}

func (m *memOTPs) IncrementAttempts(_ context.Context, id string, expected int) (int, bool, error) {
	r, ok := m.byID[id]
	if !ok || r.Verified || r.Attempts != expected {
		return 0, false, nil
	}
	r.Attempts++
	return r.Attempts, true, nil
}

func (m *memOTPs) MarkVerified(_ context.Context, id string, maxAttempts int) (bool, error) {
	r, ok := m.byID[id]
	if !ok || r.Verified || r.Attempts >= maxAttempts {
		return false, nil
	}
	r.Verified = true
	return true, nil
}

type recordingNotifier struct {
	ok   bool
	last map[string]string
}

func (n *recordingNotifier) Send(_ context.Context, _ entity.Channel, _ string, _ string, vars map[string]string) bool {
	n.last = vars
	return n.ok
}

type apiEnvelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type testServer struct {
	router   *gin.Engine
	otps     *memOTPs
	notifier *recordingNotifier
	jwt      *helpers.JWTManager
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	validation.Init()

	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	users := &memUsers{byID: map[string]*entity.User{}}
	brokers := &memBrokers{byUser: map[string]*entity.Broker{}}
	otps := &memOTPs{byID: map[string]*entity.OTPRecord{}}
	notifier := &recordingNotifier{ok: true}
	jwt := helpers.NewJWTManager("test-secret", time.Hour)

	svc := application.NewAuthService(users, brokers, otps, notifier, jwt, logger, "BrightLens Photography")
	h := NewAuthHandler(svc, jwt, logger)

	r := gin.New()
	auth := r.Group("/api/auth")
	auth.POST("/register", h.Register)
	auth.POST("/login", h.Login)
	auth.GET("/status", h.Status)
	protected := auth.Group("")
	protected.Use(middleware.BearerAuth(jwt))
	protected.POST("/verify-otp", h.VerifyOTP)
	protected.POST("/resend-otp", h.ResendOTP)
	protected.GET("/profile", h.Profile)
	protected.POST("/logout", h.Logout)

	return &testServer{router: r, otps: otps, notifier: notifier, jwt: jwt}
}

func (s *testServer) do(t *testing.T, method, path, token string, payload any) (*httptest.ResponseRecorder, apiEnvelope) {
	t.Helper()
	var body *bytes.Buffer
	if payload != nil {
		b, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewBuffer(b)
	} else {
		body = bytes.NewBuffer(nil)
	}
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var env apiEnvelope
	_ = json.Unmarshal(w.Body.Bytes(), &env)
	return w, env
}

func registerPayload() map[string]any {
	return map[string]any{
		"email":               "jane@example.com",
		"password":            "supersecret1",
		"confirm_password":    "supersecret1",
		"first_name":          "Jane",
		"last_name":           "Doe",
		"phone":               "+15550001111",
		"company_name":        "Doe Realty",
		"broker_license":      "LIC-1234",
		"license_state":       "CA",
		"verification_method": "email",
		"accept_terms":        true,
		"accept_privacy":      true,
	}
}

func (s *testServer) register(t *testing.T) (userID, token, code string) {
	t.Helper()
	w, env := s.do(t, http.MethodPost, "/api/auth/register", "", registerPayload())
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var data struct {
		User struct {
			ID string `json:"id"`
		} `json:"user"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	userID = data.User.ID

	// the OTP endpoints accept an unverified session
	tok, _, err := s.jwt.GenerateToken(userID, "jane@example.com", false)
	require.NoError(t, err)
	return userID, tok, s.notifier.last["code"]
}

func TestRegisterEndpoint(t *testing.T) {
	s := newTestServer(t)
	w, env := s.do(t, http.MethodPost, "/api/auth/register", "", registerPayload())
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.True(t, env.Success)
	assert.Equal(t, "Registration successful. Please verify your account", env.Message)
	assert.NotContains(t, w.Body.String(), "supersecret1")
	assert.Len(t, s.notifier.last["code"], 6)
}

func TestRegisterValidation(t *testing.T) {
	s := newTestServer(t)
	cases := []struct {
		name   string
		mutate func(map[string]any)
	}{
		{"short password", func(p map[string]any) { p["password"] = "short"; p["confirm_password"] = "short" }},
		{"password mismatch", func(p map[string]any) { p["confirm_password"] = "different123" }},
		{"bad email", func(p map[string]any) { p["email"] = "not-an-email" }},
		{"bad phone", func(p map[string]any) { p["phone"] = "555-0111" }},
		{"bad method", func(p map[string]any) { p["verification_method"] = "carrier-pigeon" }},
		{"terms not accepted", func(p map[string]any) { p["accept_terms"] = false }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := registerPayload()
			tc.mutate(p)
			w, env := s.do(t, http.MethodPost, "/api/auth/register", "", p)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.False(t, env.Success)
		})
	}
}

func TestRegisterDuplicatesAreIndistinguishable(t *testing.T) {
	s := newTestServer(t)
	s.register(t)

	dupEmail := registerPayload()
	dupEmail["broker_license"] = "LIC-9999"
	wEmail, envEmail := s.do(t, http.MethodPost, "/api/auth/register", "", dupEmail)

	dupLicense := registerPayload()
	dupLicense["email"] = "other@example.com"
	wLicense, envLicense := s.do(t, http.MethodPost, "/api/auth/register", "", dupLicense)

	assert.Equal(t, http.StatusBadRequest, wEmail.Code)
	assert.Equal(t, http.StatusBadRequest, wLicense.Code)
	assert.Equal(t, "Registration failed", envEmail.Message)
	assert.Equal(t, envEmail.Message, envLicense.Message)
}

func TestVerifyOTPEndpointFlow(t *testing.T) {
	s := newTestServer(t)
	_, token, code := s.register(t)

	// wrong code three times, then even the right code is refused
	wrong := "000000"
	if code == wrong {
		wrong = "000001"
	}
	for i := 0; i < 3; i++ {
		w, env := s.do(t, http.MethodPost, "/api/auth/verify-otp", token, map[string]any{"code": wrong})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Invalid verification code", env.Message)
	}
	w, env := s.do(t, http.MethodPost, "/api/auth/verify-otp", token, map[string]any{"code": code})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Too many verification attempts. Please request a new code", env.Message)

	// a fresh code still works
	_, env = s.do(t, http.MethodPost, "/api/auth/resend-otp", token, map[string]any{"type": "email"})
	require.True(t, env.Success)
	w, env = s.do(t, http.MethodPost, "/api/auth/verify-otp", token, map[string]any{"code": s.notifier.last["code"]})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Account verified", env.Message)
}

func TestVerifyOTPExpired(t *testing.T) {
	s := newTestServer(t)
	_, token, code := s.register(t)

	for _, rec := range s.otps.byID {
		rec.ExpiresAt = time.Now().Add(-time.Minute)
	}
	w, env := s.do(t, http.MethodPost, "/api/auth/verify-otp", token, map[string]any{"code": code})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Verification code has expired. Please request a new code", env.Message)
}

func TestVerifyOTPRequiresBearerToken(t *testing.T) {
	s := newTestServer(t)
	w, _ := s.do(t, http.MethodPost, "/api/auth/verify-otp", "", map[string]any{"code": "123456"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestResendOTPDispatchFailure(t *testing.T) {
	s := newTestServer(t)
	_, token, _ := s.register(t)

	s.notifier.ok = false
	w, env := s.do(t, http.MethodPost, "/api/auth/resend-otp", token, map[string]any{"type": "email"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Failed to send verification code. Please try again", env.Message)
}

func TestLoginEndpoint(t *testing.T) {
	s := newTestServer(t)
	_, token, code := s.register(t)

	// unverified login is refused
	w, env := s.do(t, http.MethodPost, "/api/auth/login", "", map[string]any{
		"email": "jane@example.com", "password": "supersecret1",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Account not verified. Please verify your account first", env.Message)

	_, env = s.do(t, http.MethodPost, "/api/auth/verify-otp", token, map[string]any{"code": code})
	require.True(t, env.Success)

	// wrong password and unknown email read the same
	_, envWrong := s.do(t, http.MethodPost, "/api/auth/login", "", map[string]any{
		"email": "jane@example.com", "password": "wrongpass1",
	})
	_, envMissing := s.do(t, http.MethodPost, "/api/auth/login", "", map[string]any{
		"email": "nobody@example.com", "password": "whatever1",
	})
	assert.Equal(t, "Invalid email or password", envWrong.Message)
	assert.Equal(t, envWrong.Message, envMissing.Message)

	w, env = s.do(t, http.MethodPost, "/api/auth/login", "", map[string]any{
		"email": "jane@example.com", "password": "supersecret1",
	})
	require.Equal(t, http.StatusOK, w.Code)
	var data struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	claims, err := s.jwt.ParseToken(data.Token)
	require.NoError(t, err)
	assert.True(t, claims.Verified)
}

func TestProfileAndStatus(t *testing.T) {
	s := newTestServer(t)
	userID, token, _ := s.register(t)

	w, env := s.do(t, http.MethodGet, "/api/auth/profile", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var data struct {
		User struct {
			ID string `json:"id"`
		} `json:"user"`
		Broker struct {
			BrokerLicense string `json:"broker_license"`
		} `json:"broker"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, userID, data.User.ID)
	assert.Equal(t, "LIC-1234", data.Broker.BrokerLicense)

	// status without a token
	w, _ = s.do(t, http.MethodGet, "/api/auth/status", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"authenticated":false`)

	// status with a token
	w, _ = s.do(t, http.MethodGet, "/api/auth/status", token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"authenticated":true`)
}

func TestLogoutAcknowledges(t *testing.T) {
	s := newTestServer(t)
	_, token, _ := s.register(t)

	w, env := s.do(t, http.MethodPost, "/api/auth/logout", token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Logged out", env.Message)
}
