package application

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/brightlens/brokerportal/internal/domain/entity"
	repo "github.com/brightlens/brokerportal/internal/domain/repository"
	"github.com/brightlens/brokerportal/pkg/helpers"
	"github.com/brightlens/brokerportal/pkg/notify"
)

var (
	ErrDuplicateEmail      = errors.New("email already registered")
	ErrDuplicateLicense    = errors.New("broker license already registered")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrNotVerified         = errors.New("account not verified")
	ErrAccountNotFound     = errors.New("account not found")
	ErrOTPNotFound         = errors.New("verification code not found")
	ErrOTPExpired          = errors.New("verification code expired")
	ErrTooManyAttempts     = errors.New("too many verification attempts")
	ErrInvalidCode         = errors.New("invalid verification code")
	ErrVerificationPersist = errors.New("verification could not be persisted")
	ErrNotificationFailed  = errors.New("notification delivery failed")
)

const (
	otpTTL         = 10 * time.Minute
	maxOTPAttempts = 3
)

// Notifier delivers a rendered notification and reports success.
type Notifier interface {
	Send(ctx context.Context, ch entity.Channel, recipient, template string, vars map[string]string) bool
}

// AuthService orchestrates broker registration, OTP verification, and
// login. Collaborators are injected at construction so tests can
// substitute fakes.
type AuthService struct {
	Users       repo.UserRepository
	Brokers     repo.BrokerRepository
	OTPs        repo.OTPRepository
	Notifier    Notifier
	JWT         *helpers.JWTManager
	Logger      *logrus.Logger
	CompanyName string
}

func NewAuthService(users repo.UserRepository, brokers repo.BrokerRepository, otps repo.OTPRepository,
	notifier Notifier, jwt *helpers.JWTManager, logger *logrus.Logger, companyName string) *AuthService {
	return &AuthService{
		Users:       users,
		Brokers:     brokers,
		OTPs:        otps,
		Notifier:    notifier,
		JWT:         jwt,
		Logger:      logger,
		CompanyName: companyName,
	}
}

type RegisterInput struct {
	Email         string
	Password      string
	FirstName     string
	LastName      string
	Phone         string
	CompanyName   string
	BrokerLicense string
	LicenseState  string
	Method        entity.Channel
}

type RegisterResult struct {
	User              *entity.User
	Broker            *entity.Broker
	NeedsVerification bool
}

// Register creates an account plus its broker profile and issues the
// first verification code. The account insert and the profile insert are
// separate statements; if the profile insert fails the account is
// deleted again so no profile-less account survives a failed attempt.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*RegisterResult, error) {
	existing, err := s.Users.GetByEmail(ctx, in.Email)
	if err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if existing != nil {
		return nil, ErrDuplicateEmail
	}
	dupe, err := s.Brokers.GetByLicense(ctx, in.BrokerLicense)
	if err != nil {
		return nil, fmt.Errorf("check license: %w", err)
	}
	if dupe != nil {
		return nil, ErrDuplicateLicense
	}

	hash, err := helpers.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &entity.User{
		Email:     in.Email,
		Password:  hash,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Phone:     in.Phone,
	}
	if err := s.Users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create account: %w", err)
	}

	broker := &entity.Broker{
		UserID:             user.ID,
		CompanyName:        in.CompanyName,
		BrokerLicense:      in.BrokerLicense,
		LicenseState:       in.LicenseState,
		VerificationStatus: entity.BrokerStatusPending,
	}
	if err := s.Brokers.Create(ctx, broker); err != nil {
		if delErr := s.Users.Delete(ctx, user.ID); delErr != nil {
			s.Logger.WithError(delErr).WithField("user_id", user.ID).
				Error("compensating account delete failed, orphan account remains")
		}
		return nil, fmt.Errorf("create broker profile: %w", err)
	}

	rec, err := s.issueOTP(ctx, user.ID, in.Method)
	if err != nil {
		return nil, fmt.Errorf("issue verification code: %w", err)
	}
	// A failed welcome dispatch does not fail registration; the caller
	// can always request a resend.
	if !s.dispatchCode(ctx, user, rec, notify.TemplateWelcome) {
		s.Logger.WithField("user_id", user.ID).Warn("welcome notification dispatch failed")
	}

	return &RegisterResult{User: user, Broker: broker, NeedsVerification: true}, nil
}

// Login checks credentials and issues a session token. A missing account
// and a wrong password are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, email, password string) (*entity.User, *entity.Broker, string, error) {
	u, err := s.Users.GetByEmail(ctx, email)
	if err != nil || u == nil {
		return nil, nil, "", ErrInvalidCredentials
	}
	if !helpers.CheckPassword(u.Password, password) {
		return nil, nil, "", ErrInvalidCredentials
	}
	if !u.IsVerified {
		return nil, nil, "", ErrNotVerified
	}

	token, _, err := s.JWT.GenerateToken(u.ID, u.Email, u.IsVerified)
	if err != nil {
		s.Logger.WithError(err).WithField("user_id", u.ID).Error("generate session token failed")
		return nil, nil, "", err
	}
	broker, err := s.Brokers.GetByUserID(ctx, u.ID)
	if err != nil {
		return nil, nil, "", fmt.Errorf("load broker profile: %w", err)
	}
	return u, broker, token, nil
}

// VerifyOTP matches the submitted code against the most recent
// unverified record. Expiry is checked before the attempt budget, and
// the budget before the code itself, so an exhausted record rejects even
// a correct code.
func (s *AuthService) VerifyOTP(ctx context.Context, userID, code string) error {
	rec, err := s.OTPs.GetLatestUnverified(ctx, userID)
	if err != nil {
		return fmt.Errorf("load verification code: %w", err)
	}
	if rec == nil {
		return ErrOTPNotFound
	}
	if helpers.OTPExpired(rec.ExpiresAt) {
		return ErrOTPExpired
	}
	if rec.Attempts >= maxOTPAttempts {
		return ErrTooManyAttempts
	}

	if code != rec.Code {
		// Conditional on the attempts value we read; a lost race means a
		// concurrent request already spent this attempt, and this
		// submission is wrong either way.
		if _, _, err := s.OTPs.IncrementAttempts(ctx, rec.ID, rec.Attempts); err != nil {
			return fmt.Errorf("record failed attempt: %w", err)
		}
		return ErrInvalidCode
	}

	ok, err := s.OTPs.MarkVerified(ctx, rec.ID, maxOTPAttempts)
	if err != nil {
		return fmt.Errorf("mark code verified: %w", err)
	}
	if !ok {
		// Consumed or exhausted by a racing request since we read it.
		return ErrOTPNotFound
	}
	if err := s.Users.SetVerified(ctx, userID); err != nil {
		// The code row is already consumed; surface this loudly so the
		// stuck account can be reconciled by hand.
		s.Logger.WithError(err).WithField("user_id", userID).
			Error("account verified flag update failed after code was consumed")
		return ErrVerificationPersist
	}
	return nil
}

// ResendOTP issues a brand-new code regardless of any still-valid
// previous record; older records simply stop being matchable. Unlike
// registration, a failed dispatch here fails the whole operation.
func (s *AuthService) ResendOTP(ctx context.Context, userID string, ch entity.Channel) error {
	u, err := s.Users.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("load account: %w", err)
	}
	if u == nil {
		return ErrAccountNotFound
	}

	rec, err := s.issueOTP(ctx, userID, ch)
	if err != nil {
		return fmt.Errorf("issue verification code: %w", err)
	}
	if !s.dispatchCode(ctx, u, rec, notify.TemplateOTPVerification) {
		return ErrNotificationFailed
	}
	return nil
}

// GetProfile returns the account and its broker profile.
func (s *AuthService) GetProfile(ctx context.Context, userID string) (*entity.User, *entity.Broker, error) {
	u, err := s.Users.GetByID(ctx, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("load account: %w", err)
	}
	if u == nil {
		return nil, nil, ErrAccountNotFound
	}
	broker, err := s.Brokers.GetByUserID(ctx, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("load broker profile: %w", err)
	}
	return u, broker, nil
}

func (s *AuthService) issueOTP(ctx context.Context, userID string, ch entity.Channel) (*entity.OTPRecord, error) {
	code, err := helpers.GenerateOTP(helpers.OTPLength)
	if err != nil {
		return nil, err
	}
	rec := &entity.OTPRecord{
		UserID:    userID,
		Code:      code,
		Channel:   ch,
		ExpiresAt: helpers.OTPExpiry(otpTTL),
	}
	if err := s.OTPs.Create(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *AuthService) dispatchCode(ctx context.Context, u *entity.User, rec *entity.OTPRecord, template string) bool {
	recipient := u.Email
	if rec.Channel == entity.ChannelSMS {
		recipient = u.Phone
	}
	vars := map[string]string{
		"first_name": u.FirstName,
		"company":    s.CompanyName,
		"code":       rec.Code,
		"minutes":    strconv.Itoa(int(otpTTL / time.Minute)),
	}
	return s.Notifier.Send(ctx, rec.Channel, recipient, template, vars)
}
