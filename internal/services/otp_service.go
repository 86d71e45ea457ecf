package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/armin-soft/Fit-Master-sub001/domain"
)

// CodeMode selects how one-time codes are produced
type CodeMode string

const (
	CodeModeFixed  CodeMode = "fixed"
	CodeModeRandom CodeMode = "random"
	CodeModeTOTP   CodeMode = "totp"
)

// CodePolicy is the per-role code configuration
type CodePolicy struct {
	Length         int
	FixedCode      string
	TOTPSecret     string
	ResendCooldown time.Duration
}

// OTPConfig configures OTPServiceImpl
type OTPConfig struct {
	Mode       CodeMode
	TTL        time.Duration
	TOTPPeriod uint
	Trainer    CodePolicy
	Student    CodePolicy
}

func (c OTPConfig) policy(role domain.Role) CodePolicy {
	if role == domain.RoleStudent {
		return c.Student
	}
	return c.Trainer
}

// OTPServiceImpl implements domain.CodeService using Redis persistence
type OTPServiceImpl struct {
	notificationSvc domain.NotificationService
	hasher          domain.CodeHasher
	redisClient     *redis.Client
	clock           clockwork.Clock
	logger          *zap.Logger
	config          OTPConfig
}

// NewOTPService creates a new Redis-based code service
func NewOTPService(
	notificationSvc domain.NotificationService,
	hasher domain.CodeHasher,
	redisClient *redis.Client,
	clock clockwork.Clock,
	logger *zap.Logger,
	config OTPConfig,
) domain.CodeService {
	return &OTPServiceImpl{
		notificationSvc: notificationSvc,
		hasher:          hasher,
		redisClient:     redisClient,
		clock:           clock,
		logger:          logger,
		config:          config,
	}
}

func otpKey(role domain.Role, phone string) string {
	return fmt.Sprintf("otp:%s:%s", role, phone)
}

func resendKey(role domain.Role, phone string) string {
	return fmt.Sprintf("otp:res:%s:%s", role, phone)
}

func verifiedKey(role domain.Role, phone string) string {
	return fmt.Sprintf("otp:ok:%s:%s", role, phone)
}

// Send implements domain.CodeService
func (s *OTPServiceImpl) Send(ctx context.Context, role domain.Role, phone string) (*domain.CodeDispatch, error) {
	policy := s.config.policy(role)
	now := s.clock.Now()

	code, err := s.currentCode(policy, now)
	if err != nil {
		return nil, err
	}

	// Only random codes are stored, the other modes are derived on verify
	if s.config.Mode == CodeModeRandom {
		hash, err := s.hasher.Hash(code)
		if err != nil {
			return nil, fmt.Errorf("failed to hash code: %w", err)
		}
		if err := s.redisClient.Set(ctx, otpKey(role, phone), hash, s.config.TTL).Err(); err != nil {
			return nil, fmt.Errorf("failed to store OTP in Redis: %w", err)
		}
	}

	if policy.ResendCooldown > 0 {
		if err := s.redisClient.Set(ctx, resendKey(role, phone), 1, policy.ResendCooldown).Err(); err != nil {
			return nil, fmt.Errorf("failed to set resend throttle: %w", err)
		}
	}

	message := fmt.Sprintf("Your login code is: %s. Valid for %d minutes.", code, int(s.config.TTL.Minutes()))
	if err := s.notificationSvc.SendSMS(phone, message); err != nil {
		s.redisClient.Del(ctx, otpKey(role, phone), resendKey(role, phone))
		return nil, fmt.Errorf("%w: %v", domain.ErrCodeNotSent, err)
	}

	s.logger.Info("one-time code sent",
		zap.String("role", string(role)),
		zap.String("phone", phone),
		zap.String("mode", string(s.config.Mode)))

	return &domain.CodeDispatch{
		Role:      role,
		Phone:     phone,
		ExpiresAt: now.Add(s.config.TTL),
		ResendAt:  now.Add(policy.ResendCooldown),
	}, nil
}

// Verify implements domain.CodeService. A wrong code is (false, nil).
func (s *OTPServiceImpl) Verify(ctx context.Context, role domain.Role, phone, code string) (bool, error) {
	policy := s.config.policy(role)

	var ok bool
	switch s.config.Mode {
	case CodeModeFixed:
		ok = policy.FixedCode != "" && code == policy.FixedCode
	case CodeModeTOTP:
		valid, err := totp.ValidateCustom(code, policy.TOTPSecret, s.clock.Now().UTC(), s.totpOpts(policy))
		if err != nil {
			return false, fmt.Errorf("failed to validate TOTP code: %w", err)
		}
		ok = valid
	case CodeModeRandom:
		hash, err := s.redisClient.Get(ctx, otpKey(role, phone)).Result()
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		if err != nil {
			return false, fmt.Errorf("failed to get OTP from Redis: %w", err)
		}
		ok = s.hasher.Verify(hash, code)
	default:
		return false, fmt.Errorf("unknown code mode %q", s.config.Mode)
	}

	if !ok {
		return false, nil
	}

	pipe := s.redisClient.TxPipeline()
	pipe.Del(ctx, otpKey(role, phone))
	pipe.Set(ctx, verifiedKey(role, phone), 1, s.config.TTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("failed to mark code verified: %w", err)
	}
	return true, nil
}

// CanResend implements domain.CodeService with Redis-based throttling
func (s *OTPServiceImpl) CanResend(ctx context.Context, role domain.Role, phone string) (bool, int64, error) {
	ttl, err := s.redisClient.TTL(ctx, resendKey(role, phone)).Result()
	if err != nil {
		return false, 0, fmt.Errorf("failed to check resend TTL: %w", err)
	}

	// If TTL <= 0, key doesn't exist or has expired - can resend
	if ttl <= 0 {
		return true, 0, nil
	}

	return false, int64((ttl + time.Second - 1) / time.Second), nil
}

// ConsumeVerification implements domain.CodeService. The marker is single use.
func (s *OTPServiceImpl) ConsumeVerification(ctx context.Context, role domain.Role, phone string) (bool, error) {
	n, err := s.redisClient.Del(ctx, verifiedKey(role, phone)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to consume verification: %w", err)
	}
	return n == 1, nil
}

func (s *OTPServiceImpl) currentCode(policy CodePolicy, now time.Time) (string, error) {
	switch s.config.Mode {
	case CodeModeFixed:
		if policy.FixedCode == "" {
			return "", fmt.Errorf("no fixed code configured")
		}
		return policy.FixedCode, nil
	case CodeModeTOTP:
		code, err := totp.GenerateCodeCustom(policy.TOTPSecret, now.UTC(), s.totpOpts(policy))
		if err != nil {
			return "", fmt.Errorf("failed to generate TOTP code: %w", err)
		}
		return code, nil
	case CodeModeRandom:
		return generateSecureCode(policy.Length)
	default:
		return "", fmt.Errorf("unknown code mode %q", s.config.Mode)
	}
}

func (s *OTPServiceImpl) totpOpts(policy CodePolicy) totp.ValidateOpts {
	period := s.config.TOTPPeriod
	if period == 0 {
		period = 30
	}
	return totp.ValidateOpts{
		Period:    period,
		Skew:      1,
		Digits:    otp.Digits(policy.Length),
		Algorithm: otp.AlgorithmSHA1,
	}
}

// generateSecureCode generates a cryptographically secure numeric code
func generateSecureCode(length int) (string, error) {
	digits := make([]byte, length)

	for i := 0; i < length; i++ {
		num, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", fmt.Errorf("failed to generate random digit: %w", err)
		}
		digits[i] = byte('0' + num.Int64())
	}

	return string(digits), nil
}
