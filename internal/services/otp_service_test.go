package services

import (
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/armin-soft/Fit-Master-sub001/domain"
	"github.com/armin-soft/Fit-Master-sub001/internal/mocks"
)

const testTOTPSecret = "JBSWY3DPEHPK3PXP"

func createTestOTPConfig(mode CodeMode) OTPConfig {
	return OTPConfig{
		Mode:       mode,
		TTL:        5 * time.Minute,
		TOTPPeriod: 120,
		Trainer:    CodePolicy{Length: 6, FixedCode: "123456", TOTPSecret: testTOTPSecret, ResendCooldown: 120 * time.Second},
		Student:    CodePolicy{Length: 6, FixedCode: "987654", TOTPSecret: testTOTPSecret, ResendCooldown: 120 * time.Second},
	}
}

// createOTPServiceForTest creates an OTPService with test dependencies
func createOTPServiceForTest(t *testing.T, mode CodeMode) (domain.CodeService, *mocks.MockNotificationService, *redis.Client, *clockwork.FakeClock) {
	t.Helper()

	_, redisClient := createTestRedis(t)
	notificationSvc := mocks.NewMockNotificationService()
	clock := clockwork.NewFakeClockAt(time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC))

	svc := NewOTPService(notificationSvc, mocks.NewMockCodeHasher(), redisClient, clock, zap.NewNop(), createTestOTPConfig(mode))
	return svc, notificationSvc, redisClient, clock
}

func TestOTPServiceImpl_Send(t *testing.T) {
	tests := []struct {
		name          string
		mode          CodeMode
		role          domain.Role
		phone         string
		setupMocks    func(*mocks.MockNotificationService)
		expectedError error
		expectStored  bool
		expectMessage string
	}{
		{
			name:          "fixed student code",
			mode:          CodeModeFixed,
			role:          domain.RoleStudent,
			phone:         "09123823886",
			expectMessage: "987654",
		},
		{
			name:          "fixed trainer code",
			mode:          CodeModeFixed,
			role:          domain.RoleTrainer,
			phone:         "09123823886",
			expectMessage: "123456",
		},
		{
			name:         "random code is stored hashed",
			mode:         CodeModeRandom,
			role:         domain.RoleStudent,
			phone:        "09123823886",
			expectStored: true,
		},
		{
			name:  "SMS sending fails",
			mode:  CodeModeRandom,
			role:  domain.RoleStudent,
			phone: "09123823886",
			setupMocks: func(notificationSvc *mocks.MockNotificationService) {
				notificationSvc.SendSMSFunc = func(to, message string) error {
					return errors.New("SMS service unavailable")
				}
			},
			expectedError: domain.ErrCodeNotSent,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, notificationSvc, redisClient, clock := createOTPServiceForTest(t, tt.mode)
			if tt.setupMocks != nil {
				tt.setupMocks(notificationSvc)
			}
			ctx := createTestContext(t)

			dispatch, err := svc.Send(ctx, tt.role, tt.phone)

			if tt.expectedError != nil {
				require.ErrorIs(t, err, tt.expectedError)
				assert.Nil(t, dispatch)
				exists, _ := redisClient.Exists(ctx, otpKey(tt.role, tt.phone), resendKey(tt.role, tt.phone)).Result()
				assert.Zero(t, exists, "keys should be cleaned up when SMS fails")
				return
			}

			require.NoError(t, err)
			require.NotNil(t, dispatch)
			assert.Equal(t, tt.phone, dispatch.Phone)
			assert.Equal(t, clock.Now().Add(120*time.Second), dispatch.ResendAt)
			assert.Equal(t, clock.Now().Add(5*time.Minute), dispatch.ExpiresAt)

			sent := notificationSvc.Sent()
			require.Len(t, sent, 1)
			assert.Equal(t, tt.phone, sent[0].To)
			assert.Contains(t, sent[0].Message, tt.expectMessage)

			stored, err := redisClient.Exists(ctx, otpKey(tt.role, tt.phone)).Result()
			require.NoError(t, err)
			assert.Equal(t, tt.expectStored, stored == 1)

			ttl, err := redisClient.TTL(ctx, resendKey(tt.role, tt.phone)).Result()
			require.NoError(t, err)
			assert.Equal(t, 120*time.Second, ttl)
		})
	}
}

func TestOTPServiceImpl_Verify(t *testing.T) {
	tests := []struct {
		name          string
		mode          CodeMode
		role          domain.Role
		code          func(t *testing.T, svc domain.CodeService, redisClient *redis.Client, clock *clockwork.FakeClock) string
		expectedValid bool
	}{
		{
			name: "fixed student code accepted",
			mode: CodeModeFixed,
			role: domain.RoleStudent,
			code: func(*testing.T, domain.CodeService, *redis.Client, *clockwork.FakeClock) string {
				return "987654"
			},
			expectedValid: true,
		},
		{
			name: "trainer code rejected for student",
			mode: CodeModeFixed,
			role: domain.RoleStudent,
			code: func(*testing.T, domain.CodeService, *redis.Client, *clockwork.FakeClock) string {
				return "123456"
			},
		},
		{
			name: "random code accepted after send",
			mode: CodeModeRandom,
			role: domain.RoleStudent,
			code: func(t *testing.T, svc domain.CodeService, redisClient *redis.Client, _ *clockwork.FakeClock) string {
				ctx := createTestContext(t)
				_, err := svc.Send(ctx, domain.RoleStudent, "09123823886")
				require.NoError(t, err)
				hash, err := redisClient.Get(ctx, otpKey(domain.RoleStudent, "09123823886")).Result()
				require.NoError(t, err)
				return hash[len("hashed_"):]
			},
			expectedValid: true,
		},
		{
			name: "random code without send",
			mode: CodeModeRandom,
			role: domain.RoleStudent,
			code: func(*testing.T, domain.CodeService, *redis.Client, *clockwork.FakeClock) string {
				return "000000"
			},
		},
		{
			name: "current TOTP code accepted",
			mode: CodeModeTOTP,
			role: domain.RoleTrainer,
			code: func(t *testing.T, _ domain.CodeService, _ *redis.Client, clock *clockwork.FakeClock) string {
				code, err := totp.GenerateCodeCustom(testTOTPSecret, clock.Now(), totp.ValidateOpts{
					Period: 120, Skew: 1, Digits: otp.DigitsSix, Algorithm: otp.AlgorithmSHA1,
				})
				require.NoError(t, err)
				return code
			},
			expectedValid: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, redisClient, clock := createOTPServiceForTest(t, tt.mode)
			ctx := createTestContext(t)
			code := tt.code(t, svc, redisClient, clock)

			valid, err := svc.Verify(ctx, tt.role, "09123823886", code)
			require.NoError(t, err)
			assert.Equal(t, tt.expectedValid, valid)

			consumed, err := svc.ConsumeVerification(ctx, tt.role, "09123823886")
			require.NoError(t, err)
			assert.Equal(t, tt.expectedValid, consumed)
		})
	}
}

func TestOTPServiceImpl_ConsumeVerificationIsSingleUse(t *testing.T) {
	svc, _, _, _ := createOTPServiceForTest(t, CodeModeFixed)
	ctx := createTestContext(t)

	valid, err := svc.Verify(ctx, domain.RoleTrainer, "09123823886", "123456")
	require.NoError(t, err)
	require.True(t, valid)

	first, err := svc.ConsumeVerification(ctx, domain.RoleTrainer, "09123823886")
	require.NoError(t, err)
	assert.True(t, first)

	second, err := svc.ConsumeVerification(ctx, domain.RoleTrainer, "09123823886")
	require.NoError(t, err)
	assert.False(t, second)

	other, err := svc.ConsumeVerification(ctx, domain.RoleStudent, "09123823886")
	require.NoError(t, err)
	assert.False(t, other, "verification is scoped to the role")
}

func TestOTPServiceImpl_CanResend(t *testing.T) {
	mr, redisClient := createTestRedis(t)
	clock := clockwork.NewFakeClock()
	svc := NewOTPService(mocks.NewMockNotificationService(), mocks.NewMockCodeHasher(), redisClient, clock, zap.NewNop(), createTestOTPConfig(CodeModeFixed))
	ctx := createTestContext(t)

	ok, wait, err := svc.CanResend(ctx, domain.RoleStudent, "09123823886")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Zero(t, wait)

	_, err = svc.Send(ctx, domain.RoleStudent, "09123823886")
	require.NoError(t, err)

	ok, wait, err = svc.CanResend(ctx, domain.RoleStudent, "09123823886")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, int64(120), wait)

	mr.FastForward(121 * time.Second)

	ok, _, err = svc.CanResend(ctx, domain.RoleStudent, "09123823886")
	require.NoError(t, err)
	assert.True(t, ok)
}
