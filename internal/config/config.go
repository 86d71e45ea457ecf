package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/armin-soft/Fit-Master-sub001/domain"
)

type AppConfig struct {
	Port    int    `yaml:"port" validate:"gte=1,lte=65535"`
	GinMode string `yaml:"gin_mode" validate:"omitempty,oneof=debug release test"`
}

type LogConfig struct {
	Level        string `yaml:"level" validate:"omitempty,oneof=debug info warn warning error"`
	Dev          bool   `yaml:"dev"`
	File         string `yaml:"file"`
	MaxAge       string `yaml:"max_age"`
	RotationTime string `yaml:"rotation_time"`
}

type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db" validate:"gte=0"`
}

type JWTConfig struct {
	Secret    string `yaml:"secret"`
	Issuer    string `yaml:"issuer"`
	ClientTTL string `yaml:"client_ttl"`
}

type CookieConfig struct {
	Name     string `yaml:"name"`
	Domain   string `yaml:"domain"`
	Secure   bool   `yaml:"secure"`
	HTTPOnly bool   `yaml:"http_only"`
}

type OTPConfig struct {
	Mode       string `yaml:"mode" validate:"omitempty,oneof=fixed random totp"`
	TTL        string `yaml:"ttl"`
	TOTPPeriod uint   `yaml:"totp_period"`
}

// LoginConfig is the per-role attempt, lock and timer policy
type LoginConfig struct {
	MaxAttempts     int     `yaml:"max_attempts" validate:"gte=0"`
	LockDuration    string  `yaml:"lock_duration"`
	LockGrowth      string  `yaml:"lock_growth" validate:"omitempty,oneof=fixed escalating"`
	LockFactor      float64 `yaml:"lock_factor" validate:"gte=0"`
	MaxLockDuration string  `yaml:"max_lock_duration"`
	ResendCooldown  string  `yaml:"resend_cooldown"`
	RememberMeTTL   string  `yaml:"remember_me_ttl"`
	CodeLength      int     `yaml:"code_length" validate:"gte=0,lte=10"`
	FixedCode       string  `yaml:"fixed_code" validate:"omitempty,numeric"`
	TOTPSecret      string  `yaml:"totp_secret"`
}

type LoginRoles struct {
	Trainer LoginConfig `yaml:"trainer"`
	Student LoginConfig `yaml:"student"`
}

type TrainerConfig struct {
	Phone   string `yaml:"phone" validate:"omitempty,numeric,max=11"`
	Name    string `yaml:"name"`
	GymName string `yaml:"gym_name"`
}

type TwilioConfig struct {
	AccountSID string `yaml:"account_sid"`
	AuthToken  string `yaml:"auth_token"`
	FromNumber string `yaml:"from_number"`
}

type CasbinConfig struct {
	ModelPath string `yaml:"model_path"`
}

type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second" validate:"gte=0"`
}

type SessionStoreConfig struct {
	RemoteURL string `yaml:"remote_url" validate:"omitempty,url"`
}

type ControllersConfig struct {
	IdleTTL string `yaml:"idle_ttl"`
}

type ConfigFile struct {
	App          AppConfig          `yaml:"app"`
	Log          LogConfig          `yaml:"log"`
	Database     DatabaseConfig     `yaml:"database"`
	Redis        RedisConfig        `yaml:"redis"`
	JWT          JWTConfig          `yaml:"jwt"`
	Cookie       CookieConfig       `yaml:"cookie"`
	OTP          OTPConfig          `yaml:"otp"`
	Login        LoginRoles         `yaml:"login"`
	Trainer      TrainerConfig      `yaml:"trainer"`
	Twilio       TwilioConfig       `yaml:"twilio"`
	Casbin       CasbinConfig       `yaml:"casbin"`
	RateLimit    RateLimitConfig    `yaml:"rate_limit"`
	SessionStore SessionStoreConfig `yaml:"session_store"`
	Controllers  ControllersConfig  `yaml:"controllers"`
}

// LoginPolicy is the parsed form of LoginConfig
type LoginPolicy struct {
	MaxAttempts     int
	LockDuration    time.Duration
	Escalating      bool
	LockFactor      float64
	MaxLockDuration time.Duration
	ResendCooldown  time.Duration
	RememberMeTTL   time.Duration
	CodeLength      int
	FixedCode       string
	TOTPSecret      string
}

type Config struct {
	Port              string
	GinMode           string
	LogLevel          string
	LogDev            bool
	LogFile           string
	LogMaxAge         time.Duration
	LogRotationTime   time.Duration
	DSN               string
	RedisAddr         string
	RedisPassword     string
	RedisDB           int
	JWTSecret         string
	JWTIssuer         string
	ClientTTL         time.Duration
	Cookie            CookieConfig
	OTPMode           string
	OTP_TTL           time.Duration
	OTP_TOTPPeriod    uint
	TrainerLogin      LoginPolicy
	StudentLogin      LoginPolicy
	TrainerPhone      string
	TrainerName       string
	TrainerGymName    string
	TwilioSID         string
	TwilioToken       string
	TwilioFrom        string
	CasbinModelPath   string
	RateLimitPerSec   float64
	SessionStoreURL   string
	ControllerIdleTTL time.Duration
}

// Login returns the login policy of role
func (c *Config) Login(role domain.Role) LoginPolicy {
	if role == domain.RoleStudent {
		return c.StudentLogin
	}
	return c.TrainerLogin
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

// Load reads the file named by CONFIG_PATH (default config/config.yml)
func Load() (*Config, error) {
	return LoadFile(env("CONFIG_PATH", "config/config.yml"))
}

// LoadFile reads, validates and parses the config file at path, then applies
// environment overrides.
func LoadFile(path string) (*Config, error) {
	configFile, err := loadConfigFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}
	applyDefaults(configFile)
	applyEnv(configFile)

	if err := validator.New().Struct(configFile); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	clientTTL, err := time.ParseDuration(configFile.JWT.ClientTTL)
	if err != nil {
		return nil, fmt.Errorf("invalid JWT client TTL: %w", err)
	}
	otpTTL, err := time.ParseDuration(configFile.OTP.TTL)
	if err != nil {
		return nil, fmt.Errorf("invalid OTP TTL: %w", err)
	}
	idleTTL, err := time.ParseDuration(configFile.Controllers.IdleTTL)
	if err != nil {
		return nil, fmt.Errorf("invalid controller idle TTL: %w", err)
	}
	logMaxAge, err := time.ParseDuration(configFile.Log.MaxAge)
	if err != nil {
		return nil, fmt.Errorf("invalid log max age: %w", err)
	}
	logRotation, err := time.ParseDuration(configFile.Log.RotationTime)
	if err != nil {
		return nil, fmt.Errorf("invalid log rotation time: %w", err)
	}
	trainerLogin, err := parseLogin(configFile.Login.Trainer)
	if err != nil {
		return nil, fmt.Errorf("invalid trainer login policy: %w", err)
	}
	studentLogin, err := parseLogin(configFile.Login.Student)
	if err != nil {
		return nil, fmt.Errorf("invalid student login policy: %w", err)
	}
	if configFile.OTP.Mode == "fixed" && (trainerLogin.FixedCode == "" || studentLogin.FixedCode == "") {
		return nil, fmt.Errorf("invalid config: otp mode fixed requires fixed_code for both roles")
	}
	if configFile.OTP.Mode == "totp" && (trainerLogin.TOTPSecret == "" || studentLogin.TOTPSecret == "") {
		return nil, fmt.Errorf("invalid config: otp mode totp requires totp_secret for both roles")
	}

	return &Config{
		Port:              strconv.Itoa(configFile.App.Port),
		GinMode:           configFile.App.GinMode,
		LogLevel:          configFile.Log.Level,
		LogDev:            configFile.Log.Dev,
		LogFile:           configFile.Log.File,
		LogMaxAge:         logMaxAge,
		LogRotationTime:   logRotation,
		DSN:               configFile.Database.DSN,
		RedisAddr:         configFile.Redis.Addr,
		RedisPassword:     configFile.Redis.Password,
		RedisDB:           configFile.Redis.DB,
		JWTSecret:         configFile.JWT.Secret,
		JWTIssuer:         configFile.JWT.Issuer,
		ClientTTL:         clientTTL,
		Cookie:            configFile.Cookie,
		OTPMode:           configFile.OTP.Mode,
		OTP_TTL:           otpTTL,
		OTP_TOTPPeriod:    configFile.OTP.TOTPPeriod,
		TrainerLogin:      trainerLogin,
		StudentLogin:      studentLogin,
		TrainerPhone:      configFile.Trainer.Phone,
		TrainerName:       configFile.Trainer.Name,
		TrainerGymName:    configFile.Trainer.GymName,
		TwilioSID:         configFile.Twilio.AccountSID,
		TwilioToken:       configFile.Twilio.AuthToken,
		TwilioFrom:        configFile.Twilio.FromNumber,
		CasbinModelPath:   configFile.Casbin.ModelPath,
		RateLimitPerSec:   configFile.RateLimit.RequestsPerSecond,
		SessionStoreURL:   configFile.SessionStore.RemoteURL,
		ControllerIdleTTL: idleTTL,
	}, nil
}

func parseLogin(lc LoginConfig) (LoginPolicy, error) {
	lock, err := time.ParseDuration(lc.LockDuration)
	if err != nil {
		return LoginPolicy{}, fmt.Errorf("lock_duration: %w", err)
	}
	maxLock, err := time.ParseDuration(lc.MaxLockDuration)
	if err != nil {
		return LoginPolicy{}, fmt.Errorf("max_lock_duration: %w", err)
	}
	resend, err := time.ParseDuration(lc.ResendCooldown)
	if err != nil {
		return LoginPolicy{}, fmt.Errorf("resend_cooldown: %w", err)
	}
	remember, err := time.ParseDuration(lc.RememberMeTTL)
	if err != nil {
		return LoginPolicy{}, fmt.Errorf("remember_me_ttl: %w", err)
	}
	if lc.FixedCode != "" && len(lc.FixedCode) != lc.CodeLength {
		return LoginPolicy{}, fmt.Errorf("fixed_code must have %d digits", lc.CodeLength)
	}
	return LoginPolicy{
		MaxAttempts:     lc.MaxAttempts,
		LockDuration:    lock,
		Escalating:      lc.LockGrowth == "escalating",
		LockFactor:      lc.LockFactor,
		MaxLockDuration: maxLock,
		ResendCooldown:  resend,
		RememberMeTTL:   remember,
		CodeLength:      lc.CodeLength,
		FixedCode:       lc.FixedCode,
		TOTPSecret:      lc.TOTPSecret,
	}, nil
}

func applyDefaults(cf *ConfigFile) {
	if cf.App.Port == 0 {
		cf.App.Port = 8080
	}
	if cf.Log.Level == "" {
		cf.Log.Level = "info"
	}
	if cf.Log.MaxAge == "" {
		cf.Log.MaxAge = "168h"
	}
	if cf.Log.RotationTime == "" {
		cf.Log.RotationTime = "24h"
	}
	if cf.JWT.ClientTTL == "" {
		cf.JWT.ClientTTL = "720h"
	}
	if cf.JWT.Issuer == "" {
		cf.JWT.Issuer = "gymauth"
	}
	if cf.Cookie.Name == "" {
		cf.Cookie.Name = "gym_client"
	}
	if cf.OTP.Mode == "" {
		cf.OTP.Mode = "fixed"
	}
	if cf.OTP.TTL == "" {
		cf.OTP.TTL = "5m"
	}
	if cf.OTP.TOTPPeriod == 0 {
		cf.OTP.TOTPPeriod = 120
	}
	if cf.Controllers.IdleTTL == "" {
		cf.Controllers.IdleTTL = "30m"
	}
	loginDefaults(&cf.Login.Trainer, "escalating")
	loginDefaults(&cf.Login.Student, "fixed")
}

func loginDefaults(lc *LoginConfig, growth string) {
	if lc.MaxAttempts == 0 {
		lc.MaxAttempts = 3
	}
	if lc.LockDuration == "" {
		lc.LockDuration = "1h"
	}
	if lc.LockGrowth == "" {
		lc.LockGrowth = growth
	}
	if lc.LockFactor == 0 {
		lc.LockFactor = 2
	}
	if lc.MaxLockDuration == "" {
		lc.MaxLockDuration = "24h"
	}
	if lc.ResendCooldown == "" {
		lc.ResendCooldown = "120s"
	}
	if lc.RememberMeTTL == "" {
		lc.RememberMeTTL = "720h"
	}
	if lc.CodeLength == 0 {
		lc.CodeLength = 6
	}
}

func applyEnv(cf *ConfigFile) {
	cf.Database.DSN = env("DATABASE_DSN", cf.Database.DSN)
	cf.Redis.Addr = env("REDIS_ADDR", cf.Redis.Addr)
	cf.Redis.Password = env("REDIS_PASSWORD", cf.Redis.Password)
	cf.JWT.Secret = env("JWT_SECRET", cf.JWT.Secret)
	cf.Twilio.AccountSID = env("TWILIO_ACCOUNT_SID", cf.Twilio.AccountSID)
	cf.Twilio.AuthToken = env("TWILIO_AUTH_TOKEN", cf.Twilio.AuthToken)
	cf.Twilio.FromNumber = env("TWILIO_FROM_NUMBER", cf.Twilio.FromNumber)
	cf.Trainer.Phone = env("TRAINER_PHONE", cf.Trainer.Phone)
	cf.Log.Level = env("LOG_LEVEL", cf.Log.Level)
	if os.Getenv("LOG_DEV") == "1" {
		cf.Log.Dev = true
	}
}

func loadConfigFile(path string) (*ConfigFile, error) {
	bytes, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read config file at %s: %w", path, err)
	}

	var config ConfigFile
	if err := yaml.Unmarshal(bytes, &config); err != nil {
		return nil, fmt.Errorf("could not parse config yaml: %w", err)
	}

	return &config, nil
}
