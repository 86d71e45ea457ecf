package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/armin-soft/Fit-Master-sub001/domain"
	"github.com/armin-soft/Fit-Master-sub001/internal/config"
	"github.com/armin-soft/Fit-Master-sub001/internal/infrastructure/auth"
	"github.com/armin-soft/Fit-Master-sub001/internal/infrastructure/database"
	"github.com/armin-soft/Fit-Master-sub001/internal/infrastructure/notifications"
	"github.com/armin-soft/Fit-Master-sub001/internal/infrastructure/repositories"
	"github.com/armin-soft/Fit-Master-sub001/internal/infrastructure/sessionclient"
	"github.com/armin-soft/Fit-Master-sub001/internal/login"
	"github.com/armin-soft/Fit-Master-sub001/internal/services"
)

const (
	redisAttempts   = 5
	redisRetryDelay = time.Second
	remoteTimeout   = 10 * time.Second
)

// Container holds all dependencies
type Container struct {
	// Config
	Config *config.Config
	Logger *zap.Logger
	Clock  clockwork.Clock

	// Infrastructure
	DB          *gorm.DB
	RedisClient *database.RedisClient

	// Repositories
	TrainerRepo    domain.TrainerRepository
	StudentRepo    domain.StudentRepository
	AuthRecordRepo domain.AuthRecordRepository

	// Services
	Casbin          *auth.CasbinService
	TokenSvc        domain.TokenService
	NotificationSvc domain.NotificationService
	Identities      domain.IdentityRegistry
	CodeSvc         domain.CodeService
	PolicySvc       domain.PolicyService
	SessionStore    *services.SessionStoreService
	Events          *notifications.RedisEventPublisher
	Manager         *login.Manager

	hasherCost int
	remote     *http.Client
}

// NewContainer connects to Postgres and Redis and initializes all dependencies
func NewContainer(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Container, error) {
	db, err := database.Open(cfg.DSN, cfg.LogLevel == "debug")
	if err != nil {
		return nil, err
	}
	rdb := database.NewRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err := rdb.WaitReady(ctx, redisAttempts, redisRetryDelay); err != nil {
		closeDB(db)
		return nil, err
	}

	c, err := newContainer(ctx, cfg, db, rdb, clockwork.NewRealClock(), logger, bcrypt.DefaultCost)
	if err != nil {
		_ = rdb.Close()
		closeDB(db)
		return nil, err
	}
	return c, nil
}

func newContainer(ctx context.Context, cfg *config.Config, db *gorm.DB, rdb *database.RedisClient, clock clockwork.Clock, logger *zap.Logger, hasherCost int) (*Container, error) {
	c := &Container{
		Config:      cfg,
		Logger:      logger,
		Clock:       clock,
		DB:          db,
		RedisClient: rdb,
		hasherCost:  hasherCost,
		remote:      &http.Client{Timeout: remoteTimeout},
	}

	if err := c.initDatabase(ctx); err != nil {
		return nil, err
	}
	c.initRepositories()
	if err := c.initServices(); err != nil {
		return nil, err
	}
	c.Manager = login.NewManager(c.newController, clock, cfg.ControllerIdleTTL, logger)
	return c, nil
}

func (c *Container) initDatabase(ctx context.Context) error {
	adapter, err := database.AutoMigrate(c.DB)
	if err != nil {
		return err
	}
	cas, err := auth.NewCasbinService(adapter, c.Config.CasbinModelPath)
	if err != nil {
		return err
	}
	c.Casbin = cas

	seeded, err := database.SeedTrainer(ctx, repositories.NewTrainerRepository(c.DB), domain.TrainerProfile{
		Name:    c.Config.TrainerName,
		GymName: c.Config.TrainerGymName,
		Phone:   c.Config.TrainerPhone,
	})
	if err != nil {
		return err
	}
	if seeded {
		c.Logger.Info("seeded trainer profile", zap.String("gym", c.Config.TrainerGymName))
	}
	return nil
}

func (c *Container) initRepositories() {
	c.TrainerRepo = repositories.NewTrainerRepository(c.DB)
	c.StudentRepo = repositories.NewStudentRepository(c.DB)
	// records live as long as the longest remember-me window
	ttl := max(c.Config.TrainerLogin.RememberMeTTL, c.Config.StudentLogin.RememberMeTTL)
	c.AuthRecordRepo = repositories.NewAuthRecordRepository(c.RedisClient.Client, ttl)
}

func (c *Container) initServices() error {
	c.TokenSvc = auth.NewJWTService(c.Config.JWTSecret, c.Config.JWTIssuer, c.Config.ClientTTL, c.Clock)
	c.NotificationSvc = notifications.NewTwilioService(
		c.Config.TwilioSID,
		c.Config.TwilioToken,
		c.Config.TwilioFrom,
		c.Logger,
	)
	c.Identities = services.NewIdentityService(c.TrainerRepo, c.StudentRepo)

	otpConfig := services.OTPConfig{
		Mode:       services.CodeMode(c.Config.OTPMode),
		TTL:        c.Config.OTP_TTL,
		TOTPPeriod: c.Config.OTP_TOTPPeriod,
		Trainer:    codePolicy(c.Config.TrainerLogin),
		Student:    codePolicy(c.Config.StudentLogin),
	}
	c.CodeSvc = services.NewOTPService(
		c.NotificationSvc,
		auth.NewCodeHasher(c.hasherCost),
		c.RedisClient.Client,
		c.Clock,
		c.Logger,
		otpConfig,
	)

	c.SessionStore = services.NewSessionStoreService(c.AuthRecordRepo, c.Identities, c.CodeSvc, c.Clock, c.Logger, services.SessionStoreConfig{
		TrainerRememberMeTTL: c.Config.TrainerLogin.RememberMeTTL,
		StudentRememberMeTTL: c.Config.StudentLogin.RememberMeTTL,
	})

	c.PolicySvc = services.NewPolicyService(c.Casbin.E)
	if err := c.PolicySvc.Seed(domain.DefaultRoutePolicies()); err != nil {
		return fmt.Errorf("failed to seed route policies: %w", err)
	}

	c.Events = notifications.NewRedisEventPublisher(c.RedisClient.Client)
	return nil
}

func codePolicy(lp config.LoginPolicy) services.CodePolicy {
	return services.CodePolicy{
		Length:         lp.CodeLength,
		FixedCode:      lp.FixedCode,
		TOTPSecret:     lp.TOTPSecret,
		ResendCooldown: lp.ResendCooldown,
	}
}

// newController is the login.Factory of the container. Each client gets its
// own client storage and lockout ledger.
func (c *Container) newController(role domain.Role, clientID string) (*login.Controller, error) {
	lp := c.Config.Login(role)
	kv := repositories.NewKVStore(c.RedisClient.Client, clientID)

	store, err := c.sessionStore(role, clientID)
	if err != nil {
		return nil, err
	}

	return login.New(clientID, login.Config{
		Role:           role,
		CodeLength:     lp.CodeLength,
		ResendCooldown: lp.ResendCooldown,
		RememberMeTTL:  lp.RememberMeTTL,
	}, login.Deps{
		Store:  store,
		Ledger: services.NewLockoutLedger(kv, role),
		KV:     kv,
		Policy: services.NewLockoutPolicy(services.LockoutConfig{
			MaxAttempts:     lp.MaxAttempts,
			LockDuration:    lp.LockDuration,
			Escalating:      lp.Escalating,
			Factor:          lp.LockFactor,
			MaxLockDuration: lp.MaxLockDuration,
		}),
		Identities: c.Identities,
		Codes:      c.CodeSvc,
		Events:     c.Events,
		Clock:      c.Clock,
		Logger:     c.Logger,
	}), nil
}

// sessionStore is the in-process store unless a remote session store is configured
func (c *Container) sessionStore(role domain.Role, clientID string) (domain.SessionStore, error) {
	if c.Config.SessionStoreURL == "" {
		return c.SessionStore.ForClient(role, clientID), nil
	}
	token, err := c.TokenSvc.GenerateClientToken(clientID)
	if err != nil {
		return nil, fmt.Errorf("failed to issue session store token: %w", err)
	}
	return sessionclient.New(c.Config.SessionStoreURL, role, token, c.remote, c.Logger), nil
}

// Close unmounts every login view and closes all connections
func (c *Container) Close() error {
	if c.Manager != nil {
		c.Manager.Close()
	}
	if c.RedisClient != nil {
		c.RedisClient.Close()
	}

	if c.DB != nil {
		sqlDB, err := c.DB.DB()
		if err != nil {
			return err
		}
		return sqlDB.Close()
	}

	return nil
}

func closeDB(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
