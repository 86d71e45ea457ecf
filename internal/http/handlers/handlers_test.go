package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/armin-soft/Fit-Master-sub001/domain"
	"github.com/armin-soft/Fit-Master-sub001/internal/http/middleware"
	"github.com/armin-soft/Fit-Master-sub001/internal/login"
	"github.com/armin-soft/Fit-Master-sub001/internal/mocks"
	"github.com/armin-soft/Fit-Master-sub001/internal/services"
)

const (
	testTrainerPhone = "09123823886"
	testStudentPhone = "09350001122"
	testStudentCode  = "987654"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type handlerFixture struct {
	router     *gin.Engine
	repo       *mocks.MockAuthRecordRepository
	identities *mocks.MockIdentityRegistry
	codes      *mocks.MockCodeService
	store      *services.SessionStoreService
	manager    *login.Manager
	clock      *clockwork.FakeClock

	mu  sync.Mutex
	kvs map[string]*mocks.MockKeyValueStore
}

func newHandlerFixture(t *testing.T) *handlerFixture {
	t.Helper()

	f := &handlerFixture{
		repo:       mocks.NewMockAuthRecordRepository(),
		identities: mocks.NewMockIdentityRegistry(testTrainerPhone),
		codes:      mocks.NewMockCodeService(testStudentCode),
		clock:      clockwork.NewFakeClockAt(time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)),
		kvs:        make(map[string]*mocks.MockKeyValueStore),
	}
	f.identities.AddStudent("Sara", testStudentPhone, true)
	f.codes.SendFunc = func(ctx context.Context, role domain.Role, phone string) (*domain.CodeDispatch, error) {
		now := f.clock.Now()
		return &domain.CodeDispatch{Role: role, Phone: phone, ExpiresAt: now.Add(5 * time.Minute), ResendAt: now.Add(120 * time.Second)}, nil
	}
	f.store = services.NewSessionStoreService(f.repo, f.identities, f.codes, f.clock, zap.NewNop(), services.SessionStoreConfig{
		TrainerRememberMeTTL: 30 * 24 * time.Hour,
		StudentRememberMeTTL: 30 * 24 * time.Hour,
	})
	policy := services.NewLockoutPolicy(services.LockoutConfig{MaxAttempts: 3, LockDuration: time.Hour})

	f.manager = login.NewManager(func(role domain.Role, clientID string) (*login.Controller, error) {
		kv := f.kv(clientID)
		return login.New(clientID, login.Config{
			Role:           role,
			CodeLength:     6,
			ResendCooldown: 120 * time.Second,
			RememberMeTTL:  30 * 24 * time.Hour,
		}, login.Deps{
			Store:      f.store.ForClient(role, clientID),
			Ledger:     services.NewLockoutLedger(kv, role),
			KV:         kv,
			Policy:     policy,
			Identities: f.identities,
			Codes:      f.codes,
			Events:     mocks.NewMockEventPublisher(),
			Clock:      f.clock,
			Logger:     zap.NewNop(),
		}), nil
	}, f.clock, 0, zap.NewNop())
	t.Cleanup(f.manager.Close)

	studentSession := NewSessionHandlers(f.store, domain.RoleStudent)
	trainerSession := NewSessionHandlers(f.store, domain.RoleTrainer)
	studentLogin := NewLoginHandlers(f.manager, domain.RoleStudent)

	r := gin.New()
	api := r.Group("/api", func(c *gin.Context) {
		c.Set(middleware.ClientIDKey, c.GetHeader("X-Test-Client"))
		c.Next()
	})
	for prefix, sh := range map[string]*SessionHandlers{"/auth": trainerSession, "/student/auth": studentSession} {
		g := api.Group(prefix)
		g.GET("/status", sh.Status)
		g.POST("/login", sh.Login)
		g.POST("/resume", sh.Resume)
		g.POST("/login-step", sh.SaveStep)
		g.DELETE("/login-step", sh.ClearStep)
		g.POST("/logout", sh.Logout)
	}
	g := api.Group("/student/login")
	g.GET("", studentLogin.Mount)
	g.GET("/state", studentLogin.State)
	g.GET("/can-submit", studentLogin.CanSubmit)
	g.POST("/phone", studentLogin.SubmitPhone)
	g.POST("/code", studentLogin.SubmitCode)
	g.POST("/resend", studentLogin.Resend)
	g.POST("/change-phone", studentLogin.ChangePhone)
	g.POST("/logout", studentLogin.Logout)
	g.DELETE("", studentLogin.Unmount)

	profiles := NewProfileHandlers(f.identities)
	api.GET("/student/me", func(c *gin.Context) {
		c.Set(middleware.LoginPhoneKey, c.GetHeader("X-Test-Phone"))
		c.Next()
	}, profiles.Me(domain.RoleStudent))

	f.router = r
	return f
}

func (f *handlerFixture) kv(clientID string) *mocks.MockKeyValueStore {
	f.mu.Lock()
	defer f.mu.Unlock()
	kv, ok := f.kvs[clientID]
	if !ok {
		kv = mocks.NewMockKeyValueStore()
		f.kvs[clientID] = kv
	}
	return kv
}

func (f *handlerFixture) do(t *testing.T, method, path, clientID string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-Test-Client", clientID)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

type viewResponse struct {
	Data  login.Snapshot `json:"data"`
	Error string         `json:"error"`
	Code  string         `json:"code"`
	Kind  string         `json:"kind"`
}

func decodeView(t *testing.T, w *httptest.ResponseRecorder) viewResponse {
	t.Helper()
	var resp viewResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}
