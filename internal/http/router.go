package httpx

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/armin-soft/Fit-Master-sub001/domain"
	"github.com/armin-soft/Fit-Master-sub001/internal/http/handlers"
	"github.com/armin-soft/Fit-Master-sub001/internal/http/middleware"
)

// Handlers are the route handlers of the service
type Handlers struct {
	TrainerSession *handlers.SessionHandlers
	StudentSession *handlers.SessionHandlers
	TrainerLogin   *handlers.LoginHandlers
	StudentLogin   *handlers.LoginHandlers
	Profile        *handlers.ProfileHandlers
	Health         *handlers.HealthHandlers
}

func BuildRouter(h Handlers, client *middleware.ClientSessionMW, guard *middleware.RequireLoginMW, limit gin.HandlerFunc, logger *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(logger), middleware.SecurityHeaders())

	r.GET("/health", h.Health.Health)

	api := r.Group("/api", client.WithClient())

	// session store API
	sessionRoutes(api.Group("/auth"), h.TrainerSession, limit)
	sessionRoutes(api.Group("/student/auth"), h.StudentSession, limit)

	// login views
	loginRoutes(api.Group("/login"), h.TrainerLogin, limit)
	loginRoutes(api.Group("/student/login"), h.StudentLogin, limit)

	api.GET("/trainer/me", guard.For(domain.RoleTrainer), h.Profile.Me(domain.RoleTrainer))
	api.GET("/student/me", guard.For(domain.RoleStudent), h.Profile.Me(domain.RoleStudent))

	return r
}

func sessionRoutes(g *gin.RouterGroup, sh *handlers.SessionHandlers, limit gin.HandlerFunc) {
	g.GET("/status", sh.Status)
	g.POST("/login", limit, sh.Login)
	g.POST("/resume", limit, sh.Resume)
	g.POST("/login-step", sh.SaveStep)
	g.DELETE("/login-step", sh.ClearStep)
	g.POST("/logout", sh.Logout)
}

func loginRoutes(g *gin.RouterGroup, lh *handlers.LoginHandlers, limit gin.HandlerFunc) {
	g.GET("", lh.Mount)
	g.GET("/state", lh.State)
	g.GET("/can-submit", lh.CanSubmit)
	g.POST("/phone", limit, lh.SubmitPhone)
	g.POST("/code", limit, lh.SubmitCode)
	g.POST("/resend", limit, lh.Resend)
	g.POST("/change-phone", lh.ChangePhone)
	g.POST("/logout", lh.Logout)
	g.DELETE("", lh.Unmount)
}
