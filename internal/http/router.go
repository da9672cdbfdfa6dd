// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns:
// tracing, correlation IDs, logging/redaction, panic recovery, metrics,
// compression, rate limiting, CORS, security headers, and authentication.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. RedactingLogger: structured logs with PII scrubbing
//  4. Recovery: capture panics after logger
//  5. Body size limiter
//  6. Metrics
//  7. Rate limiter (per user/IP)
//  8. CORS, gzip, security headers
//
// Auth is per-group: /auth/* is public, everything else under the API base
// path requires a bearer token.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerfiles "github.com/swaggo/files"
	ginswagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"golang.org/x/text/language"
	"gorm.io/gorm"

	"github.com/hintly/go-hints-backend/internal/auth"
	"github.com/hintly/go-hints-backend/internal/config"
	"github.com/hintly/go-hints-backend/internal/domain"
	"github.com/hintly/go-hints-backend/internal/genai"
	"github.com/hintly/go-hints-backend/internal/http/handlers"
	"github.com/hintly/go-hints-backend/internal/http/middleware"
	"github.com/hintly/go-hints-backend/internal/repo"
	"github.com/hintly/go-hints-backend/internal/services"
)

// chatRepoShim adapts the repository free functions to the services.ChatRepo
// interface, keeping services decoupled from the concrete repo package.
type chatRepoShim struct{}

func (chatRepoShim) GetChat(ctx context.Context, db *gorm.DB, id, userID string) (*domain.Chat, error) {
	return repo.GetChat(ctx, db, id, userID)
}

func (chatRepoShim) GetChatWithMessages(ctx context.Context, db *gorm.DB, id, userID string) (*domain.Chat, error) {
	return repo.GetChatWithMessages(ctx, db, id, userID)
}

func (chatRepoShim) CountChats(ctx context.Context, db *gorm.DB, userID string) (int64, error) {
	return repo.CountChats(ctx, db, userID)
}

func (chatRepoShim) ListChatsPage(ctx context.Context, db *gorm.DB, userID string, offset, limit int) ([]domain.Chat, error) {
	return repo.ListChatsPage(ctx, db, userID, offset, limit)
}

func (chatRepoShim) DeleteChat(ctx context.Context, db *gorm.DB, id, userID string) error {
	return repo.DeleteChat(ctx, db, id, userID)
}

func (chatRepoShim) ChatsStats(ctx context.Context, db *gorm.DB, userID string) (int64, *time.Time, error) {
	return repo.ChatsStats(ctx, db, userID)
}

// RegisterRoutes attaches all middleware and endpoints to the Gin engine.
// Dependencies are injected: the DB, the AI pipeline, the token manager, and
// configuration.
func RegisterRoutes(r *gin.Engine, db *gorm.DB, pipeline *genai.Pipeline, tokens *auth.Manager, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))
	r.Use(middleware.RequestID())
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{
		MaskHeaders: []string{"X-Api-Key"},
	}))
	r.Use(middleware.Recovery())

	// Global body cap; generous enough for multipart problem-image uploads.
	r.Use(limitBody(8 << 20))

	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByUserOrIP())
	r.Use(rl.Handler())

	registerCORS(r, cfg)

	r.Use(gzip.Gzip(gzip.DefaultCompression))

	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      false,
		EnablePolicy: true,
	}))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginswagger.WrapHandler(swaggerfiles.Handler))
	}

	// Dependency injection: services ← db/pipeline
	userSvc := services.NewUserService(db)
	hintSvc := &services.HintService{
		DB:             db,
		AI:             pipeline,
		MaxPromptRunes: cfg.MaxPromptRunes,
		TitleLocale:    language.English,
		TitleMaxLen:    60,
	}
	chatSvc := services.NewChatService(db, chatRepoShim{})
	resSvc := &services.ResourceService{DB: db, AI: pipeline}
	fbSvc := &services.FeedbackService{DB: db}

	h := handlers.New(userSvc, hintSvc, chatSvc, resSvc, fbSvc, tokens, cfg.MaxPromptRunes)

	api := groupWithPrefix(r, cfg.APIBasePath)

	// Public: account endpoints
	api.POST("/auth/signup", h.Signup)
	api.POST("/auth/login", h.Login)

	// Authenticated API
	authed := api.Group("", middleware.RequireAuth(tokens))
	{
		authed.POST("/chat", h.SubmitProblem)
		authed.POST("/chat/resources", h.GenerateResources)
		authed.POST("/chat/:id/hint", h.NextHint)
		authed.POST("/chat/:id/message", h.AppendMessage)
		authed.GET("/chat/:id/resources", h.StarterResources)
		authed.DELETE("/chat/:id", h.DeleteChat)
		authed.GET("/chats", h.ListChats)
		authed.POST("/messages/:id/feedback", h.LeaveFeedback)
	}
}

// registerCORS installs the CORS posture: wide open when no allowlist is
// configured, strict origin matching otherwise.
func registerCORS(r *gin.Engine, cfg config.Config) {
	allowHeaders := []string{"Origin", "Content-Type", "Accept", "Authorization"}
	exposeHeaders := []string{"X-Request-ID", "Content-Length", "ETag"}

	if len(cfg.CORS.AllowedOrigins) == 0 {
		// Emit ACAO: * even without an Origin header, which keeps simple
		// health checks and tests happy.
		r.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     allowHeaders,
			ExposeHeaders:    exposeHeaders,
			AllowCredentials: false, // must stay false with AllowAllOrigins
			MaxAge:           12 * time.Hour,
		}))
		return
	}

	allowed := make(map[string]struct{}, len(cfg.CORS.AllowedOrigins))
	for _, o := range cfg.CORS.AllowedOrigins {
		allowed[o] = struct{}{}
	}
	r.Use(func(c *gin.Context) {
		if origin := c.GetHeader("Origin"); origin != "" {
			if _, ok := allowed[origin]; ok {
				h := c.Writer.Header()
				h.Set("Access-Control-Allow-Origin", origin)
				h.Add("Vary", "Origin")
			}
		}
		c.Next()
	})
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORS.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     allowHeaders,
		ExposeHeaders:    exposeHeaders,
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))
}

// limitBody caps the request body size using http.MaxBytesReader; reads past
// the cap error downstream.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
