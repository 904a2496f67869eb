// Package server assembles the HTTP API.
package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jimdaga/frequency/internal/actions"
	"github.com/jimdaga/frequency/internal/auth"
	"github.com/jimdaga/frequency/internal/config"
	"github.com/jimdaga/frequency/internal/health"
	"github.com/jimdaga/frequency/internal/logs"
	"gorm.io/gorm"
)

// NewRouter builds the gin engine with every API route mounted under cfg.APIPrefix.
// google may be nil when OAuth is not configured.
func NewRouter(cfg *config.Config, db *gorm.DB, google auth.OAuthProvider) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLogger())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.AppURL},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	tokens := auth.NewTokenManager(cfg.JWTSecret)
	authService := auth.NewService(db, tokens, cfg.BcryptCost)

	api := r.Group(cfg.APIPrefix)
	api.GET("/health", gin.WrapF(health.Handler))

	auth.NewHandler(authService, google, cfg.AppURL).RegisterRoutes(api.Group("/auth"))

	requireAuth := auth.RequireAuth(tokens)
	actions.NewHandler(actions.NewStore(db)).RegisterRoutes(api.Group("/actions", requireAuth))
	logs.NewHandler(logs.NewStore(db)).RegisterRoutes(api.Group("/logs", requireAuth))

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	})

	return r
}

// requestLogger writes one structured line per request.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		attrs := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency_ms", time.Since(start).Milliseconds(),
		}
		if userID := auth.UserID(c); userID != "" {
			attrs = append(attrs, "user_id", userID)
		}

		switch {
		case c.Writer.Status() >= http.StatusInternalServerError:
			slog.Error("HTTP request", attrs...)
		case c.Writer.Status() >= http.StatusBadRequest:
			slog.Warn("HTTP request", attrs...)
		default:
			slog.Info("HTTP request", attrs...)
		}
	}
}
