package api

import (
	"github.com/gin-gonic/gin"

	"go-advisor/internal/auth"
	"go-advisor/internal/config"
	"go-advisor/internal/dialogue"
	"go-advisor/internal/history"
)

// Deps bundles everything the HTTP surface needs.
type Deps struct {
	Engine     *dialogue.Engine
	Controller *dialogue.Controller
	Recorder   *history.Recorder
	Tokens     auth.TokenStore
	// RedisTokens is set when Tokens is backed by Redis; it enables the
	// online-user count endpoint.
	RedisTokens *auth.RedisTokenStore
}

func SetupRouter(cfg *config.Config, deps Deps) *gin.Engine {
	r := gin.Default()
	subpath := cfg.Server.Subpath // e.g. "/advisor" or any custom path, always starts with '/'
	secret := cfg.Server.JWTSecret

	group := r.Group(subpath)
	{
		group.GET("/health", healthHandler)
		group.GET("/config", configHandler(cfg))

		// Setup: only if no users
		group.POST("/setup", SetupHandler())

		// Auth
		group.POST("/auth/login", LoginHandler(secret, deps.Tokens))
		group.POST("/auth/logout", auth.AuthMiddleware(secret, deps.Tokens, false), LogoutHandler(deps.Tokens))
		group.GET("/auth/me", auth.AuthMiddleware(secret, deps.Tokens, false), MeHandler())

		// Admin: users
		group.GET("/users", auth.AuthMiddleware(secret, deps.Tokens, true), ListUsersHandler())
		group.POST("/users", auth.AuthMiddleware(secret, deps.Tokens, true), CreateUserHandler())
		group.DELETE("/users/:id", auth.AuthMiddleware(secret, deps.Tokens, true), DeleteUserByIdHandler())
		if deps.RedisTokens != nil {
			group.GET("/users/online", OnlineUserCountHandler(deps.RedisTokens))
		}

		// --- Advisory chat ---
		group.POST("/chat", auth.AuthMiddleware(secret, deps.Tokens, false), ChatHandler(deps.Engine))
		group.GET("/ws/chat", WSChatHandler(secret, deps.Engine))

		// --- Session introspection ---
		sessions := group.Group("/sessions", auth.AuthMiddleware(secret, deps.Tokens, false))
		sessions.GET("/:id/stage", SessionStageHandler(deps.Controller))
		sessions.GET("/:id/context", SessionContextHandler(deps.Controller))
		sessions.POST("/:id/reset", SessionResetHandler(deps.Controller))
		if deps.Recorder != nil {
			sessions.GET("/:id/history", SessionHistoryHandler(deps.Recorder))
		}
	}
	return r
}
