package handler

import (
	"context"
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/battle-arena/internal/metrics"
	"github.com/battle-arena/internal/middleware"
	"github.com/battle-arena/internal/service"
)

// Dependencies are everything the HTTP surface needs
type Dependencies struct {
	AuthService      *service.AuthService
	UserService      *service.UserService
	CharacterService *service.CharacterService
	BattleService    *service.BattleService

	Metrics *metrics.Metrics
	Logger  *slog.Logger
	Build   BuildInfo
	Ping    func(ctx context.Context) error

	// BasePath prefixes every API route, e.g. /api
	BasePath string
	// OwnerOnlyUpdate puts character updates behind bearer auth
	OwnerOnlyUpdate bool
}

// NewRouter wires handlers and middleware into a gin engine
func NewRouter(deps Dependencies) *gin.Engine {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware(logger))
	router.Use(middleware.RequestLoggerMiddleware())
	if deps.Metrics != nil {
		router.Use(middleware.MetricsMiddleware(deps.Metrics))
		router.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
	}
	router.Use(middleware.CORSMiddleware())

	router.GET("/health", NewHealthHandler(deps.Build, deps.Ping).Health)

	basicAuth := middleware.BasicAuthMiddleware(deps.AuthService)
	bearerAuth := middleware.BearerAuthMiddleware(deps.AuthService)
	var updateAuth gin.HandlerFunc
	if deps.OwnerOnlyUpdate {
		updateAuth = bearerAuth
	}

	api := router.Group(deps.BasePath)
	{
		NewAuthHandler(deps.AuthService).RegisterRoutes(api, basicAuth, bearerAuth)
		NewUserHandler(deps.UserService).RegisterRoutes(api, bearerAuth)
		NewCharacterHandler(deps.CharacterService).RegisterRoutes(api, bearerAuth, updateAuth)
		NewBattleHandler(deps.BattleService).RegisterRoutes(api)
	}

	return router
}
