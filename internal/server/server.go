package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	accountdomain "github.com/smallbiznis/internlink/internal/account/domain"
	blacklistdomain "github.com/smallbiznis/internlink/internal/blacklist/domain"
	chatdomain "github.com/smallbiznis/internlink/internal/chat/domain"
	"github.com/smallbiznis/internlink/internal/config"
	favoritedomain "github.com/smallbiznis/internlink/internal/favorite/domain"
	invitationdomain "github.com/smallbiznis/internlink/internal/invitation/domain"
	"github.com/smallbiznis/internlink/internal/observability"
	obsmiddleware "github.com/smallbiznis/internlink/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/internlink/internal/observability/metrics"
	obstracing "github.com/smallbiznis/internlink/internal/observability/tracing"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(cfg config.Config, obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	return NewEngine(obsCfg, httpMetrics)
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine, log *zap.Logger) {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				log.Info("http server listening", zap.String("addr", srv.Addr))
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatal("http server failed", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine      *gin.Engine
	cfg         config.Config
	log         *zap.Logger
	accounts    accountdomain.Service
	invitations invitationdomain.Service
	chats       chatdomain.Service
	blacklist   blacklistdomain.Service
	favorites   favoritedomain.Service
}

type ServerParams struct {
	fx.In

	Gin         *gin.Engine
	Cfg         config.Config
	Log         *zap.Logger
	Accounts    accountdomain.Service
	Invitations invitationdomain.Service
	Chats       chatdomain.Service
	Blacklist   blacklistdomain.Service
	Favorites   favoritedomain.Service
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:      p.Gin,
		cfg:         p.Cfg,
		log:         p.Log.Named("http.server"),
		accounts:    p.Accounts,
		invitations: p.Invitations,
		chats:       p.Chats,
		blacklist:   p.Blacklist,
		favorites:   p.Favorites,
	}

	svc.registerAPIRoutes()
	svc.registerAdminRoutes()
	svc.registerFallback()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api/v1", s.AuthRequired())

	api.POST("/invitations", s.CreateInvitation)
	api.GET("/invitations", s.ListInvitations)
	api.GET("/invitations/:id", s.GetInvitation)
	api.PATCH("/invitations/:id/status", s.ChangeInvitationStatus)

	api.POST("/messages", s.SendMessage)

	api.GET("/chats", s.ListChats)
	api.GET("/chats/:id/messages", s.ListMessages)
	api.POST("/chats/:id/read", s.MarkChatRead)

	api.POST("/blacklist", s.BlockUser)
	api.GET("/blacklist", s.ListBlocked)

	api.POST("/favorites/toggle", s.ToggleFavorite)
	api.GET("/favorites", s.ListFavorites)

	api.DELETE("/users/me", s.DeleteMe)
	api.POST("/users/me/stage", s.RecalculateMyStage)
}

func (s *Server) registerAdminRoutes() {
	admin := s.engine.Group("/api/v1/admin", s.AuthRequired(), RequireRole(accountdomain.RoleAdministrator))

	admin.POST("/users/:id/restore", s.RestoreUser)
	admin.POST("/users/:id/stage", s.RecalculateUserStage)
}

func (s *Server) registerFallback() {
	s.engine.NoRoute(func(c *gin.Context) {
		AbortWithError(c, ErrNotFound)
	})
}
