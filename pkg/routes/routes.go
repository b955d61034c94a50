package pkg

import (
	"context"
	"errors"
	"net/http"

	"CampusEvents/internal/admin"
	"CampusEvents/internal/announcement"
	"CampusEvents/internal/attendance"
	"CampusEvents/internal/auth"
	"CampusEvents/internal/club"
	"CampusEvents/internal/config"
	"CampusEvents/internal/event"
	"CampusEvents/internal/media"
	"CampusEvents/internal/recommendation"
	"CampusEvents/internal/user"
	"CampusEvents/pkg/middleware"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var EchoModules = fx.Module("echo",
	ConfigModule,
	RepositoryModule,
	ServiceModule,
	HandlerModule,
	fx.Provide(NewEchoServer),
	fx.Invoke(RegisterRoutes),
)

func NewEchoServer(lc fx.Lifecycle, cfg *config.AppConfig, logger *zap.Logger) *echo.Echo {
	e := echo.New()
	middleware.SetupMiddleware(e, cfg, logger)
	addr := ":" + cfg.Port
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			logger.Info("Server running", zap.String("addr", addr))
			go func() {
				if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Fatal("Failed to start the server", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("Shutting down the server")
			return e.Shutdown(ctx)
		},
	})
	return e
}

type RouteParams struct {
	fx.In

	Echo       *echo.Echo
	Config     *config.AppConfig
	Logger     *zap.Logger
	Tokens     *auth.TokenManager
	Authorizer *middleware.Authorizer

	Auth           *auth.AuthHandler
	Users          *user.UserHandler
	Clubs          *club.ClubHandler
	Events         *event.EventHandler
	Attendance     *attendance.AttendanceHandler
	Announcements  *announcement.AnnouncementHandler
	Media          *media.MediaHandler
	Admin          *admin.AdminHandler
	Recommendation *recommendation.RecommendationHandler
}

func RegisterRoutes(p RouteParams) {
	e := p.Echo

	limiter := middleware.AuthRateLimiter(p.Config)
	e.POST("/api/auth/register", p.Auth.Register, limiter)
	e.POST("/api/auth/login", p.Auth.Login, limiter)

	e.GET("/api/events/public", p.Events.Public)
	e.GET("/api/events/public/:id", p.Events.PublicDetail, middleware.OptionalJWTMiddleware(p.Tokens))
	e.GET("/api/images/:id", p.Media.Image)

	api := e.Group("/api", middleware.JWTMiddleware(p.Tokens, p.Logger), p.Authorizer.Middleware())

	api.GET("/auth/profile", p.Auth.Profile)
	api.GET("/profile/me", p.Auth.Me)
	api.PUT("/profile", p.Auth.UpdateProfile)

	api.GET("/users", p.Users.Search)
	api.GET("/users/coordinators", p.Users.Coordinators)
	api.GET("/users/all", p.Users.All)
	api.POST("/users", p.Users.Create)
	api.PUT("/users/:id", p.Users.Update)
	api.DELETE("/users/:id", p.Users.Delete)

	api.GET("/clubs", p.Clubs.List)
	api.GET("/clubs/:id", p.Clubs.Get)
	api.POST("/clubs", p.Clubs.Create)
	api.PUT("/clubs/:id", p.Clubs.Update)
	api.DELETE("/clubs/:id", p.Clubs.Delete)
	api.POST("/clubs/:id/coordinators", p.Clubs.AddCoordinator)
	api.DELETE("/clubs/:id/coordinators/:coordinatorId", p.Clubs.RemoveCoordinator)
	api.POST("/clubs/:id/members", p.Clubs.AddMember)
	api.DELETE("/clubs/:id/members/:memberId", p.Clubs.RemoveMember)

	events := api.Group("/events")
	events.GET("", p.Events.List)
	events.POST("", p.Events.Create)
	events.GET("/my-events", p.Events.MyEvents)
	events.GET("/pending-approvals", p.Events.PendingApprovals)
	events.GET("/club/:clubId", p.Events.ByClub)
	events.GET("/:id", p.Events.Get)
	events.PUT("/:id", p.Events.Update)
	events.DELETE("/:id", p.Events.Delete)
	events.PATCH("/:id/status", p.Events.SetStatus)
	events.POST("/:id/register", p.Events.Register)
	events.POST("/:id/unregister", p.Events.Unregister)
	events.GET("/:id/registrations", p.Events.Registrations)
	events.POST("/:id/like", p.Events.Like)
	events.POST("/:id/view", p.Events.View)
	events.GET("/:id/comments", p.Events.Comments)
	events.POST("/:id/comments", p.Events.AddComment)
	events.PATCH("/:id/comments/:commentId", p.Events.EditComment)
	events.DELETE("/:id/comments/:commentId", p.Events.DeleteComment)
	events.POST("/:id/comments/:commentId/replies", p.Events.AddReply)
	events.DELETE("/:id/comments/:commentId/replies/:replyId", p.Events.DeleteReply)
	events.GET("/:id/qr", p.Events.QR)
	events.POST("/:id/qr/rotate", p.Events.RotateQR)

	att := api.Group("/attendance")
	att.POST("/check-in", p.Attendance.CheckIn)
	att.PATCH("/:id/toggle", p.Attendance.Toggle)
	att.PATCH("/:id/od", p.Attendance.DecideOD)
	att.GET("/od-requests", p.Attendance.PendingOD)
	att.GET("/my-od-requests", p.Attendance.MyOD)
	att.GET("/:id/od-certificate", p.Attendance.Certificate)
	att.GET("/event/:eventId/export", p.Attendance.Export)

	api.GET("/announcements/active", p.Announcements.Active)
	api.GET("/announcements", p.Announcements.List)
	api.POST("/announcements", p.Announcements.Create)
	api.PUT("/announcements/:id", p.Announcements.Update)
	api.DELETE("/announcements/:id", p.Announcements.Delete)

	api.POST("/upload/image", p.Media.Upload)

	api.GET("/admin/events", p.Admin.Events)
	api.GET("/admin/users/all", p.Admin.Users)
	api.GET("/admin/recent-activity", p.Admin.RecentActivity)
	api.GET("/admin/stats", p.Admin.Stats)
	api.PATCH("/admin/users/:id/role", p.Users.SetRole)

	api.GET("/recommendations", p.Recommendation.Get)
}
