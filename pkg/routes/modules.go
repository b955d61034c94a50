package pkg

import (
	"CampusEvents/internal/admin"
	"CampusEvents/internal/announcement"
	"CampusEvents/internal/attendance"
	"CampusEvents/internal/auth"
	"CampusEvents/internal/club"
	"CampusEvents/internal/config"
	"CampusEvents/internal/event"
	"CampusEvents/internal/media"
	"CampusEvents/internal/qr"
	"CampusEvents/internal/recommendation"
	"CampusEvents/internal/user"
	"CampusEvents/pkg/middleware"

	"go.uber.org/fx"
)

func newTokenManager(cfg *config.AppConfig) *auth.TokenManager {
	return auth.NewTokenManager(cfg.JWTSecret, cfg.JWTTTL)
}

func indexes[T config.IndexBuilder](r T) config.IndexBuilder { return r }

func cleaner[T user.UserCleaner](r T) user.UserCleaner { return r }

func asIndexes(f interface{}) fx.Option {
	return fx.Provide(fx.Annotate(f, fx.ResultTags(`group:"indexes"`)))
}

func asCleaner(f interface{}) fx.Option {
	return fx.Provide(fx.Annotate(f, fx.ResultTags(`group:"user_cleaners"`)))
}

// ConfigModule loads settings and opens shared connections.
var ConfigModule = fx.Module("config",
	fx.Provide(config.Load),
	fx.Provide(config.NewFxLogger),
	fx.Provide(config.NewMongoDBClient),
	fx.Provide(config.NewMailer),
	fx.Invoke(config.RegisterIndexes),
)

// RepositoryModule binds the Mongo repositories to the interfaces the
// services consume.
var RepositoryModule = fx.Module("repositories",
	fx.Provide(
		auth.NewUserRepository,
		club.NewClubRepository,
		event.NewEventRepository,
		attendance.NewAttendanceRepository,
		announcement.NewAnnouncementRepository,
		media.NewGridFSStore,
	),
	fx.Provide(
		func(r *auth.UserRepository) auth.UserStore { return r },
		func(r *auth.UserRepository) announcement.Recipients { return r },
		func(r *club.ClubRepository) auth.ClubDirectory { return r },
		func(r *club.ClubRepository) club.Store { return r },
		func(r *club.ClubRepository) event.ClubLookup { return r },
		func(r *club.ClubRepository) admin.ClubSource { return r },
		func(r *event.EventRepository) event.Store { return r },
		func(r *event.EventRepository) admin.EventSource { return r },
		func(r *attendance.AttendanceRepository) attendance.Store { return r },
		func(r *attendance.AttendanceRepository) event.Ledger { return r },
		func(r *attendance.AttendanceRepository) admin.Counter { return r },
		func(r *announcement.AnnouncementRepository) announcement.Store { return r },
		func(s *media.GridFSStore) media.Store { return s },
	),
	asIndexes(indexes[*auth.UserRepository]),
	asIndexes(indexes[*club.ClubRepository]),
	asIndexes(indexes[*event.EventRepository]),
	asIndexes(indexes[*attendance.AttendanceRepository]),
	asIndexes(indexes[*announcement.AnnouncementRepository]),
	asCleaner(cleaner[*club.ClubRepository]),
	asCleaner(cleaner[*event.EventRepository]),
	asCleaner(cleaner[*attendance.AttendanceRepository]),
)

var ServiceModule = fx.Module("services",
	fx.Provide(
		newTokenManager,
		qr.NewGenerator,
		auth.NewUserService,
		user.NewUserService,
		club.NewClubService,
		event.NewEventService,
		attendance.NewAttendanceService,
		announcement.NewAnnouncementService,
		announcement.NewScheduler,
		media.NewMediaService,
		admin.NewAdminService,
		recommendation.NewScriptRunner,
		recommendation.NewRecommendationService,
		func(r *recommendation.ScriptRunner) recommendation.Runner { return r },
		func(s *event.EventService) recommendation.Catalog { return s },
	),
	fx.Invoke((*announcement.Scheduler).Register),
)

var HandlerModule = fx.Module("handlers",
	fx.Provide(
		auth.NewAuthHandler,
		user.NewUserHandler,
		club.NewClubHandler,
		event.NewEventHandler,
		attendance.NewAttendanceHandler,
		announcement.NewAnnouncementHandler,
		media.NewMediaHandler,
		admin.NewAdminHandler,
		recommendation.NewRecommendationHandler,
		middleware.NewAuthorizer,
	),
)
