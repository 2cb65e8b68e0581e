package v1

import (
	"log"

	"haul-dispatch/internal/config"
	"haul-dispatch/internal/database"
	"haul-dispatch/internal/delivery/http/handler"
	"haul-dispatch/internal/delivery/http/middleware"
	"haul-dispatch/internal/events"
	"haul-dispatch/internal/infrastructure/cache"
	"haul-dispatch/internal/pkg/jwt"
	"haul-dispatch/internal/pkg/lock"
	"haul-dispatch/internal/repository"
	"haul-dispatch/internal/usecase"
	"haul-dispatch/internal/ws"

	"github.com/gofiber/fiber/v3"
)

func Register(r fiber.Router, cfg config.Config, db database.DB, redis *cache.Redis, hub *ws.Hub, logger *log.Logger) {
	if r == nil {
		return
	}

	jwtSvc := jwt.NewHMACService(
		cfg.JWT.AccessSecret,
		cfg.JWT.RefreshSecret,
		cfg.JWT.AccessExpiresIn,
		cfg.JWT.RefreshExpiresIn,
	)
	authMw := middleware.NewAuthMiddleware(jwtSvc)

	jobRepo := repository.NewPostgresJobRepository(db)
	offerRepo := repository.NewPostgresOfferRepository(db)
	matchRepo := repository.NewPostgresMatchRepository(db)
	presenceRepo := repository.NewPostgresPresenceRepository(db)
	operatorRepo := repository.NewPostgresOperatorRepository(db)

	var locker lock.Locker = lock.NopLocker{}
	if sqlDB := db.SQLDB(); sqlDB != nil {
		locker = lock.NewPGLocker(sqlDB)
	}

	emitter := events.NewEmitter(presenceRepo, hub, redis, logger)

	generateUC := usecase.NewMatchGenerateUsecase(operatorRepo, redis, cfg.Redis.CardTTL, logger)
	lifecycleUC := usecase.NewOfferLifecycleUsecase(jobRepo, offerRepo, operatorRepo, emitter, logger)
	acceptUC := usecase.NewOfferAcceptUsecase(db, jobRepo, offerRepo, matchRepo, locker, emitter, logger)

	protected := r.Group("", authMw.Middleware())

	matchGroup := protected.Group("/match", authMw.RequireRole(jwt.RoleBroker))
	handler.NewMatchHandler(generateUC).RegisterRoutes(matchGroup)

	jobGroup := protected.Group("/jobs", authMw.RequireRole(jwt.RoleBroker))
	handler.NewJobHandler(lifecycleUC).RegisterRoutes(jobGroup)

	offerGroup := protected.Group("/offers", authMw.RequireRole(jwt.RoleEscort))
	handler.NewOfferHandler(acceptUC, lifecycleUC).RegisterRoutes(offerGroup)
}
