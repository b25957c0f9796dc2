package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/api/controllers"
	"github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/api/middleware"
	accesssvc "github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/internal/access"
	"github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/internal/auth"
	"github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/internal/deletion"
	"github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/internal/invitations"
	"github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/internal/memberships"
	"github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/internal/notifications"
	"github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/internal/organizations"
	"github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/pkg/auth/session"
	"github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/pkg/config"
	"github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/pkg/db"
	"github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/pkg/enums"
	"github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/pkg/logger"
	"github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/pkg/redis"
	"github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/pkg/storage/gcs"
)

type sessionManager interface {
	session.AccessSessionChecker
	Rotate(context.Context, string, string) (string, string, error)
	Revoke(context.Context, string) error
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	gcsClient gcs.Pinger,
	sessionManager sessionManager,
	authService auth.Service,
	adminRegisterService auth.AdminRegisterService,
	switchService auth.SwitchOrganizationService,
	invitationService *invitations.Service,
	organizationService *organizations.Service,
	deletionCoordinator *deletion.Coordinator,
	accessService *accesssvc.Service,
	guard controllers.AccessGuard,
	actors controllers.ActorStore,
	membershipsRepo *memberships.Repository,
	notificationsService notifications.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.RateLimit.LoginWindow,
		cfg.RateLimit.LoginIPLimit,
		cfg.RateLimit.LoginEmailLimit,
	)
	validatePolicy := middleware.NewAuthRateLimitPolicy(
		"invitation-validate",
		cfg.RateLimit.ValidateWindow,
		cfg.RateLimit.ValidateIPLimit,
		0,
	)
	acceptPolicy := middleware.NewAuthRateLimitPolicy(
		"invitation-accept",
		cfg.RateLimit.AcceptWindow,
		cfg.RateLimit.AcceptIPLimit,
		0,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient, gcsClient))
	})

	r.Route("/api/public", func(r chi.Router) {
		r.Get("/ping", controllers.PublicPing())
		r.Post("/validate", controllers.PublicValidate(logg))
		r.With(middleware.AuthRateLimit(validatePolicy, redisClient, logg)).
			Post("/invitations/validate", controllers.InvitationValidate(invitationService, logg))
		r.With(middleware.AuthRateLimit(acceptPolicy, redisClient, logg), middleware.Idempotency(redisClient, logg)).
			Post("/invitations/accept", controllers.InvitationAccept(invitationService, logg))
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, redisClient, logg)).Post("/login", controllers.AuthLogin(authService, logg))
		r.Post("/logout", controllers.AuthLogout(sessionManager, cfg.JWT, logg))
		r.Post("/refresh", controllers.AuthRefresh(sessionManager, cfg.JWT, logg))
		r.Post("/switch-organization", controllers.AuthSwitchOrganization(switchService, cfg.JWT, logg))
	})

	r.Route("/api/admin/v1/auth", func(r chi.Router) {
		if !cfg.App.IsProd() {
			r.Post("/register", controllers.AdminAuthRegister(adminRegisterService, authService, cfg, logg))
		}
		r.With(middleware.AuthRateLimit(loginPolicy, redisClient, logg)).Post("/login", controllers.AdminAuthLogin(authService, logg))
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, sessionManager, logg))
		r.Use(middleware.Idempotency(redisClient, logg))

		r.With(middleware.OrganizationContext(logg)).Get("/ping", controllers.PrivatePing())

		r.Route("/v1/invitations", func(r chi.Router) {
			r.Post("/", controllers.InvitationCreate(invitationService, actors, guard, logg))
			r.Post("/{invitationId}/cancel", controllers.InvitationCancel(invitationService, actors, guard, logg))
			r.Get("/{invitationId}/trail", controllers.InvitationTrail(invitationService, actors, guard, logg))
		})

		r.Route("/v1/organizations", func(r chi.Router) {
			r.Post("/", controllers.OrganizationCreate(organizationService, actors, logg))
			r.Get("/{organizationId}", controllers.OrganizationGet(organizationService, actors, logg))
			r.Delete("/{organizationId}", controllers.OrganizationDelete(deletionCoordinator, actors, guard, logg))
			r.Get("/{organizationId}/invitations", controllers.InvitationList(invitationService, actors, guard, logg))

			r.Group(func(r chi.Router) {
				r.Use(middleware.OrganizationContext(logg))
				r.Use(middleware.RequireOrganizationRoles(membershipsRepo, logg, enums.UserRoleManager))
				r.Post("/{organizationId}/buildings", controllers.BuildingCreate(organizationService, actors, logg))
			})
		})

		r.Route("/v1/buildings", func(r chi.Router) {
			r.Use(middleware.OrganizationContext(logg))
			r.Use(middleware.RequireOrganizationRoles(membershipsRepo, logg, enums.UserRoleManager))
			r.Post("/{buildingId}/residences", controllers.ResidenceCreate(organizationService, actors, logg))
		})

		r.Route("/v1/users", func(r chi.Router) {
			r.Get("/me", controllers.UserMe(actors, membershipsRepo, logg))
			r.Delete("/{userId}", controllers.UserDelete(deletionCoordinator, actors, guard, logg))
		})

		r.Route("/v1/permissions", func(r chi.Router) {
			r.Put("/overrides", controllers.PermissionOverrideSet(accessService, actors, logg))
			r.Get("/users/{userId}/overrides", controllers.PermissionOverrideList(accessService, actors, logg))
		})

		r.Route("/v1/notifications", func(r chi.Router) {
			r.Get("/", controllers.ListNotifications(notificationsService, logg))
			r.Post("/{notificationId}/read", controllers.NotificationMarkRead(notificationsService, logg))
			r.Post("/read-all", controllers.NotificationMarkAllRead(notificationsService, logg))
		})
	})

	r.Route("/api/admin", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, sessionManager, logg))
		r.Use(middleware.RequireRole("admin", logg))
		r.Use(middleware.Idempotency(redisClient, logg))
		r.Get("/ping", controllers.AdminPing())
	})

	return r
}
