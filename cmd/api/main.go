package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/api/routes"
	accesssvc "github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/internal/access"
	"github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/internal/auth"
	"github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/internal/deletion"
	"github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/internal/invitations"
	"github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/internal/memberships"
	"github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/internal/notifications"
	"github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/internal/organizations"
	"github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/internal/users"
	"github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/pkg/auth/session"
	"github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/pkg/config"
	"github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/pkg/db"
	"github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/pkg/logger"
	"github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/pkg/migrate"
	"github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/pkg/outbox"
	"github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/pkg/redis"
	"github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/pkg/storage/gcs"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	var gcsPinger gcs.Pinger
	var objectRemover deletion.ObjectRemover
	if cfg.GCS.BucketName != "" {
		gcsClient, err := gcs.NewClient(context.Background(), cfg.GCS, cfg.GCP, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap gcs", err)
			os.Exit(1)
		}
		gcsPinger = gcsClient
		objectRemover = gcsClient.BucketHandle(cfg.GCS.BucketName)
	} else {
		logg.Warn(context.Background(), "gcs bucket not configured, document object cleanup disabled")
	}

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	usersRepo := users.NewRepository(dbClient.DB())
	membershipsRepo := memberships.NewRepository(dbClient.DB())
	organizationsRepo := organizations.NewRepository(dbClient.DB())
	overridesRepo := accesssvc.NewOverrideRepository(dbClient.DB())
	outboxService := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:        usersRepo,
		MembershipsRepo: membershipsRepo,
		SessionManager:  sessionManager,
		JWTConfig:       cfg.JWT,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	adminRegisterService, err := auth.NewAdminRegisterService(auth.AdminRegisterServiceParams{
		DB:             dbClient,
		PasswordConfig: cfg.Password,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create admin register service", err)
		os.Exit(1)
	}

	switchService, err := auth.NewSwitchOrganizationService(auth.SwitchOrganizationServiceParams{
		MembershipsRepo: membershipsRepo,
		SessionManager:  sessionManager,
		JWTConfig:       cfg.JWT,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create switch service", err)
		os.Exit(1)
	}

	resolver, err := accesssvc.NewResolver(accesssvc.ResolverParams{
		Edges:     membershipsRepo,
		Overrides: overridesRepo,
		Hierarchy: organizationsRepo,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create access resolver", err)
		os.Exit(1)
	}

	accessService, err := accesssvc.NewService(accesssvc.ServiceParams{
		DB:       dbClient,
		Resolver: resolver,
		Logger:   logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create access service", err)
		os.Exit(1)
	}

	invitationService, err := invitations.NewService(invitations.ServiceParams{
		DB:             dbClient,
		Outbox:         outboxService,
		Config:         cfg.Invitation,
		PasswordConfig: cfg.Password,
		Logger:         logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create invitation service", err)
		os.Exit(1)
	}

	organizationService, err := organizations.NewService(organizations.ServiceParams{
		DB:       dbClient,
		Resolver: resolver,
		Logger:   logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create organization service", err)
		os.Exit(1)
	}

	deletionCoordinator, err := deletion.NewCoordinator(deletion.CoordinatorParams{
		DB:      dbClient,
		Objects: objectRemover,
		Outbox:  outboxService,
		Config:  cfg.Deletion,
		Logger:  logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create deletion coordinator", err)
		os.Exit(1)
	}

	notificationsService, err := notifications.NewService(notifications.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create notifications service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	id := os.Getenv("DYNO")
	if id == "" {
		id = "local"
	}
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": id,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			gcsPinger,
			sessionManager,
			authService,
			adminRegisterService,
			switchService,
			invitationService,
			organizationService,
			deletionCoordinator,
			accessService,
			resolver,
			usersRepo,
			membershipsRepo,
			notificationsService,
		),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
