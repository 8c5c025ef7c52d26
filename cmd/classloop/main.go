package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/classloop/classloop/pkg/billing"
	"github.com/classloop/classloop/pkg/config"
	"github.com/classloop/classloop/pkg/email"
	"github.com/classloop/classloop/pkg/httpserver"
	"github.com/classloop/classloop/pkg/logger"
	"github.com/classloop/classloop/pkg/pg"
	"github.com/classloop/classloop/pkg/redis"
	"github.com/classloop/classloop/pkg/requestid"
	"github.com/classloop/classloop/svc/assignment"
	"github.com/classloop/classloop/svc/auth"
	"github.com/classloop/classloop/svc/classroom"
	"github.com/classloop/classloop/svc/content"
	"github.com/classloop/classloop/svc/progress"
	"github.com/classloop/classloop/svc/subscription"
)

type appConfig struct {
	AppName     string `env:"APP_NAME" envDefault:"classloop"`
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
}

func main() {
	if err := run(context.Background()); err != nil {
		slog.Error("classloop exited", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	var appCfg appConfig
	config.MustLoad(&appCfg)

	log := logger.New(logger.WithEnvironment(appCfg.Environment, appCfg.AppName))
	logger.SetAsDefault(log)

	var pgCfg pg.Config
	config.MustLoad(&pgCfg)
	pool, err := pg.Connect(ctx, pgCfg)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer pool.Close()
	if err := pg.Migrate(ctx, pool, pgCfg, log); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}

	// Outbound email goes through Postmark when a token is configured and is
	// logged instead of delivered otherwise.
	var emailCfg email.Config
	config.MustLoad(&emailCfg)
	var sender email.EmailSender
	if emailCfg.PostmarkServerToken != "" {
		sender, err = email.NewPostmarkClient(emailCfg)
		if err != nil {
			return fmt.Errorf("configure postmark: %w", err)
		}
	} else {
		sender = email.NewDevSender(log)
	}

	var googleCfg auth.GoogleConfig
	config.MustLoad(&googleCfg)
	var authCfg auth.Config
	config.MustLoad(&authCfg)
	userStore := auth.NewStore(pool)
	authService, err := auth.NewService(auth.NewGoogleAdapter(googleCfg), userStore, authCfg,
		auth.WithServiceLogger(log))
	if err != nil {
		return fmt.Errorf("configure auth: %w", err)
	}
	requireUser := auth.RequireUser(authService)

	var stripeCfg billing.StripeConfig
	config.MustLoad(&stripeCfg)
	provider, err := billing.NewStripeProvider(stripeCfg)
	if err != nil {
		return fmt.Errorf("configure stripe: %w", err)
	}

	var subCfg subscription.Config
	config.MustLoad(&subCfg)
	catalog, err := subscription.LoadCatalog(subCfg.PlansPath)
	if err != nil {
		return fmt.Errorf("load plan catalog: %w", err)
	}
	subStore := subscription.NewStore(pool)
	notifier := subscription.NewEmailNotifier(userStore, sender, subCfg.PortalReturnURL,
		subscription.WithNotifierLogger(log))
	reconciler := subscription.NewReconciler(subStore, provider, catalog,
		subscription.WithNotifier(notifier),
		subscription.WithReconcilerLogger(log))
	subService := subscription.NewService(subStore, provider, catalog, subCfg,
		subscription.WithServiceLogger(log))

	var classroomCfg classroom.Config
	config.MustLoad(&classroomCfg)
	classroomStore := classroom.NewStore(pool)
	classroomOpts := []classroom.ServiceOption{classroom.WithServiceLogger(log)}

	// The join code cache is best effort; a missing Redis only costs a
	// lookup per join.
	var redisCfg redis.Config
	config.MustLoad(&redisCfg)
	if client, err := redis.Connect(ctx, redisCfg); err != nil {
		log.Warn("redis unavailable, join codes resolve against postgres", slog.Any("error", err))
	} else {
		defer client.Close()
		classroomOpts = append(classroomOpts, classroom.WithCodeCache(client))
	}
	classroomService := classroom.NewService(classroomStore, subService, classroomCfg, classroomOpts...)

	contentStore := content.NewStore(pool)
	contentService := content.NewService(contentStore, content.WithServiceLogger(log))

	assignmentStore := assignment.NewStore(pool)
	assignmentService := assignment.NewService(assignmentStore, classroomStore, contentStore,
		assignment.WithServiceLogger(log))

	progressStore := progress.NewStore(pool)
	progressService := progress.NewService(progressStore, assignmentStore, classroomStore,
		progress.WithServiceLogger(log))

	router := chi.NewRouter()
	router.Use(requestid.Middleware)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)
	router.Get("/health", httpserver.HealthCheckHandler(ctx, log, pg.Healthcheck(pool)))

	router.Mount("/", auth.NewHandler(authService, authCfg.SecureCookies,
		auth.WithHandlerLogger(log)).Routes())
	router.Mount("/api", apiRouter(requireUser,
		subscription.NewHandler(provider, reconciler, subService, subscription.WithHandlerLogger(log)),
		classroom.NewHandler(classroomService, classroom.WithHandlerLogger(log)),
		content.NewHandler(contentService, content.WithHandlerLogger(log)),
		assignment.NewHandler(assignmentService, assignment.WithHandlerLogger(log)),
		progress.NewHandler(progressService, progress.WithHandlerLogger(log)),
	))

	var httpCfg httpserver.Config
	config.MustLoad(&httpCfg)
	server := httpserver.NewFromConfig(httpCfg, httpserver.WithLogger(log))
	if err := server.Run(ctx, router); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

type registrar interface {
	Register(r chi.Router, requireUser func(http.Handler) http.Handler)
}

func apiRouter(requireUser func(http.Handler) http.Handler, handlers ...registrar) chi.Router {
	r := chi.NewRouter()
	for _, h := range handlers {
		h.Register(r, requireUser)
	}
	return r
}
