package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
	"gorm.io/gorm"

	"github.com/burakmert236/scrimsignups/common/cache"
	"github.com/burakmert236/scrimsignups/common/config"
	"github.com/burakmert236/scrimsignups/common/database"
	apperrors "github.com/burakmert236/scrimsignups/common/errors"
	commonevents "github.com/burakmert236/scrimsignups/common/events"
	"github.com/burakmert236/scrimsignups/common/logger"
	"github.com/burakmert236/scrimsignups/common/models"
	"github.com/burakmert236/scrimsignups/common/natsjetstream"
	"github.com/burakmert236/scrimsignups/common/utils"
	"github.com/burakmert236/scrimsignups/services/signup-service/internal/events"
	"github.com/burakmert236/scrimsignups/services/signup-service/internal/handler"
	"github.com/burakmert236/scrimsignups/services/signup-service/internal/identity"
	"github.com/burakmert236/scrimsignups/services/signup-service/internal/repository"
	"github.com/burakmert236/scrimsignups/services/signup-service/internal/roster"
	"github.com/burakmert236/scrimsignups/services/signup-service/internal/scheduler"
	"github.com/burakmert236/scrimsignups/services/signup-service/internal/service"
)

const (
	serviceName     = "signup-service"
	shutdownTimeout = 10 * time.Second
)

type App struct {
	cfg        *config.Config
	logger     *logger.Logger
	db         *database.DynamoDBClient
	pg         *gorm.DB
	rosters    roster.Store
	natsClient *natsjetstream.Client

	members    identity.MemberSource
	authorizer *identity.Authorizer
	passes     *identity.PassResolver

	eventPublisher  *events.EventPublisher
	eventSubscriber *events.EventSubscriber

	signupService   service.SignupService
	scrimService    service.ScrimService
	priorityService service.PriorityService
	playerService   service.PlayerService

	httpServer   *http.Server
	grpcServer   *grpc.Server
	healthServer *health.Server
	scheduler    *scheduler.Scheduler

	cleanup []func() error
}

func New(ctx context.Context, cfg *config.Config) (*App, error) {
	app := &App{
		cfg:     cfg,
		cleanup: make([]func() error, 0),
	}

	app.initLogger()

	if err := app.initDatabase(ctx); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInternalServer, "failed to init database")
	}

	if err := app.initPostgres(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInternalServer, "failed to init postgres")
	}

	if err := app.initCache(ctx); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInternalServer, "failed to init roster cache")
	}

	if err := app.initNATS(ctx); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInternalServer, "failed to init nats client")
	}

	if err := app.initIdentity(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInternalServer, "failed to init identity")
	}

	app.initServices()

	if err := app.warmUp(ctx); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInternalServer, "failed to warm roster cache")
	}

	if err := app.initMessageSubscriber(ctx); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInternalServer, "failed to init messaging subscriber")
	}

	app.initHTTP()
	app.initGRPC()
	app.initScheduler()

	return app, nil
}

func (a *App) initLogger() {
	a.logger = logger.New(logger.Config{
		Level:       a.cfg.Server.LogLevel,
		Format:      a.cfg.Server.LogFormat,
		ServiceName: serviceName,
	})
}

func (a *App) initDatabase(ctx context.Context) error {
	dynamoClient, err := database.NewDynamoDBClient(ctx, a.cfg)
	if err != nil {
		return err
	}

	a.db = dynamoClient
	a.logger.Info("DynamoDB client ready", "table", dynamoClient.Table())
	return nil
}

func (a *App) initPostgres() error {
	db, err := database.NewPostgres(a.cfg.Postgres, a.logger)
	if err != nil {
		return err
	}

	if a.cfg.Postgres.AutoMigrate {
		if err := db.AutoMigrate(&models.PriorityEntry{}, &models.BanEntry{}); err != nil {
			return fmt.Errorf("failed to migrate: %w", err)
		}
	}

	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	a.cleanup = append(a.cleanup, sqlDB.Close)

	a.pg = db
	return nil
}

func (a *App) initCache(ctx context.Context) error {
	if a.cfg.Cache.Driver != config.CacheDriverRedis {
		a.rosters = roster.NewMemoryStore()
		a.logger.Info("Using in-memory roster cache")
		return nil
	}

	client, err := cache.NewRedisClient(ctx, a.cfg.Redis)
	if err != nil {
		return err
	}
	a.cleanup = append(a.cleanup, client.Close)

	a.rosters = roster.NewRedisStore(client.GetClient(), a.cfg.Cache.Prefix)
	a.logger.Info("Using redis roster cache", "address", a.cfg.Redis.Address)
	return nil
}

func (a *App) initNATS(ctx context.Context) error {
	if a.cfg.Server.InstanceId == "" {
		a.cfg.Server.InstanceId = uuid.NewString()
	}

	natsClient, err := natsjetstream.NewClient(&natsjetstream.Config{
		URL:           a.cfg.NATS.URL,
		Name:          fmt.Sprintf("%s-%s", serviceName, a.cfg.Server.InstanceId),
		MaxReconnect:  a.cfg.NATS.MaxReconnect,
		ReconnectWait: time.Duration(a.cfg.NATS.ReconnectWaitSeconds) * time.Second,
		Timeout:       time.Duration(a.cfg.NATS.TimeoutSeconds) * time.Second,
	}, a.logger)
	if err != nil {
		return err
	}
	a.natsClient = natsClient
	a.cleanup = append(a.cleanup, natsClient.Close)

	streams := map[string]string{
		commonevents.ScrimEventsStream:  commonevents.ScrimEventsWildcard,
		commonevents.SignupEventsStream: commonevents.SignupEventsWildcard,
	}
	for name, subject := range streams {
		if err := natsClient.EnsureStream(ctx, name, subject); err != nil {
			a.logger.Error("Failed to create stream", "error", err, "stream", name)
			return err
		}
		a.logger.Info("Stream ready", "stream", name)
	}

	a.eventPublisher = events.NewEventPublisher(natsjetstream.NewPublisher(natsClient), a.cfg.Server.InstanceId, a.logger)
	return nil
}

// initIdentity resolves roles through the Discord gateway when a bot token is
// configured. Without one only the configured admin user ids are elevated.
func (a *App) initIdentity() error {
	if a.cfg.Discord.Token != "" {
		session, err := discordgo.New("Bot " + a.cfg.Discord.Token)
		if err != nil {
			return err
		}
		session.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMembers
		if err := session.Open(); err != nil {
			return fmt.Errorf("failed to open discord session: %w", err)
		}
		a.cleanup = append(a.cleanup, session.Close)

		a.members = identity.NewDiscordMembers(session, a.cfg.Discord.GuildId, a.logger)
	} else {
		a.logger.Warn("No discord token configured, role lookups are disabled")
		a.members = identity.NewStaticMembers(nil)
	}

	grants, err := identity.ParsePrincipals(a.cfg.Scrim.PassGrants)
	if err != nil {
		return err
	}

	admins := identity.AdminPrincipals(a.cfg.Discord.AdminUserIds, a.cfg.Discord.AdminRoleIds)
	a.authorizer = identity.NewAuthorizer(admins, a.members)
	a.passes = identity.NewPassResolver(grants, a.members)
	return nil
}

func (a *App) initServices() {
	deps := service.Dependencies{
		Repos: service.Repositories{
			Scrims:   repository.NewScrimRepository(a.db, database.NewTransactor(a.db)),
			Teams:    repository.NewTeamRepository(a.db),
			Players:  repository.NewPlayerRepository(a.db),
			Priority: repository.NewPriorityRepoPg(a.logger, a.pg),
		},
		Cache:      a.rosters,
		Locks:      service.NewScrimLocks(),
		Bans:       repository.NewBanRepoPg(a.logger, a.pg),
		Authorizer: a.authorizer,
		Passes:     a.passes,
		Publisher:  a.eventPublisher,
		Logger:     a.logger,
		Options: service.Options{
			LobbySize:          a.cfg.Scrim.LobbySize,
			RosterLockLead:     a.cfg.Scrim.RosterLockLead,
			PersistenceTimeout: a.cfg.Server.PersistenceTimeout,
		},
	}

	a.signupService = service.NewSignupService(deps)
	a.scrimService = service.NewScrimService(deps)
	a.priorityService = service.NewPriorityService(deps)
	a.playerService = service.NewPlayerService(deps)
}

func (a *App) warmUp(ctx context.Context) error {
	loaded, err := a.scrimService.WarmUp(ctx)
	if err != nil {
		return err
	}
	a.logger.Info("Roster cache warmed", "active_scrims", loaded)
	return nil
}

func (a *App) initMessageSubscriber(ctx context.Context) error {
	a.eventSubscriber = events.NewEventSubscriber(a.natsClient, a.scrimService, a.logger)
	if err := a.eventSubscriber.Start(ctx); err != nil {
		return err
	}
	a.cleanup = append(a.cleanup, a.eventSubscriber.Stop)
	return nil
}

func (a *App) initHTTP() {
	router := handler.NewRouter(handler.RouterConfig{
		Signups:     handler.NewSignupHandler(a.signupService, a.logger),
		Admin:       handler.NewAdminHandler(a.scrimService, a.priorityService, a.playerService, a.logger),
		Logger:      a.logger,
		TokenSecret: a.cfg.Server.ServiceTokenSecret,
	})

	a.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", a.cfg.Server.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

func (a *App) initGRPC() {
	a.grpcServer = grpc.NewServer(
		grpc.UnaryInterceptor(utils.LoggingInterceptor(a.logger)),
	)

	a.healthServer = health.NewServer()
	healthpb.RegisterHealthServer(a.grpcServer, a.healthServer)
	reflection.Register(a.grpcServer)
}

func (a *App) initScheduler() {
	expunger := scheduler.NewPriorityExpunger(a.priorityService, a.logger)
	a.scheduler = scheduler.NewScheduler(expunger, a.cfg.Scrim.PriorityExpungeInterval, a.cfg.Server.PersistenceTimeout, a.logger)

	a.cleanup = append(a.cleanup, a.scheduler.Stop)
}

func (a *App) Start() error {
	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", a.cfg.Server.GRPCPort))
	if err != nil {
		return apperrors.Wrap(err, apperrors.CodeInternalServer, "failed to listen for grpc")
	}

	go func() {
		a.logger.Info("gRPC server listening", "port", a.cfg.Server.GRPCPort)
		if err := a.grpcServer.Serve(lis); err != nil {
			a.logger.Error("gRPC server stopped", "error", err)
		}
	}()

	go func() {
		a.logger.Info("HTTP server listening", "port", a.cfg.Server.HTTPPort)
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Fatal("Failed to serve http", "error", err)
		}
	}()

	go a.scheduler.Start()

	a.healthServer.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	a.logger.Info("Application started successfully", "instance", a.cfg.Server.InstanceId)

	return nil
}

func (a *App) Stop() error {
	a.logger.Info("Stopping application...")

	if a.healthServer != nil {
		a.healthServer.Shutdown()
	}

	if a.httpServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := a.httpServer.Shutdown(ctx); err != nil {
			a.logger.Error("HTTP shutdown error", "error", err)
		}
	}

	if a.grpcServer != nil {
		a.grpcServer.GracefulStop()
	}

	// Reverse order so consumers stop before the connections they use.
	for i := len(a.cleanup) - 1; i >= 0; i-- {
		if err := a.cleanup[i](); err != nil {
			a.logger.Error("Cleanup error", "error", err)
		}
	}

	a.logger.Info("Application stopped")
	_ = a.logger.Sync()
	return nil
}

func (a *App) Logger() *logger.Logger {
	return a.logger
}
