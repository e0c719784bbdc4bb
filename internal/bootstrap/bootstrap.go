package bootstrap

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	appControllers "github.com/yigit/schoolyard/internal/app/controllers"
	appMigrations "github.com/yigit/schoolyard/internal/app/migrations"
	appRepos "github.com/yigit/schoolyard/internal/app/repositories"
	"github.com/yigit/schoolyard/internal/app/repositories/memory"
	appRoutes "github.com/yigit/schoolyard/internal/app/routes"
	appServices "github.com/yigit/schoolyard/internal/app/services"
	"github.com/yigit/schoolyard/internal/config"
	"github.com/yigit/schoolyard/internal/db"
	appMiddleware "github.com/yigit/schoolyard/internal/middleware"
	pkgAuth "github.com/yigit/schoolyard/internal/pkg/auth"
	"github.com/yigit/schoolyard/internal/pkg/cache"
	"github.com/yigit/schoolyard/internal/pkg/filestorage"
	"github.com/yigit/schoolyard/internal/pkg/logger"
	"github.com/yigit/schoolyard/internal/pkg/monitoring"
	"github.com/yigit/schoolyard/internal/pkg/realtime"
	"github.com/yigit/schoolyard/internal/pkg/tracing"
	"github.com/yigit/schoolyard/internal/pkg/websocket"
	"github.com/yigit/schoolyard/internal/seed"
)

// Store is the selected persistence backend and the broker its inserts reach
type Store struct {
	Repos  *appRepos.Repositories
	Broker *realtime.Broker
	// Pool is nil for the in-memory store
	Pool *pgxpool.Pool
}

// Close releases the database pool, if any
func (s *Store) Close() {
	if s.Pool != nil {
		s.Pool.Close()
	}
}

// Dependencies holds all the application dependencies
type Dependencies struct {
	Store          *Store
	Redis          *redis.Client
	JWTService     *pkgAuth.JWTService
	Services       *appServices.Services
	Controllers    *appControllers.Controllers
	AuthMiddleware *appMiddleware.AuthMiddleware
	RateLimiter    *appMiddleware.RateLimiter
	Hub            *websocket.Hub
	WSHandler      *websocket.Handler
	TracerProvider *sdktrace.TracerProvider
	Logger         zerolog.Logger
}

// LoadConfigAndSetupLogger loads configuration and initializes the logger.
func LoadConfigAndSetupLogger(configPath string) (*config.Config, zerolog.Logger, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load configuration")
		return nil, zerolog.Logger{}, err
	}

	lgr := logger.Configure(logger.Config{
		Level:      cfg.Logging.Level,
		Pretty:     strings.ToLower(cfg.Logging.Format) == "text",
		File:       cfg.Logging.File,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
	})

	lgr.Info().Str("logLevel", logger.ParseLevel(cfg.Logging.Level).String()).Str("logFormat", cfg.Logging.Format).Msg("Logger configured")
	return cfg, lgr, nil
}

// SetupDatabase establishes the database connection.
func SetupDatabase(cfg *config.Config, lgr zerolog.Logger) (*pgxpool.Pool, error) {
	lgr.Info().Msg("Establishing database connection...")
	database, err := db.NewPostgresDB(cfg)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to connect to database")
		return nil, err
	}
	lgr.Info().Msg("Database connection successfully established.")
	return database.Pool, nil
}

// RunMigrations applies every pending file in the configured migrations directory.
func RunMigrations(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool, lgr zerolog.Logger) (int, error) {
	migrationsDir := cfg.Database.MigrationsDir
	if _, err := os.Stat(migrationsDir); os.IsNotExist(err) {
		lgr.Error().Str("path", migrationsDir).Msg("Migrations directory not found")
		return 0, fmt.Errorf("migrations directory not found at %s: %w", migrationsDir, err)
	}

	lgr.Info().Str("path", migrationsDir).Msg("Running database migrations...")
	applied, err := appMigrations.NewMigrator(pool, lgr).MigrateFromDirectory(ctx, migrationsDir)
	if err != nil {
		lgr.Error().Err(err).Msg("Database migration error")
		return applied, fmt.Errorf("database migrations failed: %w", err)
	}
	lgr.Info().Int("applied", applied).Msg("Database migrations successfully applied.")
	return applied, nil
}

// OpenStore builds the configured store. With migrate set, the postgres store
// is migrated before use.
func OpenStore(ctx context.Context, cfg *config.Config, lgr zerolog.Logger, migrate bool) (*Store, error) {
	broker := realtime.NewBroker(lgr.With().Str("component", "broker").Logger(), cfg.Realtime.Buffer)

	if cfg.Server.Store == config.StoreMemory {
		lgr.Warn().Msg("Using the in-memory store, data is lost on restart")
		mem := memory.New(broker, memory.WithLogger(lgr))
		return &Store{Repos: mem.Repositories(), Broker: broker}, nil
	}

	pool, err := SetupDatabase(cfg, lgr)
	if err != nil {
		return nil, err
	}
	if migrate {
		if _, err := RunMigrations(ctx, cfg, pool, lgr); err != nil {
			pool.Close()
			return nil, err
		}
	}
	return &Store{Repos: appRepos.NewRepositories(pool), Broker: broker, Pool: pool}, nil
}

// NewCache returns the Redis-backed cache when enabled, an in-process cache otherwise.
func NewCache(ctx context.Context, cfg *config.Config, lgr zerolog.Logger) (cache.Cache, *redis.Client, error) {
	if !cfg.Redis.Enabled {
		return cache.NewMemoryCache(), nil, nil
	}
	client, err := cache.NewRedisClient(ctx, cache.RedisConfig{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		lgr.Error().Err(err).Str("addr", cfg.Redis.Addr).Msg("Failed to connect to Redis")
		return nil, nil, err
	}
	lgr.Info().Str("addr", cfg.Redis.Addr).Msg("Redis connection established")
	return cache.NewRedisCache(client, "schoolyard:"), client, nil
}

// NewFileStorage returns the configured image storage.
func NewFileStorage(ctx context.Context, cfg *config.Config) (filestorage.FileStorage, error) {
	if cfg.Storage.Type == "minio" {
		m := cfg.Storage.Minio
		return filestorage.NewMinioStorage(ctx, filestorage.MinioConfig{
			Endpoint:  m.Endpoint,
			AccessKey: m.AccessKey,
			SecretKey: m.SecretKey,
			Bucket:    m.Bucket,
			UseSSL:    m.UseSSL,
		})
	}
	// Must match the static file serving path set up by the server
	return filestorage.NewLocalStorage(cfg.Server.StoragePath, strings.TrimRight(cfg.Server.PublicURL, "/")+"/uploads")
}

// BuildServices wires the service layer over store. The returned Redis client
// is nil when Redis is disabled.
func BuildServices(ctx context.Context, cfg *config.Config, store *Store, lgr zerolog.Logger) (*appServices.Services, *pkgAuth.JWTService, *redis.Client, error) {
	leaderboardCache, redisClient, err := NewCache(ctx, cfg, lgr)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to initialize cache: %w", err)
	}

	storage, err := NewFileStorage(ctx, cfg)
	if err != nil {
		lgr.Error().Err(err).Str("type", cfg.Storage.Type).Msg("Failed to initialize file storage")
		if redisClient != nil {
			redisClient.Close()
		}
		return nil, nil, nil, fmt.Errorf("failed to initialize file storage: %w", err)
	}

	jwtService := pkgAuth.NewJWTService(pkgAuth.JWTConfig{
		SecretKey:      cfg.JWT.Secret,
		AccessTokenExp: config.Duration(cfg.JWT.AccessTokenExpiration),
		TokenIssuer:    cfg.JWT.Issuer,
	})

	svc := appServices.New(store.Repos, jwtService, appServices.Options{
		Storage:        storage,
		Cache:          leaderboardCache,
		LeaderboardTTL: config.Duration(cfg.Redis.LeaderboardTTL),
	}, lgr)
	return svc, jwtService, redisClient, nil
}

// BuildDependencies initializes the store, services, controllers and socket handler.
func BuildDependencies(ctx context.Context, cfg *config.Config, lgr zerolog.Logger) (*Dependencies, error) {
	deps := &Dependencies{Logger: lgr}

	store, err := OpenStore(ctx, cfg, lgr, true)
	if err != nil {
		return nil, err
	}
	deps.Store = store

	// Create Default Data (after migrations)
	if err := seed.CreateDefaultData(ctx, store.Repos, lgr); err != nil {
		lgr.Error().Err(err).Msg("Failed to create default data, proceeding anyway...")
	}

	deps.Services, deps.JWTService, deps.Redis, err = BuildServices(ctx, cfg, store, lgr)
	if err != nil {
		store.Close()
		return nil, err
	}

	if cfg.Tracing.Enabled {
		deps.TracerProvider, err = tracing.InitTracer(cfg.Tracing.ServiceName, cfg.Tracing.CollectorEndpoint)
		if err != nil {
			// Tracing is optional, the API keeps serving without it
			lgr.Error().Err(err).Msg("Failed to initialize tracer")
		}
	}

	deps.Controllers = appControllers.New(deps.Services, lgr)
	deps.AuthMiddleware = appMiddleware.NewAuthMiddleware(deps.JWTService, deps.Services.Identity, lgr.With().Str("component", "auth").Logger())
	if cfg.RateLimit.Enabled {
		deps.RateLimiter = appMiddleware.NewRateLimiter(cfg.RateLimit.MaxRequests, config.Duration(cfg.RateLimit.Window))
	}

	deps.Hub = websocket.NewHub(lgr.With().Str("component", "hub").Logger())
	deps.WSHandler = websocket.NewHandler(
		deps.Hub,
		deps.Services.Notifications,
		deps.Services.Chats,
		store.Broker,
		cfg.CORS.AllowedOrigins,
		lgr.With().Str("component", "websocket").Logger(),
	)

	return deps, nil
}

// Close releases the connections held by deps.
func (d *Dependencies) Close(ctx context.Context) {
	if d.TracerProvider != nil {
		if err := d.TracerProvider.Shutdown(ctx); err != nil {
			d.Logger.Error().Err(err).Msg("Tracer shutdown error")
		}
	}
	if d.Redis != nil {
		if err := d.Redis.Close(); err != nil {
			d.Logger.Error().Err(err).Msg("Redis close error")
		}
	}
	if d.Store != nil {
		d.Store.Close()
	}
}

// SetupRouter configures the Gin engine with middleware and routes.
func SetupRouter(cfg *config.Config, deps *Dependencies, lgr zerolog.Logger) (*gin.Engine, error) {
	if strings.ToLower(cfg.Server.Mode) == "production" {
		gin.SetMode(gin.ReleaseMode)
		lgr.Info().Msg("Setting Gin mode to release")
	} else {
		gin.SetMode(gin.DebugMode)
		lgr.Info().Msg("Setting Gin mode to debug")
	}

	if err := appMiddleware.RegisterValidators(); err != nil {
		return nil, fmt.Errorf("failed to register validators: %w", err)
	}
	monitoring.Init()

	router := gin.New()
	router.Use(
		appMiddleware.Recovery(),
		appMiddleware.RequestLogger(lgr),
		appMiddleware.CORS(cfg.CORS.AllowedOrigins),
		monitoring.MetricsMiddleware(),
	)
	if deps.TracerProvider != nil {
		router.Use(tracing.GinMiddleware())
	}
	if deps.RateLimiter != nil {
		router.Use(deps.RateLimiter.Middleware())
	}

	appRoutes.SetupRouter(router, deps.Controllers, deps.AuthMiddleware, deps.WSHandler)
	return router, nil
}
