// Package bootstrap wires configuration, logging, the dedupe core and the
// optional stores for the API server, the worker and the CLI.
package bootstrap

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/address-dedupe/app/config"
	"github.com/address-dedupe/app/services"
	"github.com/address-dedupe/internal/address"
	"github.com/address-dedupe/internal/dedupe"
	"github.com/address-dedupe/internal/external"
	"github.com/address-dedupe/internal/neardupe"
	"github.com/address-dedupe/internal/normalizer"
	"github.com/address-dedupe/internal/parser"
	"github.com/address-dedupe/internal/search"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// LoadConfig reads .env, config/app.yaml and the environment into viper, then
// loads the dedupe tuning file named by app.dedupe_config into config.C.
func LoadConfig() error {
	// .env is optional
	_ = godotenv.Load()

	viper.SetConfigName("app")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./config")
	viper.AddConfigPath(".")

	viper.SetDefault("app.port", "8080")
	viper.SetDefault("app.env", "development")
	viper.SetDefault("app.dedupe_config", "./config/dedupe.yaml")
	viper.SetDefault("meilisearch.index", "records")
	viper.SetDefault("cache.l1_size", 10000)

	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("Warning: Cannot read config file: %v", err)
	}

	path := viper.GetString("app.dedupe_config")
	if _, err := os.Stat(path); os.IsNotExist(err) {
		log.Printf("Warning: dedupe config %s not found, using defaults", path)
		config.C = config.Default()
		return nil
	}
	return config.Load(path)
}

// InitLogger builds a production logger when app.env is production.
func InitLogger() *zap.Logger {
	var cfg zap.Config
	if viper.GetString("app.env") == "production" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
	}

	logger, err := cfg.Build()
	if err != nil {
		log.Fatal("Cannot initialize logger:", err)
	}
	return logger
}

// NewCore builds the classifier, hasher, normalizer and parser. libpostal is
// used when configured and compiled in; otherwise the rule-based pair.
func NewCore(cfg config.DedupeCfg, logger *zap.Logger) (services.DedupeDeps, error) {
	rules, err := normalizer.LoadRulesConfig()
	if err != nil {
		return services.DedupeDeps{}, err
	}
	rule := normalizer.NewRuleNormalizer(rules, cfg.MaxExpansions)

	var (
		base address.Normalizer = rule
		p    address.Parser     = parser.NewRuleParser(rules)
	)
	if cfg.UseLibpostal {
		lp, err := external.NewLibpostal()
		if err != nil {
			logger.Warn("libpostal requested but unavailable, using rule normalizer", zap.Error(err))
		} else {
			base, p = lp, lp
			logger.Info("Using libpostal for expansion and parsing")
		}
	}

	n, err := normalizer.NewCached(base, cfg.NormalizerCacheSize)
	if err != nil {
		return services.DedupeDeps{}, err
	}
	classifier, err := dedupe.NewClassifier(n, cfg.Classifier)
	if err != nil {
		return services.DedupeDeps{}, err
	}

	return services.DedupeDeps{
		Classifier: classifier,
		Hasher:     neardupe.NewHasher(n, normalizer.NewDictionaryClassifier(rules)),
		Normalizer: n,
		Parser:     p,
	}, nil
}

// App is a fully wired service set.
type App struct {
	Dedupe  *services.DedupeService
	Admin   *services.AdminService
	Queue   services.JobQueue
	Logger  *zap.Logger
	closers []func()
}

// Close releases store connections.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// Build wires the core with Redis, MongoDB and Meilisearch when their URLs
// are configured and reachable. Unreachable stores fall back to memory.
func Build(ctx context.Context, cfg config.DedupeCfg, logger *zap.Logger) (*App, error) {
	deps, err := NewCore(cfg, logger)
	if err != nil {
		return nil, err
	}
	app := &App{Logger: logger}

	if redisURL := viper.GetString("redis.url"); redisURL != "" {
		client, err := connectRedis(ctx, redisURL)
		if err != nil {
			logger.Warn("Redis unavailable, using in-memory blocks and jobs", zap.Error(err))
		} else {
			jobs := services.NewRedisJobStore(client)
			deps.Blocks = services.NewRedisBlockStoreFromClient(client, logger)
			deps.Jobs = jobs
			deps.Queue = jobs
			app.Queue = jobs
			app.closers = append(app.closers, func() { _ = client.Close() })
			logger.Info("Connected to Redis")
		}
	}
	if deps.Blocks == nil {
		deps.Blocks = services.NewMemoryBlockStore()
	}

	var db *mongo.Database
	if mongoURL := viper.GetString("mongo.url"); mongoURL != "" {
		db, err = connectMongo(ctx, mongoURL, logger)
		if err != nil {
			logger.Warn("MongoDB unavailable, using in-memory review queue", zap.Error(err))
			db = nil
		} else {
			reviews, err := services.NewMongoReviewStore(db, viper.GetInt("cache.l1_size"), logger)
			if err != nil {
				return nil, err
			}
			deps.Reviews = reviews
			client := db.Client()
			app.closers = append(app.closers, func() {
				if err := client.Disconnect(context.Background()); err != nil {
					logger.Error("Error disconnecting MongoDB", zap.Error(err))
				}
			})
		}
	}
	if deps.Reviews == nil {
		deps.Reviews = services.NewMemoryReviewStore()
	}

	var index services.RecordIndexer
	if meiliURL := viper.GetString("meilisearch.url"); meiliURL != "" {
		ri, err := search.NewRecordIndex(search.Config{
			Host:          meiliURL,
			APIKey:        viper.GetString("meilisearch.master_key"),
			IndexName:     viper.GetString("meilisearch.index"),
			Timeout:       30 * time.Second,
			MaxCandidates: cfg.Batch.SearchCandidates,
		}, logger)
		if err != nil {
			logger.Warn("Meilisearch unavailable, name search disabled", zap.Error(err))
		} else {
			deps.Searcher = ri
			index = ri
		}
	}

	app.Dedupe, err = services.NewDedupeService(deps, cfg, logger)
	if err != nil {
		return nil, err
	}
	app.Admin = services.NewAdminService(db, index, app.Dedupe, logger)
	return app, nil
}

func connectRedis(ctx context.Context, redisURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	client := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

func connectMongo(ctx context.Context, mongoURL string, logger *zap.Logger) (*mongo.Database, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoURL))
	if err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	dbName := databaseName(mongoURL)
	logger.Info("Connected to MongoDB", zap.String("database", dbName))
	return client.Database(dbName), nil
}

// databaseName takes the database from the URI path.
func databaseName(mongoURL string) string {
	if u, err := url.Parse(mongoURL); err == nil {
		if name := strings.Trim(u.Path, "/"); name != "" {
			return name
		}
	}
	return "address_dedupe"
}
