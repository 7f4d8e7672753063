package cmd

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/grant-matcher/internal/ai"
	"github.com/spigell/grant-matcher/internal/ai/gemini"
	"github.com/spigell/grant-matcher/internal/app"
	"github.com/spigell/grant-matcher/internal/enrichment"
	"github.com/spigell/grant-matcher/internal/foundation"
	"github.com/spigell/grant-matcher/internal/logger"
	"github.com/spigell/grant-matcher/internal/matching"
	"github.com/spigell/grant-matcher/internal/metrics"
	"github.com/spigell/grant-matcher/internal/secrets"
	"github.com/spigell/grant-matcher/internal/storage"
)

const geminiAPIKeyEnv = "GEMINI_API_KEY"

// runtime holds the wired service and everything that must be closed.
type runtime struct {
	config  *Config
	service *app.Service
	metrics *metrics.Manager
	closers []func() error
	logger  *zap.Logger
}

func (r *runtime) Close() {
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i](); err != nil {
			r.logger.Warn("closing resource", zap.Error(err))
		}
	}
}

// newLogger builds the CLI logger from the global flags.
func newLogger() *zap.Logger {
	l, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}
	return l
}

func loadConfig(l *zap.Logger) *Config {
	config, err := getConfig()
	if err != nil {
		l.Fatal("getting a config", zap.Error(err))
	}
	return config
}

func loadCatalog(path string) (*foundation.Catalog, error) {
	if strings.TrimSpace(path) == "" {
		return foundation.Default()
	}
	return foundation.LoadFile(path)
}

// setup wires the service from configuration. Optional parts that fail to
// start are logged and left out.
func setup(ctx context.Context, config *Config, l *zap.Logger) (*runtime, error) {
	rt := &runtime{config: config, metrics: metrics.Default(), logger: l}

	catalog, err := loadCatalog(config.CatalogFile)
	if err != nil {
		return nil, fmt.Errorf("loading foundation catalog: %w", err)
	}
	l.Info("foundation catalog loaded", zap.Int("foundations", catalog.Len()))

	deps := app.Deps{
		Catalog: catalog,
		Engine:  matching.NewEngine(matching.WithWorkers(config.Workers)),
		Metrics: rt.metrics,
		Logger:  l,
	}

	if config.Database.Enabled {
		db, err := storage.Open(storage.Config{DSN: config.Database.DSN, Debug: viper.GetBool("debug")})
		if err != nil {
			return nil, err
		}
		rt.closers = append(rt.closers, func() error { return storage.Close(db) })
		deps.Repository = storage.NewRepository(db)
		l.Info("database connected")
	}

	if config.AI.Enabled {
		if err := setupAI(ctx, config, l, rt, &deps); err != nil {
			l.Warn("skipping AI enrichment", zap.Error(err))
		}
	}

	svc, err := app.New(app.Config{
		TopMatches:         config.TopMatches,
		ExcludeFoundations: config.ExcludeFoundations,
		ExcludeMatched:     config.ExcludeMatched,
	}, deps)
	if err != nil {
		rt.Close()
		return nil, err
	}
	rt.service = svc

	return rt, nil
}

func setupAI(ctx context.Context, config *Config, l *zap.Logger, rt *runtime, deps *app.Deps) error {
	provider := strings.TrimSpace(strings.ToLower(config.AI.Provider))
	if provider != "" && provider != gemini.Provider {
		return fmt.Errorf("unsupported ai provider: %s", config.AI.Provider)
	}

	gc := config.AI.Gemini
	apiKey, err := secrets.Load(secrets.Source{
		Name:  "gemini api key",
		File:  gc.APIKeyFile,
		Value: gc.APIKey,
		Env:   geminiAPIKeyEnv,
	})
	if err != nil {
		return fmt.Errorf("%w (set ai.gemini.api-key-file or %s)", err, geminiAPIKeyEnv)
	}

	generator, err := gemini.NewGenerator(ctx, gemini.Config{
		APIKey:       apiKey,
		Model:        gc.Model,
		WebModel:     gc.WebModel,
		MaxRetries:   gc.MaxRetries,
		MaxLogLength: gc.MaxLogLength,
		Temperature:  gc.Temperature,
	}, l)
	if err != nil {
		return err
	}

	var analyzer ai.Analyzer = gemini.NewAnalyzer(generator, l, gc.MaxLogLength)
	if config.Redis.Enabled {
		rdb, err := enrichment.Connect(ctx, enrichment.RedisOptions{
			Address:  config.Redis.Address,
			Password: config.Redis.Password,
			DB:       config.Redis.DB,
		})
		if err != nil {
			l.Warn("insights cache disabled", zap.Error(err))
		} else {
			rt.closers = append(rt.closers, rdb.Close)
			analyzer = enrichment.NewCache(analyzer, rdb, config.Redis.TTL, l)
		}
	}

	deps.Analyzer = analyzer
	deps.Drafter = gemini.NewDrafter(generator, l)
	deps.Researcher = gemini.NewResearcher(generator)

	l.Info("ai enrichment enabled", logger.AIFields(gemini.Provider, generator.Model())...)
	return nil
}
