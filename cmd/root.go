package cmd

import (
	"errors"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/spigell/grant-matcher/internal/app"
	"github.com/spigell/grant-matcher/internal/server"
)

const (
	appName   = "grant-matcher"
	envPrefix = "GRANT_MATCHER"
)

type Config struct {
	TopMatches         int             `mapstructure:"top-matches"`
	Workers            int             `mapstructure:"workers"`
	CatalogFile        string          `mapstructure:"catalog-file"`
	ExcludeFoundations []string        `mapstructure:"exclude-foundations"`
	ExcludeMatched     bool            `mapstructure:"exclude-matched"`
	Database           *DatabaseConfig `mapstructure:"database"`
	Redis              *RedisConfig    `mapstructure:"redis"`
	AI                 *AIConfig       `mapstructure:"ai"`
	Server             *ServerConfig   `mapstructure:"server"`
}

type DatabaseConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	DSN     string `mapstructure:"dsn"`
}

type RedisConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Address  string        `mapstructure:"address"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
}

type AIConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	Provider    string        `mapstructure:"provider"`
	WebResearch bool          `mapstructure:"web-research"`
	Gemini      *GeminiConfig `mapstructure:"gemini"`
}

type GeminiConfig struct {
	APIKey       string  `mapstructure:"api-key"`
	APIKeyFile   string  `mapstructure:"api-key-file"`
	Model        string  `mapstructure:"model"`
	WebModel     string  `mapstructure:"web-model"`
	MaxRetries   int     `mapstructure:"max-retries"`
	MaxLogLength int     `mapstructure:"max-log-length"`
	Temperature  float32 `mapstructure:"temperature"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   appName,
		Short: "grant-matcher ranks charitable foundations for an applicant and drafts the application",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is grant-matcher.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))

	setDefaults(viper.GetViper())
}

// setDefaults registers every key so env overrides work without a config file.
func setDefaults(v *viper.Viper) {
	v.SetDefault("top-matches", app.DefaultTopMatches)
	v.SetDefault("workers", 0)
	v.SetDefault("catalog-file", "")
	v.SetDefault("exclude-foundations", []string{})
	v.SetDefault("exclude-matched", false)

	v.SetDefault("database.enabled", false)
	v.SetDefault("database.dsn", "")

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.address", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.ttl", "24h")

	v.SetDefault("ai.enabled", false)
	v.SetDefault("ai.provider", "gemini")
	v.SetDefault("ai.web-research", false)
	v.SetDefault("ai.gemini.api-key", "")
	v.SetDefault("ai.gemini.api-key-file", "")
	v.SetDefault("ai.gemini.model", "")
	v.SetDefault("ai.gemini.web-model", "")
	v.SetDefault("ai.gemini.max-retries", 3)
	v.SetDefault("ai.gemini.max-log-length", 200)
	v.SetDefault("ai.gemini.temperature", 0.2)

	v.SetDefault("server.addr", server.DefaultAddr)
}

func initConfig() {
	// A missing .env file is fine.
	_ = godotenv.Load()

	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(appName)
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile == "" && errors.As(err, &notFound) {
			return
		}
		// We can't proceed if the config file parsed with error.
		log.Fatal(err)
	}
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}

	if config.Database == nil {
		config.Database = &DatabaseConfig{}
	}
	if config.Redis == nil {
		config.Redis = &RedisConfig{}
	}
	if config.AI == nil {
		config.AI = &AIConfig{}
	}
	if config.AI.Gemini == nil {
		config.AI.Gemini = &GeminiConfig{}
	}
	if config.Server == nil {
		config.Server = &ServerConfig{}
	}

	return config, nil
}
