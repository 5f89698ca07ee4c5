package config

import (
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	App       AppConfig
	Cache     CacheConfig
	Engine    EngineConfig
	Storage   StorageConfig
	Rationale RationaleConfig
}

type ServerConfig struct {
	Port           string
	Mode           string
	ReadTimeout    int
	WriteTimeout   int
	AllowedOrigins []string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type AppConfig struct {
	// DataSource selects where sales and supplier data come from:
	// "csv" or "postgres".
	DataSource    string
	SalesPath     string
	SuppliersPath string
	OutputDir     string
}

type CacheConfig struct {
	Enabled       bool
	RedisURL      string
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int
	TTLSeconds    int
}

// EngineConfig carries the reorder policy defaults. They are passed
// explicitly into every engine call, never read ambiently.
type EngineConfig struct {
	ZScore            float64
	WindowDays        int
	VolatilityWindows []int
	DemandFloor       float64
	MissingDays       string
	BacktestWorkers   int
}

type StorageConfig struct {
	Enabled   bool
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

type RationaleConfig struct {
	OpenAIKey   string
	OpenAIModel string
}

var (
	once     sync.Once
	instance *Config
)

func Load() *Config {
	once.Do(func() {
		// Load .env file if it exists
		_ = godotenv.Load()

		viper.SetDefault("SERVER_PORT", "8080")
		viper.SetDefault("SERVER_MODE", "debug")
		viper.SetDefault("SERVER_READ_TIMEOUT", 15)
		viper.SetDefault("SERVER_WRITE_TIMEOUT", 30)
		viper.SetDefault("SERVER_ALLOWED_ORIGINS", []string{"*"})
		viper.SetDefault("DB_HOST", "localhost")
		viper.SetDefault("DB_PORT", "5432")
		viper.SetDefault("DB_USER", "postgres")
		viper.SetDefault("DB_PASSWORD", "postgres")
		viper.SetDefault("DB_NAME", "reorder")
		viper.SetDefault("DB_SSLMODE", "disable")
		viper.SetDefault("APP_DATA_SOURCE", "csv")
		viper.SetDefault("APP_SALES_PATH", "./data/sales_history.csv")
		viper.SetDefault("APP_SUPPLIERS_PATH", "./data/suppliers.csv")
		viper.SetDefault("APP_OUTPUT_DIR", "./data/output")
		viper.SetDefault("CACHE_ENABLED", false)
		viper.SetDefault("REDIS_URL", "")
		viper.SetDefault("REDIS_HOST", "127.0.0.1")
		viper.SetDefault("REDIS_PORT", "6379")
		viper.SetDefault("REDIS_PASSWORD", "")
		viper.SetDefault("REDIS_DB", 0)
		viper.SetDefault("CACHE_TTL_SECONDS", 300)
		viper.SetDefault("ENGINE_Z_SCORE", 1.65)
		viper.SetDefault("ENGINE_WINDOW_DAYS", 14)
		viper.SetDefault("ENGINE_VOLATILITY_WINDOWS", []int{7, 14, 28})
		viper.SetDefault("ENGINE_DEMAND_FLOOR", 1.0)
		viper.SetDefault("ENGINE_MISSING_DAYS", "zero")
		viper.SetDefault("ENGINE_BACKTEST_WORKERS", 4)
		viper.SetDefault("STORAGE_ENABLED", false)
		viper.SetDefault("STORAGE_ENDPOINT", "")
		viper.SetDefault("STORAGE_ACCESS_KEY", "")
		viper.SetDefault("STORAGE_SECRET_KEY", "")
		viper.SetDefault("STORAGE_BUCKET", "backtests")
		viper.SetDefault("STORAGE_USE_SSL", true)
		viper.SetDefault("OPENAI_API_KEY", "")
		viper.SetDefault("OPENAI_MODEL", "gpt-4o-mini")

		viper.AutomaticEnv()

		instance = &Config{
			Server: ServerConfig{
				Port:           viper.GetString("SERVER_PORT"),
				Mode:           viper.GetString("SERVER_MODE"),
				ReadTimeout:    viper.GetInt("SERVER_READ_TIMEOUT"),
				WriteTimeout:   viper.GetInt("SERVER_WRITE_TIMEOUT"),
				AllowedOrigins: viper.GetStringSlice("SERVER_ALLOWED_ORIGINS"),
			},
			Database: DatabaseConfig{
				Host:     viper.GetString("DB_HOST"),
				Port:     viper.GetString("DB_PORT"),
				User:     viper.GetString("DB_USER"),
				Password: viper.GetString("DB_PASSWORD"),
				DBName:   viper.GetString("DB_NAME"),
				SSLMode:  viper.GetString("DB_SSLMODE"),
			},
			App: AppConfig{
				DataSource:    viper.GetString("APP_DATA_SOURCE"),
				SalesPath:     viper.GetString("APP_SALES_PATH"),
				SuppliersPath: viper.GetString("APP_SUPPLIERS_PATH"),
				OutputDir:     viper.GetString("APP_OUTPUT_DIR"),
			},
			Cache: CacheConfig{
				Enabled:       viper.GetBool("CACHE_ENABLED"),
				RedisURL:      viper.GetString("REDIS_URL"),
				RedisHost:     viper.GetString("REDIS_HOST"),
				RedisPort:     viper.GetString("REDIS_PORT"),
				RedisPassword: viper.GetString("REDIS_PASSWORD"),
				RedisDB:       viper.GetInt("REDIS_DB"),
				TTLSeconds:    viper.GetInt("CACHE_TTL_SECONDS"),
			},
			Engine: EngineConfig{
				ZScore:            viper.GetFloat64("ENGINE_Z_SCORE"),
				WindowDays:        viper.GetInt("ENGINE_WINDOW_DAYS"),
				VolatilityWindows: viper.GetIntSlice("ENGINE_VOLATILITY_WINDOWS"),
				DemandFloor:       viper.GetFloat64("ENGINE_DEMAND_FLOOR"),
				MissingDays:       viper.GetString("ENGINE_MISSING_DAYS"),
				BacktestWorkers:   viper.GetInt("ENGINE_BACKTEST_WORKERS"),
			},
			Storage: StorageConfig{
				Enabled:   viper.GetBool("STORAGE_ENABLED"),
				Endpoint:  viper.GetString("STORAGE_ENDPOINT"),
				AccessKey: viper.GetString("STORAGE_ACCESS_KEY"),
				SecretKey: viper.GetString("STORAGE_SECRET_KEY"),
				Bucket:    viper.GetString("STORAGE_BUCKET"),
				UseSSL:    viper.GetBool("STORAGE_USE_SSL"),
			},
			Rationale: RationaleConfig{
				OpenAIKey:   viper.GetString("OPENAI_API_KEY"),
				OpenAIModel: viper.GetString("OPENAI_MODEL"),
			},
		}
	})

	return instance
}
