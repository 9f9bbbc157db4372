package config

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server  ServerConfig
	Store   StoreConfig
	Cache   CacheConfig
	Archive ArchiveConfig
	Drive   DriveConfig
	Log     LogConfig
	Brands  []BrandConfig
}

type ServerConfig struct {
	Port           string
	Mode           string
	ReadTimeout    int
	WriteTimeout   int
	AllowedOrigins []string
}

// StoreConfig describes the Postgres-backed document store. MaxBatchOps is
// the per-commit operation ceiling of the store; the batch executor chunks
// its work to stay under it.
type StoreConfig struct {
	Host        string
	Port        string
	User        string
	Password    string
	DBName      string
	SSLMode     string
	MaxBatchOps int
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

// ArchiveConfig points at the S3-compatible bucket raw exports are copied
// to before parsing. Disabled by default.
type ArchiveConfig struct {
	Enabled   bool
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool
}

type DriveConfig struct {
	CredentialsFile string
}

type LogConfig struct {
	Level string
}

// SourceConfig locates one brand's export feed. URL is either http(s) or
// drive:<fileID>; Format is "csv" or "xlsx".
type SourceConfig struct {
	URL    string `mapstructure:"url"`
	Format string `mapstructure:"format"`
}

// BrandConfig is one tenant. Collections default to products_<key> /
// customers_<key> when not set explicitly.
type BrandConfig struct {
	Key                string       `mapstructure:"key"`
	ProductCollection  string       `mapstructure:"product_collection"`
	CustomerCollection string       `mapstructure:"customer_collection"`
	Products           SourceConfig `mapstructure:"products"`
	Customers          SourceConfig `mapstructure:"customers"`
}

var (
	once     sync.Once
	instance *Config
	loadErr  error
)

func Load() (*Config, error) {
	once.Do(func() {
		// Load .env file if it exists
		_ = godotenv.Load()

		viper.SetDefault("SERVER_PORT", "8080")
		viper.SetDefault("SERVER_MODE", "release")
		viper.SetDefault("SERVER_READ_TIMEOUT", 15)
		viper.SetDefault("SERVER_WRITE_TIMEOUT", 600)
		viper.SetDefault("SERVER_ALLOWED_ORIGINS", []string{"*"})
		viper.SetDefault("STORE_HOST", "localhost")
		viper.SetDefault("STORE_PORT", "5432")
		viper.SetDefault("STORE_USER", "postgres")
		viper.SetDefault("STORE_PASSWORD", "postgres")
		viper.SetDefault("STORE_NAME", "orderlink")
		viper.SetDefault("STORE_SSLMODE", "disable")
		viper.SetDefault("STORE_MAX_BATCH_OPS", 500)
		viper.SetDefault("CACHE_ENABLED", false)
		viper.SetDefault("REDIS_URL", "")
		viper.SetDefault("REDIS_HOST", "127.0.0.1")
		viper.SetDefault("REDIS_PORT", "6379")
		viper.SetDefault("REDIS_PASSWORD", "")
		viper.SetDefault("REDIS_DB", 0)
		viper.SetDefault("CACHE_TTL_SECONDS", 300)
		viper.SetDefault("ARCHIVE_ENABLED", false)
		viper.SetDefault("ARCHIVE_REGION", "us-east-1")
		viper.SetDefault("ARCHIVE_USE_SSL", true)
		viper.SetDefault("DRIVE_CREDENTIALS_FILE", "")
		viper.SetDefault("LOG_LEVEL", "info")
		viper.SetDefault("BRANDS_FILE", "brands.yaml")

		viper.AutomaticEnv()

		instance = &Config{
			Server: ServerConfig{
				Port:           viper.GetString("SERVER_PORT"),
				Mode:           viper.GetString("SERVER_MODE"),
				ReadTimeout:    viper.GetInt("SERVER_READ_TIMEOUT"),
				WriteTimeout:   viper.GetInt("SERVER_WRITE_TIMEOUT"),
				AllowedOrigins: viper.GetStringSlice("SERVER_ALLOWED_ORIGINS"),
			},
			Store: StoreConfig{
				Host:        viper.GetString("STORE_HOST"),
				Port:        viper.GetString("STORE_PORT"),
				User:        viper.GetString("STORE_USER"),
				Password:    viper.GetString("STORE_PASSWORD"),
				DBName:      viper.GetString("STORE_NAME"),
				SSLMode:     viper.GetString("STORE_SSLMODE"),
				MaxBatchOps: viper.GetInt("STORE_MAX_BATCH_OPS"),
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
			Archive: ArchiveConfig{
				Enabled:   viper.GetBool("ARCHIVE_ENABLED"),
				Endpoint:  viper.GetString("ARCHIVE_ENDPOINT"),
				AccessKey: viper.GetString("ARCHIVE_ACCESS_KEY"),
				SecretKey: viper.GetString("ARCHIVE_SECRET_KEY"),
				Bucket:    viper.GetString("ARCHIVE_BUCKET"),
				Region:    viper.GetString("ARCHIVE_REGION"),
				UseSSL:    viper.GetBool("ARCHIVE_USE_SSL"),
			},
			Drive: DriveConfig{
				CredentialsFile: viper.GetString("DRIVE_CREDENTIALS_FILE"),
			},
			Log: LogConfig{
				Level: viper.GetString("LOG_LEVEL"),
			},
		}

		loadErr = loadBrands(instance, viper.GetString("BRANDS_FILE"))
	})

	return instance, loadErr
}

// loadBrands reads the per-tenant configuration file. A missing file is not
// an error: single-purpose deployments configure brands via the CLI flags
// of their wrapper scripts and never ship the file.
func loadBrands(cfg *Config, path string) error {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("could not read brands file %s: %w", path, err)
	}

	var brands []BrandConfig
	if err := v.UnmarshalKey("brands", &brands); err != nil {
		return fmt.Errorf("could not parse brands file %s: %w", path, err)
	}

	for i := range brands {
		if brands[i].ProductCollection == "" {
			brands[i].ProductCollection = "products_" + brands[i].Key
		}
		if brands[i].CustomerCollection == "" {
			brands[i].CustomerCollection = "customers_" + brands[i].Key
		}
	}
	cfg.Brands = brands
	return nil
}

// Brand looks up a tenant by key.
func (c *Config) Brand(key string) (BrandConfig, error) {
	for _, b := range c.Brands {
		if b.Key == key {
			return b, nil
		}
	}
	return BrandConfig{}, fmt.Errorf("unknown brand %q", key)
}
