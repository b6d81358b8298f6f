package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Geocoder    GeocoderConfig    `mapstructure:"geocoder"`
	Overpass    OverpassConfig    `mapstructure:"overpass"`
	Autosuggest AutosuggestConfig `mapstructure:"autosuggest"`
	OpenRouter  OpenRouterConfig  `mapstructure:"openrouter"`
	Archive     ArchiveConfig     `mapstructure:"archive"`
	Telemetry   TelemetryConfig   `mapstructure:"telemetry"`
}

type ServerConfig struct {
	Port int        `mapstructure:"port"`
	Mode string     `mapstructure:"mode"`
	CORS CORSConfig `mapstructure:"cors"`
}

type CORSConfig struct {
	AllowedOrigins  []string `mapstructure:"allowed_origins"`
	AllowAllOrigins bool     `mapstructure:"allow_all_origins"`
}

// DatabaseConfig selects the persistence backend. Driver is one of
// postgres, sqlite or supabase.
type DatabaseConfig struct {
	Driver string `mapstructure:"driver"`

	// sqlite
	Path string `mapstructure:"path"`

	// postgres; URL wins over the discrete fields when set
	URL      string `mapstructure:"url"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`

	// supabase (PostgREST)
	SupabaseURL string `mapstructure:"supabase_url"`
	SupabaseKey string `mapstructure:"supabase_key"`

	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

// DSN returns the gorm connection string for the configured driver.
func (c *DatabaseConfig) DSN() string {
	switch c.Driver {
	case "postgres":
		if c.URL != "" {
			return c.URL
		}
		return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
	default:
		return c.Path
	}
}

// GeocoderConfig points at a Nominatim-compatible search API.
type GeocoderConfig struct {
	BaseURL   string        `mapstructure:"base_url"`
	Country   string        `mapstructure:"country"`
	UserAgent string        `mapstructure:"user_agent"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// OverpassConfig points at an Overpass interpreter.
type OverpassConfig struct {
	URL          string        `mapstructure:"url"`
	RadiusMeters int           `mapstructure:"radius_meters"`
	Timeout      time.Duration `mapstructure:"timeout"`
}

// AutosuggestConfig points at a DuckDuckGo-style /ac/ endpoint.
type AutosuggestConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	MaxSuggestions int           `mapstructure:"max_suggestions"`
	Timeout        time.Duration `mapstructure:"timeout"`
}

// ArchiveConfig configures optional run-report archiving to S3-compatible storage.
type ArchiveConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Type      string `mapstructure:"type"` // s3, r2, minio
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	UseSSL    bool   `mapstructure:"use_ssl"`
	Bucket    string `mapstructure:"bucket"`
	Region    string `mapstructure:"region"`
	Prefix    string `mapstructure:"prefix"`
}

type TelemetryConfig struct {
	MetricsEnabled bool    `mapstructure:"metrics_enabled"`
	OTLPEndpoint   string  `mapstructure:"otlp_endpoint"`
	ServiceName    string  `mapstructure:"service_name"`
	SampleRatio    float64 `mapstructure:"sample_ratio"`
}

func Load(configPath string) (*Config, error) {
	// Load .env file if exists
	_ = godotenv.Load()

	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Secrets and deployment knobs come from the environment
	v.BindEnv("server.port", "PORT")
	v.BindEnv("database.driver", "DATABASE_DRIVER")
	v.BindEnv("database.url", "DATABASE_URL")
	v.BindEnv("database.supabase_url", "SUPABASE_URL")
	v.BindEnv("database.supabase_key", "SUPABASE_SERVICE_ROLE_KEY")
	v.BindEnv("openrouter.base_url", "OPENROUTER_BASE_URL")
	v.BindEnv("archive.endpoint", "STORAGE_ENDPOINT")
	v.BindEnv("archive.access_key", "STORAGE_ACCESS_KEY")
	v.BindEnv("archive.secret_key", "STORAGE_SECRET_KEY")
	v.BindEnv("archive.bucket", "STORAGE_BUCKET")
	v.BindEnv("telemetry.otlp_endpoint", "OTEL_EXPORTER_OTLP_ENDPOINT")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.OpenRouter.ResolveKeys()

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.cors.allow_all_origins", true)
	v.SetDefault("server.cors.allowed_origins", []string{})

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "./data/vendorseo.db")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.sslmode", "require")
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.max_open_conns", 20)
	v.SetDefault("database.conn_max_lifetime", time.Hour)
	v.SetDefault("database.auto_migrate", true)

	v.SetDefault("geocoder.base_url", "https://nominatim.openstreetmap.org")
	v.SetDefault("geocoder.country", "nigeria")
	v.SetDefault("geocoder.user_agent", "vendorseo/1.0")
	v.SetDefault("geocoder.timeout", 10*time.Second)

	v.SetDefault("overpass.url", "https://overpass-api.de/api/interpreter")
	v.SetDefault("overpass.radius_meters", 20000)
	v.SetDefault("overpass.timeout", 25*time.Second)

	v.SetDefault("autosuggest.base_url", "https://duckduckgo.com")
	v.SetDefault("autosuggest.max_suggestions", 8)
	v.SetDefault("autosuggest.timeout", 8*time.Second)

	v.SetDefault("openrouter.base_url", "https://openrouter.ai/api/v1")
	v.SetDefault("openrouter.models", DefaultModels)
	v.SetDefault("openrouter.attempt_timeout", 20*time.Second)

	v.SetDefault("archive.enabled", false)
	v.SetDefault("archive.type", "s3")
	v.SetDefault("archive.use_ssl", true)
	v.SetDefault("archive.region", "auto")
	v.SetDefault("archive.prefix", "seo-runs")

	v.SetDefault("telemetry.metrics_enabled", true)
	v.SetDefault("telemetry.service_name", "vendorseo")
	v.SetDefault("telemetry.sample_ratio", 1.0)
}
