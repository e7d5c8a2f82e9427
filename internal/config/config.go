package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server  ServerConfig
	DB      DBConfig
	JWT     JWTConfig
	Storage StorageConfig
	LLM     LLMConfig
	Watch   WatchConfig
	Log     LogConfig
	CORS    CORSConfig
	Overdue OverdueConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port          string        `mapstructure:"port"`
	ReadTimeout   time.Duration `mapstructure:"read_timeout"`
	WriteTimeout  time.Duration `mapstructure:"write_timeout"`
	Environment   string        `mapstructure:"environment"`
	MaxUploadSize int64         `mapstructure:"max_upload_mb"`
}

// DBConfig holds PostgreSQL connection settings.
type DBConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
	MaxOpen  int    `mapstructure:"max_open"`
	MaxIdle  int    `mapstructure:"max_idle"`
}

// DSN returns the PostgreSQL connection string.
func (d *DBConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// JWTConfig holds JWT signing and expiry settings.
type JWTConfig struct {
	Secret             string        `mapstructure:"secret"`
	AccessTokenExpiry  time.Duration `mapstructure:"access_expiry"`
	RefreshTokenExpiry time.Duration `mapstructure:"refresh_expiry"`
	Issuer             string        `mapstructure:"issuer"`
}

// StorageConfig selects where processed invoice files live.
type StorageConfig struct {
	Backend   string `mapstructure:"backend"`
	LocalRoot string `mapstructure:"local_root"`
	S3        S3Config
}

// S3Config holds AWS S3 settings.
type S3Config struct {
	Region        string `mapstructure:"region"`
	Bucket        string `mapstructure:"bucket"`
	Endpoint      string `mapstructure:"endpoint"`
	AccessKey     string `mapstructure:"access_key"`
	SecretKey     string `mapstructure:"secret_key"`
	PresignExpiry int64  `mapstructure:"presign_expiry"`
}

// ProviderConfig holds settings for a single LLM provider.
type ProviderConfig struct {
	APIKey      string `mapstructure:"api_key"`
	Model       string `mapstructure:"model"`
	BaseURL     string `mapstructure:"base_url"`
	TimeoutSecs int    `mapstructure:"timeout_secs"`
}

// Timeout returns the per-attempt timeout, falling back to def when unset.
func (p ProviderConfig) Timeout(def time.Duration) time.Duration {
	if p.TimeoutSecs > 0 {
		return time.Duration(p.TimeoutSecs) * time.Second
	}
	return def
}

// LLMConfig is the explicit credential and ordering block handed to the
// provider chain. Nothing in the llm packages reads the environment.
type LLMConfig struct {
	Order     []string
	Timeout   time.Duration
	Providers map[string]ProviderConfig
}

// Provider returns the config for name, or a zero value.
func (l LLMConfig) Provider(name string) ProviderConfig {
	if l.Providers == nil {
		return ProviderConfig{}
	}
	return l.Providers[name]
}

// WithOverrides returns a copy where non-empty keys replace the configured
// API keys. The receiver is not modified.
func (l LLMConfig) WithOverrides(keys map[string]string) LLMConfig {
	out := LLMConfig{
		Order:     append([]string(nil), l.Order...),
		Timeout:   l.Timeout,
		Providers: make(map[string]ProviderConfig, len(l.Providers)),
	}
	for name, p := range l.Providers {
		out.Providers[name] = p
	}
	for name, key := range keys {
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		p := out.Providers[name]
		p.APIKey = key
		out.Providers[name] = p
	}
	return out
}

// WatchConfig controls the dropped-PDF directory watcher.
type WatchConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	Dir         string        `mapstructure:"dir"`
	Concurrency int           `mapstructure:"concurrency"`
	Debounce    time.Duration `mapstructure:"debounce"`
}

// ProcessedDir is where successfully ingested files are moved.
func (w WatchConfig) ProcessedDir() string { return filepath.Join(w.Dir, "processed") }

// ErrorsDir is where files that failed ingestion are moved.
func (w WatchConfig) ErrorsDir() string { return filepath.Join(w.Dir, "errors") }

// OverdueConfig controls the background overdue sweeper.
type OverdueConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Interval time.Duration `mapstructure:"interval"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ProviderNames lists every LLM provider the config knows how to bind.
var ProviderNames = []string{"groq", "gemini", "openrouter", "minimax", "ollama", "openai", "anthropic"}

var providerDefaults = map[string]ProviderConfig{
	"groq":       {Model: "llama-3.3-70b-versatile", BaseURL: "https://api.groq.com/openai/v1"},
	"gemini":     {Model: "gemini-2.0-flash", BaseURL: "https://generativelanguage.googleapis.com/v1beta/models"},
	"openrouter": {Model: "deepseek/deepseek-chat", BaseURL: "https://openrouter.ai/api/v1"},
	"minimax":    {Model: "M2-her", BaseURL: "https://api.minimax.io/v1/text/chatcompletion_v2"},
	"ollama":     {Model: "llama3.2", BaseURL: "http://localhost:11434"},
	"openai":     {Model: "gpt-4o-mini", BaseURL: "https://api.openai.com/v1"},
	"anthropic":  {Model: "claude-sonnet-4-20250514", BaseURL: "https://api.anthropic.com/v1/messages"},
}

// Load reads configuration from environment variables with the FACTURAIA_
// prefix. A .env file in the working directory is loaded first when present;
// variables already set in the process take precedence.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	v := viper.New()
	v.SetEnvPrefix("FACTURAIA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Server defaults
	v.SetDefault("server.port", ":3001")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "120s")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.max_upload_mb", 20)

	// DB defaults
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.user", "facturaia")
	v.SetDefault("db.password", "facturaia_secret")
	v.SetDefault("db.name", "facturaia")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.max_open", 25)
	v.SetDefault("db.max_idle", 10)

	// JWT defaults
	v.SetDefault("jwt.secret", "change-me-in-production")
	v.SetDefault("jwt.access_expiry", "8h")
	v.SetDefault("jwt.refresh_expiry", "168h")
	v.SetDefault("jwt.issuer", "facturaia")

	// Storage defaults
	v.SetDefault("storage.backend", "local")
	v.SetDefault("storage.local_root", "./data/files")
	v.SetDefault("storage.s3.region", "us-east-1")
	v.SetDefault("storage.s3.bucket", "facturaia-invoices")
	v.SetDefault("storage.s3.endpoint", "")
	v.SetDefault("storage.s3.presign_expiry", 3600)

	// LLM defaults
	v.SetDefault("llm.order", "groq,gemini,openrouter,minimax,ollama")
	v.SetDefault("llm.timeout_secs", 30)
	for name, def := range providerDefaults {
		v.SetDefault("llm."+name+".api_key", "")
		v.SetDefault("llm."+name+".model", def.Model)
		v.SetDefault("llm."+name+".base_url", def.BaseURL)
		v.SetDefault("llm."+name+".timeout_secs", 0)
	}

	// Watcher defaults
	v.SetDefault("watch.enabled", true)
	v.SetDefault("watch.dir", "./uploads/facturas")
	v.SetDefault("watch.concurrency", 2)
	v.SetDefault("watch.debounce", "300ms")

	// Overdue sweeper defaults
	v.SetDefault("overdue.enabled", true)
	v.SetDefault("overdue.interval", "1h")

	// Log defaults
	v.SetDefault("log.level", "debug")
	v.SetDefault("log.format", "console")

	// CORS defaults (localhost origins for development)
	v.SetDefault("cors.allowed_origins", "http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173")

	// Bind environment variables explicitly for nested keys
	envBindings := map[string]string{
		"server.port":               "FACTURAIA_SERVER_PORT",
		"server.read_timeout":       "FACTURAIA_SERVER_READ_TIMEOUT",
		"server.write_timeout":      "FACTURAIA_SERVER_WRITE_TIMEOUT",
		"server.environment":        "FACTURAIA_SERVER_ENVIRONMENT",
		"server.max_upload_mb":      "FACTURAIA_SERVER_MAX_UPLOAD_MB",
		"db.host":                   "FACTURAIA_DB_HOST",
		"db.port":                   "FACTURAIA_DB_PORT",
		"db.user":                   "FACTURAIA_DB_USER",
		"db.password":               "FACTURAIA_DB_PASSWORD",
		"db.name":                   "FACTURAIA_DB_NAME",
		"db.sslmode":                "FACTURAIA_DB_SSLMODE",
		"db.max_open":               "FACTURAIA_DB_MAX_OPEN",
		"db.max_idle":               "FACTURAIA_DB_MAX_IDLE",
		"jwt.secret":                "FACTURAIA_JWT_SECRET",
		"jwt.access_expiry":         "FACTURAIA_JWT_ACCESS_EXPIRY",
		"jwt.refresh_expiry":        "FACTURAIA_JWT_REFRESH_EXPIRY",
		"jwt.issuer":                "FACTURAIA_JWT_ISSUER",
		"storage.backend":           "FACTURAIA_STORAGE_BACKEND",
		"storage.local_root":        "FACTURAIA_STORAGE_LOCAL_ROOT",
		"storage.s3.region":         "FACTURAIA_S3_REGION",
		"storage.s3.bucket":         "FACTURAIA_S3_BUCKET",
		"storage.s3.endpoint":       "FACTURAIA_S3_ENDPOINT",
		"storage.s3.access_key":     "FACTURAIA_S3_ACCESS_KEY",
		"storage.s3.secret_key":     "FACTURAIA_S3_SECRET_KEY",
		"storage.s3.presign_expiry": "FACTURAIA_S3_PRESIGN_EXPIRY",
		"llm.order":                 "LLM_PROVIDER_ORDER",
		"llm.timeout_secs":          "LLM_TIMEOUT_SECS",
		"watch.enabled":             "FACTURAIA_WATCH_ENABLED",
		"watch.dir":                 "FACTURAIA_WATCH_DIR",
		"watch.concurrency":         "WATCH_CONCURRENCY",
		"watch.debounce":            "FACTURAIA_WATCH_DEBOUNCE",
		"overdue.enabled":           "FACTURAIA_OVERDUE_ENABLED",
		"overdue.interval":          "FACTURAIA_OVERDUE_INTERVAL",
		"log.level":                 "FACTURAIA_LOG_LEVEL",
		"log.format":                "FACTURAIA_LOG_FORMAT",
		"cors.allowed_origins":      "FACTURAIA_CORS_ALLOWED_ORIGINS",
	}
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}
	// Provider credentials keep the conventional vendor variable names.
	for _, name := range ProviderNames {
		upper := strings.ToUpper(name)
		_ = v.BindEnv("llm."+name+".api_key", upper+"_API_KEY")
		_ = v.BindEnv("llm."+name+".model", upper+"_MODEL")
		_ = v.BindEnv("llm."+name+".base_url", upper+"_BASE_URL")
		_ = v.BindEnv("llm."+name+".timeout_secs", upper+"_TIMEOUT_SECS")
	}
	_ = v.BindEnv("llm.ollama.base_url", "OLLAMA_URL", "OLLAMA_BASE_URL")
	_ = v.BindEnv("llm.openrouter.api_key", "OPENROUTER_API_KEY", "OPEN_ROUTER_API_KEY")

	cfg := &Config{}

	// Hosting platforms set PORT. Use it if FACTURAIA_SERVER_PORT is not explicitly set.
	serverPort := v.GetString("server.port")
	if port := os.Getenv("PORT"); port != "" && os.Getenv("FACTURAIA_SERVER_PORT") == "" {
		serverPort = ":" + port
	}

	cfg.Server = ServerConfig{
		Port:          serverPort,
		ReadTimeout:   v.GetDuration("server.read_timeout"),
		WriteTimeout:  v.GetDuration("server.write_timeout"),
		Environment:   v.GetString("server.environment"),
		MaxUploadSize: v.GetInt64("server.max_upload_mb") << 20,
	}
	cfg.DB = DBConfig{
		Host:     v.GetString("db.host"),
		Port:     v.GetInt("db.port"),
		User:     v.GetString("db.user"),
		Password: v.GetString("db.password"),
		Name:     v.GetString("db.name"),
		SSLMode:  v.GetString("db.sslmode"),
		MaxOpen:  v.GetInt("db.max_open"),
		MaxIdle:  v.GetInt("db.max_idle"),
	}
	cfg.JWT = JWTConfig{
		Secret:             v.GetString("jwt.secret"),
		AccessTokenExpiry:  v.GetDuration("jwt.access_expiry"),
		RefreshTokenExpiry: v.GetDuration("jwt.refresh_expiry"),
		Issuer:             v.GetString("jwt.issuer"),
	}
	cfg.Storage = StorageConfig{
		Backend:   v.GetString("storage.backend"),
		LocalRoot: v.GetString("storage.local_root"),
		S3: S3Config{
			Region:        v.GetString("storage.s3.region"),
			Bucket:        v.GetString("storage.s3.bucket"),
			Endpoint:      v.GetString("storage.s3.endpoint"),
			AccessKey:     v.GetString("storage.s3.access_key"),
			SecretKey:     v.GetString("storage.s3.secret_key"),
			PresignExpiry: v.GetInt64("storage.s3.presign_expiry"),
		},
	}

	cfg.LLM = LLMConfig{
		Order:     splitList(v.GetString("llm.order")),
		Timeout:   time.Duration(v.GetInt("llm.timeout_secs")) * time.Second,
		Providers: make(map[string]ProviderConfig, len(ProviderNames)),
	}
	for _, name := range ProviderNames {
		cfg.LLM.Providers[name] = ProviderConfig{
			APIKey:      strings.TrimSpace(v.GetString("llm." + name + ".api_key")),
			Model:       v.GetString("llm." + name + ".model"),
			BaseURL:     v.GetString("llm." + name + ".base_url"),
			TimeoutSecs: v.GetInt("llm." + name + ".timeout_secs"),
		}
	}

	cfg.Watch = WatchConfig{
		Enabled:     v.GetBool("watch.enabled"),
		Dir:         v.GetString("watch.dir"),
		Concurrency: v.GetInt("watch.concurrency"),
		Debounce:    v.GetDuration("watch.debounce"),
	}
	cfg.Overdue = OverdueConfig{
		Enabled:  v.GetBool("overdue.enabled"),
		Interval: v.GetDuration("overdue.interval"),
	}
	cfg.Log = LogConfig{
		Level:  v.GetString("log.level"),
		Format: v.GetString("log.format"),
	}
	cfg.CORS = CORSConfig{
		AllowedOrigins: splitList(v.GetString("cors.allowed_origins")),
	}

	if cfg.JWT.Secret == "" {
		return nil, errors.New("config: jwt secret must not be empty")
	}
	if cfg.Watch.Concurrency < 1 {
		cfg.Watch.Concurrency = 1
	}

	return cfg, nil
}

// splitList parses a comma-separated value, dropping blanks.
func splitList(raw string) []string {
	var out []string
	for _, s := range strings.Split(raw, ",") {
		s = strings.TrimSpace(s)
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
