package app

import (
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/aussiebroadwan/sessionauth/pkg/cryptox"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"
)

// Store backends.
const (
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

type Config struct {
	Env                  string        // Environment (dev, staging, prod) (default: dev)
	LogLevel             string        // Log level (debug, info, warn, error) (default: info)
	LogFormat            string        // Log format (json, text) (default: json)
	Port                 int           // HTTP server port (default: 8080)
	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration // Expired token purge interval (default: 1h, 0 disables)

	StoreBackend string        // sqlite, postgres or memory (default: sqlite)
	DatabaseFile string        // SQLite database file (default: ./auth.db)
	DatabaseURL  string        // PostgreSQL connection URL, required for the postgres backend
	StoreTimeout time.Duration // Deadline applied to every store call (default: 5s, 0 disables)

	HashIterations int    // PBKDF2 rounds (default and minimum: 10000)
	PepperFile     string // Pepper for password hashing, generated when missing (default: ./pepper, empty disables)

	TokenTTL         time.Duration // Sliding session token lifetime (default: 24h)
	ActiveOnRegister bool          // Whether self-registered accounts start active (default: false)

	EnableAPI          bool     // Mount the account endpoints (default: true)
	APIBaseURL         string   // Prefix of the account endpoints (default: /api/auth)
	CORSAllowedOrigins []string // Origins allowed by CORS, comma separated in env (default: none)
}

// Config keys, shared by the YAML file and (with dashes) the flags.
const (
	keyEnv                  = "env"
	keyLogLevel             = "log_level"
	keyLogFormat            = "log_format"
	keyPort                 = "port"
	keyShutdownGracePeriod  = "shutdown_grace_period"
	keyHousekeepingInterval = "housekeeping_interval"
	keyStoreBackend         = "store_backend"
	keyDatabaseFile         = "database_file"
	keyDatabaseURL          = "database_url"
	keyStoreTimeout         = "store_timeout"
	keyHashIterations       = "hash_iterations"
	keyPepperFile           = "pepper_file"
	keyTokenTTL             = "token_ttl"
	keyActiveOnRegister     = "active_on_register"
	keyEnableAPI            = "enable_api"
	keyAPIBaseURL           = "api_base_url"
	keyCORSAllowedOrigins   = "cors_allowed_origins"
)

func LoadConfig() Config {
	return Config{
		Env:                  getEnvOrDefault("ENV", "dev"),
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:            getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                 getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", 1*time.Hour),

		StoreBackend: getEnvOrDefault("AUTH_STORE_BACKEND", BackendSQLite),
		DatabaseFile: getEnvOrDefault("AUTH_DATABASE_FILE", "auth.db"),
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		StoreTimeout: getEnvDurationOrDefault("AUTH_STORE_TIMEOUT", 5*time.Second),

		HashIterations: getEnvIntOrDefault("AUTH_HASH_ITERATIONS", cryptox.MinIterations),
		PepperFile:     getEnvOrDefault("AUTH_PEPPER_FILE", "pepper"),

		TokenTTL:         getEnvDurationOrDefault("AUTH_TOKEN_TTL", 24*time.Hour),
		ActiveOnRegister: getEnvBoolOrDefault("AUTH_ACTIVE_ON_REGISTER", false),

		EnableAPI:          getEnvBoolOrDefault("AUTH_ENABLE_API", true),
		APIBaseURL:         getEnvOrDefault("AUTH_API_BASE_URL", "/api/auth"),
		CORSAllowedOrigins: getEnvListOrDefault("AUTH_CORS_ALLOWED_ORIGINS", nil),
	}
}

// BindFlags registers one flag per config key on fs. Only flags set on the
// command line override the environment and the config file.
func BindFlags(fs *pflag.FlagSet) {
	d := LoadConfig()

	fs.String(flagName(keyEnv), d.Env, "environment (dev, staging, prod)")
	fs.String(flagName(keyLogLevel), d.LogLevel, "log level (debug, info, warn, error)")
	fs.String(flagName(keyLogFormat), d.LogFormat, "log format (json, text)")
	fs.Int(flagName(keyPort), d.Port, "HTTP listen port")
	fs.Duration(flagName(keyShutdownGracePeriod), d.ShutdownGracePeriod, "graceful shutdown timeout")
	fs.Duration(flagName(keyHousekeepingInterval), d.HousekeepingInterval, "expired token purge interval (0 disables)")
	fs.String(flagName(keyStoreBackend), d.StoreBackend, "store backend (sqlite, postgres, memory)")
	fs.String(flagName(keyDatabaseFile), d.DatabaseFile, "SQLite database file")
	fs.String(flagName(keyDatabaseURL), d.DatabaseURL, "PostgreSQL connection URL")
	fs.Duration(flagName(keyStoreTimeout), d.StoreTimeout, "deadline for each store call (0 disables)")
	fs.Int(flagName(keyHashIterations), d.HashIterations, "PBKDF2 iterations for new password digests")
	fs.String(flagName(keyPepperFile), d.PepperFile, "pepper file for password hashing (empty disables)")
	fs.Duration(flagName(keyTokenTTL), d.TokenTTL, "sliding session token lifetime")
	fs.Bool(flagName(keyActiveOnRegister), d.ActiveOnRegister, "create accounts active unless told otherwise")
	fs.Bool(flagName(keyEnableAPI), d.EnableAPI, "serve the account HTTP endpoints")
	fs.String(flagName(keyAPIBaseURL), d.APIBaseURL, "path prefix of the account endpoints")
	fs.StringSlice(flagName(keyCORSAllowedOrigins), d.CORSAllowedOrigins, "origins allowed by CORS")
}

// Load builds the configuration from the environment, then the YAML file at
// path (if any), then the flags in fs that were set explicitly. The result
// is validated.
func Load(path string, fs *pflag.FlagSet) (Config, error) {
	cfg := LoadConfig()
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, oops.Code("CONFIG_INVALID").With("path", path).Wrap(err)
		}
	}

	if fs != nil {
		provider := posflag.ProviderWithFlag(fs, ".", k, func(f *pflag.Flag) (string, any) {
			if !f.Changed {
				return "", nil
			}
			return strings.ReplaceAll(f.Name, "-", "_"), flagValue(f)
		})
		if err := k.Load(provider, nil); err != nil {
			return Config{}, oops.Code("CONFIG_INVALID").Wrap(err)
		}
	}

	overlay(k, &cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func overlay(k *koanf.Koanf, cfg *Config) {
	str := func(key string, dst *string) {
		if k.Exists(key) {
			*dst = k.String(key)
		}
	}
	integer := func(key string, dst *int) {
		if k.Exists(key) {
			*dst = k.Int(key)
		}
	}
	dur := func(key string, dst *time.Duration) {
		if k.Exists(key) {
			*dst = k.Duration(key)
		}
	}
	boolean := func(key string, dst *bool) {
		if k.Exists(key) {
			*dst = k.Bool(key)
		}
	}

	str(keyEnv, &cfg.Env)
	str(keyLogLevel, &cfg.LogLevel)
	str(keyLogFormat, &cfg.LogFormat)
	integer(keyPort, &cfg.Port)
	dur(keyShutdownGracePeriod, &cfg.ShutdownGracePeriod)
	dur(keyHousekeepingInterval, &cfg.HousekeepingInterval)
	str(keyStoreBackend, &cfg.StoreBackend)
	str(keyDatabaseFile, &cfg.DatabaseFile)
	str(keyDatabaseURL, &cfg.DatabaseURL)
	dur(keyStoreTimeout, &cfg.StoreTimeout)
	integer(keyHashIterations, &cfg.HashIterations)
	str(keyPepperFile, &cfg.PepperFile)
	dur(keyTokenTTL, &cfg.TokenTTL)
	boolean(keyActiveOnRegister, &cfg.ActiveOnRegister)
	boolean(keyEnableAPI, &cfg.EnableAPI)
	str(keyAPIBaseURL, &cfg.APIBaseURL)
	if k.Exists(keyCORSAllowedOrigins) {
		cfg.CORSAllowedOrigins = k.Strings(keyCORSAllowedOrigins)
	}
}

// Validate rejects settings the service cannot run with.
func (c Config) Validate() error {
	invalid := func(key, hint string, value any) error {
		return oops.Code("CONFIG_INVALID").With(key, value).Hint(hint).Errorf("invalid %s", key)
	}

	switch {
	case c.Port <= 0 || c.Port > 65535:
		return invalid(keyPort, "port must be between 1 and 65535", c.Port)
	case c.LogFormat != "json" && c.LogFormat != "text":
		return invalid(keyLogFormat, "log format must be json or text", c.LogFormat)
	case !slices.Contains([]string{BackendSQLite, BackendPostgres, BackendMemory}, c.StoreBackend):
		return invalid(keyStoreBackend, "backend must be sqlite, postgres or memory", c.StoreBackend)
	case c.StoreBackend == BackendSQLite && c.DatabaseFile == "":
		return invalid(keyDatabaseFile, "the sqlite backend needs a database file", c.DatabaseFile)
	case c.StoreBackend == BackendPostgres && c.DatabaseURL == "":
		return invalid(keyDatabaseURL, "the postgres backend needs a database URL", "")
	case c.StoreTimeout < 0:
		return invalid(keyStoreTimeout, "store timeout cannot be negative", c.StoreTimeout)
	case c.HousekeepingInterval < 0:
		return invalid(keyHousekeepingInterval, "housekeeping interval cannot be negative", c.HousekeepingInterval)
	case c.HashIterations < cryptox.MinIterations:
		return invalid(keyHashIterations, "at least "+strconv.Itoa(cryptox.MinIterations)+" iterations are required", c.HashIterations)
	case c.TokenTTL <= 0:
		return invalid(keyTokenTTL, "token lifetime must be positive", c.TokenTTL)
	case c.EnableAPI && !strings.HasPrefix(c.APIBaseURL, "/"):
		return invalid(keyAPIBaseURL, "API base URL must start with /", c.APIBaseURL)
	}
	return nil
}

// flagValue hands koanf the flag's string form, which its typed getters
// parse, or the list itself for slice flags.
func flagValue(f *pflag.Flag) any {
	if sv, ok := f.Value.(pflag.SliceValue); ok {
		return sv.GetSlice()
	}
	return f.Value.String()
}

func flagName(key string) string {
	return strings.ReplaceAll(key, "_", "-")
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if b, err := strconv.ParseBool(value); err == nil {
		return b
	}

	return defaultValue
}

func getEnvListOrDefault(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Try parsing as duration (e.g., "1h", "30m", "90s")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Try parsing as integer minutes (for backwards compatibility)
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}
