package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DefaultDataSFBaseURL = "https://data.sfgov.org/resource"
	DefaultSuggestURL    = "https://sfplanninggis.org/arcgiswa/rest/services/Geocoder_V2/MapServer/0/query"
	DefaultUserAgent     = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// Config is the full runtime configuration. Values come from config.yaml
// (or CONFIG_PATH), then environment variables, then defaults.
type Config struct {
	ListenAddr  string   `yaml:"listen_addr"`
	CORSOrigins []string `yaml:"cors_origins"`

	DataSFBaseURL         string `yaml:"datasf_base_url"`
	DataSFAppToken        string `yaml:"datasf_app_token"`
	DataSFTimeoutSeconds  int    `yaml:"datasf_timeout_seconds"`
	SuggestURL            string `yaml:"suggest_url"`
	SequentialQueries     bool   `yaml:"sequential_queries"`
	ListingTimeoutSeconds int    `yaml:"listing_timeout_seconds"`
	UserAgent             string `yaml:"user_agent"`

	Store StoreConfig `yaml:"store"`

	ZoningShapefiles []string `yaml:"zoning_shapefiles"`
	ZoningProjection string   `yaml:"zoning_projection"`

	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// StoreConfig selects the saved-property back end.
type StoreConfig struct {
	Driver string `yaml:"driver"` // file, sqlite3, mysql, oracle
	Path   string `yaml:"path"`   // file path for file and sqlite3
	DSN    string `yaml:"dsn"`    // mysql DSN, or a full oracle:// URL

	// Oracle Autonomous Database connection, used when DSN is empty.
	Host           string `yaml:"host"`
	Port           string `yaml:"port"`
	Service        string `yaml:"service"`
	Username       string `yaml:"username"`
	Password       string `yaml:"password"`
	WalletLocation string `yaml:"wallet_location"`
}

// Load reads configuration. A missing config file or .env file is not an
// error; a malformed one is.
func Load(path string) (Config, error) {
	var cfg Config

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return cfg, fmt.Errorf("load .env: %w", err)
	}

	if path == "" {
		path = "config.yaml"
		if p := os.Getenv("CONFIG_PATH"); p != "" {
			path = p
		}
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	case !errors.Is(err, os.ErrNotExist):
		return cfg, fmt.Errorf("read %s: %w", path, err)
	}

	applyEnv(&cfg)
	applyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	envOverride(&cfg.ListenAddr, "LISTEN_ADDR")
	envOverrideList(&cfg.CORSOrigins, "CORS_ORIGINS")
	envOverride(&cfg.DataSFBaseURL, "DATASF_BASE_URL")
	envOverride(&cfg.DataSFAppToken, "DATASF_APP_TOKEN")
	envOverrideInt(&cfg.DataSFTimeoutSeconds, "DATASF_TIMEOUT_SECONDS")
	envOverride(&cfg.SuggestURL, "SUGGEST_URL")
	envOverrideBool(&cfg.SequentialQueries, "SEQUENTIAL_QUERIES")
	envOverrideInt(&cfg.ListingTimeoutSeconds, "LISTING_TIMEOUT_SECONDS")
	envOverride(&cfg.UserAgent, "USER_AGENT")

	envOverride(&cfg.Store.Driver, "STORE_DRIVER")
	envOverride(&cfg.Store.Path, "STORE_PATH")
	envOverride(&cfg.Store.DSN, "STORE_DSN")
	envOverride(&cfg.Store.Host, "DB_HOST")
	envOverride(&cfg.Store.Port, "DB_PORT")
	envOverride(&cfg.Store.Service, "DB_SERVICE")
	envOverride(&cfg.Store.Username, "DB_USERNAME")
	envOverride(&cfg.Store.Password, "DB_PASSWORD")
	envOverride(&cfg.Store.WalletLocation, "DB_WALLET_LOCATION")

	envOverrideList(&cfg.ZoningShapefiles, "ZONING_SHAPEFILES")
	envOverride(&cfg.ZoningProjection, "ZONING_PROJECTION")

	envOverride(&cfg.LogLevel, "LOG_LEVEL")
	envOverride(&cfg.LogFormat, "LOG_FORMAT")
}

func applyDefaults(cfg *Config) {
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":5000"
	}
	if len(cfg.CORSOrigins) == 0 {
		cfg.CORSOrigins = []string{"*"}
	}
	if cfg.DataSFBaseURL == "" {
		cfg.DataSFBaseURL = DefaultDataSFBaseURL
	}
	cfg.DataSFBaseURL = strings.TrimRight(cfg.DataSFBaseURL, "/")
	if cfg.DataSFTimeoutSeconds == 0 {
		cfg.DataSFTimeoutSeconds = 10
	}
	if cfg.SuggestURL == "" {
		cfg.SuggestURL = DefaultSuggestURL
	}
	if cfg.ListingTimeoutSeconds == 0 {
		cfg.ListingTimeoutSeconds = 15
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.Store.Driver == "" {
		cfg.Store.Driver = "file"
	}
	if cfg.Store.Path == "" {
		switch cfg.Store.Driver {
		case "sqlite3":
			cfg.Store.Path = "saved_properties.db"
		default:
			cfg.Store.Path = "saved_properties.json"
		}
	}
	if cfg.Store.Driver == "oracle" {
		if cfg.Store.Port == "" {
			cfg.Store.Port = "1522"
		}
	}
	if cfg.ZoningProjection == "" {
		cfg.ZoningProjection = "wgs84"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
}

// Validate reports the first inconsistent setting.
func (c Config) Validate() error {
	if c.DataSFTimeoutSeconds < 0 || c.ListingTimeoutSeconds < 0 {
		return errors.New("timeouts must be positive")
	}
	switch c.Store.Driver {
	case "file", "sqlite3":
	case "mysql":
		if c.Store.DSN == "" {
			return errors.New("store.dsn is required for the mysql driver")
		}
	case "oracle":
		if c.Store.DSN == "" && (c.Store.Host == "" || c.Store.Service == "" || c.Store.Username == "") {
			return errors.New("oracle store needs store.dsn or host, service and username")
		}
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}
	switch c.ZoningProjection {
	case "wgs84", "ca-zone3":
	default:
		return fmt.Errorf("unknown zoning projection %q", c.ZoningProjection)
	}
	return nil
}

// DataSFTimeout is the per-request timeout for open-data queries.
func (c Config) DataSFTimeout() time.Duration {
	return time.Duration(c.DataSFTimeoutSeconds) * time.Second
}

// ListingTimeout is the timeout for fetching a listing page.
func (c Config) ListingTimeout() time.Duration {
	return time.Duration(c.ListingTimeoutSeconds) * time.Second
}

func envOverride(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func envOverrideInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func envOverrideBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func envOverrideList(dst *[]string, key string) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	*dst = nil
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			*dst = append(*dst, s)
		}
	}
}
