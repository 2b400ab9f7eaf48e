package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Environment variables recognised by Load.
const (
	EnvConfigPath    = "SOCIALCLIENT_CONFIG"
	EnvServerAddress = "SOCIALCLIENT_SERVER_ADDRESS"
	EnvStorage       = "SOCIALCLIENT_STORAGE"
	EnvSessionKey    = "SOCIALCLIENT_SESSION_KEY"
	EnvLogLevel      = "SOCIALCLIENT_LOG_LEVEL"
	EnvReadRetries   = "SOCIALCLIENT_READ_RETRIES"
	envEndpointBase  = "SOCIALCLIENT_ENDPOINT_"
)

// DefaultStorageKey is the fixed key the session record is stored under.
const DefaultStorageKey = "askar63_user"

// Config represents runtime configuration for the client.
type Config struct {
	BasicConfig BasicConfig               `json:"basic_config"`
	Endpoints   Endpoints                 `json:"endpoints"`
	Databases   map[string]DatabaseConfig `json:"databases"`
	Redis       RedisConfig               `json:"redis"`
	FileStore   FileStoreConfig           `json:"file_store"`

	// SessionKey seals the persisted session record when set. Only read from the environment.
	SessionKey string `json:"-"`
}

type BasicConfig struct {
	ServerAddress    string `json:"server_address"`
	Storage          string `json:"storage"`
	StorageKey       string `json:"storage_key"`
	LogLevel         string `json:"log_level"`
	UserAgent        string `json:"user_agent"`
	RequestTimeoutMs int    `json:"request_timeout_ms"`
	ReadRetries      *int   `json:"read_retries"`
	RetryBackoffMs   int    `json:"retry_backoff_ms"`
	PoolWorkers      int    `json:"pool_workers"`
	PoolQueue        int    `json:"pool_queue"`
}

// Endpoints holds the base URL of each remote endpoint group.
type Endpoints struct {
	Auth          string `json:"auth"`
	Posts         string `json:"posts"`
	Messages      string `json:"messages"`
	Notifications string `json:"notifications"`
	Admin         string `json:"admin"`
}

type DatabaseConfig struct {
	DSN      string `json:"dsn"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Username string `json:"username"`
	Password string `json:"password"`
	DBName   string `json:"db_name"`
	Params   string `json:"params"`
}

type RedisConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Username string `json:"username"`
	Password string `json:"password"`
	DB       int    `json:"db"`
}

type FileStoreConfig struct {
	Path string `json:"path"`
}

// DefaultEndpoints points at the production deployment of the remote backend.
func DefaultEndpoints() Endpoints {
	return Endpoints{
		Auth:          "https://functions.poehali.dev/4abe9838-bb82-4574-865e-7095e9f444f6",
		Posts:         "https://functions.poehali.dev/c76c489e-f6b9-4177-8b8c-1e7292c2ec3d",
		Messages:      "https://functions.poehali.dev/8cc20955-2c5b-4009-953c-da4e712288f1",
		Admin:         "https://functions.poehali.dev/c4451148-4e87-4201-a0f5-4e28d8a2bd95",
		Notifications: "https://functions.poehali.dev/7480a3ac-6265-4404-ab86-d0b2b1ec9979",
	}
}

// Default returns a configuration usable without any config file.
func Default() *Config {
	retries := 2
	return &Config{
		BasicConfig: BasicConfig{
			ServerAddress:  "127.0.0.1:8090",
			Storage:        "sqlite3",
			StorageKey:     DefaultStorageKey,
			LogLevel:       "info",
			UserAgent:      "socialclient/1.0",
			ReadRetries:    &retries,
			RetryBackoffMs: 200,
			PoolWorkers:    4,
			PoolQueue:      16,
		},
		Endpoints: DefaultEndpoints(),
		Databases: map[string]DatabaseConfig{
			"sqlite3": {DSN: "socialclient.db"},
		},
		FileStore: FileStoreConfig{Path: "session.json"},
	}
}

// Load reads configuration from the provided path (defaults to $SOCIALCLIENT_CONFIG, then config.json).
// A missing default config file is not an error; a missing explicit one is.
func Load(path string) (*Config, error) {
	_ = godotenv.Load() // .env is optional

	explicit := path != ""
	if path == "" {
		path = os.Getenv(EnvConfigPath)
		explicit = path != ""
	}
	if path == "" {
		path = "config.json"
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve config path: %w", err)
	}

	cfg := Default()
	file, err := os.Open(absPath)
	switch {
	case err == nil:
		defer file.Close()
		if err := json.NewDecoder(file).Decode(cfg); err != nil {
			return nil, fmt.Errorf("decode config: %w", err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("open config %s: %w", absPath, err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.fillDefaults()
	cfg.resolvePaths(filepath.Dir(absPath))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks endpoint URLs and the storage backend name.
func (c *Config) Validate() error {
	for group, raw := range c.Endpoints.byGroup() {
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("endpoint %s: invalid url %q", group, raw)
		}
	}
	switch strings.ToLower(c.BasicConfig.Storage) {
	case "sqlite", "sqlite3", "mysql", "postgres", "pgx", "redis", "file", "memory":
	default:
		return fmt.Errorf("unsupported storage backend: %s", c.BasicConfig.Storage)
	}
	if c.BasicConfig.ReadRetries != nil && *c.BasicConfig.ReadRetries < 0 {
		return errors.New("read_retries cannot be negative")
	}
	return nil
}

// Retries reports the configured read retry count.
func (b BasicConfig) Retries() int {
	if b.ReadRetries == nil {
		return 0
	}
	return *b.ReadRetries
}

func (e Endpoints) byGroup() map[string]string {
	return map[string]string{
		"auth":          e.Auth,
		"posts":         e.Posts,
		"messages":      e.Messages,
		"notifications": e.Notifications,
		"admin":         e.Admin,
	}
}

func (c *Config) applyEnv() error {
	if v := os.Getenv(EnvServerAddress); v != "" {
		c.BasicConfig.ServerAddress = v
	}
	if v := os.Getenv(EnvStorage); v != "" {
		c.BasicConfig.Storage = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.BasicConfig.LogLevel = v
	}
	c.SessionKey = strings.TrimSpace(os.Getenv(EnvSessionKey))

	targets := map[string]*string{
		"AUTH":          &c.Endpoints.Auth,
		"POSTS":         &c.Endpoints.Posts,
		"MESSAGES":      &c.Endpoints.Messages,
		"NOTIFICATIONS": &c.Endpoints.Notifications,
		"ADMIN":         &c.Endpoints.Admin,
	}
	for name, dst := range targets {
		if v := os.Getenv(envEndpointBase + name); v != "" {
			*dst = strings.TrimRight(v, "/")
		}
	}
	if v := os.Getenv(EnvReadRetries); v != "" {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%s: %w", EnvReadRetries, err)
		}
		c.BasicConfig.ReadRetries = &n
	}
	return nil
}

func (c *Config) fillDefaults() {
	def := Default()
	if c.BasicConfig.StorageKey == "" {
		c.BasicConfig.StorageKey = def.BasicConfig.StorageKey
	}
	if c.BasicConfig.UserAgent == "" {
		c.BasicConfig.UserAgent = def.BasicConfig.UserAgent
	}
	if c.BasicConfig.PoolWorkers <= 0 {
		c.BasicConfig.PoolWorkers = def.BasicConfig.PoolWorkers
	}
	if c.BasicConfig.PoolQueue <= 0 {
		c.BasicConfig.PoolQueue = def.BasicConfig.PoolQueue
	}
	if c.BasicConfig.Storage == "" {
		c.BasicConfig.Storage = def.BasicConfig.Storage
	}
	defEndpoints := def.Endpoints
	fill := func(dst *string, d string) {
		if *dst == "" {
			*dst = d
		}
	}
	fill(&c.Endpoints.Auth, defEndpoints.Auth)
	fill(&c.Endpoints.Posts, defEndpoints.Posts)
	fill(&c.Endpoints.Messages, defEndpoints.Messages)
	fill(&c.Endpoints.Notifications, defEndpoints.Notifications)
	fill(&c.Endpoints.Admin, defEndpoints.Admin)
}

// resolvePaths makes relative sqlite and file store paths relative to the config directory.
func (c *Config) resolvePaths(base string) {
	for _, name := range []string{"sqlite", "sqlite3"} {
		dbCfg, ok := c.Databases[name]
		if !ok || dbCfg.DSN == "" || dbCfg.DSN == ":memory:" || strings.HasPrefix(dbCfg.DSN, "file:") {
			continue
		}
		if !filepath.IsAbs(dbCfg.DSN) {
			dbCfg.DSN = filepath.Join(base, dbCfg.DSN)
			c.Databases[name] = dbCfg
		}
	}
	if c.FileStore.Path != "" && !filepath.IsAbs(c.FileStore.Path) {
		c.FileStore.Path = filepath.Join(base, c.FileStore.Path)
	}
}
