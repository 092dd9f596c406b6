package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override key.
const EnvPrefix = "JURIEASY_"

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Templates TemplatesConfig `yaml:"templates"`
	Minio     MinioConfig     `yaml:"minio"`
	ESign     ESignConfig     `yaml:"esign"`
	Auth      AuthConfig      `yaml:"auth"`
	Log       LogConfig       `yaml:"log"`
	Store     StoreConfig     `yaml:"store"`
	Wizard    WizardConfig    `yaml:"wizard"`
	Render    RenderConfig    `yaml:"render"`
	Users     []User          `yaml:"users"`
}

type ServerConfig struct {
	Port int `yaml:"port"`
}

// DatabaseConfig selects the persistence backend. Driver "memory" keeps
// user documents in process; "sqlite" stores everything in Path.
type DatabaseConfig struct {
	Driver string `yaml:"driver"`
	Path   string `yaml:"path"`
}

type TemplatesConfig struct {
	Dir string `yaml:"dir"`
}

type MinioConfig struct {
	Endpoint   string `yaml:"endpoint"`
	AccessKey  string `yaml:"access_key"`
	SecretKey  string `yaml:"secret_key"`
	Bucket     string `yaml:"bucket"`
	UseSSL     bool   `yaml:"use_ssl"`
	ExpireDays int    `yaml:"expire_days"`
}

type ESignConfig struct {
	APIURL      string `yaml:"api_url"`
	APIToken    string `yaml:"api_token"`
	CallbackURL string `yaml:"callback_url"`
	Seed        string `yaml:"seed"`
	TimeoutSec  int    `yaml:"timeout_sec"`
}

type AuthConfig struct {
	JWTSecret        string `yaml:"jwt_secret"`
	TokenExpireHours int    `yaml:"token_expire_hours"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type StoreConfig struct {
	MaxDocuments int `yaml:"max_documents"`
}

type WizardConfig struct {
	AutosaveDebounceMs int `yaml:"autosave_debounce_ms"`
	SessionTTLMinutes  int `yaml:"session_ttl_minutes"`
	SuggestionLimit    int `yaml:"suggestion_limit"`
}

// RenderConfig holds page geometry in millimetres.
type RenderConfig struct {
	PageSize      string  `yaml:"page_size"`
	Margin        float64 `yaml:"margin"`
	FontFamily    string  `yaml:"font_family"`
	FontSize      float64 `yaml:"font_size"`
	LogoMaxWidth  float64 `yaml:"logo_max_width"`
	LogoMaxHeight float64 `yaml:"logo_max_height"`
}

type User struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Tenant   string `yaml:"tenant"`
}

// AutosaveDebounce returns the quiet window before an autosave fires.
func (w WizardConfig) AutosaveDebounce() time.Duration {
	return time.Duration(w.AutosaveDebounceMs) * time.Millisecond
}

func (w WizardConfig) SessionTTL() time.Duration {
	return time.Duration(w.SessionTTLMinutes) * time.Minute
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	// .env is optional
	_ = godotenv.Load()
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	cfg.setDefaults()
	return &cfg, nil
}

func (c *Config) setDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "sqlite"
	}
	if c.Database.Path == "" {
		c.Database.Path = "jurieasy.db"
	}
	if c.Minio.ExpireDays == 0 {
		c.Minio.ExpireDays = 7
	}
	if c.ESign.TimeoutSec == 0 {
		c.ESign.TimeoutSec = 60
	}
	if c.Auth.TokenExpireHours == 0 {
		c.Auth.TokenExpireHours = 24
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
	if c.Wizard.AutosaveDebounceMs == 0 {
		c.Wizard.AutosaveDebounceMs = 1500
	}
	if c.Wizard.SessionTTLMinutes == 0 {
		c.Wizard.SessionTTLMinutes = 60
	}
	if c.Wizard.SuggestionLimit == 0 {
		c.Wizard.SuggestionLimit = 10
	}
	if c.Render.PageSize == "" {
		c.Render.PageSize = "A4"
	}
	if c.Render.Margin == 0 {
		c.Render.Margin = 20
	}
	if c.Render.FontFamily == "" {
		c.Render.FontFamily = "Times"
	}
	if c.Render.FontSize == 0 {
		c.Render.FontSize = 12
	}
	if c.Render.LogoMaxWidth == 0 {
		c.Render.LogoMaxWidth = 50
	}
	if c.Render.LogoMaxHeight == 0 {
		c.Render.LogoMaxHeight = 25
	}
}

// applyEnv overrides secrets and deployment-specific values from the
// environment so they can stay out of the YAML file.
func (c *Config) applyEnv() error {
	strs := map[string]*string{
		"JWT_SECRET":       &c.Auth.JWTSecret,
		"DB_DRIVER":        &c.Database.Driver,
		"DB_PATH":          &c.Database.Path,
		"TEMPLATES_DIR":    &c.Templates.Dir,
		"MINIO_ENDPOINT":   &c.Minio.Endpoint,
		"MINIO_ACCESS_KEY": &c.Minio.AccessKey,
		"MINIO_SECRET_KEY": &c.Minio.SecretKey,
		"MINIO_BUCKET":     &c.Minio.Bucket,
		"ESIGN_API_URL":    &c.ESign.APIURL,
		"ESIGN_API_TOKEN":  &c.ESign.APIToken,
		"ESIGN_SEED":       &c.ESign.Seed,
		"LOG_LEVEL":        &c.Log.Level,
		"LOG_FORMAT":       &c.Log.Format,
	}
	for key, dst := range strs {
		if v, ok := os.LookupEnv(EnvPrefix + key); ok {
			*dst = v
		}
	}

	if v, ok := os.LookupEnv(EnvPrefix + "PORT"); ok {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %sPORT %q: %w", EnvPrefix, v, err)
		}
		c.Server.Port = port
	}
	return nil
}

// FindUser finds a user by username
func (c *Config) FindUser(username string) *User {
	for i := range c.Users {
		if c.Users[i].Username == username {
			return &c.Users[i]
		}
	}
	return nil
}
