package config

import (
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

type Config struct {
	Mode     Mode   `yaml:"mode"`
	HTTPAddr string `yaml:"http_addr"`
	SiteID   string `yaml:"site_id"`

	DBDriver string `yaml:"db_driver"`
	DBDSN    string `yaml:"db_dsn"`

	BlobBasePath string `yaml:"blob_base_path"`

	AuthHMACSecret  string `yaml:"auth_hmac_secret"`
	EnableLocalAuth bool   `yaml:"enable_local_auth"`

	AdminUser     string `yaml:"admin_user"`
	AdminPassHash string `yaml:"admin_pass_hash"` // bcrypt

	AMQPURL       string `yaml:"amqp_url"` // empty disables the publisher
	EventExchange string `yaml:"event_exchange"`

	CORSOriginsOnline  []string `yaml:"cors_origins_online"`
	CORSOriginsOffline []string `yaml:"cors_origins_offline"`
}

func FromEnv() Config {
	mode := Mode(os.Getenv("MODE"))
	if mode == "" {
		mode = ModeOffline
	}
	addr := os.Getenv("HTTP_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	return Config{
		Mode:               mode,
		HTTPAddr:           addr,
		SiteID:             envOr("SITE_ID", "local"),
		DBDriver:           envOr("DB_DRIVER", "sqlite"),
		DBDSN:              envOr("DB_DSN", ""),
		BlobBasePath:       envOr("BLOB_BASE_PATH", "./data"),
		AuthHMACSecret:     envOr("AUTH_HMAC_SECRET", "supersecret-dev-key"),
		EnableLocalAuth:    envBool("ENABLE_LOCAL_AUTH", true),
		AdminUser:          envOr("ADMIN_USER", "admin"),
		AdminPassHash:      envOr("ADMIN_PASS_HASH", ""),
		AMQPURL:            os.Getenv("AMQP_URL"),
		EventExchange:      envOr("EVENT_EXCHANGE", "aprendia.attempts"),
		CORSOriginsOnline:  csvOr("CORS_ORIGINS_ONLINE", "https://lms.aprendia.mx"),
		CORSOriginsOffline: csvOr("CORS_ORIGINS_OFFLINE", "http://localhost:3000,http://localhost:5173"),
	}
}

// Load layers an optional YAML file under the environment. Explicit env
// vars always win; file values apply where the env var is unset.
func Load(path string) (Config, error) {
	cfg := Config{}
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return Config{}, err
		}
		defer f.Close()
		if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
			return Config{}, err
		}
	}
	env := FromEnv()
	merged := env
	// keep file values where the environment provided nothing explicit
	if os.Getenv("MODE") == "" && cfg.Mode != "" {
		merged.Mode = cfg.Mode
	}
	if os.Getenv("HTTP_ADDR") == "" && cfg.HTTPAddr != "" {
		merged.HTTPAddr = cfg.HTTPAddr
	}
	if os.Getenv("DB_DRIVER") == "" && cfg.DBDriver != "" {
		merged.DBDriver = cfg.DBDriver
	}
	if os.Getenv("DB_DSN") == "" && cfg.DBDSN != "" {
		merged.DBDSN = cfg.DBDSN
	}
	if os.Getenv("BLOB_BASE_PATH") == "" && cfg.BlobBasePath != "" {
		merged.BlobBasePath = cfg.BlobBasePath
	}
	if os.Getenv("AUTH_HMAC_SECRET") == "" && cfg.AuthHMACSecret != "" {
		merged.AuthHMACSecret = cfg.AuthHMACSecret
	}
	if os.Getenv("AMQP_URL") == "" && cfg.AMQPURL != "" {
		merged.AMQPURL = cfg.AMQPURL
	}
	if os.Getenv("EVENT_EXCHANGE") == "" && cfg.EventExchange != "" {
		merged.EventExchange = cfg.EventExchange
	}
	if os.Getenv("SITE_ID") == "" && cfg.SiteID != "" {
		merged.SiteID = cfg.SiteID
	}
	return merged, nil
}

func envOr(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

func envBool(k string, def bool) bool {
	switch os.Getenv(k) {
	case "1", "true", "TRUE", "yes", "YES":
		return true
	case "0", "false", "FALSE", "no", "NO":
		return false
	default:
		return def
	}
}

func csvOr(k, def string) []string {
	v := envOr(k, def)
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
