package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig   `json:"server"`
	Database DatabaseConfig `json:"database"`
	Redis    RedisConfig    `json:"redis"`
	Auth     AuthConfig     `json:"auth"`
	Session  SessionConfig  `json:"session"`
	Checkout CheckoutConfig `json:"checkout"`
	Events   EventsConfig   `json:"events"`
	Log      LogConfig      `json:"log"`
}

type ServerConfig struct {
	Host            string   `json:"host"`
	Port            int      `json:"port"`
	MetricsAddr     string   `json:"metrics_addr"`
	ReadTimeout     Duration `json:"read_timeout"`
	WriteTimeout    Duration `json:"write_timeout"`
	ShutdownTimeout Duration `json:"shutdown_timeout"`
}

type DatabaseConfig struct {
	// Driver is "postgres" (lib/pq), "pgx" (pgx stdlib) or "memory".
	Driver         string `json:"driver"`
	Host           string `json:"host"`
	Port           int    `json:"port"`
	User           string `json:"user"`
	Password       string `json:"password"`
	DBName         string `json:"dbname"`
	SSLMode        string `json:"sslmode"`
	MigrationsPath string `json:"migrations_path"`
	MaxOpenConns   int    `json:"max_open_conns"`
	MaxIdleConns   int    `json:"max_idle_conns"`
}

type RedisConfig struct {
	Enabled  bool   `json:"enabled"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Password string `json:"password"`
	DB       int    `json:"db"`
}

type AuthConfig struct {
	JWTSecret string   `json:"jwt_secret"`
	Issuer    string   `json:"issuer"`
	TokenTTL  Duration `json:"token_ttl"`
}

type SessionConfig struct {
	CookieName string   `json:"cookie_name"`
	TTL        Duration `json:"ttl"`
	Secure     bool     `json:"secure"`
}

type CheckoutConfig struct {
	RetryAttempts int      `json:"retry_attempts"`
	RetryBackoff  Duration `json:"retry_backoff"`
	LockEnabled   bool     `json:"lock_enabled"`
	LockTTL       Duration `json:"lock_ttl"`
}

type EventsConfig struct {
	// Driver is "none", "rabbitmq" or "kafka".
	Driver       string   `json:"driver"`
	AMQPURL      string   `json:"amqp_url"`
	Exchange     string   `json:"exchange"`
	KafkaBrokers []string `json:"kafka_brokers"`
	Topic        string   `json:"topic"`
}

type LogConfig struct {
	Level string `json:"level"`
}

// Duration reads either a Go duration string ("250ms") or integer nanoseconds.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		v, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", s, err)
		}
		d.Duration = v
		return nil
	}
	var n int64
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("invalid duration %s", string(b))
	}
	d.Duration = time.Duration(n)
	return nil
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     Duration{10 * time.Second},
			WriteTimeout:    Duration{10 * time.Second},
			ShutdownTimeout: Duration{30 * time.Second},
		},
		Database: DatabaseConfig{
			Driver:         "postgres",
			Host:           "localhost",
			Port:           5432,
			User:           "salesboard",
			DBName:         "salesboard",
			SSLMode:        "disable",
			MigrationsPath: "migrations",
			MaxOpenConns:   50,
			MaxIdleConns:   25,
		},
		Redis: RedisConfig{
			Enabled: true,
			Host:    "localhost",
			Port:    6379,
		},
		Auth: AuthConfig{
			Issuer:   "salesboard",
			TokenTTL: Duration{24 * time.Hour},
		},
		Session: SessionConfig{
			CookieName: "sb_session",
			TTL:        Duration{2 * time.Hour},
		},
		Checkout: CheckoutConfig{
			RetryAttempts: 3,
			RetryBackoff:  Duration{50 * time.Millisecond},
			LockEnabled:   true,
			LockTTL:       Duration{5 * time.Second},
		},
		Events: EventsConfig{
			Driver:   "none",
			Exchange: "salesboard",
			Topic:    "checkout.completed",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// LoadConfig starts from Default, overlays the JSON file at path (if path is not
// empty), then a .env file and SB_* environment variables.
func LoadConfig(path string) (*Config, error) {
	config := Default()

	if path != "" {
		file, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer file.Close()

		decoder := json.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(config); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", path, err)
		}
	}

	// A missing .env is normal outside development.
	_ = godotenv.Load()
	config.applyEnv()

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *Config) applyEnv() {
	c.Server.Port = getenvInt("SB_SERVER_PORT", c.Server.Port)
	c.Server.MetricsAddr = getenv("SB_METRICS_ADDR", c.Server.MetricsAddr)

	c.Database.Driver = getenv("SB_DB_DRIVER", c.Database.Driver)
	c.Database.Host = getenv("SB_DB_HOST", c.Database.Host)
	c.Database.Port = getenvInt("SB_DB_PORT", c.Database.Port)
	c.Database.User = getenv("SB_DB_USER", c.Database.User)
	c.Database.Password = getenv("SB_DB_PASSWORD", c.Database.Password)
	c.Database.DBName = getenv("SB_DB_NAME", c.Database.DBName)
	c.Database.SSLMode = getenv("SB_DB_SSLMODE", c.Database.SSLMode)
	c.Database.MigrationsPath = getenv("SB_DB_MIGRATIONS_PATH", c.Database.MigrationsPath)

	c.Redis.Enabled = getenvBool("SB_REDIS_ENABLED", c.Redis.Enabled)
	c.Redis.Host = getenv("SB_REDIS_HOST", c.Redis.Host)
	c.Redis.Port = getenvInt("SB_REDIS_PORT", c.Redis.Port)
	c.Redis.Password = getenv("SB_REDIS_PASSWORD", c.Redis.Password)

	c.Auth.JWTSecret = getenv("SB_JWT_SECRET", c.Auth.JWTSecret)

	c.Events.Driver = getenv("SB_EVENTS_DRIVER", c.Events.Driver)
	c.Events.AMQPURL = getenv("SB_AMQP_URL", c.Events.AMQPURL)
	if brokers := getenv("SB_KAFKA_BROKERS", ""); brokers != "" {
		c.Events.KafkaBrokers = splitList(brokers)
	}

	c.Log.Level = getenv("SB_LOG_LEVEL", c.Log.Level)
}

func (c *Config) Validate() error {
	var problems []string

	switch c.Database.Driver {
	case "postgres", "pgx", "memory":
	default:
		problems = append(problems, fmt.Sprintf("database.driver %q is not one of postgres, pgx, memory", c.Database.Driver))
	}
	switch c.Events.Driver {
	case "none", "":
	case "rabbitmq":
		if c.Events.AMQPURL == "" {
			problems = append(problems, "events.amqp_url is required for rabbitmq")
		}
	case "kafka":
		if len(c.Events.KafkaBrokers) == 0 {
			problems = append(problems, "events.kafka_brokers is required for kafka")
		}
	default:
		problems = append(problems, fmt.Sprintf("events.driver %q is not one of none, rabbitmq, kafka", c.Events.Driver))
	}
	if c.Auth.JWTSecret == "" {
		problems = append(problems, "auth.jwt_secret is required")
	}
	if c.Checkout.RetryAttempts < 1 {
		problems = append(problems, "checkout.retry_attempts must be at least 1")
	}
	if c.Session.CookieName == "" {
		problems = append(problems, "session.cookie_name is required")
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

func (c *ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}

func (c *DatabaseConfig) GetDSN() string {
	return "host=" + c.Host +
		" port=" + strconv.Itoa(c.Port) +
		" user=" + c.User +
		" password=" + c.Password +
		" dbname=" + c.DBName +
		" sslmode=" + c.SSLMode
}

func (c *RedisConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	if v, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return v
	}
	return def
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
