package config

import (
	"flag"
	"net"
	"os"
	"regexp"
	"strconv"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

const (
	StoreMemory = "memory"
	StoreSQLite = "sqlite"
	StoreRedis  = "redis"
)

type Config struct {
	Addr string

	APIBaseURL  string
	APITimeout  time.Duration
	APIToken    string
	TokenSecret string
	TokenTTL    time.Duration

	Store         string
	DBUrl         string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	SessionTTL    time.Duration

	StaticDir    string
	CookieSecure bool
	Debug        bool

	// Args holds the positional arguments left after the flags.
	Args []string
}

// LoadDotEnv reads KEY=value pairs from the given files (.env by default)
// into the environment. Missing files are ignored; variables already set win.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return errors.Wrapf(err, "config: %s", f)
		}
	}
	return nil
}

// ParseFlags reads the configuration from args. Every flag falls back to a
// QS_* environment variable; flags win over the environment.
func ParseFlags(args []string) (cfg Config, err error) {
	var env envReader

	fs := flag.NewFlagSet("survey-flow", flag.ContinueOnError)

	host := fs.String("host", env.str("QS_HOST", "0.0.0.0"), "listen host name")
	port := fs.Uint("port", uint(env.number("QS_PORT", 8080)), "listen port number")

	fs.StringVar(&cfg.APIBaseURL, "api-url", env.str("QS_API_URL", ""), "survey API base URL, e.g. https://surveys.example.com/api")
	fs.DurationVar(&cfg.APITimeout, "api-timeout", env.duration("QS_API_TIMEOUT", 15*time.Second), "survey API request timeout")
	fs.StringVar(&cfg.APIToken, "api-token", env.str("QS_API_TOKEN", ""), "static bearer token for the survey API")
	fs.StringVar(&cfg.TokenSecret, "token-secret", env.str("QS_TOKEN_SECRET", ""), "secret for signing service tokens (overrides -api-token)")
	fs.DurationVar(&cfg.TokenTTL, "token-ttl", env.duration("QS_TOKEN_TTL", 2*time.Minute), "signed service token lifetime")

	fs.StringVar(&cfg.Store, "store", env.str("QS_STORE", StoreSQLite), "answer store backend: memory, sqlite or redis")
	fs.StringVar(&cfg.DBUrl, "db-url", env.str("QS_DB_URL", "qsurvey.sqlite"), "path to SQLite3 DB file")
	fs.StringVar(&cfg.RedisAddr, "redis-addr", env.str("QS_REDIS_ADDR", "localhost:6379"), "Redis address")
	fs.StringVar(&cfg.RedisPassword, "redis-password", env.str("QS_REDIS_PASSWORD", ""), "Redis password")
	fs.IntVar(&cfg.RedisDB, "redis-db", env.number("QS_REDIS_DB", 0), "Redis database number")
	fs.DurationVar(&cfg.SessionTTL, "session-ttl", env.duration("QS_SESSION_TTL", 2*time.Hour), "how long an idle respondent session is kept")

	fs.StringVar(&cfg.StaticDir, "static-dir", env.str("QS_STATIC_DIR", "public"), "directory served for widget assets")
	fs.BoolVar(&cfg.CookieSecure, "cookie-secure", env.boolean("QS_COOKIE_SECURE", false), "mark the session cookie Secure")
	fs.BoolVar(&cfg.Debug, "debug", env.boolean("QS_DEBUG", false), "log at DEBUG level")

	if env.err != nil {
		return Config{}, env.err
	}
	if err = fs.Parse(args); err != nil {
		return Config{}, err
	}

	cfg.Addr = net.JoinHostPort(*host, strconv.Itoa(int(*port)))
	cfg.Args = fs.Args()
	return cfg, cfg.Validate()
}

func (cfg Config) Validate() error {
	var result error
	if cfg.APIBaseURL == "" {
		result = multierror.Append(result, errors.New("missing parameter -api-url"))
	}
	switch cfg.Store {
	case StoreMemory, StoreSQLite, StoreRedis:
	default:
		result = multierror.Append(result, errors.Errorf("unknown store %q", cfg.Store))
	}
	if cfg.SessionTTL <= 0 {
		result = multierror.Append(result, errors.New("-session-ttl must be positive"))
	}
	return result
}

func (cfg Config) Url() (url string) {
	url = cfg.Addr
	url = regexp.MustCompile(`^0.0.0.0`).ReplaceAllString(url, "localhost")
	url = "http://" + url
	return
}

// envReader collects every malformed variable instead of stopping at the first.
type envReader struct {
	err error
}

func (e *envReader) str(key, def string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return def
}

func (e *envReader) number(key string, def int) int {
	v, ok := os.LookupEnv(key)
	if !ok {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		e.err = multierror.Append(e.err, errors.Errorf("invalid %s env variable %q", key, v))
		return def
	}
	return n
}

func (e *envReader) duration(key string, def time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		e.err = multierror.Append(e.err, errors.Errorf("invalid %s env variable %q", key, v))
		return def
	}
	return d
}

func (e *envReader) boolean(key string, def bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		e.err = multierror.Append(e.err, errors.Errorf("invalid %s env variable %q", key, v))
		return def
	}
	return b
}
