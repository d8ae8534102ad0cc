package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DefaultPollInterval = 2000 * time.Millisecond
	DefaultHTTPTimeout  = 5000 * time.Millisecond

	DefaultHandSize    = 7
	DefaultMinPlayers  = 2
	DefaultHelperCards = 3
)

// Config is the dev server configuration.
type Config struct {
	Addr         string
	DatabasePath string

	HandSize    int
	MinPlayers  int
	HelperCards int

	AppEnv           string
	WSAllowedOrigins []string
}

// ClientConfig is the terminal client configuration.
type ClientConfig struct {
	ServerURL    string
	PlayerID     string
	PollInterval time.Duration
	HTTPTimeout  time.Duration
	Watch        bool
	AppEnv       string
}

// LoadDotEnv loads variables from the given files (".env" when none) without
// overriding ones already set. A missing file is not an error.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

func LoadFromEnv() (Config, error) {
	cfg := Config{
		Addr:         os.Getenv("DEVSERVER_ADDR"),
		DatabasePath: os.Getenv("DATABASE_PATH"),
		HandSize:     positiveInt("DEVSERVER_HAND_SIZE", DefaultHandSize),
		MinPlayers:   positiveInt("DEVSERVER_MIN_PLAYERS", DefaultMinPlayers),
		HelperCards:  positiveInt("DEVSERVER_HELPER_CARDS", DefaultHelperCards),
		AppEnv:       appEnv(),
	}

	if v := os.Getenv("WS_ALLOWED_ORIGINS"); v != "" {
		for _, p := range strings.Split(v, ",") {
			p = strings.TrimSpace(p)
			if p != "" {
				cfg.WSAllowedOrigins = append(cfg.WSAllowedOrigins, p)
			}
		}
	}

	var missing []string
	if cfg.DatabasePath == "" {
		missing = append(missing, "DATABASE_PATH")
	}
	// DEVSERVER_ADDR is optional if PORT is set by the hosting environment.
	if cfg.Addr == "" {
		if port := strings.TrimSpace(os.Getenv("PORT")); port != "" {
			if strings.Contains(port, ":") {
				cfg.Addr = port
			} else {
				cfg.Addr = ":" + port
			}
		}
	}
	if cfg.Addr == "" {
		missing = append(missing, "DEVSERVER_ADDR (or PORT)")
	}
	if len(missing) > 0 {
		return Config{}, fmt.Errorf("missing/invalid env: %s", strings.Join(missing, ", "))
	}

	return cfg, nil
}

func LoadClientFromEnv() (ClientConfig, error) {
	cfg := ClientConfig{
		ServerURL:    strings.TrimRight(strings.TrimSpace(os.Getenv("SEKATA_SERVER_URL")), "/"),
		PlayerID:     strings.TrimSpace(os.Getenv("SEKATA_PLAYER_ID")),
		PollInterval: millis("SEKATA_POLL_INTERVAL_MS", DefaultPollInterval),
		HTTPTimeout:  millis("SEKATA_HTTP_TIMEOUT_MS", DefaultHTTPTimeout),
		AppEnv:       appEnv(),
	}
	if v := strings.TrimSpace(os.Getenv("SEKATA_WATCH")); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Watch = b
		} else {
			fmt.Fprintf(os.Stderr, "WARNING: invalid SEKATA_WATCH=%q, ignoring\n", v)
		}
	}

	var missing []string
	if cfg.ServerURL == "" {
		missing = append(missing, "SEKATA_SERVER_URL")
	} else if u, err := url.Parse(cfg.ServerURL); err != nil || u.Scheme == "" || u.Host == "" {
		missing = append(missing, "SEKATA_SERVER_URL (must be an absolute http(s) URL)")
	}
	if len(missing) > 0 {
		return ClientConfig{}, fmt.Errorf("missing/invalid env: %s", strings.Join(missing, ", "))
	}
	return cfg, nil
}

func appEnv() string {
	if v := strings.TrimSpace(os.Getenv("APP_ENV")); v != "" {
		return v
	}
	return "development"
}

func positiveInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		fmt.Fprintf(os.Stderr, "WARNING: invalid %s=%q, using default %d\n", key, v, def)
		return def
	}
	return n
}

func millis(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n <= 0 {
		fmt.Fprintf(os.Stderr, "WARNING: invalid %s=%q, using default %d\n", key, v, def.Milliseconds())
		return def
	}
	return time.Duration(n) * time.Millisecond
}
