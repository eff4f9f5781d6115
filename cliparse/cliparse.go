package cliparse

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/danielhkuo/ballotbox/db"
)

// Authentication modes
const (
	AuthModeKey       = "key"
	AuthModeSignature = "signature"
)

const defaultSQLitePath = "ballotbox.db"

type Config struct {
	Port             int
	DatabaseURL      string
	DatabaseType     string
	AuthMode         string
	PrincipalKeySalt string

	// IssueKey, when set, prints the principal key for that principal and exits.
	IssueKey string
}

// ParseFlags validates flags and fills the rest from the environment.
// Variables from an env file (default .env) never override the real
// environment.
func ParseFlags(args []string) (Config, error) {
	var cfg Config
	var envFile string

	fs := flag.NewFlagSet("ballotbox", flag.ContinueOnError)

	// Network config (can be CLI args or env)
	fs.IntVar(&cfg.Port, "p", 0, "Server port")
	fs.StringVar(&cfg.DatabaseURL, "d", "", "Database URL or SQLite path")
	fs.StringVar(&cfg.DatabaseType, "t", "", "Database type (sqlite or postgres)")
	fs.StringVar(&cfg.AuthMode, "auth", "", "Authentication mode (key or signature)")
	fs.StringVar(&envFile, "env", ".env", "Env file to load")

	// Secrets (prefer env variables, but allow CLI for dev)
	fs.StringVar(&cfg.PrincipalKeySalt, "key-salt", "", "Principal key salt (prefer env)")

	fs.StringVar(&cfg.IssueKey, "issue-key", "", "Print the principal key for a principal and exit")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	if err := loadEnvFile(envFile); err != nil {
		return Config{}, err
	}

	// Fall back to environment variables
	if cfg.Port == 0 {
		if portStr := os.Getenv("PORT"); portStr != "" {
			port, err := strconv.Atoi(portStr)
			if err != nil {
				return Config{}, errors.New("invalid PORT env variable")
			}
			cfg.Port = port
		} else {
			cfg.Port = 3318 // default
		}
	}

	if cfg.DatabaseType == "" {
		cfg.DatabaseType = os.Getenv("DATABASE_TYPE")
		if cfg.DatabaseType == "" {
			cfg.DatabaseType = db.DriverSQLite
		}
	}
	if cfg.DatabaseType != db.DriverSQLite && cfg.DatabaseType != db.DriverPostgres {
		return Config{}, fmt.Errorf("unknown database type %q (use sqlite or postgres)", cfg.DatabaseType)
	}

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if cfg.DatabaseURL == "" {
		if cfg.DatabaseType == db.DriverPostgres {
			return Config{}, errors.New("database URL required (use -d or DATABASE_URL env)")
		}
		cfg.DatabaseURL = defaultSQLitePath
	}

	if cfg.AuthMode == "" {
		cfg.AuthMode = os.Getenv("AUTH_MODE")
		if cfg.AuthMode == "" {
			cfg.AuthMode = AuthModeKey
		}
	}
	if cfg.AuthMode != AuthModeKey && cfg.AuthMode != AuthModeSignature {
		return Config{}, fmt.Errorf("unknown auth mode %q (use key or signature)", cfg.AuthMode)
	}

	// Secrets - MUST be provided for key auth
	if cfg.PrincipalKeySalt == "" {
		cfg.PrincipalKeySalt = os.Getenv("PRINCIPAL_KEY_SALT")
	}
	if cfg.PrincipalKeySalt == "" && (cfg.AuthMode == AuthModeKey || cfg.IssueKey != "") {
		return Config{}, errors.New("PRINCIPAL_KEY_SALT required")
	}

	return cfg, nil
}

func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	err := godotenv.Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}
