package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// Environments selectable with --environment.
const (
	EnvironmentLocal      = "local"
	EnvironmentProduction = "production"
)

const (
	// LocalURL is where the backend listens during development.
	LocalURL = "http://localhost:8000"

	// DefaultTimeout bounds a single request; tutor answers can take a while.
	DefaultTimeout = 2 * time.Minute
)

// ErrNoProductionURL is returned when production is selected but no URL is configured.
var ErrNoProductionURL = errors.New("production API URL not configured")

// File is the optional YAML config file, ~/.aitutor/config.yaml by default.
type File struct {
	APIURL        string `yaml:"api_url"`
	Environment   string `yaml:"environment"`
	ProductionURL string `yaml:"production_url"`
	SessionDir    string `yaml:"session_dir"`
	Timeout       string `yaml:"timeout"`
	Google        struct {
		ClientID     string `yaml:"client_id"`
		ClientSecret string `yaml:"client_secret"`
	} `yaml:"google"`
}

// DefaultPath returns ~/.aitutor/config.yaml, or "" if there is no home directory.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".aitutor", "config.yaml")
}

// LoadFile reads the config file at path. A missing file yields an empty File.
func LoadFile(path string) (*File, error) {
	cfg := &File{}
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Debug().Str("path", path).Msg("no config file")
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	log.Debug().Str("path", path).Msg("loaded config file")

	return cfg, nil
}

// LoadDotEnv loads each existing .env file into the process environment without
// overriding variables that are already set.
func LoadDotEnv(paths ...string) error {
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
		log.Debug().Str("path", p).Msg("loaded env file")
	}
	return nil
}

// Overrides are values from flags or environment variables. Empty means unset.
type Overrides struct {
	APIURL             string
	Environment        string
	SessionDir         string
	Timeout            time.Duration
	GoogleClientID     string
	GoogleClientSecret string
}

// Settings is the resolved client configuration.
type Settings struct {
	APIURL             string
	Environment        string
	SessionDir         string
	Timeout            time.Duration
	GoogleClientID     string
	GoogleClientSecret string
}

// Resolve merges flags over the config file over defaults.
func Resolve(flags Overrides, file *File) (Settings, error) {
	if file == nil {
		file = &File{}
	}

	s := Settings{
		SessionDir:         first(flags.SessionDir, file.SessionDir),
		GoogleClientID:     first(flags.GoogleClientID, file.Google.ClientID),
		GoogleClientSecret: first(flags.GoogleClientSecret, file.Google.ClientSecret),
		Timeout:            DefaultTimeout,
	}

	switch {
	case flags.Timeout > 0:
		s.Timeout = flags.Timeout
	case file.Timeout != "":
		d, err := time.ParseDuration(file.Timeout)
		if err != nil {
			return Settings{}, fmt.Errorf("invalid timeout %q: %w", file.Timeout, err)
		}
		s.Timeout = d
	}

	switch {
	case flags.APIURL != "":
		s.APIURL = flags.APIURL
		s.Environment = first(flags.Environment, file.Environment)
	case flags.Environment != "":
		u, err := environmentURL(flags.Environment, file)
		if err != nil {
			return Settings{}, err
		}
		s.APIURL, s.Environment = u, flags.Environment
	case file.APIURL != "":
		s.APIURL = file.APIURL
		s.Environment = file.Environment
	default:
		env := first(file.Environment, EnvironmentLocal)
		u, err := environmentURL(env, file)
		if err != nil {
			return Settings{}, err
		}
		s.APIURL, s.Environment = u, env
	}

	s.APIURL = strings.TrimRight(s.APIURL, "/")

	return s, nil
}

func environmentURL(env string, file *File) (string, error) {
	switch env {
	case EnvironmentLocal:
		return LocalURL, nil
	case EnvironmentProduction:
		if file.ProductionURL == "" {
			return "", fmt.Errorf("%w: set production_url in the config file or pass --api-url", ErrNoProductionURL)
		}
		return file.ProductionURL, nil
	default:
		return "", fmt.Errorf("unknown environment %q (expected %s or %s)", env, EnvironmentLocal, EnvironmentProduction)
	}
}

func first(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
