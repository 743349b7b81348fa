package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds application configuration.
type Config struct {
	// Bind is the interface the HTTP API listens on
	Bind string `json:"bind,omitempty" yaml:"bind,omitempty"`

	// Port is the HTTP API port
	Port int `json:"port,omitempty" yaml:"port,omitempty"`

	// MaxFileSizeMB caps uploaded schedule files, in megabytes.
	MaxFileSizeMB int `json:"max_file_size_mb,omitempty" yaml:"max_file_size_mb,omitempty"`

	// Rate limits use the "N per second|minute|hour" syntax, applied per client IP.
	RateLimitDefault string `json:"rate_limit_default,omitempty" yaml:"rate_limit_default,omitempty"`
	RateLimitAnalyze string `json:"rate_limit_analyze,omitempty" yaml:"rate_limit_analyze,omitempty"`
	RateLimitExport  string `json:"rate_limit_export,omitempty" yaml:"rate_limit_export,omitempty"`

	// CORSOrigins lists browser origins allowed to call the HTTP API.
	CORSOrigins []string `json:"cors_origins,omitempty" yaml:"cors_origins,omitempty"`

	// LogLevel is one of DEBUG, INFO, WARN, ERROR.
	LogLevel string `json:"log_level,omitempty" yaml:"log_level,omitempty"`

	// DisableHistory turns off the run history in the local database.
	DisableHistory bool `json:"disable_history,omitempty" yaml:"disable_history,omitempty"`

	// DBMaxOpenConns limits the maximum number of open database connections.
	// 0 means use sql.DB default (unlimited).
	DBMaxOpenConns int `json:"db_max_open_conns,omitempty" yaml:"db_max_open_conns,omitempty"`

	// DBMaxIdleConns limits the maximum number of idle database connections.
	DBMaxIdleConns int `json:"db_max_idle_conns,omitempty" yaml:"db_max_idle_conns,omitempty"`

	// DisabledTools is a list of MCP tool names to exclude from registration.
	// Unknown tool names are logged as warnings.
	DisabledTools []string `json:"disabled_tools,omitempty" yaml:"disabled_tools,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Bind:             "127.0.0.1",
		Port:             5000,
		MaxFileSizeMB:    10,
		RateLimitDefault: "10 per minute",
		RateLimitAnalyze: "10 per minute",
		RateLimitExport:  "5 per minute",
		CORSOrigins:      []string{"http://localhost:5173", "http://127.0.0.1:5173"},
		LogLevel:         "INFO",
	}
}

// Load loads configuration from baseDir/config.json, falling back to
// baseDir/config.yaml. Returns default config if neither exists.
// The baseDir parameter allows tests to use t.TempDir() instead of ~/.agenda.
func Load(baseDir string) (*Config, error) {
	cfg, err := loadDirRaw(baseDir)
	if err != nil {
		return nil, err
	}
	return Merge(DefaultConfig(), cfg), nil
}

// LoadWithRepo loads configuration from both global (~/.agenda) and repo (.agenda) directories.
// Repo config is found by walking upward from startDir to find the nearest .agenda directory.
// Repo config takes precedence for scalar values; arrays are merged (deduplicated).
// Either or both configs may be missing.
func LoadWithRepo(globalDir, startDir string) (*Config, error) {
	global, err := loadDirRaw(globalDir)
	if err != nil {
		return nil, err
	}

	repo := &Config{}
	if repoDir := FindRepoConfig(startDir); repoDir != "" {
		repo, err = loadDirRaw(repoDir)
		if err != nil {
			return nil, err
		}
	}

	// Apply defaults, then global, then repo
	return Merge(Merge(DefaultConfig(), global), repo), nil
}

// FindRepoConfig walks upward from startDir to find the nearest .agenda
// directory holding a config.json or config.yaml.
// Returns the directory if found, or empty string if not found.
func FindRepoConfig(startDir string) string {
	dir := startDir
	for {
		candidate := filepath.Join(dir, ".agenda")
		for _, name := range []string{"config.json", "config.yaml"} {
			if _, err := os.Stat(filepath.Join(candidate, name)); err == nil {
				return candidate
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root, not found
			return ""
		}
		dir = parent
	}
}

// loadDirRaw loads dir/config.json, or dir/config.yaml when the JSON file
// is absent. Returns zero-valued config if neither exists (not defaults).
func loadDirRaw(dir string) (*Config, error) {
	cfg, found, err := loadFileRaw(filepath.Join(dir, "config.json"), json.Unmarshal)
	if err != nil || found {
		return cfg, err
	}
	cfg, _, err = loadFileRaw(filepath.Join(dir, "config.yaml"), yaml.Unmarshal)
	return cfg, err
}

// loadFileRaw decodes one config file. found is false when the file doesn't exist.
func loadFileRaw(configPath string, unmarshal func([]byte, any) error) (*Config, bool, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, false, nil
		}
		return nil, false, err
	}

	cfg := &Config{}
	if err := unmarshal(data, cfg); err != nil {
		return nil, true, fmt.Errorf("%s: %w", filepath.Base(configPath), err)
	}

	return cfg, true, nil
}

// ApplyEnv overrides cfg with the environment variables the server honours:
// PORT, MAX_FILE_SIZE, RATE_LIMIT_DEFAULT, RATE_LIMIT_ANALYZE,
// RATE_LIMIT_EXPORT, CORS_ORIGINS, LOG_LEVEL. Unset variables are ignored.
func ApplyEnv(cfg *Config, getenv func(string) string) error {
	if v := getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("PORT: %w", err)
		}
		cfg.Port = port
	}
	if v := getenv("MAX_FILE_SIZE"); v != "" {
		mb, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("MAX_FILE_SIZE: %w", err)
		}
		cfg.MaxFileSizeMB = mb
	}
	if v := getenv("RATE_LIMIT_DEFAULT"); v != "" {
		cfg.RateLimitDefault = v
	}
	if v := getenv("RATE_LIMIT_ANALYZE"); v != "" {
		cfg.RateLimitAnalyze = v
	}
	if v := getenv("RATE_LIMIT_EXPORT"); v != "" {
		cfg.RateLimitExport = v
	}
	if v := getenv("CORS_ORIGINS"); v != "" {
		cfg.CORSOrigins = mergeStringSlice(nil, strings.Split(v, ","))
	}
	if v := getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	return nil
}

// Merge combines base and overlay configs.
// Overlay values take precedence for scalars; arrays are merged and deduplicated.
func Merge(base, overlay *Config) *Config {
	result := &Config{}

	// Scalars: overlay wins if non-zero, else base
	result.Bind = firstString(overlay.Bind, base.Bind)
	result.Port = firstInt(overlay.Port, base.Port)
	result.MaxFileSizeMB = firstInt(overlay.MaxFileSizeMB, base.MaxFileSizeMB)
	result.RateLimitDefault = firstString(overlay.RateLimitDefault, base.RateLimitDefault)
	result.RateLimitAnalyze = firstString(overlay.RateLimitAnalyze, base.RateLimitAnalyze)
	result.RateLimitExport = firstString(overlay.RateLimitExport, base.RateLimitExport)
	result.LogLevel = firstString(overlay.LogLevel, base.LogLevel)
	result.DBMaxOpenConns = firstInt(overlay.DBMaxOpenConns, base.DBMaxOpenConns)
	result.DBMaxIdleConns = firstInt(overlay.DBMaxIdleConns, base.DBMaxIdleConns)

	// Booleans: overlay wins if true, else base
	result.DisableHistory = base.DisableHistory || overlay.DisableHistory

	// CORS origins replace rather than merge: a narrower list must be able to
	// shrink the defaults.
	result.CORSOrigins = mergeStringSlice(nil, overlay.CORSOrigins)
	if result.CORSOrigins == nil {
		result.CORSOrigins = mergeStringSlice(nil, base.CORSOrigins)
	}

	// Arrays: merge and deduplicate
	result.DisabledTools = mergeStringSlice(base.DisabledTools, overlay.DisabledTools)

	return result
}

// RateLimit is a parsed "N per unit" limit.
type RateLimit struct {
	Count int
	Per   time.Duration
}

// ParseRateLimit parses limits such as "10 per minute" or "5/second".
func ParseRateLimit(s string) (RateLimit, error) {
	fields := strings.Fields(strings.ToLower(strings.ReplaceAll(s, "/", " per ")))
	if len(fields) != 3 || fields[1] != "per" {
		return RateLimit{}, fmt.Errorf("invalid rate limit %q: want \"N per second|minute|hour\"", s)
	}
	n, err := strconv.Atoi(fields[0])
	if err != nil || n <= 0 {
		return RateLimit{}, fmt.Errorf("invalid rate limit %q: count must be a positive integer", s)
	}

	var per time.Duration
	switch strings.TrimSuffix(fields[2], "s") {
	case "second":
		per = time.Second
	case "minute":
		per = time.Minute
	case "hour":
		per = time.Hour
	case "day":
		per = 24 * time.Hour
	default:
		return RateLimit{}, fmt.Errorf("invalid rate limit %q: unknown unit %q", s, fields[2])
	}
	return RateLimit{Count: n, Per: per}, nil
}

func firstString(a, b string) string {
	if a != "" {
		return a
	}
	return b
}

func firstInt(a, b int) int {
	if a != 0 {
		return a
	}
	return b
}

// mergeStringSlice combines two slices, trims whitespace, and removes duplicates.
func mergeStringSlice(a, b []string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0, len(a)+len(b))

	for _, s := range a {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}
	for _, s := range b {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}

	if len(result) == 0 {
		return nil
	}
	return result
}
