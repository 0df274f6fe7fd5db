package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/avishiprsd/llm-automation-agent/internal/domain/sandbox"
)

// DefaultConfigFile is the path checked for YAML configuration.
const DefaultConfigFile = "agent.yaml"

// DefaultEnvFile is the dotenv file checked for credentials.
const DefaultEnvFile = ".env"

// Load returns a Config using the hierarchy: defaults < YAML < .env < ENV.
// Both files are optional; a missing file is not an error.
func Load() (*Config, error) {
	return LoadFrom(DefaultConfigFile)
}

// LoadFrom returns a Config loaded from the given YAML path using the
// hierarchy: defaults < YAML < .env < ENV. The YAML file is optional.
func LoadFrom(yamlPath string) (*Config, error) {
	cfg, err := load(yamlPath)
	if err != nil {
		return nil, err
	}
	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("config validate: %w", err)
	}
	return cfg, nil
}

// CLIFlags holds command-line overrides. Nil fields were not set.
type CLIFlags struct {
	ConfigPath  *string
	Port        *string
	LogLevel    *string
	SandboxRoot *string
	SandboxMode *string
}

// ParseFlags parses the serve command's flags.
func ParseFlags(args []string) (CLIFlags, error) {
	fs := flag.NewFlagSet("agent", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var (
		configPath, port, logLevel, root, mode string
	)
	fs.StringVar(&configPath, "config", "", "path to YAML config file")
	fs.StringVar(&configPath, "c", "", "shorthand for --config")
	fs.StringVar(&port, "port", "", "HTTP listen port")
	fs.StringVar(&port, "p", "", "shorthand for --port")
	fs.StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	fs.StringVar(&root, "sandbox-root", "", "sandbox root directory")
	fs.StringVar(&mode, "sandbox-mode", "", "containment mode (segment, prefix)")

	if err := fs.Parse(args); err != nil {
		return CLIFlags{}, err
	}

	var flags CLIFlags
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "config", "c":
			flags.ConfigPath = &configPath
		case "port", "p":
			flags.Port = &port
		case "log-level":
			flags.LogLevel = &logLevel
		case "sandbox-root":
			flags.SandboxRoot = &root
		case "sandbox-mode":
			flags.SandboxMode = &mode
		}
	})
	return flags, nil
}

// LoadWithCLI loads the configuration and applies CLI overrides last.
// It returns the YAML path that was used.
func LoadWithCLI(flags CLIFlags) (*Config, string, error) {
	path := DefaultConfigFile
	if flags.ConfigPath != nil && *flags.ConfigPath != "" {
		path = *flags.ConfigPath
	}

	cfg, err := load(path)
	if err != nil {
		return nil, "", err
	}
	applyCLI(cfg, flags)

	if err := validate(cfg); err != nil {
		return nil, "", fmt.Errorf("config validate: %w", err)
	}
	return cfg, path, nil
}

func load(yamlPath string) (*Config, error) {
	cfg := Defaults()

	if err := loadYAML(&cfg, yamlPath); err != nil {
		return nil, fmt.Errorf("config yaml: %w", err)
	}
	if err := loadDotEnv(DefaultEnvFile); err != nil {
		return nil, fmt.Errorf("config dotenv: %w", err)
	}

	loadEnv(&cfg)
	return &cfg, nil
}

func applyCLI(cfg *Config, flags CLIFlags) {
	if flags.Port != nil {
		cfg.Server.Port = *flags.Port
	}
	if flags.LogLevel != nil {
		cfg.Logging.Level = *flags.LogLevel
	}
	if flags.SandboxRoot != nil {
		cfg.Sandbox.Root = *flags.SandboxRoot
	}
	if flags.SandboxMode != nil {
		cfg.Sandbox.Mode = *flags.SandboxMode
	}
}

// loadYAML reads the YAML file and unmarshals it over cfg.
// Returns nil if the file does not exist.
func loadYAML(cfg *Config, path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path comes from operator config
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	return nil
}

// loadDotEnv exports the variables in path into the process environment.
// Variables that are already set win. A missing file is not an error.
func loadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// loadEnv overlays environment variables onto cfg.
// Only non-empty env values override the current config.
func loadEnv(cfg *Config) {
	setString(&cfg.Server.Port, "AGENT_PORT")
	setDuration(&cfg.Server.RequestTimeout, "AGENT_REQUEST_TIMEOUT")
	setDuration(&cfg.Server.ReadHeaderTimeout, "AGENT_READ_HEADER_TIMEOUT")

	// Sandbox
	setString(&cfg.Sandbox.Root, "AGENT_SANDBOX_ROOT")
	setString(&cfg.Sandbox.Mode, "AGENT_SANDBOX_MODE")
	setBool(&cfg.Sandbox.StrictReadStatus, "AGENT_SANDBOX_STRICT_READ_STATUS")

	// LLM: the generic names are read first so AGENT_* wins.
	setString(&cfg.LLM.URL, "OPENAI_BASE_URL")
	setString(&cfg.LLM.URL, "LLM_URL")
	setString(&cfg.LLM.URL, "AGENT_LLM_URL")
	setString(&cfg.LLM.APIKey, "OPENAI_API_KEY")
	setString(&cfg.LLM.APIKey, "AGENT_LLM_API_KEY")
	setString(&cfg.LLM.Model, "AGENT_LLM_MODEL")
	setString(&cfg.LLM.VisionModel, "AGENT_LLM_VISION_MODEL")
	setString(&cfg.LLM.TranscriptionModel, "AGENT_LLM_TRANSCRIPTION_MODEL")
	setInt(&cfg.LLM.MaxTokens, "AGENT_LLM_MAX_TOKENS")
	setDuration(&cfg.LLM.Timeout, "AGENT_LLM_TIMEOUT")

	setString(&cfg.Logging.Level, "AGENT_LOG_LEVEL")
	setString(&cfg.Logging.Service, "AGENT_LOG_SERVICE")
	setBool(&cfg.Logging.Async, "AGENT_LOG_ASYNC")
	setInt(&cfg.Breaker.MaxFailures, "AGENT_BREAKER_MAX_FAILURES")
	setDuration(&cfg.Breaker.Timeout, "AGENT_BREAKER_TIMEOUT")
	setFloat64(&cfg.Rate.RequestsPerSecond, "AGENT_RATE_RPS")
	setInt(&cfg.Rate.Burst, "AGENT_RATE_BURST")
	setDuration(&cfg.Rate.CleanupInterval, "AGENT_RATE_CLEANUP_INTERVAL")
	setDuration(&cfg.Rate.MaxIdleTime, "AGENT_RATE_MAX_IDLE_TIME")
	setDuration(&cfg.Exec.Timeout, "AGENT_EXEC_TIMEOUT")
	setInt(&cfg.Exec.MaxOutput, "AGENT_EXEC_MAX_OUTPUT")

	// Git
	setInt(&cfg.Git.MaxConcurrent, "AGENT_GIT_MAX_CONCURRENT")
	setString(&cfg.Git.AuthorName, "AGENT_GIT_AUTHOR_NAME")
	setString(&cfg.Git.AuthorEmail, "AGENT_GIT_AUTHOR_EMAIL")

	// Generator
	setString(&cfg.Generator.URL, "AGENT_GENERATOR_URL")
	setString(&cfg.Generator.WorkDir, "AGENT_GENERATOR_WORK_DIR")
	setString(&cfg.Generator.Interpreter, "AGENT_GENERATOR_INTERPRETER")

	// Cache
	setInt64(&cfg.Cache.L1MaxSizeMB, "AGENT_CACHE_L1_SIZE_MB")
	setDuration(&cfg.Cache.TTL, "AGENT_CACHE_TTL")

	setDuration(&cfg.Fetch.Timeout, "AGENT_FETCH_TIMEOUT")
	setInt64(&cfg.Fetch.MaxBodyBytes, "AGENT_FETCH_MAX_BODY_BYTES")
	setString(&cfg.Telemetry.Endpoint, "AGENT_OTEL_ENDPOINT")
	setBool(&cfg.Telemetry.Insecure, "AGENT_OTEL_INSECURE")

	// MCP
	setBool(&cfg.MCP.Enabled, "AGENT_MCP_ENABLED")
	setString(&cfg.MCP.Name, "AGENT_MCP_NAME")
	setString(&cfg.MCP.Version, "AGENT_MCP_VERSION")
	setString(&cfg.MCP.APIKey, "AGENT_MCP_API_KEY")
}

// validate checks that required fields are set.
func validate(cfg *Config) error {
	if cfg.Server.Port == "" {
		return errors.New("server.port is required")
	}
	if cfg.Sandbox.Root == "" {
		return errors.New("sandbox.root is required")
	}
	if !sandbox.Mode(cfg.Sandbox.Mode).Valid() {
		return fmt.Errorf("sandbox.mode %q is invalid", cfg.Sandbox.Mode)
	}
	if cfg.LLM.URL == "" {
		return errors.New("llm.url is required")
	}
	if cfg.LLM.Model == "" {
		return errors.New("llm.model is required")
	}
	if cfg.Breaker.MaxFailures < 1 {
		return errors.New("breaker.max_failures must be >= 1")
	}
	if cfg.Rate.Burst < 1 {
		return errors.New("rate.burst must be >= 1")
	}
	if cfg.Git.MaxConcurrent < 1 {
		return errors.New("git.max_concurrent must be >= 1")
	}
	if cfg.Exec.MaxOutput < 1 {
		return errors.New("exec.max_output must be >= 1")
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
