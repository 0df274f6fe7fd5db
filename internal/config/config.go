// Package config provides hierarchical configuration loading for the agent.
// Precedence: defaults < YAML file < .env file < environment variables < CLI flags.
package config

import "time"

// Config holds all runtime configuration for the agent service.
type Config struct {
	Server    Server    `yaml:"server"`
	Sandbox   Sandbox   `yaml:"sandbox"`
	LLM       LLM       `yaml:"llm"`
	Logging   Logging   `yaml:"logging"`
	Breaker   Breaker   `yaml:"breaker"`
	Rate      Rate      `yaml:"rate"`
	Exec      Exec      `yaml:"exec"`
	Git       Git       `yaml:"git"`
	Generator Generator `yaml:"generator"`
	Cache     Cache     `yaml:"cache"`
	Fetch     Fetch     `yaml:"fetch"`
	Telemetry Telemetry `yaml:"telemetry"`
	MCP       MCP       `yaml:"mcp"`
}

// Server holds HTTP server configuration.
type Server struct {
	Port              string        `yaml:"port"`
	RequestTimeout    time.Duration `yaml:"request_timeout"`
	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout"`
}

// Sandbox holds the containment policy configuration.
type Sandbox struct {
	Root             string `yaml:"root"`
	Mode             string `yaml:"mode"`               // "segment" (default) | "prefix"
	StrictReadStatus bool   `yaml:"strict_read_status"` // 403 instead of 200 for reads outside the root
}

// LLM holds the OpenAI-compatible endpoint configuration.
type LLM struct {
	URL                string        `yaml:"url"`
	APIKey             string        `yaml:"api_key"`
	Model              string        `yaml:"model"`
	VisionModel        string        `yaml:"vision_model"`
	TranscriptionModel string        `yaml:"transcription_model"`
	MaxTokens          int           `yaml:"max_tokens"`
	Timeout            time.Duration `yaml:"timeout"`
}

// Logging holds structured logging configuration.
type Logging struct {
	Level   string `yaml:"level"`
	Service string `yaml:"service"`
	Async   bool   `yaml:"async"`
}

// Breaker holds circuit breaker configuration.
type Breaker struct {
	MaxFailures int           `yaml:"max_failures"`
	Timeout     time.Duration `yaml:"timeout"`
}

// Rate holds rate limiter configuration.
type Rate struct {
	RequestsPerSecond float64       `yaml:"requests_per_second"`
	Burst             int           `yaml:"burst"`
	CleanupInterval   time.Duration `yaml:"cleanup_interval"`
	MaxIdleTime       time.Duration `yaml:"max_idle_time"`
}

// Exec holds external command runner limits.
type Exec struct {
	Timeout   time.Duration `yaml:"timeout"`
	MaxOutput int           `yaml:"max_output"` // bytes captured per stream
}

// Git holds git CLI configuration.
type Git struct {
	MaxConcurrent int    `yaml:"max_concurrent"`
	AuthorName    string `yaml:"author_name"`
	AuthorEmail   string `yaml:"author_email"`
}

// Generator holds the data generator bootstrap configuration.
type Generator struct {
	URL         string `yaml:"url"`
	WorkDir     string `yaml:"work_dir"` // empty uses the sandbox root
	Interpreter string `yaml:"interpreter"`
}

// Cache holds the in-process cache configuration.
type Cache struct {
	L1MaxSizeMB int64         `yaml:"l1_max_size_mb"`
	TTL         time.Duration `yaml:"ttl"`
}

// Fetch holds outbound HTTP retrieval limits.
type Fetch struct {
	Timeout      time.Duration `yaml:"timeout"`
	MaxBodyBytes int64         `yaml:"max_body_bytes"`
}

// Telemetry holds OpenTelemetry exporter configuration. An empty endpoint
// keeps the global no-op providers.
type Telemetry struct {
	Endpoint string `yaml:"endpoint"`
	Insecure bool   `yaml:"insecure"`
}

// MCP holds the Model Context Protocol server configuration.
type MCP struct {
	Enabled bool   `yaml:"enabled"`
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
	APIKey  string `yaml:"api_key"` // empty disables auth on /mcp
}

// DefaultGeneratorURL is the data generator script used by the install task.
const DefaultGeneratorURL = "https://raw.githubusercontent.com/sanand0/tools-in-data-science-public/tds-2025-01/project-1/datagen.py"

// Defaults returns a Config with sensible default values for local development.
func Defaults() Config {
	return Config{
		Server: Server{
			Port:              "8000",
			RequestTimeout:    5 * time.Minute,
			ReadHeaderTimeout: 10 * time.Second,
		},
		Sandbox: Sandbox{
			Root: "/data",
			Mode: "segment",
		},
		LLM: LLM{
			URL:                "https://api.openai.com/v1",
			Model:              "gpt-4o-mini",
			VisionModel:        "gpt-4o-mini",
			TranscriptionModel: "whisper-1",
			MaxTokens:          1024,
			Timeout:            60 * time.Second,
		},
		Logging: Logging{
			Level:   "info",
			Service: "llm-automation-agent",
		},
		Breaker: Breaker{
			MaxFailures: 5,
			Timeout:     30 * time.Second,
		},
		Rate: Rate{
			RequestsPerSecond: 10,
			Burst:             100,
			CleanupInterval:   5 * time.Minute,
			MaxIdleTime:       10 * time.Minute,
		},
		Exec: Exec{
			Timeout:   2 * time.Minute,
			MaxOutput: 1 << 20,
		},
		Git: Git{
			MaxConcurrent: 5,
			AuthorName:    "LLM Automation Agent",
			AuthorEmail:   "agent@localhost",
		},
		Generator: Generator{
			URL:         DefaultGeneratorURL,
			Interpreter: "python",
		},
		Cache: Cache{
			L1MaxSizeMB: 16,
			TTL:         time.Hour,
		},
		Fetch: Fetch{
			Timeout:      30 * time.Second,
			MaxBodyBytes: 10 << 20,
		},
		MCP: MCP{
			Enabled: true,
			Name:    "llm-automation-agent",
			Version: "0.1.0",
		},
	}
}
