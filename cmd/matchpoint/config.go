// Copyright 2026 Teradata
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package main

import (
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/teradata-labs/matchpoint/pkg/agent"
	mpconfig "github.com/teradata-labs/matchpoint/pkg/config"
	"github.com/teradata-labs/matchpoint/pkg/fabric"
	"github.com/teradata-labs/matchpoint/pkg/llm"
	"github.com/teradata-labs/matchpoint/pkg/llm/ollama"
	"github.com/teradata-labs/matchpoint/pkg/server"
	"github.com/teradata-labs/matchpoint/pkg/storage"
)

// Config is the full matchpoint configuration.
type Config struct {
	Agent         agent.Config        `mapstructure:"agent"`
	Database      fabric.Config       `mapstructure:"database"`
	Storage       storage.Config      `mapstructure:"storage"`
	LLM           LLMConfig           `mapstructure:"llm"`
	Server        server.Config       `mapstructure:"server"`
	Tools         ToolsConfig         `mapstructure:"tools"`
	Observability ObservabilityConfig `mapstructure:"observability"`
	Logging       LoggingConfig       `mapstructure:"logging"`

	// Vocabulary is an optional YAML file overriding column-naming
	// dictionaries
	Vocabulary string `mapstructure:"vocabulary"`

	// WatchVocabulary reloads Vocabulary on change while serving
	WatchVocabulary bool `mapstructure:"watch_vocabulary"`

	// SystemPromptFile replaces the built-in system prompt
	SystemPromptFile string `mapstructure:"system_prompt_file"`

	DataDir string `mapstructure:"-"`
}

// LLMConfig configures the language model.
type LLMConfig struct {
	Ollama    ollama.Config         `mapstructure:"ollama"`
	RateLimit llm.RateLimiterConfig `mapstructure:"rate_limit"`
}

// ToolsConfig configures the query tools.
type ToolsConfig struct {
	MaxRows int `mapstructure:"max_rows"`
}

// ObservabilityConfig selects tracers.
type ObservabilityConfig struct {
	// Prometheus exports metrics on /metrics
	Prometheus bool `mapstructure:"prometheus"`

	// LogSpans writes spans and events to the log at debug level
	LogSpans bool `mapstructure:"log_spans"`
}

// LoggingConfig configures the zap logger.
type LoggingConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

// LoadConfig loads configuration from multiple sources with proper priority:
// 1. Command line flags (highest priority)
// 2. Config file
// 3. Environment variables
// 4. Defaults (lowest priority)
func LoadConfig(cfgFile string) (*Config, error) {
	setDefaults()

	if cfgFile != "" {
		viper.SetConfigFile(mpconfig.ExpandPath(cfgFile))
	} else {
		viper.AddConfigPath(mpconfig.GetDataDir())
		viper.AddConfigPath(".")
		viper.AddConfigPath("/etc/matchpoint/")
		viper.SetConfigName(strings.TrimSuffix(mpconfig.ConfigFileName, filepath.Ext(mpconfig.ConfigFileName)))
		viper.SetConfigType("yaml")
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file %s: %w", viper.ConfigFileUsed(), err)
		}
		// Config file not found; using defaults + env vars + flags
	}

	viper.SetEnvPrefix("MATCHPOINT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config.DataDir = mpconfig.GetDataDir()
	config.Vocabulary = mpconfig.ExpandPath(config.Vocabulary)
	config.SystemPromptFile = mpconfig.ExpandPath(config.SystemPromptFile)
	config.Storage.Path = mpconfig.ExpandPath(config.Storage.Path)
	if config.Database.Type == "sqlite" {
		config.Database.DSN = mpconfig.ExpandPath(config.Database.DSN)
	}
	return &config, nil
}

// setDefaults sets default configuration values.
func setDefaults() {
	ad := agent.DefaultConfig()
	viper.SetDefault("agent.max_iterations", ad.MaxIterations)
	viper.SetDefault("agent.max_reminders", ad.MaxReminders)
	viper.SetDefault("agent.disable_reminders", ad.DisableReminders)
	viper.SetDefault("agent.window_size", ad.WindowSize)
	viper.SetDefault("agent.min_row_payload_length", ad.MinRowPayloadLength)
	viper.SetDefault("agent.tool_timeout", ad.ToolTimeout)
	viper.SetDefault("agent.max_tool_concurrency", ad.MaxToolConcurrency)
	viper.SetDefault("agent.max_history_messages", ad.MaxHistoryMessages)
	viper.SetDefault("agent.validate_tool", ad.ValidateTool)
	viper.SetDefault("agent.execute_tool", ad.ExecuteTool)
	viper.SetDefault("agent.retry.enabled", ad.Retry.Enabled)
	viper.SetDefault("agent.retry.max_retries", ad.Retry.MaxRetries)
	viper.SetDefault("agent.retry.initial_delay", ad.Retry.InitialDelay)
	viper.SetDefault("agent.retry.max_delay", ad.Retry.MaxDelay)
	viper.SetDefault("agent.retry.multiplier", ad.Retry.Multiplier)

	viper.SetDefault("database.name", "atp")
	viper.SetDefault("database.type", "sqlite")
	viper.SetDefault("database.dsn", filepath.Join(mpconfig.GetDataDir(), "atp.db"))
	viper.SetDefault("database.encryption_key", "")
	viper.SetDefault("database.max_open_conns", 4)
	viper.SetDefault("database.max_idle_conns", 2)
	viper.SetDefault("database.conn_max_lifetime", 30*time.Minute)

	viper.SetDefault("storage.backend", "sqlite")
	viper.SetDefault("storage.path", filepath.Join(mpconfig.GetDataDir(), "sessions.db"))
	viper.SetDefault("storage.dsn", "")
	viper.SetDefault("storage.schema", "")
	viper.SetDefault("storage.encryption_key", "")

	viper.SetDefault("llm.ollama.endpoint", "http://localhost:11434")
	viper.SetDefault("llm.ollama.model", "llama3.1")
	viper.SetDefault("llm.ollama.max_tokens", 0)
	viper.SetDefault("llm.ollama.temperature", 0.1)
	viper.SetDefault("llm.ollama.timeout", 120*time.Second)
	viper.SetDefault("llm.ollama.tool_mode", string(ollama.ToolModeAuto))

	rl := llm.DefaultRateLimiterConfig()
	viper.SetDefault("llm.rate_limit.enabled", rl.Enabled)
	viper.SetDefault("llm.rate_limit.requests_per_second", rl.RequestsPerSecond)
	viper.SetDefault("llm.rate_limit.burst", rl.BurstCapacity)
	viper.SetDefault("llm.rate_limit.queue_timeout", rl.QueueTimeout)

	sd := server.DefaultConfig()
	viper.SetDefault("server.addr", sd.Addr)
	viper.SetDefault("server.turn_timeout", sd.TurnTimeout)
	viper.SetDefault("server.debug", false)
	viper.SetDefault("server.cors.enabled", sd.CORS.Enabled)
	viper.SetDefault("server.cors.allowed_origins", sd.CORS.AllowedOrigins)
	viper.SetDefault("server.cors.allowed_methods", sd.CORS.AllowedMethods)
	viper.SetDefault("server.cors.allowed_headers", sd.CORS.AllowedHeaders)
	viper.SetDefault("server.cors.exposed_headers", sd.CORS.ExposedHeaders)
	viper.SetDefault("server.cors.allow_credentials", sd.CORS.AllowCredentials)
	viper.SetDefault("server.cors.max_age", sd.CORS.MaxAge)

	viper.SetDefault("tools.max_rows", 200)

	viper.SetDefault("observability.prometheus", true)
	viper.SetDefault("observability.log_spans", false)

	viper.SetDefault("vocabulary", "")
	viper.SetDefault("watch_vocabulary", true)
	viper.SetDefault("system_prompt_file", "")

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.file", "")
}

// newLogger creates a production logger (stack traces only for ERROR level).
func newLogger(cfg LoggingConfig) (*zap.Logger, error) {
	zapConfig := zap.NewProductionConfig()

	logLevel := zap.InfoLevel
	if cfg.Level != "" {
		if err := logLevel.UnmarshalText([]byte(cfg.Level)); err != nil {
			log.Printf("Invalid log level %q, using INFO: %v", cfg.Level, err)
		}
	}
	zapConfig.Level = zap.NewAtomicLevelAt(logLevel)

	if cfg.File != "" {
		path := mpconfig.ExpandPath(cfg.File)
		zapConfig.OutputPaths = []string{path}
		zapConfig.ErrorOutputPaths = []string{path}
	}

	logger, err := zapConfig.Build(zap.AddStacktrace(zap.ErrorLevel))
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return logger, nil
}
