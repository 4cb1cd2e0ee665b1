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
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/teradata-labs/matchpoint/pkg/agent"
	"github.com/teradata-labs/matchpoint/pkg/answer"
	"github.com/teradata-labs/matchpoint/pkg/fabric"
	"github.com/teradata-labs/matchpoint/pkg/llm"
	"github.com/teradata-labs/matchpoint/pkg/llm/ollama"
	"github.com/teradata-labs/matchpoint/pkg/observability"
	"github.com/teradata-labs/matchpoint/pkg/shuttle"
	"github.com/teradata-labs/matchpoint/pkg/shuttle/builtin"
	"github.com/teradata-labs/matchpoint/pkg/storage"
	"github.com/teradata-labs/matchpoint/pkg/types"
)

// app is the wired dependency graph shared by serve and ask.
type app struct {
	agent    *agent.Agent
	namer    *answer.ColumnNamer
	backend  *fabric.SQLBackend
	store    storage.Store
	llm      types.LLMProvider
	registry *prometheus.Registry
	tracer   observability.Tracer
}

// buildApp wires the components described by cfg. Callers must Close it.
func buildApp(ctx context.Context, cfg *Config, logger *zap.Logger) (*app, error) {
	a := &app{registry: prometheus.NewRegistry()}

	tracers := []observability.Tracer{}
	if cfg.Observability.Prometheus {
		a.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		pt, err := observability.NewPrometheusTracer(a.registry)
		if err != nil {
			return nil, fmt.Errorf("failed to create prometheus tracer: %w", err)
		}
		tracers = append(tracers, pt)
	}
	if cfg.Observability.LogSpans {
		tracers = append(tracers, observability.NewLogTracer(logger.Named("trace")))
	}
	a.tracer = observability.NewMultiTracer(tracers...)

	backend, err := fabric.Open(ctx, cfg.Database, logger, a.tracer)
	if err != nil {
		return nil, fmt.Errorf("failed to open match database: %w", err)
	}
	a.backend = backend

	reg := shuttle.NewRegistry()
	if err := builtin.Register(reg, backend, builtin.Options{MaxRows: cfg.Tools.MaxRows}); err != nil {
		_ = a.Close()
		return nil, err
	}
	reg.Freeze()
	executor := shuttle.NewExecutor(reg,
		shuttle.WithTimeout(cfg.Agent.ToolTimeout),
		shuttle.WithMaxConcurrency(cfg.Agent.MaxToolConcurrency),
		shuttle.WithLogger(logger),
		shuttle.WithTracer(a.tracer),
	)

	var vocab *answer.Vocabulary
	if cfg.Vocabulary != "" {
		vocab, err = answer.LoadVocabulary(cfg.Vocabulary)
		if err != nil {
			_ = a.Close()
			return nil, err
		}
	}

	a.namer = answer.NewColumnNamer(vocab)

	ollamaCfg := cfg.LLM.Ollama
	ollamaCfg.Logger = logger
	rateCfg := cfg.LLM.RateLimit
	rateCfg.Logger = logger
	a.llm = llm.NewRateLimitedProvider(ollama.NewClient(ollamaCfg), rateCfg)

	a.store, err = storage.Open(ctx, cfg.Storage, logger, a.tracer)
	if err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("failed to open session store: %w", err)
	}

	opts := []agent.Option{
		agent.WithConfig(&cfg.Agent),
		agent.WithLogger(logger),
		agent.WithTracer(a.tracer),
		agent.WithStore(a.store),
		agent.WithColumnNamer(a.namer),
	}
	if cfg.SystemPromptFile != "" {
		prompt, err := os.ReadFile(cfg.SystemPromptFile)
		if err != nil {
			_ = a.Close()
			return nil, fmt.Errorf("failed to read system prompt: %w", err)
		}
		opts = append(opts, agent.WithSystemPrompt(string(prompt)))
	}
	a.agent = agent.NewAgent(executor, a.llm, opts...)

	logger.Info("matchpoint ready",
		zap.String("database", cfg.Database.Type),
		zap.String("storage", cfg.Storage.Backend),
		zap.String("model", a.llm.Model()),
		zap.Int("max_iterations", a.agent.Config().MaxIterations),
		zap.Int("max_reminders", a.agent.Config().MaxReminders),
	)
	return a, nil
}

// Close releases the store and the database.
func (a *app) Close() error {
	var errs []error
	if a.store != nil {
		errs = append(errs, a.store.Close())
	}
	if a.backend != nil {
		errs = append(errs, a.backend.Close())
	}
	if a.tracer != nil {
		errs = append(errs, a.tracer.Flush(context.Background()))
	}
	return errors.Join(errs...)
}
