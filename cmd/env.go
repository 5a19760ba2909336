package main

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/callsheet-cli/internal/callsheet"
	"github.com/sells-group/callsheet-cli/internal/config"
	"github.com/sells-group/callsheet-cli/internal/knowledge"
	"github.com/sells-group/callsheet-cli/internal/store"
	"github.com/sells-group/callsheet-cli/pkg/anthropic"
	"github.com/sells-group/callsheet-cli/pkg/notion"
	"github.com/sells-group/callsheet-cli/pkg/perplexity"
)

// appEnv holds the wired application dependencies for a command invocation.
type appEnv struct {
	Service *callsheet.Service
	Runs    store.Store
}

// initApp wires the document store, knowledge backend and run store from
// configuration.
func initApp(ctx context.Context, mode string) (*appEnv, error) {
	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}

	docs := notion.NewStore(notion.NewClient(cfg.Notion.Token, notion.WithRateLimit(cfg.Notion.RateLimit)))

	asker, err := buildAsker(cfg)
	if err != nil {
		return nil, err
	}

	runs, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	return &appEnv{
		Service: callsheet.NewService(docs, asker, runs),
		Runs:    runs,
	}, nil
}

func (e *appEnv) Close() {
	if e.Runs != nil {
		if err := e.Runs.Close(); err != nil {
			zap.L().Warn("close run store", zap.Error(err))
		}
	}
}

func buildAsker(cfg *config.Config) (knowledge.Asker, error) {
	switch cfg.Knowledge.Provider {
	case "anthropic", "":
		if cfg.Anthropic.Key == "" {
			return nil, eris.New("anthropic.key is required")
		}
		return &knowledge.AnthropicAsker{
			Client:    anthropic.NewClient(cfg.Anthropic.Key),
			Model:     cfg.Anthropic.Model,
			MaxTokens: cfg.Anthropic.MaxTokens,
		}, nil
	case "perplexity":
		if cfg.Perplexity.Key == "" {
			return nil, eris.New("perplexity.key is required")
		}
		return &knowledge.PerplexityAsker{
			Client: perplexity.NewClient(cfg.Perplexity.Key,
				perplexity.WithBaseURL(cfg.Perplexity.BaseURL),
				perplexity.WithModel(cfg.Perplexity.Model)),
			Model: cfg.Perplexity.Model,
		}, nil
	default:
		return nil, eris.Errorf("unknown knowledge provider %q", cfg.Knowledge.Provider)
	}
}

func buildStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	var (
		st  store.Store
		err error
	)
	switch cfg.Store.Driver {
	case "none":
		return nil, nil
	case "postgres":
		st, err = store.NewPostgres(ctx, cfg.Store.DatabaseURL)
	case "sqlite", "":
		st, err = store.NewSQLite(cfg.Store.Path)
	default:
		return nil, eris.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, err
	}
	return st, nil
}
