package config

import (
	"strings"

	"github.com/rotisserie/eris"
)

// Validate checks that the configuration carries everything the given mode
// needs. Mode "cli" covers the document-store commands; "serve" additionally
// checks the HTTP listener.
func (c *Config) Validate(mode string) error {
	var problems []string

	switch mode {
	case "cli":
		problems = append(problems, c.validateCore()...)
	case "serve":
		problems = append(problems, c.validateCore()...)
		if c.Server.Port <= 0 {
			problems = append(problems, "server.port must be > 0")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(problems) > 0 {
		return eris.New("config: " + strings.Join(problems, "; "))
	}
	return nil
}

func (c *Config) validateCore() []string {
	var problems []string

	if c.Notion.Token == "" {
		problems = append(problems, "notion.token is required")
	}

	switch c.Knowledge.Provider {
	case "anthropic", "":
		if c.Anthropic.Key == "" {
			problems = append(problems, "anthropic.key is required")
		}
	case "perplexity":
		if c.Perplexity.Key == "" {
			problems = append(problems, "perplexity.key is required")
		}
	default:
		problems = append(problems, "knowledge.provider must be \"anthropic\" or \"perplexity\"")
	}

	switch c.Store.Driver {
	case "sqlite", "":
		if c.Store.Path == "" {
			problems = append(problems, "store.path is required for the sqlite driver")
		}
	case "postgres":
		if c.Store.DatabaseURL == "" {
			problems = append(problems, "store.database_url is required for the postgres driver")
		}
	case "none":
	default:
		problems = append(problems, "store.driver must be \"sqlite\", \"postgres\" or \"none\"")
	}

	return problems
}
