// Package knowledge abstracts the natural-language service that answers
// location questions: one prompt in, one text reply out.
package knowledge

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/callsheet-cli/pkg/anthropic"
	"github.com/sells-group/callsheet-cli/pkg/perplexity"
)

// Asker asks the knowledge service a single question and returns its raw
// text reply. Implementations are expected to be slow; callers apply their
// own timeout policy through ctx.
type Asker interface {
	Ask(ctx context.Context, prompt string) (string, error)
}

// AnthropicAsker answers questions with a single Claude message.
type AnthropicAsker struct {
	Client    anthropic.Client
	Model     string
	MaxTokens int64
}

func (a *AnthropicAsker) Ask(ctx context.Context, prompt string) (string, error) {
	maxTokens := a.MaxTokens
	if maxTokens == 0 {
		maxTokens = 4096
	}
	resp, err := a.Client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     a.Model,
		MaxTokens: maxTokens,
		Messages:  []anthropic.Message{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", eris.Wrap(err, "knowledge: ask anthropic")
	}
	resp.Usage.LogCost(a.Model, "enrichment")
	return resp.Text(), nil
}

// PerplexityAsker answers questions with a single chat completion.
type PerplexityAsker struct {
	Client perplexity.Client
	Model  string
}

func (p *PerplexityAsker) Ask(ctx context.Context, prompt string) (string, error) {
	resp, err := p.Client.ChatCompletion(ctx, perplexity.ChatCompletionRequest{
		Model:    p.Model,
		Messages: []perplexity.Message{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", eris.Wrap(err, "knowledge: ask perplexity")
	}
	if len(resp.Choices) == 0 {
		return "", eris.New("knowledge: empty perplexity reply")
	}
	return resp.Choices[0].Message.Content, nil
}

// CleanJSON strips a possible markdown code fence from a reply and trims it
// to the outermost JSON object or array.
func CleanJSON(text string) string {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	} else if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	}

	objStart := strings.Index(text, "{")
	arrStart := strings.Index(text, "[")
	if arrStart >= 0 && (objStart < 0 || arrStart < objStart) {
		if end := strings.LastIndex(text, "]"); end > arrStart {
			text = text[arrStart : end+1]
		}
	} else if objStart >= 0 {
		if end := strings.LastIndex(text, "}"); end > objStart {
			text = text[objStart : end+1]
		}
	}

	return strings.TrimSpace(text)
}
