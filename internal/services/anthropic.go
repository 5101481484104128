package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	anthropic "github.com/anthropics/anthropic-sdk-go"

	"grid-assistant-service/internal/metrics"
	"grid-assistant-service/internal/tools"
)

const defaultAnthropicMaxTokens = 2048

type AnthropicAgentConfig struct {
	Logger       *slog.Logger
	Client       anthropic.Client
	Model        anthropic.Model
	MaxTokens    int64
	MaxToolCalls int
}

// AnthropicAgent runs the tool loop against the Messages API. Tool uses
// within one response are executed in order, never in parallel.
type AnthropicAgent struct {
	cfg *AnthropicAgentConfig
}

func NewAnthropicAgent(cfg *AnthropicAgentConfig) *AnthropicAgent {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = defaultAnthropicMaxTokens
	}
	return &AnthropicAgent{cfg: cfg}
}

func (a *AnthropicAgent) Provider() string { return "anthropic" }
func (a *AnthropicAgent) Model() string    { return string(a.cfg.Model) }

func toAnthropicTools(ts []tools.Tool) []anthropic.ToolUnionParam {
	out := make([]anthropic.ToolUnionParam, 0, len(ts))
	for _, t := range ts {
		toolParam := anthropic.ToolParam{
			Name:        t.Name,
			Description: anthropic.Opt(t.Description),
			InputSchema: anthropic.ToolInputSchemaParam{
				Properties: toolInputSchema(),
				Required:   []string{"query"},
			},
		}
		out = append(out, anthropic.ToolUnionParam{OfTool: &toolParam})
	}
	return out
}

func (a *AnthropicAgent) params(req AgentRequest, msgs []anthropic.MessageParam, ts []anthropic.ToolUnionParam) anthropic.MessageNewParams {
	params := anthropic.MessageNewParams{
		Model:     a.cfg.Model,
		MaxTokens: a.cfg.MaxTokens,
		Messages:  msgs,
		Tools:     ts,
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{
			{Text: req.System},
		}
	}
	return params
}

func (a *AnthropicAgent) Run(ctx context.Context, req AgentRequest) (AgentResult, error) {
	log := a.cfg.Logger

	msgs := make([]anthropic.MessageParam, 0, len(req.History)+8)
	for _, t := range req.History {
		if t.Role == "assistant" {
			msgs = append(msgs, anthropic.NewAssistantMessage(anthropic.NewTextBlock(t.Content)))
			continue
		}
		msgs = append(msgs, anthropic.NewUserMessage(anthropic.NewTextBlock(t.Content)))
	}
	msgs = append(msgs, anthropic.NewUserMessage(anthropic.NewTextBlock(req.Message)))

	ts := toAnthropicTools(req.Tools)
	runner := newToolRunner(log, req.Tools, a.cfg.MaxToolCalls, req.Utterance)

	for round := 0; round < runner.max; round++ {
		metrics.AgentRoundsTotal.WithLabelValues(a.Provider()).Inc()
		log.Debug("agent: starting round", "round", round+1, "max_rounds", runner.max)

		resp, err := a.cfg.Client.Messages.New(ctx, a.params(req, msgs, ts))
		if err != nil {
			return AgentResult{Steps: runner.steps}, fmt.Errorf("failed to get response: %w", err)
		}
		msgs = append(msgs, resp.ToParam())

		var text strings.Builder
		var results []anthropic.ContentBlockParamUnion
		for _, blk := range resp.Content {
			switch blk.Type {
			case "text":
				text.WriteString(blk.AsText().Text)
			case "tool_use":
				tu := blk.AsToolUse()
				out, isErr := runner.run(ctx, tu.Name, string(tu.Input))
				results = append(results, anthropic.NewToolResultBlock(tu.ID, out, isErr))
			}
		}
		if len(results) == 0 {
			if resp.StopReason == "max_tokens" {
				log.Warn("agent: response truncated", "max_tokens", a.cfg.MaxTokens)
			}
			return AgentResult{Answer: strings.TrimSpace(text.String()), Steps: runner.steps}, nil
		}

		msgs = append(msgs, anthropic.NewUserMessage(results...))
		if runner.exhausted() {
			break
		}
	}

	msgs = append(msgs, anthropic.NewUserMessage(anthropic.NewTextBlock(finalizePrompt)))
	metrics.AgentRoundsTotal.WithLabelValues(a.Provider()).Inc()
	resp, err := a.cfg.Client.Messages.New(ctx, a.params(req, msgs, ts))
	if err != nil {
		return AgentResult{Steps: runner.steps}, fmt.Errorf("failed to get final response: %w", err)
	}
	var text strings.Builder
	for _, blk := range resp.Content {
		if t := blk.AsText().Text; t != "" {
			text.WriteString(t)
		}
	}
	return AgentResult{Answer: strings.TrimSpace(text.String()), Steps: runner.steps}, nil
}
