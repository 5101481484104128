package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"grid-assistant-service/internal/metrics"
	"grid-assistant-service/internal/tools"
)

const defaultOpenAIBaseURL = "https://api.openai.com/v1"

type OpenAIMessage struct {
	Role       string     `json:"role"`
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
}

// OpenAIClient speaks the chat completions protocol. BaseURL may point at any
// compatible deployment.
type OpenAIClient struct {
	APIKey  string
	Model   string
	BaseURL string
	HTTP    *http.Client
}

type chatRequest struct {
	Model      string          `json:"model"`
	Messages   []OpenAIMessage `json:"messages"`
	Tools      []OpenAITool    `json:"tools,omitempty"`
	ToolChoice any             `json:"tool_choice,omitempty"`
}

type OpenAITool struct {
	Type     string             `json:"type"`
	Function OpenAIToolFunction `json:"function"`
}

type OpenAIToolFunction struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters"`
}

type chatResponse struct {
	Choices []struct {
		Message OpenAIMessage `json:"message"`
	} `json:"choices"`
}

type ToolCall struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Function struct {
		Name      string `json:"name"`
		Arguments string `json:"arguments"`
	} `json:"function"`
}

func (c *OpenAIClient) httpClient() *http.Client {
	if c.HTTP != nil {
		return c.HTTP
	}
	return http.DefaultClient
}

func (c *OpenAIClient) endpoint() string {
	base := strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if base == "" {
		base = defaultOpenAIBaseURL
	}
	return base + "/chat/completions"
}

func (c *OpenAIClient) Chat(ctx context.Context, messages []OpenAIMessage) (string, error) {
	msg, err := c.complete(ctx, chatRequest{Model: c.Model, Messages: messages})
	if err != nil {
		return "", err
	}
	return msg.Content, nil
}

func (c *OpenAIClient) ChatWithToolsChoice(ctx context.Context, messages []OpenAIMessage, tools []OpenAITool, toolChoice any) (OpenAIMessage, error) {
	return c.complete(ctx, chatRequest{Model: c.Model, Messages: messages, Tools: tools, ToolChoice: toolChoice})
}

func (c *OpenAIClient) complete(ctx context.Context, payload chatRequest) (OpenAIMessage, error) {
	buf, err := json.Marshal(payload)
	if err != nil {
		return OpenAIMessage{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(), bytes.NewReader(buf))
	if err != nil {
		return OpenAIMessage{}, err
	}
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
	req.Header.Set("api-key", c.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return OpenAIMessage{}, err
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return OpenAIMessage{}, fmt.Errorf("openai request failed: status=%d body=%s", resp.StatusCode, clipString(strings.TrimSpace(string(body)), 500))
	}

	var out chatResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return OpenAIMessage{}, fmt.Errorf("openai invalid json: %w", err)
	}
	if len(out.Choices) == 0 {
		return OpenAIMessage{}, errors.New("openai: empty choices")
	}
	return out.Choices[0].Message, nil
}

func toOpenAITools(ts []tools.Tool) []OpenAITool {
	out := make([]OpenAITool, 0, len(ts))
	for _, t := range ts {
		out = append(out, OpenAITool{
			Type: "function",
			Function: OpenAIToolFunction{
				Name:        t.Name,
				Description: t.Description,
				Parameters: map[string]any{
					"type":       "object",
					"properties": toolInputSchema(),
					"required":   []string{"query"},
				},
			},
		})
	}
	return out
}

type OpenAIAgent struct {
	Logger       *slog.Logger
	Client       *OpenAIClient
	MaxToolCalls int
}

func (a *OpenAIAgent) Provider() string { return "openai" }
func (a *OpenAIAgent) Model() string    { return a.Client.Model }

// Run loops until the model answers without tool calls or the tool budget is
// spent, then asks for an answer from what was gathered.
func (a *OpenAIAgent) Run(ctx context.Context, req AgentRequest) (AgentResult, error) {
	log := a.Logger
	if log == nil {
		log = slog.Default()
	}

	msgs := make([]OpenAIMessage, 0, len(req.History)+8)
	if req.System != "" {
		msgs = append(msgs, OpenAIMessage{Role: "system", Content: req.System})
	}
	for _, t := range req.History {
		msgs = append(msgs, OpenAIMessage{Role: t.Role, Content: t.Content})
	}
	msgs = append(msgs, OpenAIMessage{Role: "user", Content: req.Message})

	oaTools := toOpenAITools(req.Tools)
	runner := newToolRunner(log, req.Tools, a.MaxToolCalls, req.Utterance)

	for round := 0; round < runner.max; round++ {
		metrics.AgentRoundsTotal.WithLabelValues(a.Provider()).Inc()
		assistantMsg, err := a.Client.ChatWithToolsChoice(ctx, msgs, oaTools, "auto")
		if err != nil {
			return AgentResult{Steps: runner.steps}, err
		}
		if len(assistantMsg.ToolCalls) == 0 {
			return AgentResult{Answer: strings.TrimSpace(assistantMsg.Content), Steps: runner.steps}, nil
		}
		log.Debug("agent: tool calls requested", "round", round+1, "count", len(assistantMsg.ToolCalls))

		msgs = append(msgs, OpenAIMessage{Role: "assistant", Content: assistantMsg.Content, ToolCalls: assistantMsg.ToolCalls})
		// every tool_call_id must be answered, even past the budget
		for _, call := range assistantMsg.ToolCalls {
			out, _ := runner.run(ctx, call.Function.Name, call.Function.Arguments)
			msgs = append(msgs, OpenAIMessage{Role: "tool", ToolCallID: call.ID, Content: out})
		}
		if runner.exhausted() {
			break
		}
	}

	msgs = append(msgs, OpenAIMessage{Role: "user", Content: finalizePrompt})
	metrics.AgentRoundsTotal.WithLabelValues(a.Provider()).Inc()
	answer, err := a.Client.Chat(ctx, msgs)
	if err != nil {
		return AgentResult{Steps: runner.steps}, err
	}
	return AgentResult{Answer: strings.TrimSpace(answer), Steps: runner.steps}, nil
}
