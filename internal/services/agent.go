package services

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"grid-assistant-service/internal/models"
	"grid-assistant-service/internal/tools"
)

const finalizePrompt = "Please answer using the information gathered so far."

// Turn is one remembered chat message.
type Turn struct {
	Role    string
	Content string
}

type AgentRequest struct {
	System  string
	History []Turn
	// Message is what the model sees for this turn, possibly with the data preamble.
	Message string
	// Utterance is the operator's raw text; tools fall back to it when the
	// model passes no query.
	Utterance string
	Tools     []tools.Tool
}

type AgentResult struct {
	Answer string
	Steps  []models.Step
}

// Agent runs one tool-calling conversation turn against an LLM.
type Agent interface {
	Provider() string
	Model() string
	Run(ctx context.Context, req AgentRequest) (AgentResult, error)
}

type toolArgs struct {
	Query string `json:"query"`
}

// toolInputSchema is shared by every tool: a single free-text query.
func toolInputSchema() map[string]any {
	return map[string]any{
		"query": map[string]any{
			"type":        "string",
			"description": "The operator's question, including any zone name, zone ID or date mentioned.",
		},
	}
}

// toolRunner executes tool calls one at a time and records a step for each.
type toolRunner struct {
	log       *slog.Logger
	byName    map[string]tools.Tool
	max       int
	calls     int
	utterance string
	steps     []models.Step
}

func newToolRunner(log *slog.Logger, ts []tools.Tool, max int, utterance string) *toolRunner {
	byName := make(map[string]tools.Tool, len(ts))
	for _, t := range ts {
		byName[t.Name] = t
	}
	if max <= 0 {
		max = 5
	}
	return &toolRunner{log: log, byName: byName, max: max, utterance: utterance}
}

func (r *toolRunner) exhausted() bool {
	return r.calls >= r.max
}

// run returns the tool output and whether the call itself was rejected.
func (r *toolRunner) run(ctx context.Context, name, rawArgs string) (string, bool) {
	if r.exhausted() {
		return `{"error":"tool_limit_exceeded"}`, true
	}
	r.calls++

	t, ok := r.byName[name]
	if !ok {
		r.log.Warn("agent: unknown tool requested", "tool", name)
		r.steps = append(r.steps, models.Step{Tool: name, Error: "unsupported_tool"})
		return `{"error":"unsupported_tool"}`, true
	}

	var args toolArgs
	if strings.TrimSpace(rawArgs) != "" {
		if err := json.Unmarshal([]byte(rawArgs), &args); err != nil {
			r.log.Debug("agent: malformed tool arguments, using the operator's text", "tool", name, "arguments", clipString(rawArgs, 200), "error", err)
		}
	}
	input := strings.TrimSpace(args.Query)
	if input == "" {
		input = r.utterance
	}

	start := time.Now()
	out := t.Run(ctx, input)
	elapsed := time.Since(start)
	r.log.Info("agent: tool executed", "tool", name, "duration", elapsed, "output_bytes", len(out))
	r.steps = append(r.steps, models.Step{
		Tool:       name,
		Input:      input,
		Output:     clipString(out, 2000),
		DurationMS: elapsed.Milliseconds(),
	})
	return out, false
}

func clipString(s string, max int) string {
	r := []rune(s)
	if max <= 0 || len(r) <= max {
		return s
	}
	return string(r[:max]) + "…"
}
