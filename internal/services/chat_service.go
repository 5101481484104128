package services

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"grid-assistant-service/internal/metrics"
	"grid-assistant-service/internal/models"
	"grid-assistant-service/internal/query"
	"grid-assistant-service/internal/tools"
)

// ErrEmptyMessage is returned for blank utterances.
var ErrEmptyMessage = errors.New("message is required")

const mockHelp = "(mock) I can report offline and online collectors, collector counts per zone, " +
	"interval and register read success rates for Aug 4-11, 2025, zone performance, and search SOP documents."

type Store interface {
	AppendMessage(ctx context.Context, ownerKey, conversationID, role, content string) error
	ListMessages(ctx context.Context, ownerKey, conversationID string, limit int) ([]models.Message, error)
	CreateConversation(ctx context.Context, ownerKey string) (models.Conversation, error)
	GetConversation(ctx context.Context, ownerKey, conversationID string) (models.Conversation, error)
	AppendLog(ctx context.Context, entry models.LogEntry) error
	Stats(ctx context.Context, recent int) (models.DashboardStats, error)
}

// ChatService answers one operator utterance per call: classify, optionally
// wrap with the data preamble, run the agent, remember the exchange.
type ChatService struct {
	Logger       *slog.Logger
	MockMode     bool
	Agent        Agent
	Store        Store
	Tools        *tools.Catalog
	Classifier   *query.Classifier
	Memory       *ConversationMemory
	SystemPrompt string
	Preamble     string
}

func (c *ChatService) log() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}

func (c *ChatService) classifier() *query.Classifier {
	if c.Classifier != nil {
		return c.Classifier
	}
	return query.NewClassifier(query.DefaultRules())
}

func (c *ChatService) systemPrompt() string {
	if strings.TrimSpace(c.SystemPrompt) != "" {
		return c.SystemPrompt
	}
	return DefaultSystemPrompt
}

func (c *ChatService) preamble() string {
	if strings.TrimSpace(c.Preamble) != "" {
		return c.Preamble
	}
	return DefaultPreamble
}

// hydrate loads a conversation's recent messages into memory on first use.
func (c *ChatService) hydrate(ctx context.Context, ownerKey, conversationID string) {
	if c.Memory == nil || c.Store == nil || conversationID == "" || c.Memory.Has(ownerKey, conversationID) {
		return
	}
	msgs, err := c.Store.ListMessages(ctx, ownerKey, conversationID, c.Memory.Window()*2)
	if err != nil {
		c.log().Warn("chat: failed to load history", "conversation_id", conversationID, "error", err)
		return
	}
	turns := make([]Turn, 0, len(msgs))
	for _, m := range msgs {
		if m.Role != "user" && m.Role != "assistant" {
			continue
		}
		turns = append(turns, Turn{Role: m.Role, Content: clipString(m.Content, 1000)})
	}
	c.Memory.Seed(ownerKey, conversationID, turns)
}

func (c *ChatService) history(ownerKey, conversationID string) []Turn {
	if c.Memory == nil {
		return nil
	}
	return c.Memory.History(ownerKey, conversationID)
}

func (c *ChatService) appendMessage(ctx context.Context, ownerKey, conversationID, role, content string) {
	if c.Store == nil || conversationID == "" {
		return
	}
	if err := c.Store.AppendMessage(ctx, ownerKey, conversationID, role, content); err != nil {
		c.log().Warn("chat: failed to persist message", "conversation_id", conversationID, "role", role, "error", err)
	}
}

func (c *ChatService) appendLog(ctx context.Context, level, ownerKey, conversationID, message string) {
	if c.Store == nil {
		return
	}
	entry := models.LogEntry{Level: level, Message: message, OwnerKey: ownerKey, ConversationID: conversationID}
	if err := c.Store.AppendLog(ctx, entry); err != nil {
		c.log().Warn("chat: failed to persist log entry", "level", level, "error", err)
	}
}

func (c *ChatService) Chat(ctx context.Context, ownerKey string, req models.ChatRequest) (models.ChatResponse, error) {
	msg := strings.TrimSpace(req.Message)
	if msg == "" {
		return models.ChatResponse{}, ErrEmptyMessage
	}
	conversationID := strings.TrimSpace(req.ConversationID)
	start := time.Now()

	c.hydrate(ctx, ownerKey, conversationID)
	c.appendMessage(ctx, ownerKey, conversationID, "user", msg)

	needsData := c.classifier().NeedsLiveData(msg)
	log := c.log().With("conversation_id", conversationID, "live_data", needsData)
	log.Info("chat: received message", "chars", len(msg))

	var (
		res AgentResult
		err error
	)
	if c.MockMode || c.Agent == nil {
		res = c.mockAnswer(ctx, msg)
	} else {
		input := msg
		if needsData {
			input = ApplyPreamble(c.preamble(), msg)
		}
		var ts []tools.Tool
		if c.Tools != nil {
			ts = c.Tools.Tools()
		}
		res, err = c.Agent.Run(ctx, AgentRequest{
			System:    c.systemPrompt(),
			History:   c.history(ownerKey, conversationID),
			Message:   input,
			Utterance: msg,
			Tools:     ts,
		})
	}
	if err != nil {
		log.Error("chat: agent failed", "error", err, "duration", time.Since(start))
		metrics.ChatRequestsTotal.WithLabelValues(strconv.FormatBool(needsData), "error").Inc()
		c.appendLog(ctx, "ERROR", ownerKey, conversationID, "agent failed: "+clipString(err.Error(), 500))
		return models.ChatResponse{}, err
	}

	toolsUsed := make([]string, 0, len(res.Steps))
	for _, s := range res.Steps {
		toolsUsed = append(toolsUsed, s.Tool)
	}
	if needsData && len(toolsUsed) == 0 {
		log.Warn("chat: live data expected but no tool was called")
	}

	answer := res.Answer
	if strings.TrimSpace(answer) == "" {
		answer = "I wasn't able to produce an answer for that. Please try rephrasing your question."
	}

	if c.Memory != nil {
		c.Memory.Append(ownerKey, conversationID,
			Turn{Role: "user", Content: msg},
			Turn{Role: "assistant", Content: clipString(answer, 1000)},
		)
	}
	c.appendMessage(ctx, ownerKey, conversationID, "assistant", answer)
	c.appendLog(ctx, "INFO", ownerKey, conversationID, "answered; tools="+strings.Join(toolsUsed, ","))
	metrics.ChatRequestsTotal.WithLabelValues(strconv.FormatBool(needsData), "ok").Inc()
	log.Info("chat: answered", "tools", toolsUsed, "duration", time.Since(start))

	return models.ChatResponse{
		Answer:        answer,
		NeedsLiveData: needsData,
		ToolsUsed:     toolsUsed,
		Steps:         res.Steps,
	}, nil
}

// mockAnswer routes by keyword to a single tool and returns its output as is.
func (c *ChatService) mockAnswer(ctx context.Context, msg string) AgentResult {
	name, ok := tools.Suggest(msg)
	if !ok || c.Tools == nil {
		return AgentResult{Answer: mockHelp}
	}
	runner := newToolRunner(c.log(), c.Tools.Tools(), 1, msg)
	out, rejected := runner.run(ctx, name, "")
	if rejected {
		return AgentResult{Answer: mockHelp, Steps: runner.steps}
	}
	return AgentResult{Answer: out, Steps: runner.steps}
}

// ChatStream answers like Chat and then emits the answer in small chunks.
func (c *ChatService) ChatStream(ctx context.Context, ownerKey string, req models.ChatRequest, onToken func(string)) (models.ChatResponse, error) {
	resp, err := c.Chat(ctx, ownerKey, req)
	if err != nil {
		return resp, err
	}
	if onToken != nil {
		for _, chunk := range chunkString(resp.Answer, 20) {
			if ctx.Err() != nil {
				return resp, ctx.Err()
			}
			onToken(chunk)
		}
	}
	return resp, nil
}

func chunkString(s string, size int) []string {
	r := []rune(s)
	out := make([]string, 0, len(r)/size+1)
	for i := 0; i < len(r); i += size {
		end := min(i+size, len(r))
		out = append(out, string(r[i:end]))
	}
	return out
}

// ResetMemory forgets every remembered conversation. Persisted messages are kept.
func (c *ChatService) ResetMemory(ctx context.Context, ownerKey string) int {
	if c.Memory == nil {
		return 0
	}
	n := c.Memory.Reset()
	c.log().Info("chat: memory reset", "conversations", n)
	c.appendLog(ctx, "INFO", ownerKey, "", "memory reset; conversations="+strconv.Itoa(n))
	return n
}

func (c *ChatService) Dashboard(ctx context.Context) (models.DashboardStats, error) {
	if c.Store == nil {
		return models.DashboardStats{RecentLogs: []models.LogEntry{}}, nil
	}
	return c.Store.Stats(ctx, 20)
}
