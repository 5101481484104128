package services

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"grid-assistant-service/internal/tools"

	"github.com/stretchr/testify/require"
)

type fakeMessages struct {
	mu      sync.Mutex
	bodies  []string
	replies []string
}

func (f *fakeMessages) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, _ := io.ReadAll(r.Body)
	f.bodies = append(f.bodies, string(b))
	reply := f.replies[0]
	if len(f.replies) > 1 {
		f.replies = f.replies[1:]
	}
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprint(w, reply)
}

func anthropicReply(stopReason, content string) string {
	return fmt.Sprintf(`{"id":"msg_1","type":"message","role":"assistant","model":"claude-test",`+
		`"content":[%s],"stop_reason":%q,"stop_sequence":null,"usage":{"input_tokens":10,"output_tokens":5}}`, content, stopReason)
}

func newTestAnthropicAgent(t *testing.T, fake *fakeMessages, maxToolCalls int) *AnthropicAgent {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)
	client := anthropic.NewClient(
		option.WithAPIKey("test-key"),
		option.WithBaseURL(srv.URL+"/"),
		option.WithMaxRetries(0),
	)
	return NewAnthropicAgent(&AnthropicAgentConfig{
		Logger:       testLogger(),
		Client:       client,
		Model:        anthropic.Model("claude-test"),
		MaxToolCalls: maxToolCalls,
	})
}

func TestGrid_Services_AnthropicAgent_ToolLoop(t *testing.T) {
	t.Parallel()

	fake := &fakeMessages{replies: []string{
		anthropicReply("tool_use", `{"type":"text","text":"Let me check."},{"type":"tool_use","id":"toolu_1","name":"get_collectors_count","input":{"query":"collector count"}}`),
		anthropicReply("end_turn", `{"type":"text","text":"There are 400 collectors."}`),
	}}
	agent := newTestAnthropicAgent(t, fake, 5)
	require.Equal(t, "anthropic", agent.Provider())
	require.Equal(t, "claude-test", agent.Model())

	var calls []string
	res, err := agent.Run(context.Background(), AgentRequest{
		System:    "sys prompt",
		History:   []Turn{{Role: "user", Content: "earlier"}, {Role: "assistant", Content: "reply"}},
		Message:   "how many collectors",
		Utterance: "how many collectors",
		Tools:     []tools.Tool{echoTool("get_collectors_count", &calls)},
	})
	require.NoError(t, err)
	require.Equal(t, "There are 400 collectors.", res.Answer)
	require.Equal(t, []string{"collector count"}, calls)
	require.Len(t, res.Steps, 1)

	require.Len(t, fake.bodies, 2)
	require.Contains(t, fake.bodies[0], `"sys prompt"`)
	require.Contains(t, fake.bodies[0], `"get_collectors_count"`)
	require.Contains(t, fake.bodies[0], `"max_tokens":2048`)
	require.Contains(t, fake.bodies[1], `"tool_result"`)
	require.Contains(t, fake.bodies[1], `"toolu_1"`)
	require.Contains(t, fake.bodies[1], "get_collectors_count says collector count")
}

func TestGrid_Services_AnthropicAgent_Finalizes(t *testing.T) {
	t.Parallel()

	fake := &fakeMessages{replies: []string{
		anthropicReply("tool_use", `{"type":"tool_use","id":"toolu_1","name":"get_online_collectors","input":{}}`),
		anthropicReply("end_turn", `{"type":"text","text":"Done."}`),
	}}
	agent := newTestAnthropicAgent(t, fake, 1)

	var calls []string
	res, err := agent.Run(context.Background(), AgentRequest{
		Message:   "online collectors in Bronx",
		Utterance: "online collectors in Bronx",
		Tools:     []tools.Tool{echoTool("get_online_collectors", &calls)},
	})
	require.NoError(t, err)
	require.Equal(t, "Done.", res.Answer)
	require.Equal(t, []string{"online collectors in Bronx"}, calls)
	require.Len(t, fake.bodies, 2)
	require.Contains(t, fake.bodies[1], finalizePrompt)
}

func TestGrid_Services_AnthropicAgent_Error(t *testing.T) {
	t.Parallel()

	fake := &fakeMessages{replies: []string{`{"type":"error","error":{"type":"invalid_request_error","message":"bad"}}`}}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		fake.ServeHTTP(w, r)
	}))
	t.Cleanup(srv.Close)

	agent := NewAnthropicAgent(&AnthropicAgentConfig{
		Client: anthropic.NewClient(option.WithAPIKey("k"), option.WithBaseURL(srv.URL+"/"), option.WithMaxRetries(0)),
		Model:  anthropic.Model("claude-test"),
	})
	_, err := agent.Run(context.Background(), AgentRequest{Message: "hi"})
	require.ErrorContains(t, err, "failed to get response")
}
