package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"grid-assistant-service/internal/models"
	"grid-assistant-service/internal/reporting"
	"grid-assistant-service/internal/tools"

	"github.com/stretchr/testify/require"
)

type memStore struct {
	mu       sync.Mutex
	messages []models.Message
	logs     []models.LogEntry
}

func (s *memStore) AppendMessage(_ context.Context, ownerKey, conversationID, role, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, models.Message{
		ID:             int64(len(s.messages) + 1),
		ConversationID: conversationID,
		Role:           role,
		Content:        content,
		CreatedAt:      time.Now(),
	})
	return nil
}

func (s *memStore) ListMessages(_ context.Context, _, conversationID string, limit int) ([]models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Message
	for _, m := range s.messages {
		if m.ConversationID == conversationID {
			out = append(out, m)
		}
	}
	if len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

func (s *memStore) CreateConversation(context.Context, string) (models.Conversation, error) {
	return models.Conversation{ConversationID: "new"}, nil
}

func (s *memStore) GetConversation(_ context.Context, _, conversationID string) (models.Conversation, error) {
	return models.Conversation{ConversationID: conversationID}, nil
}

func (s *memStore) AppendLog(_ context.Context, entry models.LogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logs = append(s.logs, entry)
	return nil
}

func (s *memStore) Stats(context.Context, int) (models.DashboardStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return models.DashboardStats{Messages: int64(len(s.messages)), LogEntries: int64(len(s.logs)), RecentLogs: s.logs}, nil
}

func (s *memStore) roles() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.messages))
	for _, m := range s.messages {
		out = append(out, m.Role)
	}
	return out
}

type fakeAgent struct {
	mu       sync.Mutex
	requests []AgentRequest
	answer   string
	err      error
	callTool string
}

func (a *fakeAgent) Provider() string { return "fake" }
func (a *fakeAgent) Model() string    { return "fake-1" }

func (a *fakeAgent) Run(ctx context.Context, req AgentRequest) (AgentResult, error) {
	a.mu.Lock()
	a.requests = append(a.requests, req)
	a.mu.Unlock()
	if a.err != nil {
		return AgentResult{}, a.err
	}
	res := AgentResult{Answer: a.answer}
	if a.callTool != "" {
		runner := newToolRunner(testLogger(), req.Tools, 5, req.Utterance)
		out, _ := runner.run(ctx, a.callTool, `{"query":""}`)
		res.Answer = a.answer + out
		res.Steps = runner.steps
	}
	return res, nil
}

func (a *fakeAgent) last() AgentRequest {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.requests[len(a.requests)-1]
}

func testCatalog(t *testing.T) *tools.Catalog {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/collector/count":
			fmt.Fprint(w, `{"count":400,"online":350,"offline":50,"zonewiseCollectorCount":[{"zoneName":"Brooklyn","onlineCollectorsCount":350,"offlineCollectorsCount":50}]}`)
		case "/collector":
			fmt.Fprint(w, `{"collectors":[],"totalCount":0}`)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return tools.New(tools.Config{
		Logger:    testLogger(),
		Client:    reporting.NewClient(2*time.Second, testLogger()),
		Endpoints: reporting.Endpoints{CollectorBaseURL: srv.URL + "/collector", KPIBaseURL: srv.URL + "/kpi"},
	}).Catalog()
}

func TestGrid_Services_Chat_PreambleOnlyForDataQueries(t *testing.T) {
	t.Parallel()

	agent := &fakeAgent{answer: "ok"}
	svc := &ChatService{Logger: testLogger(), Agent: agent, Tools: testCatalog(t), Memory: NewConversationMemory(10)}

	resp, err := svc.Chat(context.Background(), "k", models.ChatRequest{Message: "hello"})
	require.NoError(t, err)
	require.False(t, resp.NeedsLiveData)
	require.Equal(t, "hello", agent.last().Message)
	require.Equal(t, DefaultSystemPrompt, agent.last().System)
	require.Len(t, agent.last().Tools, 11)

	resp, err = svc.Chat(context.Background(), "k", models.ChatRequest{Message: "offline collectors in Queens"})
	require.NoError(t, err)
	require.True(t, resp.NeedsLiveData)
	require.Contains(t, agent.last().Message, "This question needs live reporting data")
	require.Contains(t, agent.last().Message, "offline collectors in Queens")
	require.Equal(t, "offline collectors in Queens", agent.last().Utterance)
}

func TestGrid_Services_Chat_MemoryAndPersistence(t *testing.T) {
	t.Parallel()

	store := &memStore{}
	agent := &fakeAgent{answer: "first"}
	svc := &ChatService{Logger: testLogger(), Agent: agent, Store: store, Tools: testCatalog(t), Memory: NewConversationMemory(10)}

	_, err := svc.Chat(context.Background(), "k", models.ChatRequest{Message: "hello", ConversationID: "c1"})
	require.NoError(t, err)
	agent.answer = "second"
	_, err = svc.Chat(context.Background(), "k", models.ChatRequest{Message: "and now?", ConversationID: "c1"})
	require.NoError(t, err)

	h := agent.last().History
	require.Equal(t, []Turn{{Role: "user", Content: "hello"}, {Role: "assistant", Content: "first"}}, h)
	require.Equal(t, []string{"user", "assistant", "user", "assistant"}, store.roles())

	stats, err := svc.Dashboard(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(4), stats.Messages)
	require.Equal(t, int64(2), stats.LogEntries)
}

func TestGrid_Services_Chat_HydratesFromStore(t *testing.T) {
	t.Parallel()

	store := &memStore{}
	require.NoError(t, store.AppendMessage(context.Background(), "k", "c9", "user", "earlier question"))
	require.NoError(t, store.AppendMessage(context.Background(), "k", "c9", "assistant", "earlier answer"))

	agent := &fakeAgent{answer: "ok"}
	svc := &ChatService{Logger: testLogger(), Agent: agent, Store: store, Memory: NewConversationMemory(10)}
	_, err := svc.Chat(context.Background(), "k", models.ChatRequest{Message: "follow up", ConversationID: "c9"})
	require.NoError(t, err)

	require.Equal(t, []Turn{
		{Role: "user", Content: "earlier question"},
		{Role: "assistant", Content: "earlier answer"},
	}, agent.last().History)
}

func TestGrid_Services_Chat_ToolSteps(t *testing.T) {
	t.Parallel()

	agent := &fakeAgent{answer: "Here you go:\n", callTool: tools.NameCollectorsCount}
	svc := &ChatService{Logger: testLogger(), Agent: agent, Tools: testCatalog(t)}

	resp, err := svc.Chat(context.Background(), "k", models.ChatRequest{Message: "how many collectors?"})
	require.NoError(t, err)
	require.Equal(t, []string{tools.NameCollectorsCount}, resp.ToolsUsed)
	require.Contains(t, resp.Answer, "350 online, 50 offline - 12.5%")
	require.Len(t, resp.Steps, 1)
	require.Equal(t, "how many collectors?", resp.Steps[0].Input)
}

func TestGrid_Services_Chat_Errors(t *testing.T) {
	t.Parallel()

	store := &memStore{}
	svc := &ChatService{Logger: testLogger(), Agent: &fakeAgent{err: errors.New("llm down")}, Store: store}

	_, err := svc.Chat(context.Background(), "k", models.ChatRequest{Message: "   "})
	require.ErrorIs(t, err, ErrEmptyMessage)

	_, err = svc.Chat(context.Background(), "k", models.ChatRequest{Message: "hi", ConversationID: "c1"})
	require.EqualError(t, err, "llm down")
	require.Len(t, store.logs, 1)
	require.Equal(t, "ERROR", store.logs[0].Level)
}

func TestGrid_Services_Chat_MockMode(t *testing.T) {
	t.Parallel()

	svc := &ChatService{Logger: testLogger(), MockMode: true, Tools: testCatalog(t)}

	resp, err := svc.Chat(context.Background(), "k", models.ChatRequest{Message: "show offline collectors"})
	require.NoError(t, err)
	require.Equal(t, "✅ **Great news!** All collectors are currently online. No offline devices found.", resp.Answer)
	require.Equal(t, []string{tools.NameOfflineCollectors}, resp.ToolsUsed)

	resp, err = svc.Chat(context.Background(), "k", models.ChatRequest{Message: "hello"})
	require.NoError(t, err)
	require.Equal(t, mockHelp, resp.Answer)
	require.Empty(t, resp.ToolsUsed)
}

func TestGrid_Services_ChatStream_Chunks(t *testing.T) {
	t.Parallel()

	answer := strings.Repeat("abcdefghij", 5) + "✓"
	svc := &ChatService{Logger: testLogger(), Agent: &fakeAgent{answer: answer}}

	var chunks []string
	resp, err := svc.ChatStream(context.Background(), "k", models.ChatRequest{Message: "hello"}, func(s string) {
		chunks = append(chunks, s)
	})
	require.NoError(t, err)
	require.Equal(t, answer, resp.Answer)
	require.Len(t, chunks, 3)
	require.Equal(t, answer, strings.Join(chunks, ""))
}

func TestGrid_Services_ResetMemory(t *testing.T) {
	t.Parallel()

	store := &memStore{}
	svc := &ChatService{Logger: testLogger(), Agent: &fakeAgent{answer: "ok"}, Store: store, Memory: NewConversationMemory(10)}
	_, err := svc.Chat(context.Background(), "k", models.ChatRequest{Message: "hi", ConversationID: "a"})
	require.NoError(t, err)
	_, err = svc.Chat(context.Background(), "k", models.ChatRequest{Message: "hi", ConversationID: "b"})
	require.NoError(t, err)

	require.Equal(t, 2, svc.ResetMemory(context.Background(), "admin"))
	require.Equal(t, 0, svc.Memory.Len())
	require.Contains(t, store.logs[len(store.logs)-1].Message, "memory reset")
}
