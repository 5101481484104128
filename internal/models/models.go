package models

import "time"

type ChatRequest struct {
	Message        string `json:"message"`
	ConversationID string `json:"conversation_id"`
}

type ChatResponse struct {
	Answer        string   `json:"answer"`
	NeedsLiveData bool     `json:"needs_live_data"`
	ToolsUsed     []string `json:"tools_used,omitempty"`
	Steps         []Step   `json:"steps,omitempty"`
}

// Step records one tool invocation made while answering.
type Step struct {
	Tool       string `json:"tool"`
	Input      string `json:"input,omitempty"`
	Output     string `json:"output,omitempty"`
	DurationMS int64  `json:"duration_ms"`
	Error      string `json:"error,omitempty"`
}

type Conversation struct {
	ConversationID string    `json:"conversation_id"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type Message struct {
	ID             int64     `json:"id"`
	ConversationID string    `json:"conversation_id"`
	Role           string    `json:"role"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"created_at"`
}

type LogEntry struct {
	ID             int64     `json:"id"`
	Level          string    `json:"level"`
	Message        string    `json:"message"`
	OwnerKey       string    `json:"-"`
	ConversationID string    `json:"conversation_id,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

type DashboardStats struct {
	Conversations int64      `json:"conversations"`
	Messages      int64      `json:"messages"`
	LogEntries    int64      `json:"log_entries"`
	ErrorEntries  int64      `json:"error_entries"`
	RecentLogs    []LogEntry `json:"recent_logs"`
}

type ConversationsResponse struct {
	Data Conversation `json:"data"`
}

type MessagesResponse struct {
	Data []Message `json:"data"`
}

type DashboardResponse struct {
	Data DashboardStats `json:"data"`
}
