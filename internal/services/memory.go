package services

import "sync"

// ConversationMemory keeps the last Window exchanges of each conversation.
type ConversationMemory struct {
	mu     sync.Mutex
	window int
	turns  map[string][]Turn
}

func NewConversationMemory(window int) *ConversationMemory {
	if window <= 0 {
		window = 10
	}
	return &ConversationMemory{window: window, turns: map[string][]Turn{}}
}

func memoryKey(ownerKey, conversationID string) string {
	return ownerKey + "\x00" + conversationID
}

func (m *ConversationMemory) Window() int { return m.window }

func (m *ConversationMemory) History(ownerKey, conversationID string) []Turn {
	m.mu.Lock()
	defer m.mu.Unlock()
	src := m.turns[memoryKey(ownerKey, conversationID)]
	out := make([]Turn, len(src))
	copy(out, src)
	return out
}

func (m *ConversationMemory) Has(ownerKey, conversationID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.turns[memoryKey(ownerKey, conversationID)]
	return ok
}

// Append adds turns and drops the oldest beyond the window; an exchange is a
// user turn plus an assistant turn.
func (m *ConversationMemory) Append(ownerKey, conversationID string, turns ...Turn) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := memoryKey(ownerKey, conversationID)
	all := append(m.turns[k], turns...)
	if limit := m.window * 2; len(all) > limit {
		all = append([]Turn(nil), all[len(all)-limit:]...)
	}
	m.turns[k] = all
}

// Seed fills an unknown conversation; it is a no-op when one is already held.
func (m *ConversationMemory) Seed(ownerKey, conversationID string, turns []Turn) {
	m.mu.Lock()
	if _, ok := m.turns[memoryKey(ownerKey, conversationID)]; ok {
		m.mu.Unlock()
		return
	}
	m.turns[memoryKey(ownerKey, conversationID)] = nil
	m.mu.Unlock()
	m.Append(ownerKey, conversationID, turns...)
}

// Reset forgets every conversation and reports how many were held.
func (m *ConversationMemory) Reset() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := len(m.turns)
	m.turns = map[string][]Turn{}
	return n
}

func (m *ConversationMemory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.turns)
}
