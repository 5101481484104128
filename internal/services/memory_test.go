package services

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGrid_Services_Memory_Window(t *testing.T) {
	t.Parallel()

	m := NewConversationMemory(2)
	for i := range 3 {
		m.Append("k", "c1",
			Turn{Role: "user", Content: fmt.Sprintf("q%d", i)},
			Turn{Role: "assistant", Content: fmt.Sprintf("a%d", i)},
		)
	}
	h := m.History("k", "c1")
	require.Len(t, h, 4)
	require.Equal(t, "q1", h[0].Content)
	require.Equal(t, "a2", h[3].Content)

	require.Empty(t, m.History("other", "c1"))
	require.Empty(t, m.History("k", "c2"))
}

func TestGrid_Services_Memory_SeedAndReset(t *testing.T) {
	t.Parallel()

	m := NewConversationMemory(0)
	require.Equal(t, 10, m.Window())

	m.Seed("k", "c1", []Turn{{Role: "user", Content: "from store"}})
	m.Seed("k", "c1", []Turn{{Role: "user", Content: "ignored"}})
	require.Equal(t, []Turn{{Role: "user", Content: "from store"}}, m.History("k", "c1"))

	m.Seed("k", "empty", nil)
	require.True(t, m.Has("k", "empty"))

	require.Equal(t, 2, m.Reset())
	require.Equal(t, 0, m.Len())
	require.False(t, m.Has("k", "c1"))
}

func TestGrid_Services_Memory_Concurrent(t *testing.T) {
	t.Parallel()

	m := NewConversationMemory(10)
	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			conv := fmt.Sprintf("c%d", i%4)
			m.Append("k", conv, Turn{Role: "user", Content: "x"})
			_ = m.History("k", conv)
		}()
	}
	wg.Wait()
	require.Equal(t, 4, m.Len())
}

func TestGrid_Services_Preamble(t *testing.T) {
	t.Parallel()

	require.Equal(t, "q", ApplyPreamble("", "q"))
	require.Equal(t, "before q after", ApplyPreamble("before {{question}} after", "q"))
	require.Equal(t, "Use tools.\n\nq", ApplyPreamble("Use tools.\n", "q"))

	out := ApplyPreamble(DefaultPreamble, "offline collectors in Queens")
	require.Contains(t, out, "Operator question: offline collectors in Queens")
	require.NotContains(t, out, "{{question}}")
}

func TestGrid_Services_LoadPreamble(t *testing.T) {
	t.Parallel()

	p, err := LoadPreamble("")
	require.NoError(t, err)
	require.Equal(t, DefaultPreamble, p)

	dir := t.TempDir()
	path := filepath.Join(dir, "preamble.txt")
	require.NoError(t, os.WriteFile(path, []byte("Always call a tool. {{question}}"), 0o600))
	p, err = LoadPreamble(path)
	require.NoError(t, err)
	require.Equal(t, "Always call a tool. {{question}}", p)

	blank := filepath.Join(dir, "blank.txt")
	require.NoError(t, os.WriteFile(blank, []byte("  \n"), 0o600))
	p, err = LoadPreamble(blank)
	require.NoError(t, err)
	require.Equal(t, DefaultPreamble, p)

	_, err = LoadPreamble(filepath.Join(dir, "missing.txt"))
	require.Error(t, err)
}
