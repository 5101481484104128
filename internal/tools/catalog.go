// Package tools exposes the reporting endpoints and document search as named
// tools an agent can call. Every tool returns text, including on failure.
package tools

import (
	"context"
	"sort"
	"strings"
	"sync"
)

type Tool struct {
	Name        string
	Description string
	Run         func(ctx context.Context, input string) string
}

// Catalog is the set of tools offered to the agent, looked up by name.
type Catalog struct {
	mu     sync.RWMutex
	order  []string
	byName map[string]Tool
}

func NewCatalog(tools ...Tool) *Catalog {
	c := &Catalog{byName: map[string]Tool{}}
	for _, t := range tools {
		c.Register(t)
	}
	return c
}

// Register adds t, replacing any tool with the same name in place.
func (c *Catalog) Register(t Tool) {
	name := strings.TrimSpace(t.Name)
	if name == "" || t.Run == nil {
		return
	}
	t.Name = name
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.byName[name]; !ok {
		c.order = append(c.order, name)
	}
	c.byName[name] = t
}

func (c *Catalog) Lookup(name string) (Tool, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.byName[strings.TrimSpace(name)]
	return t, ok
}

func (c *Catalog) IsAllowed(name string) bool {
	_, ok := c.Lookup(name)
	return ok
}

// Tools returns the tools in registration order.
func (c *Catalog) Tools() []Tool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Tool, 0, len(c.order))
	for _, n := range c.order {
		out = append(out, c.byName[n])
	}
	return out
}

func (c *Catalog) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, len(c.order))
	copy(out, c.order)
	sort.Strings(out)
	return out
}

func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.order)
}

// Call runs the named tool. ok is false when the tool is unknown.
func (c *Catalog) Call(ctx context.Context, name, input string) (string, bool) {
	t, ok := c.Lookup(name)
	if !ok {
		return "", false
	}
	return t.Run(ctx, input), true
}
