package services

import (
	"fmt"
	"os"
	"strings"
)

const DefaultSystemPrompt = `You are the operations assistant for a utility grid monitoring platform.
You answer questions about collectors (online, offline, counts per zone), interval and register read
success KPIs, zone performance, and standard operating procedures.

Zones: Westchester, Manhattan, Brooklyn, Queens, Bronx, Staten Island. Operators may also refer to a
zone by its 36-character ID.

Rules:
- Use the tools for any live figure. Never estimate, interpolate or invent a number.
- Report values exactly as the tools return them.
- Daily read KPIs cover August 4 to August 11, 2025. For a date outside that range, say no data is available.
- If a tool reports no data for a date or a zone, say so and mention what is available instead.
- If a tool reports a failure, pass its guidance on to the operator.
- Answer conversational questions directly without tools.`

// DefaultPreamble wraps utterances classified as needing live data.
// {{question}} is replaced by the operator's text.
const DefaultPreamble = `This question needs live reporting data. Before answering:
1. Call the tool that matches the question, passing the operator's question as the query.
2. For a specific date, report only the value for that exact date.
3. For a specific zone name or zone ID, report only that zone.
4. Quote numbers exactly as returned; if the tool returns no data, say so.

Operator question: {{question}}`

const preamblePlaceholder = "{{question}}"

// ApplyPreamble renders preamble around question. A preamble without the
// placeholder gets the question appended.
func ApplyPreamble(preamble, question string) string {
	if strings.TrimSpace(preamble) == "" {
		return question
	}
	if strings.Contains(preamble, preamblePlaceholder) {
		return strings.ReplaceAll(preamble, preamblePlaceholder, question)
	}
	return strings.TrimRight(preamble, "\n") + "\n\n" + question
}

// LoadPreamble reads an operator-supplied preamble, falling back to the default.
func LoadPreamble(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return DefaultPreamble, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read preamble %s: %w", path, err)
	}
	if strings.TrimSpace(string(b)) == "" {
		return DefaultPreamble, nil
	}
	return string(b), nil
}
