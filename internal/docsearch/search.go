// Package docsearch finds relevant passages in standard operating procedure
// documents kept in a blob store.
package docsearch

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
)

const (
	DefaultMaxResults = 3
	maxContentLen     = 600
)

// ErrNoDocuments is returned when the store is reachable but holds no readable documents.
var ErrNoDocuments = errors.New("no documents found")

type Document struct {
	Key  string
	Text string
}

// Store lists and reads every document in the backing bucket.
type Store interface {
	Documents(ctx context.Context) ([]Document, error)
}

type Result struct {
	Title   string
	Content string
	Score   int
}

type Searcher struct {
	Store Store
}

func NewSearcher(store Store) *Searcher {
	return &Searcher{Store: store}
}

// Search returns every matching section ordered by score. Callers decide how
// many to show.
func (s *Searcher) Search(ctx context.Context, q string) ([]Result, error) {
	docs, err := s.Store.Documents(ctx)
	if err != nil {
		return nil, fmt.Errorf("load documents: %w", err)
	}
	if len(docs) == 0 {
		return nil, ErrNoDocuments
	}

	terms := Terms(q)
	if len(terms) == 0 {
		return nil, nil
	}

	var out []Result
	for _, d := range docs {
		for _, sec := range Sections(d) {
			if score := scoreSection(sec, terms); score > 0 {
				sec.Score = score
				out = append(out, sec)
			}
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out, nil
}

var stopwords = map[string]bool{
	"the": true, "and": true, "for": true, "what": true, "how": true, "are": true,
	"with": true, "this": true, "that": true, "from": true, "about": true, "does": true,
	"can": true, "you": true, "your": true, "our": true, "should": true, "when": true,
	"procedure": true, "procedures": true, "sop": true, "sops": true, "document": true,
}

var wordPattern = regexp.MustCompile(`[a-z0-9]+`)

// Terms lower-cases q and drops short words and stopwords.
func Terms(q string) []string {
	var out []string
	seen := map[string]bool{}
	for _, w := range wordPattern.FindAllString(strings.ToLower(q), -1) {
		if len(w) < 3 || stopwords[w] || seen[w] {
			continue
		}
		seen[w] = true
		out = append(out, w)
	}
	return out
}

var numberedHeading = regexp.MustCompile(`^\d+(\.\d+)*[.)]?\s+\S`)

func isHeading(line string) bool {
	t := strings.TrimSpace(line)
	if t == "" || len(t) > 80 {
		return false
	}
	if strings.HasPrefix(t, "#") {
		return true
	}
	if numberedHeading.MatchString(t) {
		return true
	}
	letters := strings.IndexFunc(t, func(r rune) bool { return r >= 'A' && r <= 'Z' }) >= 0
	return letters && strings.ToUpper(t) == t
}

// Sections splits a document at heading lines. Text before the first heading
// is titled with the document key.
func Sections(d Document) []Result {
	var out []Result
	title := d.Key
	var body []string
	flush := func() {
		content := strings.TrimSpace(strings.Join(body, "\n"))
		if content != "" {
			out = append(out, Result{Title: title, Content: content})
		}
		body = body[:0]
	}
	for _, line := range strings.Split(d.Text, "\n") {
		if isHeading(line) {
			flush()
			title = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(line), "#"))
			continue
		}
		body = append(body, line)
	}
	flush()

	for i := range out {
		if r := []rune(out[i].Content); len(r) > maxContentLen {
			out[i].Content = strings.TrimSpace(string(r[:maxContentLen])) + "..."
		}
	}
	return out
}

func scoreSection(r Result, terms []string) int {
	title := strings.ToLower(r.Title)
	content := strings.ToLower(r.Content)
	score := 0
	for _, t := range terms {
		score += 2 * strings.Count(title, t)
		score += strings.Count(content, t)
	}
	return score
}
