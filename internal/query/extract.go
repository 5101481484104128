// Package query pulls structured hints (dates, zones, live-data intent) out of
// free-form operator utterances.
package query

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"grid-assistant-service/internal/zones"
)

// Reporting window served by the daily KPI endpoints, inclusive on both ends.
var (
	WindowStart = time.Date(2025, time.August, 4, 0, 0, 0, 0, time.UTC)
	WindowEnd   = time.Date(2025, time.August, 11, 0, 0, 0, 0, time.UTC)
)

func InWindow(t time.Time) bool {
	d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return !d.Before(WindowStart) && !d.After(WindowEnd)
}

// DateLayout is the prefix format used when matching record start timestamps.
const DateLayout = "2006-01-02"

var datePatterns = []*regexp.Regexp{
	regexp.MustCompile(`\baugust (\d+)(?:st|nd|rd|th)?,? 2025`),
	regexp.MustCompile(`\baug (\d+)(?:st|nd|rd|th)?,? 2025`),
	regexp.MustCompile(`\b(\d+)(?:st|nd|rd|th)? august 2025`),
	regexp.MustCompile(`\b2025-08-(\d+)`),
}

// DateMention reports the day number of the first August 2025 date written in
// text, valid or not. The first pattern that matches decides.
func DateMention(text string) (int, bool) {
	s := strings.ToLower(text)
	for _, re := range datePatterns {
		m := re.FindStringSubmatch(s)
		if m == nil {
			continue
		}
		day, err := strconv.Atoi(m[1])
		if err != nil {
			// more digits than an int holds
			return 0, true
		}
		return day, true
	}
	return 0, false
}

// ExtractDate returns the first August 2025 date mentioned in text. A mention
// whose day is outside 1-31 yields no date. The result is not checked against
// the reporting window.
func ExtractDate(text string) (time.Time, bool) {
	day, ok := DateMention(text)
	if !ok || day < 1 || day > 31 {
		return time.Time{}, false
	}
	return time.Date(2025, time.August, day, 0, 0, 0, 0, time.UTC), true
}

var zoneIDPattern = regexp.MustCompile(`[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}`)

// ZoneRef is a zone mentioned in an utterance. ByID is set when the operator
// typed the identifier rather than the name.
type ZoneRef struct {
	ID   string
	Name string
	ByID bool
}

var zoneKeywords = []struct {
	keyword string
	name    string
}{
	{"brooklyn", "Brooklyn"},
	{"queens", "Queens"},
	{"bronx", "Bronx"},
	{"manhattan", "Manhattan"},
	{"westchester", "Westchester"},
	{"staten", "Staten Island"},
	{"island", "Staten Island"},
}

// ExtractZone prefers an explicit zone identifier anywhere in text and falls
// back to zone name keywords.
func ExtractZone(text string) (ZoneRef, bool) {
	s := strings.ToLower(text)
	if id := zoneIDPattern.FindString(s); id != "" {
		return ZoneRef{ID: id, Name: zones.NameFor(id), ByID: true}, true
	}
	for _, k := range zoneKeywords {
		if strings.Contains(s, k.keyword) {
			id, _ := zones.IDFor(k.name)
			return ZoneRef{ID: id, Name: k.name}, true
		}
	}
	return ZoneRef{}, false
}

// FindZoneID returns the first zone identifier embedded in s, lower-cased.
func FindZoneID(s string) string {
	return zoneIDPattern.FindString(strings.ToLower(s))
}
