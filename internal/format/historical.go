package format

import (
	"fmt"
	"strings"

	"grid-assistant-service/internal/query"
)

// Historical renders a purely temporal KPI series. With a date in text only the
// records starting on that date are shown; a date with no records, or a day
// that does not exist, gets an explicit no-data answer, never a neighbouring value.
func Historical(title string, payload any, text string) string {
	recs, ok := records(payload)
	if !ok || len(recs) == 0 {
		return fmt.Sprintf("**%s**: No data available", title)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "**%s**\n\n", title)

	target, hasDate := query.ExtractDate(text)
	if !hasDate {
		if d, mentioned := query.DateMention(text); mentioned {
			return noDataFor(&b, fmt.Sprintf("2025-08-%02d", d), false, availableDates(recs))
		}
		last := recs[len(recs)-1]
		when := firstString(last, "timestamp", "startTime")
		if when == "" {
			when = "Recent"
		}
		fmt.Fprintf(&b, "📈 **Most Recent Data:** %s%% on %s\n\n", verbatim(last["value"]), day(when))
		var points strings.Builder
		for _, r := range recs {
			start := firstString(r, "startTime")
			if start == "" {
				continue
			}
			fmt.Fprintf(&points, "• %s: %s%%\n", day(start), verbatim(r["value"]))
		}
		if points.Len() == 0 {
			b.WriteString("📅 **Data Points:** No dated data points available.")
			return b.String()
		}
		b.WriteString("📅 **Data Points:**\n")
		b.WriteString(points.String())
		return strings.TrimRight(b.String(), "\n")
	}

	want := target.Format(query.DateLayout)
	var matched []map[string]any
	for _, r := range recs {
		if strings.HasPrefix(firstString(r, "startTime"), want) {
			matched = append(matched, r)
		}
	}
	if len(matched) == 0 {
		return noDataFor(&b, want, query.InWindow(target), availableDates(recs))
	}

	fmt.Fprintf(&b, "📅 **Data for %s:**\n", want)
	for _, r := range matched {
		fmt.Fprintf(&b, "• %s: %s%%\n", day(firstString(r, "startTime")), verbatim(r["value"]))
	}
	return strings.TrimRight(b.String(), "\n")
}

// noDataFor answers a date that has no records, or that is not a real day.
func noDataFor(b *strings.Builder, want string, inWindow bool, available []string) string {
	fmt.Fprintf(b, "No data available for the specified date (%s).", want)
	if !inWindow {
		fmt.Fprintf(b, " The reporting window covers %s to %s.",
			query.WindowStart.Format(query.DateLayout), query.WindowEnd.Format(query.DateLayout))
	}
	if len(available) > 0 {
		fmt.Fprintf(b, "\nAvailable dates: %s", strings.Join(available, ", "))
	}
	return b.String()
}

func availableDates(recs []map[string]any) []string {
	var out []string
	seen := map[string]bool{}
	for _, r := range recs {
		if d := day(firstString(r, "startTime")); d != "" && !seen[d] {
			seen[d] = true
			out = append(out, d)
		}
	}
	return out
}
