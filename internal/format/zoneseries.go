package format

import (
	"fmt"
	"sort"
	"strings"

	"grid-assistant-service/internal/query"
	"grid-assistant-service/internal/zones"
)

const rawFallbackCap = 10

type zonePoint struct {
	value float64
	start string
}

type zoneSeries struct {
	id     string
	name   string
	points []zonePoint
}

func (z *zoneSeries) mean() float64 {
	var sum float64
	for _, p := range z.points {
		sum += p.value
	}
	return sum / float64(len(z.points))
}

// zoneIDOf reads the zone identifier out of dataFilterCriteria, which arrives
// either as an object or as a legacy "(ZoneId=<uuid> AND ...)" string.
func zoneIDOf(criteria any) string {
	switch c := criteria.(type) {
	case map[string]any:
		if id := firstString(c, "zoneId", "ZoneId", "zoneID"); id != "" {
			return strings.ToLower(id)
		}
	case string:
		lower := strings.ToLower(c)
		if i := strings.Index(lower, "zoneid="); i >= 0 {
			return query.FindZoneID(lower[i:])
		}
	}
	return ""
}

// groupByZone keeps zones in order of first appearance and their records in
// payload order.
func groupByZone(recs []map[string]any) []*zoneSeries {
	var out []*zoneSeries
	byName := map[string]*zoneSeries{}
	for _, r := range recs {
		id := zoneIDOf(r["dataFilterCriteria"])
		if id == "" {
			continue
		}
		v, ok := number(r["value"])
		if !ok {
			continue
		}
		name := zones.NameFor(id)
		zs, ok := byName[name]
		if !ok {
			zs = &zoneSeries{id: id, name: name}
			byName[name] = zs
			out = append(out, zs)
		}
		zs.points = append(zs.points, zonePoint{value: v, start: firstString(r, "startTime")})
	}
	return out
}

// ZoneSeries renders a zone-segmented KPI series. A zone named in text yields
// either that zone's most recent value or an explicit no-data answer listing
// the zones that are present.
func ZoneSeries(title string, payload any, text string) string {
	recs, ok := records(payload)
	if !ok || len(recs) == 0 {
		return fmt.Sprintf("**%s**: No data available", title)
	}

	series := groupByZone(recs)
	if len(series) == 0 {
		return rawSeries(title, recs)
	}

	if ref, ok := query.ExtractZone(text); ok {
		return renderZoneLookup(title, series, ref)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "**%s**\n\n🌍 **Zone Performance Summary:**\n", title)
	sorted := make([]*zoneSeries, len(series))
	copy(sorted, series)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].name < sorted[j].name })
	for _, zs := range sorted {
		fmt.Fprintf(&b, "📍 **%s**: %.2f%%\n   *Zone ID: %s*\n", zs.name, zs.points[0].value, zs.id)
	}

	var sum float64
	var n int
	lo, hi := series[0].points[0].value, series[0].points[0].value
	for _, zs := range series {
		for _, p := range zs.points {
			sum += p.value
			n++
			lo = min(lo, p.value)
			hi = max(hi, p.value)
		}
	}
	best, worst := series[0], series[0]
	for _, zs := range series[1:] {
		if zs.mean() > best.mean() {
			best = zs
		}
		if zs.mean() < worst.mean() {
			worst = zs
		}
	}

	b.WriteString("\n**📊 System Overview:**\n")
	fmt.Fprintf(&b, "• System Average: %.2f%%\n", sum/float64(n))
	fmt.Fprintf(&b, "• Range: %.2f%% - %.2f%%\n", lo, hi)
	fmt.Fprintf(&b, "• Total Zones: %d\n", len(series))
	fmt.Fprintf(&b, "• Best Performing: %s (%.2f%%)\n", best.name, best.mean())
	fmt.Fprintf(&b, "• Needs Attention: %s (%.2f%%)", worst.name, worst.mean())
	return b.String()
}

func renderZoneLookup(title string, series []*zoneSeries, ref query.ZoneRef) string {
	for _, zs := range series {
		if zs.name != ref.Name {
			continue
		}
		p := zs.points[0]
		period := day(p.start)
		if period == "" {
			period = "N/A"
		}
		return fmt.Sprintf("**%s**\n\n✅ DATA FOUND - Zone %s Performance: %.2f%%\nZone ID: %s\nTime Period: %s\nSUCCESS: Data successfully retrieved for zone %s.",
			title, zs.name, p.value, zs.id, period, zs.name)
	}

	available := make([]string, 0, len(series))
	for _, zs := range series {
		available = append(available, zs.name)
	}
	subject := "zone " + ref.Name
	if ref.ByID {
		subject = "zone ID " + ref.ID
	}
	return fmt.Sprintf("**%s**\n\n❌ **No data found for %s**\nAvailable zones in data: %s",
		title, subject, strings.Join(available, ", "))
}

func rawSeries(title string, recs []map[string]any) string {
	var b strings.Builder
	fmt.Fprintf(&b, "**%s**\n\n", title)
	shown := min(len(recs), rawFallbackCap)
	for _, r := range recs[:shown] {
		label := verbatim(r["dataFilterCriteria"])
		if len(label) > 50 {
			label = label[:50] + "..."
		}
		fmt.Fprintf(&b, "📈 **%s**: %s%%\n", label, verbatim(r["value"]))
	}
	if rest := len(recs) - shown; rest > 0 {
		fmt.Fprintf(&b, "... and %d more records", rest)
	}
	return strings.TrimRight(b.String(), "\n")
}
