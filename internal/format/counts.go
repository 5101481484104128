package format

import (
	"fmt"
	"math"
	"strings"
)

type zoneCount struct {
	name       string
	online     float64
	offline    float64
	total      float64
	pct        float64
	pctVerbose string
}

func round1(f float64) float64 {
	return math.Round(f*10) / 10
}

func percent(part, total float64) float64 {
	if total == 0 {
		return 0
	}
	return round1(part / total * 100)
}

func count(f float64) string {
	if f == math.Trunc(f) {
		return fmt.Sprintf("%d", int64(f))
	}
	return fmt.Sprintf("%g", f)
}

// CollectorCounts renders the collector count summary with its per-zone breakdown.
func CollectorCounts(payload any) string {
	m, ok := payload.(map[string]any)
	if !ok {
		return "The collector count endpoint returned an unexpected payload shape:\n" + rawJSON(payload)
	}

	online, onlineOK := number(firstPresent(m, "online", "onlineCollectorsCount"))
	offline, offlineOK := number(firstPresent(m, "offline", "offlineCollectorsCount"))
	total, totalOK := number(firstPresent(m, "count", "total"))
	if !totalOK && (onlineOK || offlineOK) {
		total, totalOK = online+offline, true
	}

	var b strings.Builder
	b.WriteString("📊 **Collector System Overview**\n\n")
	if totalOK {
		fmt.Fprintf(&b, "• **Total Collectors:** %s\n", count(total))
	} else {
		b.WriteString("• **Total Collectors:** Unknown\n")
	}
	if totalOK && onlineOK {
		fmt.Fprintf(&b, "• **Online:** %s (%.1f%%)\n", count(online), percent(online, total))
		fmt.Fprintf(&b, "• **Offline:** %s (%.1f%%)\n", count(offline), percent(offline, total))
	} else {
		fmt.Fprintf(&b, "• **Online:** %s\n", unknownOr(online, onlineOK))
		fmt.Fprintf(&b, "• **Offline:** %s\n", unknownOr(offline, offlineOK))
	}

	raw, ok := m["zonewiseCollectorCount"].([]any)
	if !ok {
		b.WriteString("\n⚠️ Zone data not available in expected format")
		return b.String()
	}

	zonesOut := make([]zoneCount, 0, len(raw))
	for _, item := range raw {
		zm, ok := item.(map[string]any)
		if !ok {
			continue
		}
		z := zoneCount{name: firstString(zm, "zoneName")}
		if z.name == "" {
			z.name = "Unknown Zone"
		}
		z.online, _ = number(zm["onlineCollectorsCount"])
		z.offline, _ = number(zm["offlineCollectorsCount"])
		z.total = z.online + z.offline
		if p, ok := number(zm["offlineCollectorPercentage"]); ok {
			z.pct = p
			z.pctVerbose = verbatim(zm["offlineCollectorPercentage"])
		} else {
			z.pct = percent(z.offline, z.total)
			z.pctVerbose = fmt.Sprintf("%.1f", z.pct)
		}
		zonesOut = append(zonesOut, z)
	}

	b.WriteString("\n🗺️ **Zone Breakdown:**\n")
	for _, z := range zonesOut {
		fmt.Fprintf(&b, "• **%s:** %s total (%s online, %s offline - %s%%)\n",
			z.name, count(z.total), count(z.online), count(z.offline), z.pctVerbose)
	}

	if len(zonesOut) > 0 {
		worst, best := zonesOut[0], zonesOut[0]
		for _, z := range zonesOut[1:] {
			if z.pct > worst.pct {
				worst = z
			}
			if z.pct < best.pct {
				best = z
			}
		}
		if worst.pct > 0 {
			fmt.Fprintf(&b, "\n⚠️ **Zone with Highest Offline Rate:** %s (%s%%)", worst.name, worst.pctVerbose)
		}
		fmt.Fprintf(&b, "\n✅ **Best Performing Zone:** %s (%s%% offline)", best.name, best.pctVerbose)
	}
	return strings.TrimRight(b.String(), "\n")
}

func firstPresent(m map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := m[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

func unknownOr(f float64, ok bool) string {
	if !ok {
		return "Unknown"
	}
	return count(f)
}
