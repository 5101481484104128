package format

import (
	"fmt"
	"strings"

	"grid-assistant-service/internal/query"
)

// CollectorStatus selects the wording and polarity of a collector list.
type CollectorStatus int

const (
	// OfflineCollectors: an empty list is good news.
	OfflineCollectors CollectorStatus = iota
	// OnlineCollectors: an empty list is a warning.
	OnlineCollectors
)

func (s CollectorStatus) label() string {
	if s == OnlineCollectors {
		return "online"
	}
	return "offline"
}

const (
	zoneListCap = 10
	fullListCap = 5
)

type collector struct {
	id   string
	name string
	zone string
}

func parseCollectors(payload any) ([]collector, int, bool) {
	var list []any
	total := -1
	switch v := payload.(type) {
	case []any:
		list = v
	case map[string]any:
		l, ok := v["collectors"].([]any)
		if !ok {
			recs, ok := records(v)
			if !ok {
				return nil, 0, false
			}
			for _, r := range recs {
				list = append(list, r)
			}
		} else {
			list = l
		}
		if n, ok := number(v["totalCount"]); ok {
			total = int(n)
		}
	default:
		return nil, 0, false
	}

	out := make([]collector, 0, len(list))
	for i, item := range list {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		c := collector{
			id:   firstString(m, "collectorId", "id"),
			name: firstString(m, "collectorName", "name", "deviceName"),
			zone: firstString(m, "zoneName", "zone", "location", "site"),
		}
		if c.id == "" {
			c.id = "unknown"
		}
		if c.name == "" {
			c.name = fmt.Sprintf("Collector %d", i+1)
		}
		if c.zone == "" {
			c.zone = "Unknown Zone"
		}
		out = append(out, c)
	}
	if total < 0 {
		total = len(out)
	}
	return out, total, true
}

// CollectorList renders a collector status payload. When text names a zone the
// list is narrowed to that zone first.
func CollectorList(payload any, text string, status CollectorStatus) string {
	items, total, ok := parseCollectors(payload)
	if !ok {
		return fmt.Sprintf("The %s collectors endpoint returned an unexpected payload shape:\n%s", status.label(), rawJSON(payload))
	}

	if total == 0 && len(items) == 0 {
		if status == OfflineCollectors {
			return "✅ **Great news!** All collectors are currently online. No offline devices found."
		}
		return "⚠️ No online collectors found. This might indicate a system issue."
	}

	if ref, ok := query.ExtractZone(text); ok {
		return renderZoneCollectors(items, ref, status)
	}

	var b strings.Builder
	if status == OfflineCollectors {
		fmt.Fprintf(&b, "📱 **Offline Collectors Found:** %d total\n\n", total)
	} else {
		fmt.Fprintf(&b, "📶 **Online Collectors Found:** %d total\n\n", total)
	}
	shown := min(len(items), fullListCap)
	for i, c := range items[:shown] {
		fmt.Fprintf(&b, "%d. **%s** in %s (ID: %s)\n", i+1, c.name, c.zone, c.id)
	}
	if rest := len(items) - shown; rest > 0 {
		fmt.Fprintf(&b, "\n... and %d more %s collectors", rest, status.label())
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderZoneCollectors(items []collector, ref query.ZoneRef, status CollectorStatus) string {
	var matched []collector
	for _, c := range items {
		if strings.EqualFold(c.zone, ref.Name) || (ref.ID != "" && strings.EqualFold(c.zone, ref.ID)) {
			matched = append(matched, c)
		}
	}

	if len(matched) == 0 {
		if status == OfflineCollectors {
			return fmt.Sprintf("✅ **Good news!** No offline collectors found in %s zone.", ref.Name)
		}
		return fmt.Sprintf("⚠️ No online collectors found in %s zone. This might indicate a system issue.", ref.Name)
	}

	var b strings.Builder
	if status == OfflineCollectors {
		fmt.Fprintf(&b, "📱 **Offline Collectors in %s:** %d found\n\n", ref.Name, len(matched))
	} else {
		fmt.Fprintf(&b, "📶 **Online Collectors in %s:** %d found\n\n", ref.Name, len(matched))
	}
	shown := min(len(matched), zoneListCap)
	for i, c := range matched[:shown] {
		fmt.Fprintf(&b, "%d. **%s** (ID: %s)\n", i+1, c.name, c.id)
	}
	if rest := len(matched) - shown; rest > 0 {
		fmt.Fprintf(&b, "\n... and %d more %s collectors in this zone", rest, status.label())
	}
	return strings.TrimRight(b.String(), "\n")
}
