package tools

import (
	"strings"

	"grid-assistant-service/internal/query"
)

// Suggest picks a single tool for text by keyword. It backs the model-free
// mode and is not used when an agent is available.
func Suggest(text string) (string, bool) {
	s := strings.ToLower(strings.TrimSpace(text))
	if s == "" {
		return "", false
	}
	has := func(words ...string) bool {
		for _, w := range words {
			if strings.Contains(s, w) {
				return true
			}
		}
		return false
	}
	_, zoneMentioned := query.ExtractZone(s)

	switch {
	case has("sop", "procedure", "troubleshoot", "escalat", "policy"):
		return NameSearchSOPDocuments, true
	case has("kpi summary", "comprehensive", "overall performance", "health report"):
		return NameComprehensiveKPISummary, true
	case has("register read"):
		return readTool(s, zoneMentioned, NameRegisterReadLast7Days, NameRegisterReadZoneWeekly, NameRegisterReadZoneMonthly), true
	case has("interval read", "read success", "success rate"):
		return readTool(s, zoneMentioned, NameIntervalReadLast7Days, NameIntervalReadZoneWeekly, NameIntervalReadZoneMonthly), true
	case has("how many", "count", "total collectors", "which zone", "percentage"):
		return NameCollectorsCount, true
	case has("offline"):
		return NameOfflineCollectors, true
	case has("online"):
		return NameOnlineCollectors, true
	}
	return "", false
}

func readTool(s string, zoneMentioned bool, daily, weekly, monthly string) string {
	switch {
	case strings.Contains(s, "monthly") || strings.Contains(s, "month"):
		return monthly
	case zoneMentioned || strings.Contains(s, "zone") || strings.Contains(s, "weekly"):
		return weekly
	default:
		return daily
	}
}
