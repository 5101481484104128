package tools

const (
	NameOfflineCollectors       = "get_offline_collectors"
	NameOnlineCollectors        = "get_online_collectors"
	NameCollectorsCount         = "get_collectors_count"
	NameIntervalReadLast7Days   = "get_last_7_days_interval_read_success"
	NameRegisterReadLast7Days   = "get_last_7_days_register_read_success"
	NameIntervalReadZoneWeekly  = "get_interval_read_success_by_zone_weekly"
	NameIntervalReadZoneMonthly = "get_interval_read_success_by_zone_monthly"
	NameRegisterReadZoneWeekly  = "get_register_read_success_by_zone_weekly"
	NameRegisterReadZoneMonthly = "get_register_read_success_by_zone_monthly"
	NameComprehensiveKPISummary = "get_comprehensive_kpi_summary"
	NameSearchSOPDocuments      = "search_sop_documents"
)

// Descriptions are what the agent routes on.
var descriptions = map[string]string{
	NameOfflineCollectors: "Get the list of offline collectors. Use for questions about offline devices, " +
		"collectors that are down, or offline collectors in a specific zone (Brooklyn, Queens, Bronx, " +
		"Manhattan, Westchester, Staten Island). Pass the user's question as the input.",
	NameOnlineCollectors: "Get the list of online collectors. Use for questions about which collectors " +
		"are up, active or online, optionally within a zone. Pass the user's question as the input.",
	NameCollectorsCount: "Get total, online and offline collector counts with a per-zone breakdown and " +
		"offline percentages. Use for 'how many collectors', 'which zone has the most offline collectors', " +
		"or any zone comparison of collector status.",
	NameIntervalReadLast7Days: "Get daily interval read success percentages for Aug 4-11, 2025 " +
		"(system-wide, electric meters). Use for interval read questions about a specific date, the last 7 " +
		"days, or recent daily trends. Pass the user's question so a mentioned date can be matched exactly.",
	NameRegisterReadLast7Days: "Get daily register read success percentages for Aug 4-11, 2025 " +
		"(system-wide, electric meters). Use for register read questions about a specific date, the last 7 " +
		"days, or recent daily trends. Pass the user's question so a mentioned date can be matched exactly.",
	NameIntervalReadZoneWeekly: "Get weekly interval read success percentages per zone. Use for zone " +
		"comparisons, best or worst zone, or a specific zone name or zone ID for interval reads.",
	NameIntervalReadZoneMonthly: "Get monthly interval read success percentages per zone. Use for monthly " +
		"zone trends or a specific zone name or zone ID for interval reads over a month.",
	NameRegisterReadZoneWeekly: "Get weekly register read success percentages per zone. Use for zone " +
		"comparisons, best or worst zone, or a specific zone name or zone ID for register reads.",
	NameRegisterReadZoneMonthly: "Get monthly register read success percentages per zone. Use for monthly " +
		"zone trends or a specific zone name or zone ID for register reads over a month.",
	NameComprehensiveKPISummary: "Get a combined KPI report: daily interval and register reads plus weekly " +
		"and monthly zone performance. Use for broad 'KPI summary', 'overall performance' or 'system " +
		"health report' requests.",
	NameSearchSOPDocuments: "Search standard operating procedure documents. Use for questions about " +
		"procedures, troubleshooting steps, escalation paths or policies. Input is the search query.",
}

func Description(name string) string {
	return descriptions[name]
}
