package reporting

import (
	"net/url"
	"strings"
	"time"
)

const (
	DefaultCollectorBaseURL = "https://irenoakscluster.westus.cloudapp.azure.com/devicemgmt/v1/collector"
	DefaultKPIBaseURL       = "https://irenoakscluster.westus.cloudapp.azure.com/kpimgmt/v1/kpi"

	// KPI timestamps are sent as MM-DD-YYYY HH:MM:SS.
	kpiTimeLayout = "01-02-2006 15:04:05"

	commodityFilter = "(MeterCommodityType=E)"
)

type Interval string

const (
	Daily   Interval = "Daily"
	Weekly  Interval = "Weekly"
	Monthly Interval = "Monthly"
)

const (
	KPIDailyIntervalRead   = "DailyIntervalReadSuccessPercentageByCommodityType"
	KPIDailyRegisterRead   = "DailyRegisterReadSuccessPercentageByCommodityType"
	KPIWeeklyIntervalZone  = "WeeklyIntervalReadSuccessPercentageByZoneAndCommodityType"
	KPIMonthlyIntervalZone = "MonthlyIntervalReadSuccessPercentageByZoneAndCommodityType"
	KPIWeeklyRegisterZone  = "WeeklyRegisterReadSuccessPercentageByZoneAndCommodityType"
	KPIMonthlyRegisterZone = "MonthlyRegisterReadSuccessPercentageByZoneAndCommodityType"
)

// Window is an explicit KPI time range; End is the last covered day.
type Window struct {
	Start time.Time
	End   time.Time
}

type KPIQuery struct {
	Name     string
	Interval Interval
	Window   *Window
}

type Endpoints struct {
	CollectorBaseURL string
	KPIBaseURL       string
}

func (e Endpoints) collectorBase() string {
	base := strings.TrimRight(strings.TrimSpace(e.CollectorBaseURL), "/")
	if base == "" {
		return DefaultCollectorBaseURL
	}
	return base
}

func (e Endpoints) OfflineCollectors() string { return e.collectorBase() + "?status=offline" }
func (e Endpoints) OnlineCollectors() string  { return e.collectorBase() + "?status=online" }
func (e Endpoints) CollectorCount() string    { return e.collectorBase() + "/count" }

// KPI builds the KPI URL keeping the parameter order the endpoint documents.
func (e Endpoints) KPI(q KPIQuery) string {
	base := strings.TrimRight(strings.TrimSpace(e.KPIBaseURL), "/")
	if base == "" {
		base = DefaultKPIBaseURL
	}

	params := [][2]string{
		{"kpiName", q.Name},
		{"dataFilterCriteria", commodityFilter},
	}
	if q.Window != nil {
		end := time.Date(q.Window.End.Year(), q.Window.End.Month(), q.Window.End.Day(), 23, 59, 59, 0, time.UTC)
		params = append(params,
			[2]string{"startTime", q.Window.Start.Format(kpiTimeLayout)},
			[2]string{"endTime", end.Format(kpiTimeLayout)},
		)
	}
	params = append(params, [2]string{"interval", string(q.Interval)})

	parts := make([]string, 0, len(params))
	for _, p := range params {
		parts = append(parts, p[0]+"="+strings.ReplaceAll(url.QueryEscape(p[1]), "+", "%20"))
	}
	return base + "?" + strings.Join(parts, "&")
}
