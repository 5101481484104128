package tools

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"grid-assistant-service/internal/docsearch"
	"grid-assistant-service/internal/format"
	"grid-assistant-service/internal/metrics"
	"grid-assistant-service/internal/query"
	"grid-assistant-service/internal/reporting"
)

// DocumentSearcher is implemented by *docsearch.Searcher.
type DocumentSearcher interface {
	Search(ctx context.Context, q string) ([]docsearch.Result, error)
}

type Config struct {
	Logger    *slog.Logger
	Client    *reporting.Client
	Endpoints reporting.Endpoints
	// Docs is nil when no document store is configured.
	Docs DocumentSearcher
}

// Toolset binds the reporting endpoints and document search to tool functions.
type Toolset struct {
	log       *slog.Logger
	client    *reporting.Client
	endpoints reporting.Endpoints
	docs      DocumentSearcher
}

func New(cfg Config) *Toolset {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	client := cfg.Client
	if client == nil {
		client = reporting.NewClient(reporting.DefaultTimeout, log)
	}
	return &Toolset{
		log:       log,
		client:    client,
		endpoints: cfg.Endpoints,
		docs:      cfg.Docs,
	}
}

type kpiTool struct {
	name     string
	title    string
	subject  string
	kpi      reporting.KPIQuery
	temporal bool
}

func dailyWindow() *reporting.Window {
	return &reporting.Window{Start: query.WindowStart, End: query.WindowEnd}
}

// kpiTools is also the fixed order of the comprehensive summary.
func kpiTools() []kpiTool {
	return []kpiTool{
		{
			name:     NameIntervalReadLast7Days,
			title:    "Interval Read Success Rate (Aug 4-11, 2025)",
			subject:  "interval read data",
			kpi:      reporting.KPIQuery{Name: reporting.KPIDailyIntervalRead, Interval: reporting.Daily, Window: dailyWindow()},
			temporal: true,
		},
		{
			name:     NameRegisterReadLast7Days,
			title:    "Register Read Success Rate (Aug 4-11, 2025)",
			subject:  "register read data",
			kpi:      reporting.KPIQuery{Name: reporting.KPIDailyRegisterRead, Interval: reporting.Daily, Window: dailyWindow()},
			temporal: true,
		},
		{
			name:    NameIntervalReadZoneWeekly,
			title:   "Weekly Interval Read Success by Zone",
			subject: "weekly zone interval read data",
			kpi:     reporting.KPIQuery{Name: reporting.KPIWeeklyIntervalZone, Interval: reporting.Weekly},
		},
		{
			name:    NameIntervalReadZoneMonthly,
			title:   "Monthly Interval Read Success by Zone",
			subject: "monthly zone interval read data",
			kpi:     reporting.KPIQuery{Name: reporting.KPIMonthlyIntervalZone, Interval: reporting.Monthly},
		},
		{
			name:    NameRegisterReadZoneWeekly,
			title:   "Weekly Register Read Success by Zone",
			subject: "weekly zone register read data",
			kpi:     reporting.KPIQuery{Name: reporting.KPIWeeklyRegisterZone, Interval: reporting.Weekly},
		},
		{
			name:    NameRegisterReadZoneMonthly,
			title:   "Monthly Register Read Success by Zone",
			subject: "monthly zone register read data",
			kpi:     reporting.KPIQuery{Name: reporting.KPIMonthlyRegisterZone, Interval: reporting.Monthly},
		},
	}
}

// Tools returns every tool in the order they are offered to the agent.
func (t *Toolset) Tools() []Tool {
	out := []Tool{
		t.tool(NameOfflineCollectors, func(ctx context.Context, input string) string {
			return t.fetch(ctx, NameOfflineCollectors, "offline collectors data", t.endpoints.OfflineCollectors(), func(p any) string {
				return format.CollectorList(p, input, format.OfflineCollectors)
			})
		}),
		t.tool(NameOnlineCollectors, func(ctx context.Context, input string) string {
			return t.fetch(ctx, NameOnlineCollectors, "online collectors data", t.endpoints.OnlineCollectors(), func(p any) string {
				return format.CollectorList(p, input, format.OnlineCollectors)
			})
		}),
		t.tool(NameCollectorsCount, func(ctx context.Context, input string) string {
			return t.fetch(ctx, NameCollectorsCount, "collector count data", t.endpoints.CollectorCount(), format.CollectorCounts)
		}),
	}
	for _, k := range kpiTools() {
		out = append(out, t.tool(k.name, func(ctx context.Context, input string) string {
			return t.runKPI(ctx, k, input)
		}))
	}
	out = append(out,
		t.tool(NameComprehensiveKPISummary, t.summary),
		t.tool(NameSearchSOPDocuments, t.searchSOP),
	)
	return out
}

// Catalog returns a catalog holding every tool.
func (t *Toolset) Catalog() *Catalog {
	return NewCatalog(t.Tools()...)
}

func (t *Toolset) tool(name string, run func(ctx context.Context, input string) string) Tool {
	return Tool{Name: name, Description: Description(name), Run: t.guard(name, run)}
}

// guard turns a panic inside a tool into failure text.
func (t *Toolset) guard(name string, run func(ctx context.Context, input string) string) func(context.Context, string) string {
	return func(ctx context.Context, input string) (out string) {
		defer func() {
			if r := recover(); r != nil {
				t.log.Error("tool panicked", "tool", name, "panic", fmt.Sprint(r))
				metrics.ToolCallsTotal.WithLabelValues(name, "panic").Inc()
				out = fmt.Sprintf("Encountered an unexpected issue while running %s. Please try again or check the monitoring dashboard directly.", name)
			}
		}()
		return run(ctx, input)
	}
}

func (t *Toolset) runKPI(ctx context.Context, k kpiTool, input string) string {
	return t.fetch(ctx, k.name, k.subject, t.endpoints.KPI(k.kpi), func(p any) string {
		if k.temporal {
			return format.Historical(k.title, p, input)
		}
		return format.ZoneSeries(k.title, p, input)
	})
}

// fetch performs one reporting call and renders it. Every failure becomes text.
func (t *Toolset) fetch(ctx context.Context, tool, subject, url string, render func(any) string) string {
	start := time.Now()
	defer func() {
		metrics.ToolCallDuration.WithLabelValues(tool).Observe(time.Since(start).Seconds())
	}()

	status, body, err := t.client.Get(ctx, url)
	if err != nil {
		kind := reporting.KindOf(err)
		t.log.Error("tool request failed", "tool", tool, "endpoint", url, "status", status, "kind", string(kind), "error", err)
		metrics.ToolCallsTotal.WithLabelValues(tool, string(kind)).Inc()
		return failureText(subject, err)
	}

	payload, err := format.Decode(body)
	if err != nil {
		t.log.Error("tool response not json", "tool", tool, "endpoint", url, "status", status, "bytes", len(body), "error", err)
		metrics.ToolCallsTotal.WithLabelValues(tool, "decode").Inc()
		return fmt.Sprintf("The reporting service returned a response for %s that could not be read. Please try again later or report this to an administrator.", subject)
	}

	metrics.ToolCallsTotal.WithLabelValues(tool, "ok").Inc()
	return render(payload)
}

func failureText(subject string, err error) string {
	var re *reporting.RequestError
	if !errors.As(err, &re) {
		return fmt.Sprintf("Encountered an issue accessing %s. Please try again or check the monitoring dashboard manually.", subject)
	}
	switch re.Kind {
	case reporting.KindTimeout:
		return fmt.Sprintf("The reporting service is taking longer than usual to respond for %s. Please try again in a moment or check the monitoring dashboard directly.", subject)
	case reporting.KindConnection:
		return fmt.Sprintf("Unable to connect to the reporting service for %s. Please check the monitoring dashboard or contact the operations center.", subject)
	case reporting.KindStatus:
		return fmt.Sprintf("The reporting service returned an error (HTTP %d) for %s. Please verify access permissions or try again later.", re.StatusCode, subject)
	default:
		return fmt.Sprintf("Encountered an issue accessing %s. Please try again or check the monitoring dashboard manually.", subject)
	}
}

// summary calls the KPI tools one after another. A failing section does not
// affect the others.
func (t *Toolset) summary(ctx context.Context, input string) string {
	var b strings.Builder
	b.WriteString("📊 **Comprehensive KPI Summary**\n")
	for _, k := range kpiTools() {
		section := t.guard(k.name, func(ctx context.Context, input string) string {
			return t.runKPI(ctx, k, input)
		})(ctx, input)
		fmt.Fprintf(&b, "\n### %s\n%s\n", k.title, section)
	}
	return strings.TrimRight(b.String(), "\n")
}

const maxSOPResults = docsearch.DefaultMaxResults

func (t *Toolset) searchSOP(ctx context.Context, input string) string {
	q := strings.TrimSpace(input)
	if q == "" {
		return "Please provide a search query to find relevant SOP documents."
	}
	if t.docs == nil {
		return "SOP document search is not configured. Set DOCS_BUCKET and DOCS_REGION (or DOCS_ENDPOINT) to enable it."
	}

	start := time.Now()
	results, err := t.docs.Search(ctx, q)
	metrics.ToolCallDuration.WithLabelValues(NameSearchSOPDocuments).Observe(time.Since(start).Seconds())
	if errors.Is(err, docsearch.ErrNoDocuments) {
		metrics.ToolCallsTotal.WithLabelValues(NameSearchSOPDocuments, "empty").Inc()
		return "No SOP documents are available in document storage yet. Please upload documents or contact an administrator."
	}
	if err != nil {
		t.log.Error("sop search failed", "tool", NameSearchSOPDocuments, "error", err)
		metrics.ToolCallsTotal.WithLabelValues(NameSearchSOPDocuments, "error").Inc()
		return "Unable to search SOP documents right now. Please check the document storage connection or try again later."
	}
	metrics.ToolCallsTotal.WithLabelValues(NameSearchSOPDocuments, "ok").Inc()
	if len(results) == 0 {
		return fmt.Sprintf("No SOP documents matched %q. Try different keywords.", q)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📚 **SOP Search Results for %q:**\n", q)
	shown := min(len(results), maxSOPResults)
	for i, r := range results[:shown] {
		fmt.Fprintf(&b, "\n**%d. %s**\n%s\n", i+1, r.Title, r.Content)
	}
	if rest := len(results) - shown; rest > 0 {
		fmt.Fprintf(&b, "\n*(%d additional results found)*", rest)
	}
	return strings.TrimRight(b.String(), "\n")
}
