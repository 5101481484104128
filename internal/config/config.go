package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

type Config struct {
	Port               string
	MetricsAddr        string
	AgentAPIKeys       map[string]struct{}
	AdminAPIKeys       map[string]struct{}
	CORSAllowedOrigins string
	Verbose            bool

	MockMode        bool
	LLMProvider     string
	OpenAIAPIKey    string
	OpenAIModel     string
	OpenAIBaseURL   string
	AnthropicAPIKey string
	AnthropicModel  string
	MaxToolCalls    int
	MemoryWindow    int
	PreambleFile    string

	CollectorBaseURL string
	KPIBaseURL       string
	ReportingTimeout time.Duration

	DocsBucket    string
	DocsRegion    string
	DocsEndpoint  string
	DocsAccessKey string
	DocsSecretKey string

	DatabaseURL   string
	AutoCreateDB  bool
	MaintenanceDB string
}

// DocsConfigured reports whether a document store location was given.
func (c Config) DocsConfigured() bool {
	return c.DocsRegion != "" || c.DocsEndpoint != ""
}

func getenv(key, def string) string {
	v := os.Getenv(key)
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

func getbool(key string) bool {
	v := strings.TrimSpace(os.Getenv(key))
	return strings.EqualFold(v, "true") || v == "1"
}

func getint(key string, def int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, v)
	}
	return n, nil
}

func parseCSVSet(v string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, part := range strings.Split(v, ",") {
		s := strings.TrimSpace(part)
		if s == "" {
			continue
		}
		out[s] = struct{}{}
	}
	return out
}

func Load() (Config, error) {
	goLog := strings.ToLower(strings.TrimSpace(os.Getenv("GO_LOG")))
	cfg := Config{
		Port:               strings.TrimSpace(getenv("PORT", "8091")),
		MetricsAddr:        strings.TrimSpace(getenv("METRICS_ADDR", ":9090")),
		CORSAllowedOrigins: strings.TrimSpace(os.Getenv("CORS_ALLOWED_ORIGINS")),
		Verbose:            goLog == "debug" || goLog == "1" || goLog == "true",

		MockMode:        getbool("MOCK_MODE"),
		LLMProvider:     strings.ToLower(strings.TrimSpace(getenv("LLM_PROVIDER", ProviderOpenAI))),
		OpenAIAPIKey:    strings.TrimSpace(os.Getenv("OPENAI_API_KEY")),
		OpenAIModel:     strings.TrimSpace(getenv("OPENAI_MODEL", "gpt-4o-mini")),
		OpenAIBaseURL:   strings.TrimSpace(getenv("OPENAI_BASE_URL", "https://api.openai.com/v1")),
		AnthropicAPIKey: strings.TrimSpace(os.Getenv("ANTHROPIC_API_KEY")),
		AnthropicModel:  strings.TrimSpace(getenv("ANTHROPIC_MODEL", "claude-3-5-haiku-latest")),
		PreambleFile:    strings.TrimSpace(os.Getenv("DATA_QUERY_PREAMBLE_FILE")),

		CollectorBaseURL: strings.TrimSpace(os.Getenv("COLLECTOR_BASE_URL")),
		KPIBaseURL:       strings.TrimSpace(os.Getenv("KPI_BASE_URL")),

		DocsBucket:    strings.TrimSpace(getenv("DOCS_BUCKET", "sopdocuments")),
		DocsRegion:    strings.TrimSpace(os.Getenv("DOCS_REGION")),
		DocsEndpoint:  strings.TrimSpace(os.Getenv("DOCS_ENDPOINT")),
		DocsAccessKey: strings.TrimSpace(os.Getenv("DOCS_ACCESS_KEY_ID")),
		DocsSecretKey: strings.TrimSpace(os.Getenv("DOCS_SECRET_ACCESS_KEY")),

		DatabaseURL:   strings.TrimSpace(os.Getenv("DATABASE_URL")),
		AutoCreateDB:  getbool("AUTO_CREATE_DB"),
		MaintenanceDB: strings.TrimSpace(getenv("MAINTENANCE_DB", "postgres")),
	}

	keysRaw := strings.TrimSpace(getenv("AGENT_API_KEYS", getenv("AGENT_API_KEY", "")))
	cfg.AgentAPIKeys = parseCSVSet(keysRaw)
	cfg.AdminAPIKeys = parseCSVSet(os.Getenv("ADMIN_API_KEYS"))
	// admin keys authenticate too
	for k := range cfg.AdminAPIKeys {
		cfg.AgentAPIKeys[k] = struct{}{}
	}

	var err error
	if cfg.MaxToolCalls, err = getint("MAX_TOOL_CALLS", 5); err != nil {
		return Config{}, err
	}
	if cfg.MemoryWindow, err = getint("MEMORY_WINDOW", 10); err != nil {
		return Config{}, err
	}
	cfg.ReportingTimeout = 15 * time.Second
	if v := strings.TrimSpace(os.Getenv("REPORTING_TIMEOUT")); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return Config{}, fmt.Errorf("invalid REPORTING_TIMEOUT: %q", v)
		}
		cfg.ReportingTimeout = d
	}

	if !cfg.MockMode {
		switch cfg.LLMProvider {
		case ProviderOpenAI:
			if cfg.OpenAIAPIKey == "" {
				return Config{}, errors.New("missing OPENAI_API_KEY")
			}
		case ProviderAnthropic:
			if cfg.AnthropicAPIKey == "" {
				return Config{}, errors.New("missing ANTHROPIC_API_KEY")
			}
		default:
			return Config{}, fmt.Errorf("unsupported LLM_PROVIDER: %q", cfg.LLMProvider)
		}
	}
	if len(cfg.AgentAPIKeys) == 0 {
		return Config{}, errors.New("missing AGENT_API_KEY (or AGENT_API_KEYS)")
	}
	if cfg.Port == "" {
		return Config{}, errors.New("missing PORT")
	}
	if cfg.DatabaseURL == "" {
		return Config{}, errors.New("missing DATABASE_URL")
	}

	return cfg, nil
}
