package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func setBaseEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"PORT", "METRICS_ADDR", "CORS_ALLOWED_ORIGINS", "GO_LOG", "MOCK_MODE", "LLM_PROVIDER",
		"OPENAI_API_KEY", "OPENAI_MODEL", "OPENAI_BASE_URL", "ANTHROPIC_API_KEY", "ANTHROPIC_MODEL",
		"DATA_QUERY_PREAMBLE_FILE", "COLLECTOR_BASE_URL", "KPI_BASE_URL", "REPORTING_TIMEOUT",
		"DOCS_BUCKET", "DOCS_REGION", "DOCS_ENDPOINT", "DOCS_ACCESS_KEY_ID", "DOCS_SECRET_ACCESS_KEY",
		"DATABASE_URL", "AUTO_CREATE_DB", "MAINTENANCE_DB", "AGENT_API_KEYS", "AGENT_API_KEY",
		"ADMIN_API_KEYS", "MAX_TOOL_CALLS", "MEMORY_WINDOW",
	} {
		t.Setenv(k, "")
	}
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("AGENT_API_KEYS", "k1, k2")
	t.Setenv("DATABASE_URL", "postgres://localhost/grid?sslmode=disable")
}

func TestGrid_Config_Load_Defaults(t *testing.T) {
	setBaseEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "8091", cfg.Port)
	require.Equal(t, ":9090", cfg.MetricsAddr)
	require.Equal(t, ProviderOpenAI, cfg.LLMProvider)
	require.Equal(t, "gpt-4o-mini", cfg.OpenAIModel)
	require.Equal(t, 5, cfg.MaxToolCalls)
	require.Equal(t, 10, cfg.MemoryWindow)
	require.Equal(t, 15*time.Second, cfg.ReportingTimeout)
	require.Equal(t, "sopdocuments", cfg.DocsBucket)
	require.False(t, cfg.DocsConfigured())
	require.False(t, cfg.Verbose)
	require.Len(t, cfg.AgentAPIKeys, 2)
	require.Empty(t, cfg.AdminAPIKeys)
}

func TestGrid_Config_Load_Overrides(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("LLM_PROVIDER", "Anthropic")
	t.Setenv("ANTHROPIC_API_KEY", "ak-test")
	t.Setenv("ADMIN_API_KEYS", "root")
	t.Setenv("REPORTING_TIMEOUT", "3s")
	t.Setenv("MAX_TOOL_CALLS", "8")
	t.Setenv("DOCS_REGION", "us-east-1")
	t.Setenv("GO_LOG", "debug")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, ProviderAnthropic, cfg.LLMProvider)
	require.Equal(t, 3*time.Second, cfg.ReportingTimeout)
	require.Equal(t, 8, cfg.MaxToolCalls)
	require.True(t, cfg.DocsConfigured())
	require.True(t, cfg.Verbose)
	require.Contains(t, cfg.AdminAPIKeys, "root")
	require.Contains(t, cfg.AgentAPIKeys, "root")
}

func TestGrid_Config_Load_Errors(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{name: "openai key", env: map[string]string{"OPENAI_API_KEY": ""}, wantErr: "missing OPENAI_API_KEY"},
		{name: "anthropic key", env: map[string]string{"LLM_PROVIDER": "anthropic"}, wantErr: "missing ANTHROPIC_API_KEY"},
		{name: "provider", env: map[string]string{"LLM_PROVIDER": "llama"}, wantErr: "unsupported LLM_PROVIDER"},
		{name: "agent keys", env: map[string]string{"AGENT_API_KEYS": " , "}, wantErr: "missing AGENT_API_KEY"},
		{name: "database", env: map[string]string{"DATABASE_URL": ""}, wantErr: "missing DATABASE_URL"},
		{name: "timeout", env: map[string]string{"REPORTING_TIMEOUT": "soon"}, wantErr: "invalid REPORTING_TIMEOUT"},
		{name: "tool calls", env: map[string]string{"MAX_TOOL_CALLS": "-1"}, wantErr: "invalid MAX_TOOL_CALLS"},
		{name: "memory", env: map[string]string{"MEMORY_WINDOW": "x"}, wantErr: "invalid MEMORY_WINDOW"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setBaseEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			require.Error(t, err)
			require.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestGrid_Config_Load_MockModeSkipsLLMKey(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("MOCK_MODE", "1")

	cfg, err := Load()
	require.NoError(t, err)
	require.True(t, cfg.MockMode)
}
