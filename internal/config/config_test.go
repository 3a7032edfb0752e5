package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadAppliesDefaults(t *testing.T) {
	t.Setenv("GRADECORE_JWT_SECRET", "secret")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "GradeCore API", cfg.AppName)
	require.Equal(t, "8080", cfg.AppPort)
	require.Equal(t, "media", cfg.MediaRoot)
	require.Equal(t, ".java", cfg.SourceExtension)
	require.Equal(t, 50, cfg.MaxArchiveMB)
	require.Equal(t, "gradecore:runs", cfg.RunQueueName)
	require.Equal(t, "http://localhost:11434/v1", cfg.LLMBaseURL)
	require.Equal(t, 10*time.Minute, cfg.GenerationTimeout)
}

func TestLoadRequiresJWTSecret(t *testing.T) {
	t.Setenv("GRADECORE_JWT_SECRET", "")

	_, err := Load()
	require.Error(t, err)
}

func TestLoadNormalizesSourceExtension(t *testing.T) {
	t.Setenv("GRADECORE_JWT_SECRET", "secret")
	t.Setenv("GRADECORE_SOURCE_EXTENSION", "PY")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, ".py", cfg.SourceExtension)
}

func TestLoadRejectsBadTimeout(t *testing.T) {
	t.Setenv("GRADECORE_JWT_SECRET", "secret")
	t.Setenv("GRADECORE_GENERATION_TIMEOUT", "soon")

	_, err := Load()
	require.Error(t, err)
}

func TestHTTPAddress(t *testing.T) {
	require.Equal(t, ":8080", Config{AppPort: "8080"}.HTTPAddress())
	require.Equal(t, ":9000", Config{AppPort: ":9000"}.HTTPAddress())
}
