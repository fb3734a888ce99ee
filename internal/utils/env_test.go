package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSafeEnv(t *testing.T) {
	const key = "_CLUBSITE_TEST_SAFEENV"
	t.Setenv(key, "")
	assert.Equal(t, "fallback", SafeEnv(key, "fallback"))
	t.Setenv(key, "  value ")
	assert.Equal(t, "value", SafeEnv(key, "fallback"))
}

func TestTypedEnvHelpers(t *testing.T) {
	t.Setenv("_CLUBSITE_INT", "42")
	t.Setenv("_CLUBSITE_BAD_INT", "forty")
	t.Setenv("_CLUBSITE_BOOL", "true")
	t.Setenv("_CLUBSITE_DUR", "90s")
	t.Setenv("_CLUBSITE_LIST", "https://a.example, ,https://b.example")
	t.Setenv("_CLUBSITE_CHAT", "-1001234567890")

	assert.Equal(t, 42, EnvInt("_CLUBSITE_INT", 1))
	assert.Equal(t, 1, EnvInt("_CLUBSITE_BAD_INT", 1))
	assert.True(t, EnvBool("_CLUBSITE_BOOL", false))
	assert.Equal(t, 90*time.Second, EnvDuration("_CLUBSITE_DUR", time.Second))
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, EnvList("_CLUBSITE_LIST", nil))
	assert.Equal(t, int64(-1001234567890), EnvInt64("_CLUBSITE_CHAT", 0))
	assert.Equal(t, []string{"x"}, EnvList("_CLUBSITE_UNSET", []string{"x"}))
}
