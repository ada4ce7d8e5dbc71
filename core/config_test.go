package core

import (
	"os"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setEnv(t *testing.T, key, value string) {
	orig, had := os.LookupEnv(key)
	require.NoError(t, os.Setenv(key, value))
	t.Cleanup(func() {
		if had {
			_ = os.Setenv(key, orig)
		} else {
			_ = os.Unsetenv(key)
		}
	})
}

func TestNewConfig(t *testing.T) {
	setEnv(t, "ENV", "test")
	setEnv(t, "TEST_SERVER_HOST", ":9000")
	setEnv(t, "TEST_SCHOOL_TIMEZONE", "Europe/Paris")

	conf := NewConfig()
	assert.Equal(t, "TEST", conf.Env)
	assert.True(t, conf.TestMode)
	assert.Equal(t, ":9000", conf.Server.Host)
	assert.Equal(t, "Europe/Paris", conf.School.Timezone)
	assert.Equal(t, 10, conf.School.LeaderboardSize)
	assert.Equal(t, EnginePostgres, conf.Database.Engine)
}

func TestNewConfig_flags(t *testing.T) {
	setEnv(t, "ENV", "test")
	setEnv(t, "TEST_SERVER_HOST", ":9000")

	flags := pflag.NewFlagSet("api", pflag.ContinueOnError)
	flags.String("server.host", ":8000", "")
	flags.String("database.engine", EnginePostgres, "")
	require.NoError(t, flags.Parse([]string{"--server.host", ":7000", "--database.engine", EngineMemory}))

	conf := NewConfig(flags)
	assert.Equal(t, ":7000", conf.Server.Host, "flags take precedence over env")
	assert.Equal(t, EngineMemory, conf.Database.Engine)
}
