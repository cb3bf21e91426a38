package config

import (
	"github.com/creasty/defaults"
	"github.com/google/go-cmp/cmp"
	"github.com/icinga/icinga-livestatus/pkg/logging"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestFromYAMLFile(t *testing.T) {
	const miniConf = `
listen:
  socket: /run/icinga-livestatus/live
  threads: 20

logging:
  output: console
`

	subtests := []struct {
		name   string
		input  string
		output *Config
	}{
		{
			name:  "mini",
			input: miniConf,
			output: func() *Config {
				c := &Config{}
				_ = defaults.Set(c)

				c.Listen.Threads = 20
				c.Logging.Output = logging.CONSOLE

				return c
			}(),
		},
		{
			name: "redis",
			input: miniConf + `
core:
  backend: redis
  redis:
    address: /run/icinga2/redis.sock
  refresh_interval: 1m

metrics:
  address: localhost:9642
`,
			output: func() *Config {
				c := &Config{}
				_ = defaults.Set(c)

				c.Listen.Threads = 20
				c.Logging.Output = logging.CONSOLE
				c.Core.Backend = Redis
				c.Core.Redis.Address = "/run/icinga2/redis.sock"
				c.Core.RefreshInterval = time.Minute
				c.Metrics.Address = "localhost:9642"

				return c
			}(),
		},
		{
			name:  "logging-options",
			input: miniConf + "  options:\n    server: debug\n",
			output: func() *Config {
				c := &Config{}
				_ = defaults.Set(c)

				c.Listen.Threads = 20
				c.Logging.Output = logging.CONSOLE
				c.Logging.Options = logging.Options{"server": zapcore.DebugLevel}

				return c
			}(),
		},
		{
			name:   "mini-with-unknown",
			input:  miniConf + "\nunknown: 42",
			output: nil,
		},
		{
			name:   "invalid-backend",
			input:  miniConf + "\ncore:\n  backend: livestatus\n",
			output: nil,
		},
		{
			name:   "redis-without-address",
			input:  miniConf + "\ncore:\n  backend: redis\n",
			output: nil,
		},
		{
			name:   "invalid-mode",
			input:  "listen:\n  mode: rw-rw----\n",
			output: nil,
		},
		{
			name:   "no-threads",
			input:  "listen:\n  threads: 0\n",
			output: nil,
		},
	}

	for _, st := range subtests {
		t.Run(st.name, func(t *testing.T) {
			name := filepath.Join(t.TempDir(), "config.yml")
			require.NoError(t, os.WriteFile(name, []byte(st.input), 0o600))

			if actual, err := FromYAMLFile(name); st.output == nil {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
				require.Empty(t, cmp.Diff(st.output, actual))
			}
		})
	}
}

func TestFromYAMLFile_Missing(t *testing.T) {
	_, err := FromYAMLFile(filepath.Join(t.TempDir(), "config.yml"))
	require.Error(t, err)
}

func TestListen_FileMode(t *testing.T) {
	subtests := []struct {
		name  string
		mode  string
		error bool
		want  os.FileMode
	}{
		{name: "group", mode: "0660", want: 0o660},
		{name: "world", mode: "666", want: 0o666},
		{name: "not-octal", mode: "0990", error: true},
		{name: "too-large", mode: "01777", error: true},
	}

	for _, st := range subtests {
		t.Run(st.name, func(t *testing.T) {
			l := &Listen{Mode: st.mode}
			mode, err := l.FileMode()
			if st.error {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
				require.Equal(t, st.want, mode)
			}
		})
	}
}
