package version

import (
	"bytes"
	"github.com/stretchr/testify/require"
	"strings"
	"testing"
)

func TestVersion(t *testing.T) {
	subtests := []struct {
		name        string
		gitDescribe string
		gitHash     string
		version     string
		commit      string
	}{
		{
			name:        "archive",
			gitDescribe: "v1.0.0-3-g2b4c6d8",
			gitHash:     "2b4c6d8e0f1a2b3c4d5e6f708192a3b4c5d6e7f8",
			version:     "v1.0.0-3-g2b4c6d8",
			commit:      "2b4c6d8e0f1a2b3c4d5e6f708192a3b4c5d6e7f8",
		},
		{
			name:        "old-git",
			gitDescribe: "%(describe)",
			gitHash:     "2b4c6d8e0f1a2b3c4d5e6f708192a3b4c5d6e7f8",
			version:     "1.0.0-g2b4c6d8",
			commit:      "2b4c6d8e0f1a2b3c4d5e6f708192a3b4c5d6e7f8",
		},
	}

	for _, st := range subtests {
		t.Run(st.name, func(t *testing.T) {
			v := Version("1.0.0", st.gitDescribe, st.gitHash)
			require.Equal(t, st.version, v.Version)
			require.Equal(t, st.commit, v.Commit)
		})
	}

	t.Run("unexpanded", func(t *testing.T) {
		v := Version("1.0.0", "$Format:%(describe)$", "$Format:%H$")
		require.True(t, strings.HasPrefix(v.String(), "1.0.0"))
	})
}

func TestParseOsRelease(t *testing.T) {
	o, err := parseOsRelease(strings.NewReader("# comment\nNAME=\"Debian GNU/Linux\"\nVERSION_ID='12'\ngarbage\n"))
	require.NoError(t, err)
	require.Equal(t, "Debian GNU/Linux", o.Name)
	require.Equal(t, "12", o.DisplayVersion())

	o, err = parseOsRelease(strings.NewReader(""))
	require.NoError(t, err)
	require.Equal(t, "Linux", o.Name)
	require.Equal(t, "(unknown)", o.DisplayVersion())
}

func TestVersionInfo_Print(t *testing.T) {
	var buf bytes.Buffer
	(&VersionInfo{Version: "1.0.0", Commit: "abc"}).Print(&buf, "Icinga Livestatus")

	require.True(t, strings.HasPrefix(buf.String(), "Icinga Livestatus version: 1.0.0\n"))
	require.Contains(t, buf.String(), "  Git commit: abc\n")
}
