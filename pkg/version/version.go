package version

import (
	"bufio"
	"fmt"
	"github.com/pkg/errors"
	"io"
	"os"
	"runtime"
	"runtime/debug"
	"strconv"
	"strings"
)

// hashLen is the length git describe truncates commit hashes to.
const hashLen = 7

// VersionInfo holds the version of a program and the commit it was built from.
type VersionInfo struct {
	Version string
	Commit  string
}

// Version determines the version and commit of the running binary.
//
// gitDescribe and gitHash are meant to be `git archive` placeholders replaced via the `export-subst` attribute:
//
//	var Version = version.Version("1.0.0", "$Format:%(describe)$", "$Format:%H$")
//
// Expanded placeholders take precedence. Otherwise version is suffixed with the commit
// recorded in the build information, if any.
func Version(version, gitDescribe, gitHash string) *VersionInfo {
	if !strings.HasPrefix(gitDescribe, "$") && !strings.HasPrefix(gitHash, "$") {
		if strings.HasPrefix(gitDescribe, "%") {
			// Git before 2.32 keeps %(describe) as-is.
			gitDescribe = withCommit(version, gitHash)
		}

		return &VersionInfo{Version: gitDescribe, Commit: gitHash}
	}

	info := &VersionInfo{Version: version}

	if bi, ok := debug.ReadBuildInfo(); ok {
		modified := false

		for _, setting := range bi.Settings {
			switch setting.Key {
			case "vcs.revision":
				info.Commit = setting.Value
			case "vcs.modified":
				modified, _ = strconv.ParseBool(setting.Value)
			}
		}

		if len(info.Commit) >= hashLen {
			info.Version = withCommit(version, info.Commit)

			if modified {
				info.Version += "-dirty"
				info.Commit += " (modified)"
			}
		}
	}

	return info
}

// String implements the fmt.Stringer interface.
func (v *VersionInfo) String() string {
	return v.Version
}

// Print writes the version, build and platform information of program to w.
func (v *VersionInfo) Print(w io.Writer, program string) {
	_, _ = fmt.Fprintf(w, "%s version: %s\n\n", program, v.Version)

	_, _ = fmt.Fprintln(w, "Build information:")
	_, _ = fmt.Fprintf(w, "  Go version: %s (%s, %s)\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
	if v.Commit != "" {
		_, _ = fmt.Fprintln(w, "  Git commit:", v.Commit)
	}

	if r, err := readOsRelease(); err == nil {
		_, _ = fmt.Fprintln(w)
		_, _ = fmt.Fprintln(w, "System information:")
		_, _ = fmt.Fprintln(w, "  Platform:", r.Name)
		_, _ = fmt.Fprintln(w, "  Platform version:", r.DisplayVersion())
	}
}

func withCommit(version, commit string) string {
	if len(commit) < hashLen {
		return version
	}

	return version + "-g" + commit[:hashLen]
}

// osRelease holds the fields of os-release(5) relevant for display.
type osRelease struct {
	Name      string
	Version   string
	VersionId string
	BuildId   string
}

// DisplayVersion returns VERSION, VERSION_ID or BUILD_ID, whichever is set first.
func (o *osRelease) DisplayVersion() string {
	for _, v := range []string{o.Version, o.VersionId, o.BuildId} {
		if v != "" {
			return v
		}
	}

	return "(unknown)"
}

func readOsRelease() (*osRelease, error) {
	for _, path := range []string{"/etc/os-release", "/usr/lib/os-release"} {
		f, err := os.Open(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}

			return nil, errors.Wrap(err, "can't open os-release file")
		}

		o, err := parseOsRelease(f)
		_ = f.Close()

		return o, err
	}

	return nil, errors.New("os-release file not found")
}

func parseOsRelease(r io.Reader) (*osRelease, error) {
	o := &osRelease{Name: "Linux"}

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "#") {
			continue
		}

		key, val, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}

		// Shell escapes aren't supported, quotes are only stripped.
		if len(val) >= 2 && (val[0] == '"' || val[0] == '\'') && val[0] == val[len(val)-1] {
			val = val[1 : len(val)-1]
		}

		switch key {
		case "NAME":
			o.Name = val
		case "VERSION":
			o.Version = val
		case "VERSION_ID":
			o.VersionId = val
		case "BUILD_ID":
			o.BuildId = val
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "can't read os-release file")
	}

	return o, nil
}
