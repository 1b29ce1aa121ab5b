// Package version reports build metadata for the --version flag.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Set at link time, e.g.
//
//	go build -ldflags "-X github.com/ArbuzKaktus/ascii-converter/version.Version=1.2.0"
var (
	Version   string
	BuildDate string
)

// Derived from the running binary.
var (
	Revision  = vcsRevision()
	GoVersion = runtime.Version()
	GoOS      = runtime.GOOS
	GoArch    = runtime.GOARCH
)

// String returns a one-line summary such as
// "1.2.0 (rev abc123, built 2025-01-02, go1.25.0 linux/amd64)". Without
// ldflags the version falls back to the module version, then to "dev".
func String() string {
	v := Version
	if v == "" {
		v = moduleVersion()
	}

	built := ""
	if BuildDate != "" {
		built = ", built " + BuildDate
	}

	return fmt.Sprintf("%s (rev %s%s, %s %s/%s)", v, Revision, built, GoVersion, GoOS, GoArch)
}

func moduleVersion() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "dev"
	}

	switch info.Main.Version {
	case "", "(devel)":
		return "dev"
	}

	return info.Main.Version
}

// vcsRevision reads the commit stamped by the go tool. Uncommitted changes
// are marked with a "-dirty" suffix.
func vcsRevision() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "unknown"
	}

	settings := make(map[string]string, len(info.Settings))
	for _, s := range info.Settings {
		settings[s.Key] = s.Value
	}

	rev, ok := settings["vcs.revision"]
	if !ok {
		return "unknown"
	}

	if settings["vcs.modified"] == "true" {
		rev += "-dirty"
	}

	return rev
}
