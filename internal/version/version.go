// Package version exposes build information injected at link time.
package version

import "runtime"

// Set via -ldflags "-X github.com/staffboard/staffboard/internal/version.version=..."
var (
	version = "dev"
	commit  = "unknown"
)

type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	GoVersion string `json:"go_version"`
}

func Get() Info {
	return Info{
		Version:   version,
		Commit:    commit,
		GoVersion: runtime.Version(),
	}
}
