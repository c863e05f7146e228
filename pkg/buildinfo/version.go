// Package buildinfo reports which waterfall build is running.
//
// Release builds stamp the variables with ldflags:
//
//	go build -ldflags "-X github.com/matzehuels/waterfall/pkg/buildinfo.Version=v0.3.0 \
//	    -X github.com/matzehuels/waterfall/pkg/buildinfo.Commit=$(git rev-parse HEAD)"
//
// Unstamped builds fall back to the module version and VCS settings the Go
// toolchain records, so "go install ...@v0.3.0" still reports v0.3.0.
package buildinfo

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"sync"
)

// Stamped at link time.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// Info is the resolved build identity.
type Info struct {
	Version   string
	Commit    string
	Date      string
	GoVersion string
}

var resolved = sync.OnceValue(func() Info {
	bi, ok := debug.ReadBuildInfo()
	return resolve(bi, ok)
})

// Get returns the build identity, stamped values first.
func Get() Info { return resolved() }

func resolve(bi *debug.BuildInfo, ok bool) Info {
	info := Info{Version: Version, Commit: Commit, Date: Date, GoVersion: runtime.Version()}
	if !ok || bi == nil {
		return info
	}
	if info.Version == "dev" && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		info.Version = bi.Main.Version
	}
	for _, s := range bi.Settings {
		switch {
		case s.Key == "vcs.revision" && info.Commit == "none":
			info.Commit = s.Value
		case s.Key == "vcs.time" && info.Date == "unknown":
			info.Date = s.Value
		}
	}
	return info
}

// String returns the multi-line form printed by --version.
func (i Info) String() string {
	return fmt.Sprintf("version: %s\ncommit: %s\nbuilt: %s\ngo: %s", i.Version, i.Commit, i.Date, i.GoVersion)
}

// Template returns the cobra version template.
func Template() string {
	return "{{.Name}} " + Get().String() + "\n"
}

// UserAgent is sent with every photo service request.
func UserAgent() string {
	return "waterfall/" + Get().Version
}
