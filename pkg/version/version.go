// Package version reports the qrcgen build.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"
)

// Set at build time with -ldflags "-X github.com/dl-alexandre/qrcgen/pkg/version.Version=...".
var (
	Version   = "dev"
	GitCommit = ""
	BuildTime = ""
)

const shortCommitLen = 12

// Info describes the running binary.
type Info struct {
	Version   string `json:"version"`
	GitCommit string `json:"gitCommit,omitempty"`
	Modified  bool   `json:"modified,omitempty"`
	BuildTime string `json:"buildTime,omitempty"`
	GoVersion string `json:"goVersion"`
	Platform  string `json:"platform"`
}

// Get returns the build information. Values not injected through ldflags
// are taken from the VCS stamp the go command embeds.
func Get() *Info {
	info := &Info{
		Version:   Version,
		GitCommit: GitCommit,
		BuildTime: BuildTime,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
	if bi, ok := debug.ReadBuildInfo(); ok {
		info.fillFromBuildSettings(bi.Settings)
	}
	return info
}

func (i *Info) fillFromBuildSettings(settings []debug.BuildSetting) {
	for _, s := range settings {
		switch s.Key {
		case "vcs.revision":
			if i.GitCommit == "" {
				i.GitCommit = s.Value
			}
		case "vcs.time":
			if i.BuildTime == "" {
				i.BuildTime = s.Value
			}
		case "vcs.modified":
			i.Modified = s.Value == "true"
		}
	}
	if len(i.GitCommit) > shortCommitLen {
		i.GitCommit = i.GitCommit[:shortCommitLen]
	}
}

// String renders the version block printed by `qrcgen version`.
func (i *Info) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "qrcgen %s\n", i.Version)
	if i.GitCommit != "" {
		commit := i.GitCommit
		if i.Modified {
			commit += " (modified)"
		}
		fmt.Fprintf(&b, "  commit:   %s\n", commit)
	}
	if i.BuildTime != "" {
		fmt.Fprintf(&b, "  built:    %s\n", i.BuildTime)
	}
	fmt.Fprintf(&b, "  go:       %s %s", i.GoVersion, i.Platform)
	return b.String()
}
