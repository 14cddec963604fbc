// Package version holds build metadata, overridable with -ldflags.
package version

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
)

var (
	// Version is the semantic version of jaivals.
	Version = "0.1.0-dev"

	// GitCommit is an optional commit hash.
	GitCommit = ""

	// BuildDate is an optional build date in ISO-8601.
	BuildDate = ""
)

// Info is the build metadata in printable form.
type Info struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit,omitempty"`
	BuildDate string `json:"build_date,omitempty"`
}

// Current returns the trimmed build metadata.
func Current() Info {
	return Info{
		Version:   strings.TrimSpace(Version),
		GitCommit: strings.TrimSpace(GitCommit),
		BuildDate: strings.TrimSpace(BuildDate),
	}
}

var (
	majorColor = color.New(color.FgYellow, color.Bold)
	minorColor = color.New(color.FgGreen, color.Bold)
	patchColor = color.New(color.FgBlue, color.Bold)
)

// Colored renders the version with each numeric part highlighted.
// A version that is not dotted is returned unchanged.
func (i Info) Colored() string {
	core, suffix, hasSuffix := strings.Cut(i.Version, "-")
	parts := strings.SplitN(core, ".", 3)
	if len(parts) != 3 {
		return i.Version
	}
	out := majorColor.Sprint(parts[0]) + "." + minorColor.Sprint(parts[1]) + "." + patchColor.Sprint(parts[2])
	if hasSuffix {
		out += "-" + suffix
	}
	return out
}

// String is the one-line banner printed by `jaivals version`.
func (i Info) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "jaivals %s", i.Colored())
	if i.GitCommit != "" {
		fmt.Fprintf(&sb, " (%s)", i.GitCommit)
	}
	if i.BuildDate != "" {
		fmt.Fprintf(&sb, " built %s", i.BuildDate)
	}
	return sb.String()
}
