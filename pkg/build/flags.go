// SPDX-License-Identifier: MIT
//
// Package build carries metadata stamped into the binary at link time:
// application name, build timestamp, Git commit and semantic version.
// The values feed the startup banner and the version subcommand.
package build

// Populated by -ldflags at compile time, e.g.
//
//	-X vizor/pkg/build.buildVersion=v0.3.0
//
// Development builds leave them empty and fall back to "dev".
var (
	buildName    string
	buildTime    string
	buildCommit  string
	buildVersion string
)

// Info is the resolved build metadata.
type Info struct {
	Name    string
	Time    string
	Commit  string
	Version string
}

// Resolve returns the stamped build information, substituting "dev"
// for any flag the linker did not set. A missing stamp is a normal
// development build, not an error.
func Resolve() Info {
	info := Info{
		Name:    buildName,
		Time:    buildTime,
		Commit:  buildCommit,
		Version: buildVersion,
	}
	if info.Name == "" {
		info.Name = "vizor"
	}
	if info.Time == "" {
		info.Time = "dev"
	}
	if info.Commit == "" {
		info.Commit = "dev"
	}
	if info.Version == "" {
		info.Version = "dev"
	}
	return info
}
