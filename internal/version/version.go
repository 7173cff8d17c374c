package version

import "runtime/debug"

// Version is overridden at link time with -ldflags "-X cmtx/internal/version.Version=...".
var Version = "dev"

func String() string {
	if Version != "dev" {
		return Version
	}
	if info, ok := debug.ReadBuildInfo(); ok {
		if v := info.Main.Version; v != "" && v != "(devel)" {
			return v
		}
	}
	return Version
}
