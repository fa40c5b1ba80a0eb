package vcs

import (
	"fmt"
	"runtime/debug"
)

// Version reports the vcs revision baked into the binary, with a -dirty
// suffix when the tree had uncommitted changes.
func Version() string {
	var (
		revision string
		modified bool
	)

	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "unavailable"
	}

	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			revision = s.Value
		case "vcs.modified":
			if s.Value == "true" {
				modified = true
			}
		}
	}

	if revision == "" {
		return "unavailable"
	}

	if modified {
		return fmt.Sprintf("%s-dirty", revision)
	}

	return revision
}
