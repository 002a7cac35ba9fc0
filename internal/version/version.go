// Package version holds build metadata injected via ldflags.
package version

// Set at build time:
//
//	go build -ldflags "-X github.com/mj1618/game-bridge/internal/version.Version=v0.3.0 ..."
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)
