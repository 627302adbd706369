// Package buildinfo carries version metadata stamped in at link time.
package buildinfo

import "time"

// Set via -ldflags "-X github.com/xelth-com/eckdocs/internal/buildinfo.CommitHash=..."
var (
	BuildTime  string
	CommitHash string
)

// StartTime is recorded when the process starts
var StartTime = time.Now().UTC().Format(time.RFC3339)

// Fields returns the metadata as reported by /health and the startup log.
// Unset values read "dev".
func Fields() map[string]string {
	return map[string]string{
		"commit":    orDev(CommitHash),
		"buildTime": orDev(BuildTime),
		"startedAt": StartTime,
	}
}

func orDev(s string) string {
	if s == "" {
		return "dev"
	}
	return s
}
