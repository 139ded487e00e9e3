package buildconfig

// Build-time variables injected via ldflags:
//
//	-X github.com/nexh/focus/internal/buildconfig.version=v1.2.0
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func Version() string {
	return version
}

func Commit() string {
	return commit
}

// VersionInfo returns full version information for the status endpoint.
func VersionInfo() map[string]string {
	return map[string]string{
		"version":    version,
		"commit":     commit,
		"build_date": buildDate,
	}
}
