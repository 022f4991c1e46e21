package buildinfo

// Set at link time:
//
//	go build -ldflags "-X 'github.com/m3rciful/weatherbot/core/buildinfo.Version=v0.3.0' \
//	  -X 'github.com/m3rciful/weatherbot/core/buildinfo.Commit=$(git rev-parse --short HEAD)' \
//	  -X 'github.com/m3rciful/weatherbot/core/buildinfo.Date=$(date -u +%Y-%m-%dT%H:%M:%SZ)'" ./cmd/weatherbot
var (
	// Version is the release tag of the binary.
	Version = "dev"
	// Commit is the short hash the binary was built from.
	Commit = "local"
	// Date is the RFC3339 build time.
	Date = ""
)
