// Package version exposes the build version of consultctl.
//
// Values are set at link time and fall back to the module build info:
//
//	go build -ldflags "-X github.com/consultdesk/apiclient/version.Version=1.4.0" ./cmd/consultctl
package version
