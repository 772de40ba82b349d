// Package buildinfo carries the version string stamped into release
// builds via -ldflags, surfaced by `beam version` and the startup log line.
package buildinfo

// Version is overridden at build time with:
//
//	go build -ldflags "-X github.com/beamteleport/beam/internal/buildinfo.Version=1.2.3"
var Version = "0.1.0-dev"

// Commit is overridden the same way with the VCS commit hash.
var Commit = "unknown"

// ProtocolVersion is the discovery TXT record "version" key (§6.1):
// Beam's wire protocol major version, independent of the release Version.
const ProtocolVersion = "1"
