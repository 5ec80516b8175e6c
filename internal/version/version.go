// Package version carries the build version stamped in via ldflags.
package version

var Version = "dev"
