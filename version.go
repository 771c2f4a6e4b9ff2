// Package imagereader provides the version information for the image reader server.
package imagereader

// Version is the current version of imagereader.
const Version = "1.0.0"

// GetVersion returns the current version string.
func GetVersion() string {
	return Version
}
