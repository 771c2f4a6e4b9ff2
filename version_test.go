package imagereader

import (
	"regexp"
	"testing"
)

func TestVersion(t *testing.T) {
	t.Parallel()

	if !regexp.MustCompile(`^\d+\.\d+\.\d+$`).MatchString(Version) {
		t.Errorf("Version %q is not semver", Version)
	}
}

func TestGetVersion(t *testing.T) {
	t.Parallel()

	if v := GetVersion(); v != Version {
		t.Errorf("GetVersion() = %s, want %s", v, Version)
	}
}
