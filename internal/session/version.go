package session

import (
	"fmt"
	"robosync/internal/models"
	"strconv"
	"strings"

	"golang.org/x/mod/semver"
)

// ClientVersion is the version this build reports against coordinators.
var ClientVersion = models.Version{Major: 0, Minor: 5, Patch: 0}

// UpdateAvailable reports whether the coordinator runs a newer major or minor
// release than the client.
func UpdateAvailable(client, coordinator models.Version) bool {
	return semver.Compare(semver.MajorMinor(FormatVersion(coordinator)), semver.MajorMinor(FormatVersion(client))) > 0
}

func FormatVersion(v models.Version) string {
	return fmt.Sprintf("v%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// ParseVersion accepts a semantic version with an optional leading "v".
// Missing minor or patch components read as zero; prerelease and build
// suffixes are ignored.
func ParseVersion(s string) (models.Version, error) {
	v := strings.TrimSpace(s)
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	if !semver.IsValid(v) {
		return models.Version{}, fmt.Errorf("invalid version: %q", s)
	}
	core := strings.TrimPrefix(semver.Canonical(v), "v")
	core, _, _ = strings.Cut(core, "-")

	parts := strings.Split(core, ".")
	nums := make([]int, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return models.Version{}, fmt.Errorf("invalid version: %q: %w", s, err)
		}
		nums[i] = n
	}
	return models.Version{Major: nums[0], Minor: nums[1], Patch: nums[2]}, nil
}
