package util

import (
	"strings"

	"golang.org/x/mod/semver"
)

// CheckSchemaVersion reports whether a store written with schema version
// toCheck can be used by a build supporting version supported. Both must
// share the major version and toCheck must not be newer.
func CheckSchemaVersion(toCheck, supported string) bool {
	toCheck = canonical(toCheck)
	supported = canonical(supported)
	if !semver.IsValid(toCheck) || !semver.IsValid(supported) {
		return false
	}
	if semver.Major(toCheck) != semver.Major(supported) {
		return false
	}
	return semver.Compare(toCheck, supported) <= 0
}

func canonical(v string) string {
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	return v
}
