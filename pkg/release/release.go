// Package release defines the Ruby release model and version parsing.
//
// The upstream index identifies releases with names like "ruby-3.2.1" or
// "ruby-3.3.0-preview1", mixed with entries that are not releases at all
// ("snapshot-master", "stable-snapshot"). [ParseName] extracts a semantic
// version from such a name or reports that the name is not a version;
// non-version entries are skipped by callers rather than treated as errors.
package release

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// versionRE gates names before semver parsing. Masterminds' parser coerces
// two-component versions ("3.2" → "3.2.0"); the index never abbreviates
// release versions, so a missing or non-numeric patch means the name is not
// a release and must be skipped, not coerced.
var versionRE = regexp.MustCompile(`^(\d+)\.(\d+)\.(\d+)(-[0-9A-Za-z][0-9A-Za-z.-]*)?$`)

// digestRE matches a lowercase hex SHA-256 digest.
var digestRE = regexp.MustCompile(`^[0-9a-f]{64}$`)

// Release is one discovered Ruby distribution with verified artifacts.
//
// URLs is sorted lexicographically so downstream output does not depend on
// index row order. Checksums maps each artifact URL to its SHA-256 digest;
// a Release constructed through [New] never has an artifact without one.
type Release struct {
	Name      string            // Raw index name (e.g., "ruby-3.2.1")
	Version   *semver.Version   // Parsed version (never nil)
	URLs      []string          // Artifact URLs, sorted
	Checksums map[string]string // Artifact URL → 64-char lowercase hex SHA-256
}

// New builds a Release from a parsed name and its verified artifacts.
// Only artifacts present in checksums are kept; the checksums map must
// contain verified digests only (see [ValidDigest]).
func New(name string, version *semver.Version, checksums map[string]string) *Release {
	urls := make([]string, 0, len(checksums))
	for u := range checksums {
		urls = append(urls, u)
	}
	sort.Strings(urls)
	return &Release{
		Name:      name,
		Version:   version,
		URLs:      urls,
		Checksums: checksums,
	}
}

// Prerelease reports whether the release carries a pre-release tag
// (e.g., "3.3.0-preview1", "3.3.0-rc1").
func (r *Release) Prerelease() bool {
	return r.Version.Prerelease() != ""
}

// MinorLine returns the release's minor-line key, e.g. "3.2" for 3.2.1.
func (r *Release) MinorLine() string {
	return MinorKey(r.Version)
}

// MinorKey formats a version's "major.minor" grouping key.
func MinorKey(v *semver.Version) string {
	return fmt.Sprintf("%d.%d", v.Major(), v.Minor())
}

// ParseName extracts a semantic version from a raw index identifier.
//
// A leading "ruby-" or "v" prefix is stripped before parsing. The remainder
// must be a numeric major.minor.patch triple, optionally followed by a
// pre-release tag which is retained ("3.3.0-preview1"). Names without a
// full triple, such as snapshots and checksum listings, return ok=false.
func ParseName(name string) (*semver.Version, bool) {
	s := strings.TrimSpace(name)
	s = strings.TrimPrefix(s, "ruby-")
	s = strings.TrimPrefix(s, "v")

	if !versionRE.MatchString(s) {
		return nil, false
	}
	v, err := semver.NewVersion(s)
	if err != nil {
		return nil, false
	}
	return v, true
}

// ValidDigest reports whether s is a well-formed SHA-256 digest:
// exactly 64 lowercase hexadecimal characters.
func ValidDigest(s string) bool {
	return digestRE.MatchString(s)
}
