// Package catalog aggregates verified releases into the output document.
//
// The catalog maps each minor version line ("3.2") to its representative
// release. Selection is stable-preferred: if a line has any stable release,
// the highest-patch stable wins even when a pre-release carries a higher
// patch; a line represented only by pre-releases selects its best
// pre-release. The upstream index does not document a tie-break rule for
// equal-patch stable vs pre-release candidates, so stable-preferred is a
// deliberate assumption here, not a discovered fact.
//
// Build is a pure function of its input set: identical inputs produce
// identical catalogs regardless of slice order, and the serialized form is
// byte-stable (JSON object keys sort).
package catalog

import (
	"encoding/json"
	"io"

	rerrors "github.com/rubyline/rubyline/pkg/errors"
	"github.com/rubyline/rubyline/pkg/release"
)

// Entry is the aggregated output unit for one minor version line.
type Entry struct {
	Version   string            `json:"version"`   // Full version string (e.g., "3.2.1", "3.4.0-rc1")
	URLs      []string          `json:"urls"`      // Artifact URLs, sorted
	Checksums map[string]string `json:"checksums"` // Artifact URL → SHA-256 hex digest
}

// Catalog maps minor-line keys ("major.minor") to their selected release.
type Catalog map[string]Entry

// Build reduces a set of verified releases to one entry per minor line.
//
// An empty or nil input yields an empty (non-nil) catalog.
func Build(releases []*release.Release) Catalog {
	best := make(map[string]*release.Release)
	for _, rel := range releases {
		key := rel.MinorLine()
		if cur, ok := best[key]; !ok || better(rel, cur) {
			best[key] = rel
		}
	}

	c := make(Catalog, len(best))
	for key, rel := range best {
		c[key] = Entry{
			Version:   rel.Version.String(),
			URLs:      rel.URLs,
			Checksums: rel.Checksums,
		}
	}
	return c
}

// better reports whether a should represent its minor line instead of b.
//
// A stable release beats any pre-release of the same line regardless of
// patch. Within the same stability class, semver ordering decides; the
// release name is the final tie-break so duplicate versions cannot make
// the result depend on input order.
func better(a, b *release.Release) bool {
	if a.Prerelease() != b.Prerelease() {
		return !a.Prerelease()
	}
	if cmp := a.Version.Compare(b.Version); cmp != 0 {
		return cmp > 0
	}
	return a.Name < b.Name
}

// JSON renders the catalog as a JSON document. An empty catalog renders as
// "{}". Keys sort, so equal catalogs always serialize to identical bytes.
func (c Catalog) JSON(pretty bool) ([]byte, error) {
	if c == nil {
		c = Catalog{}
	}
	if pretty {
		return json.MarshalIndent(c, "", "  ")
	}
	return json.Marshal(c)
}

// Write serializes the catalog to w, followed by a trailing newline.
// Failures writing the document are fatal for the run.
func (c Catalog) Write(w io.Writer, pretty bool) error {
	data, err := c.JSON(pretty)
	if err != nil {
		return rerrors.Wrap(rerrors.ErrCodeSerializeFailed, err, "marshal catalog")
	}
	if _, err := w.Write(append(data, '\n')); err != nil {
		return rerrors.Wrap(rerrors.ErrCodeSerializeFailed, err, "write catalog")
	}
	return nil
}
