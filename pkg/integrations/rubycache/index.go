package rubycache

import (
	"bufio"
	"strings"

	rerrors "github.com/rubyline/rubyline/pkg/errors"
)

// IndexRow is one line of the release index: a single downloadable artifact
// belonging to a named release. A release typically spans several rows, one
// per archive format (.tar.gz, .tar.xz, .zip).
//
// Hash columns are hex digests as published; they may be empty for releases
// old enough to predate the corresponding column. Nothing is validated at
// this layer; digest validation belongs to the resolver.
type IndexRow struct {
	Name   string `json:"name"`   // Release name (e.g., "ruby-3.2.1")
	URL    string `json:"url"`    // Artifact download URL
	SHA1   string `json:"sha1"`   // May be empty
	SHA256 string `json:"sha256"` // May be empty
	SHA512 string `json:"sha512"` // May be empty
}

// parseIndex parses the tab-separated release index.
//
// The first line is a header ("name\turl\tsha1\tsha256\tsha512") and is
// skipped, as are blank lines and lines with fewer than two fields. A body
// that yields no rows at all is malformed: an empty listing would silently
// turn into an empty catalog, which a caller could mistake for "no Ruby
// releases exist".
func parseIndex(body string) ([]IndexRow, error) {
	var rows []IndexRow

	sc := bufio.NewScanner(strings.NewReader(body))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")
		if line == "" {
			continue
		}
		fields := strings.Split(line, "\t")
		if fields[0] == "name" {
			continue // header
		}
		if len(fields) < 2 || fields[0] == "" || fields[1] == "" {
			continue
		}
		row := IndexRow{Name: fields[0], URL: fields[1]}
		if len(fields) > 2 {
			row.SHA1 = fields[2]
		}
		if len(fields) > 3 {
			row.SHA256 = fields[3]
		}
		if len(fields) > 4 {
			row.SHA512 = fields[4]
		}
		rows = append(rows, row)
	}
	if err := sc.Err(); err != nil {
		return nil, rerrors.Wrap(rerrors.ErrCodeInvalidIndex, err, "scan release index")
	}
	if len(rows) == 0 {
		return nil, rerrors.New(rerrors.ErrCodeInvalidIndex, "release index contains no entries")
	}
	return rows, nil
}

// parseChecksumFile parses GNU coreutils sha256sum output: one
// "<digest>  <filename>" pair per line, with an optional "*" binary-mode
// marker before the filename. Malformed lines are skipped. Returns a map
// from filename to digest.
func parseChecksumFile(body string) map[string]string {
	sums := make(map[string]string)

	sc := bufio.NewScanner(strings.NewReader(body))
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) != 2 {
			continue
		}
		name := strings.TrimPrefix(fields[1], "*")
		if name == "" {
			continue
		}
		sums[name] = strings.ToLower(fields[0])
	}
	return sums
}
