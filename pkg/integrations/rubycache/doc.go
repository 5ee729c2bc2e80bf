// Package rubycache provides an HTTP client for the Ruby release index.
//
// # Overview
//
// This package fetches the release listing published at
// https://cache.ruby-lang.org/pub/ruby/index.txt, a tab-separated table
// with one row per downloadable artifact:
//
//	name	url	sha1	sha256	sha512
//	ruby-3.2.1	https://cache.ruby-lang.org/pub/ruby/3.2/ruby-3.2.1.tar.gz	...	...	...
//
// A release spans several rows (one per archive format). Old releases may
// have empty hash columns; the index also carries entries that are not
// releases at all (snapshots), which later stages filter out.
//
// # Usage
//
//	client := rubycache.NewClient(backend, 24*time.Hour)
//	rows, err := client.FetchIndex(ctx, false)
//
// # Caching
//
// Responses are cached to keep repeat invocations off the mirror. The cache
// TTL is set when creating the client. Pass refresh=true to bypass the
// cache.
//
// # Checksum files
//
// [Client.FetchChecksumFile] retrieves sha256sum-format sidecar files used
// when an index row lacks an inline SHA-256 digest.
package rubycache
