// Package fetch downloads and unpacks formula sources.
//
// Stable sources are pinned archives. Fetcher downloads them over HTTP(S)
// or from file:// URLs into a cache keyed by the declared SHA-256 digest,
// retrying transient network failures, and refuses to extract an archive
// whose digest differs from the declaration. Supported containers are tar,
// tar.gz, tar.zst, tar.lz4 and zip, detected from the leading bytes rather
// than the file name.
//
// Head sources are shallow git clones of a formula's head repository and
// are not checksummed.
package fetch
