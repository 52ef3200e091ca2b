package testing

import (
	"archive/tar"
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Entry is one member of a test archive.
type Entry struct {
	Name string
	Body string
	Mode int64

	// Symlink makes the entry a symbolic link to the given target.
	Symlink string

	// Dir makes the entry a directory.
	Dir bool
}

// EmqutitiSource is a minimal source tree laid out like the upstream
// release archive: one top-level directory holding a Go module with the
// build target at ./cmd/emqutiti.
func EmqutitiSource(top string) []Entry {
	return []Entry{
		{Name: top + "/", Dir: true},
		{Name: top + "/go.mod", Body: "module github.com/marang/emqutiti\n\ngo 1.24\n"},
		{Name: top + "/cmd/", Dir: true},
		{Name: top + "/cmd/emqutiti/", Dir: true},
		{Name: top + "/cmd/emqutiti/main.go", Body: "package main\n\nfunc main() {}\n"},
		{Name: top + "/README.md", Body: "# emqutiti\n"},
	}
}

// Tar builds an uncompressed tar archive. GitHub-style archives carry a
// pax global header, so one is always written first.
func Tar(t testing.TB, entries ...Entry) []byte {
	t.Helper()

	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	must(t, tw.WriteHeader(&tar.Header{
		Typeflag:   tar.TypeXGlobalHeader,
		Name:       "pax_global_header",
		PAXRecords: map[string]string{"comment": "0123456789abcdef"},
	}))
	for _, e := range entries {
		hdr := &tar.Header{Name: e.Name, Mode: e.Mode}
		switch {
		case e.Dir:
			hdr.Typeflag = tar.TypeDir
			if hdr.Mode == 0 {
				hdr.Mode = 0755
			}
		case e.Symlink != "":
			hdr.Typeflag = tar.TypeSymlink
			hdr.Linkname = e.Symlink
			hdr.Mode = 0777
		default:
			hdr.Typeflag = tar.TypeReg
			hdr.Size = int64(len(e.Body))
			if hdr.Mode == 0 {
				hdr.Mode = 0644
			}
		}
		must(t, tw.WriteHeader(hdr))
		if hdr.Typeflag == tar.TypeReg {
			_, err := tw.Write([]byte(e.Body))
			must(t, err)
		}
	}
	must(t, tw.Close())
	return buf.Bytes()
}

// TarGz builds a gzip-compressed tar archive.
func TarGz(t testing.TB, entries ...Entry) []byte {
	t.Helper()

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	_, err := gz.Write(Tar(t, entries...))
	must(t, err)
	must(t, gz.Close())
	return buf.Bytes()
}

// TarZstd builds a zstd-compressed tar archive.
func TarZstd(t testing.TB, entries ...Entry) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw, err := zstd.NewWriter(&buf)
	must(t, err)
	_, err = zw.Write(Tar(t, entries...))
	must(t, err)
	must(t, zw.Close())
	return buf.Bytes()
}

// TarLZ4 builds an lz4-framed tar archive.
func TarLZ4(t testing.TB, entries ...Entry) []byte {
	t.Helper()

	var buf bytes.Buffer
	lw := lz4.NewWriter(&buf)
	_, err := lw.Write(Tar(t, entries...))
	must(t, err)
	must(t, lw.Close())
	return buf.Bytes()
}

// Zip builds a zip archive. Symlinks are not supported.
func Zip(t testing.TB, entries ...Entry) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, e := range entries {
		if e.Dir {
			_, err := zw.Create(strings.TrimSuffix(e.Name, "/") + "/")
			must(t, err)
			continue
		}
		w, err := zw.Create(e.Name)
		must(t, err)
		_, err = w.Write([]byte(e.Body))
		must(t, err)
	}
	must(t, zw.Close())
	return buf.Bytes()
}

// SHA256 returns the hex digest of data.
func SHA256(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// ArchiveServer serves fixed archive bytes and counts requests.
type ArchiveServer struct {
	*httptest.Server

	requests atomic.Int64
}

// Requests is the number of archive downloads served.
func (s *ArchiveServer) Requests() int {
	return int(s.requests.Load())
}

// ArchiveURL returns the download URL for the archive with the given file name.
func (s *ArchiveServer) ArchiveURL(name string) string {
	return s.Server.URL + "/archive/refs/tags/" + name
}

// ServeArchive starts an httptest server that answers every request below
// /archive/ with data. The server is closed when the test ends.
func ServeArchive(t testing.TB, data []byte) *ArchiveServer {
	t.Helper()

	s := &ArchiveServer{}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/archive/") {
			http.NotFound(w, r)
			return
		}
		s.requests.Add(1)
		w.Header().Set("Content-Type", "application/octet-stream")
		_, _ = w.Write(data)
	}))
	t.Cleanup(s.Close)
	return s
}

func must(t testing.TB, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("building test archive: %v", err)
	}
}
