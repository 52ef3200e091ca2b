package fetch

import (
	"archive/tar"
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// ErrUnsafePath is returned for archive entries that would land outside
// the extraction directory.
var ErrUnsafePath = errors.New("archive entry escapes extraction directory")

// ArchiveFormat is the container format detected from an archive's leading bytes.
type ArchiveFormat string

const (
	FormatTar     ArchiveFormat = "tar"
	FormatTarGz   ArchiveFormat = "tar.gz"
	FormatTarZstd ArchiveFormat = "tar.zst"
	FormatTarLZ4  ArchiveFormat = "tar.lz4"
	FormatZip     ArchiveFormat = "zip"
)

var (
	magicGzip = []byte{0x1f, 0x8b}
	magicZstd = []byte{0x28, 0xb5, 0x2f, 0xfd}
	magicLZ4  = []byte{0x04, 0x22, 0x4d, 0x18}
	magicZip  = []byte{0x50, 0x4b, 0x03, 0x04}
)

// DetectFormat classifies an archive by its magic number. Anything not
// recognized is treated as an uncompressed tar stream.
func DetectFormat(header []byte) ArchiveFormat {
	switch {
	case bytes.HasPrefix(header, magicGzip):
		return FormatTarGz
	case bytes.HasPrefix(header, magicZstd):
		return FormatTarZstd
	case bytes.HasPrefix(header, magicLZ4):
		return FormatTarLZ4
	case bytes.HasPrefix(header, magicZip):
		return FormatZip
	}
	return FormatTar
}

// Extract unpacks archive into dest, which should be empty, and returns
// the source root: the single top-level directory when the archive has
// exactly one, dest otherwise.
func Extract(archive, dest string) (string, error) {
	if err := os.MkdirAll(dest, 0755); err != nil {
		return "", fmt.Errorf("creating %s: %w", dest, err)
	}

	file, err := os.Open(archive)
	if err != nil {
		return "", err
	}
	defer file.Close()

	// Entries are checked against where dest really is on disk.
	realDest, err := filepath.EvalSymlinks(dest)
	if err != nil {
		return "", err
	}

	br := bufio.NewReader(file)
	header, _ := br.Peek(4)

	switch format := DetectFormat(header); format {
	case FormatZip:
		err = extractZip(archive, realDest)
	case FormatTarGz:
		var gz *gzip.Reader
		gz, err = gzip.NewReader(br)
		if err != nil {
			return "", fmt.Errorf("reading gzip stream: %w", err)
		}
		defer gz.Close()
		err = extractTar(tar.NewReader(gz), realDest)
	case FormatTarZstd:
		var zr *zstd.Decoder
		zr, err = zstd.NewReader(br)
		if err != nil {
			return "", fmt.Errorf("reading zstd stream: %w", err)
		}
		defer zr.Close()
		err = extractTar(tar.NewReader(zr), realDest)
	case FormatTarLZ4:
		err = extractTar(tar.NewReader(lz4.NewReader(br)), realDest)
	default:
		err = extractTar(tar.NewReader(br), realDest)
	}
	if err != nil {
		return "", err
	}

	return sourceRoot(dest)
}

func extractTar(tr *tar.Reader, dest string) error {
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading tar entry: %w", err)
		}

		switch hdr.Typeflag {
		case tar.TypeXGlobalHeader, tar.TypeXHeader:
			continue
		}

		target, err := safeJoin(dest, hdr.Name)
		if err != nil {
			return err
		}
		if target == dest {
			continue
		}
		if err := checkParent(dest, target, hdr.Name); err != nil {
			return err
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0755); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := writeFile(target, tr, os.FileMode(hdr.Mode).Perm()); err != nil {
				return err
			}
		case tar.TypeSymlink:
			if err := makeSymlink(dest, target, hdr.Linkname); err != nil {
				return err
			}
		case tar.TypeLink:
			source, err := safeJoin(dest, hdr.Linkname)
			if err != nil {
				return err
			}
			if err := checkLinkSource(dest, source, hdr.Linkname); err != nil {
				return err
			}
			if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
				return err
			}
			if err := os.Link(source, target); err != nil {
				return fmt.Errorf("linking %s: %w", hdr.Name, err)
			}
		}
	}
}

func extractZip(archive, dest string) error {
	zr, err := zip.OpenReader(archive)
	if err != nil {
		return fmt.Errorf("reading zip archive: %w", err)
	}
	defer zr.Close()

	for _, zf := range zr.File {
		target, err := safeJoin(dest, zf.Name)
		if err != nil {
			return err
		}
		if target == dest {
			continue
		}
		if err := checkParent(dest, target, zf.Name); err != nil {
			return err
		}

		mode := zf.Mode()
		switch {
		case mode.IsDir():
			if err := os.MkdirAll(target, 0755); err != nil {
				return err
			}
			continue
		case mode&os.ModeSymlink != 0:
			rc, err := zf.Open()
			if err != nil {
				return err
			}
			link, err := io.ReadAll(rc)
			rc.Close()
			if err != nil {
				return err
			}
			if err := makeSymlink(dest, target, string(link)); err != nil {
				return err
			}
			continue
		}

		rc, err := zf.Open()
		if err != nil {
			return fmt.Errorf("opening %s: %w", zf.Name, err)
		}
		err = writeFile(target, rc, mode.Perm())
		rc.Close()
		if err != nil {
			return err
		}
	}
	return nil
}

func writeFile(target string, r io.Reader, perm os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return err
	}
	if err := removeSymlink(target); err != nil {
		return err
	}
	out, err := os.OpenFile(target, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, perm|0600)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		return fmt.Errorf("writing %s: %w", target, err)
	}
	return out.Close()
}

func makeSymlink(dest, target, linkname string) error {
	if filepath.IsAbs(linkname) {
		return fmt.Errorf("%w: symlink %s -> %s", ErrUnsafePath, target, linkname)
	}
	parent, err := realPath(filepath.Dir(target))
	if err != nil {
		return err
	}
	resolved := filepath.Join(parent, filepath.FromSlash(linkname))
	if !within(dest, parent) || !within(dest, resolved) {
		return fmt.Errorf("%w: symlink %s -> %s", ErrUnsafePath, target, linkname)
	}
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return err
	}
	if err := removeSymlink(target); err != nil {
		return err
	}
	return os.Symlink(linkname, target)
}

// checkParent rejects an entry whose directory, once symlinks already on
// disk are followed, lies outside dest.
func checkParent(dest, target, name string) error {
	parent, err := realPath(filepath.Dir(target))
	if err != nil {
		return err
	}
	if !within(dest, parent) {
		return fmt.Errorf("%w: %s", ErrUnsafePath, name)
	}
	return nil
}

// checkLinkSource rejects a hard link whose source resolves outside dest.
func checkLinkSource(dest, source, name string) error {
	resolved, err := filepath.EvalSymlinks(source)
	if err != nil {
		return fmt.Errorf("linking %s: %w", name, err)
	}
	if !within(dest, resolved) {
		return fmt.Errorf("%w: hard link to %s", ErrUnsafePath, name)
	}
	return nil
}

// realPath follows symlinks in the existing part of path. Components that
// do not exist yet are appended unchanged; they will be created as plain
// directories.
func realPath(path string) (string, error) {
	var missing []string
	for {
		if _, err := os.Lstat(path); err == nil {
			break
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", err
		}
		parent := filepath.Dir(path)
		if parent == path {
			break
		}
		missing = append([]string{filepath.Base(path)}, missing...)
		path = parent
	}
	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		return "", err
	}
	return filepath.Join(append([]string{resolved}, missing...)...), nil
}

// removeSymlink clears a link left at target by an earlier entry so the
// new entry replaces it instead of writing through it.
func removeSymlink(target string) error {
	info, err := os.Lstat(target)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	if info.Mode()&os.ModeSymlink != 0 {
		return os.Remove(target)
	}
	return nil
}

// safeJoin resolves an archive entry name below dest.
func safeJoin(dest, name string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(name))
	if filepath.IsAbs(clean) || filepath.VolumeName(clean) != "" || strings.HasPrefix(name, "/") {
		return "", fmt.Errorf("%w: %s", ErrUnsafePath, name)
	}
	target := filepath.Join(dest, clean)
	if !within(dest, target) {
		return "", fmt.Errorf("%w: %s", ErrUnsafePath, name)
	}
	return target, nil
}

func within(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

func sourceRoot(dest string) (string, error) {
	entries, err := os.ReadDir(dest)
	if err != nil {
		return "", err
	}
	if len(entries) == 1 && entries[0].IsDir() {
		return filepath.Join(dest, entries[0].Name()), nil
	}
	return dest, nil
}
