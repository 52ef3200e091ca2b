package formula

import (
	"net/url"
	"path"
	"regexp"
	"strings"
)

var archiveExtensions = []string{
	".tar.gz", ".tgz", ".tar.bz2", ".tbz2", ".tar.xz", ".txz", ".tar.zst", ".tar", ".zip",
}

// versionPattern matches the last dotted numeric version in a path
// component, with an optional leading "v" and pre-release suffix.
var versionPattern = regexp.MustCompile(`v?(\d+(?:\.\d+)+(?:[-.]?(?:alpha|beta|rc|pre)\.?\d*)?)`)

// VersionFromURL derives a version from a source archive URL the way
// package indexes do: ".../archive/refs/tags/v0.4.1.tar.gz" yields
// "0.4.1", ".../foo-1.2.3.tar.gz" yields "1.2.3". Returns "" when no
// version can be found.
func VersionFromURL(rawURL string) string {
	if rawURL == "" {
		return ""
	}

	p := rawURL
	if u, err := url.Parse(rawURL); err == nil && u.Path != "" {
		p = u.Path
	}

	// The file name is the usual place; release download URLs keep the
	// version in a parent directory instead.
	segments := strings.Split(strings.Trim(p, "/"), "/")
	for i := len(segments) - 1; i >= 0; i-- {
		segment := segments[i]
		if i == len(segments)-1 {
			segment = stripArchiveExtension(path.Base(segment))
		}
		matches := versionPattern.FindAllStringSubmatch(segment, -1)
		if len(matches) > 0 {
			return matches[len(matches)-1][1]
		}
	}

	return ""
}

func stripArchiveExtension(name string) string {
	lower := strings.ToLower(name)
	for _, ext := range archiveExtensions {
		if strings.HasSuffix(lower, ext) {
			return name[:len(name)-len(ext)]
		}
	}
	return name
}
