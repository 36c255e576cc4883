// Package pathops implements the pure path manipulation and identity-hashing
// primitives shared by the fsobject and ops packages: normalization, native
// separator handling, hierarchy derivation, name/extension splitting, and
// human-readable size formatting.
package pathops

import (
	"fmt"
	"math"
	"path"
	"runtime"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// NormalizeSeparators rewrites Windows-style backslashes to the forward-slash
// form used internally regardless of host platform.
func NormalizeSeparators(p string) string {
	return strings.ReplaceAll(p, `\`, "/")
}

// CleanPath collapses any run of duplicated slashes left over after
// separator normalization.
func CleanPath(p string) string {
	p = NormalizeSeparators(p)
	for strings.Contains(p, "//") {
		p = strings.ReplaceAll(p, "//", "/")
	}
	return p
}

// Normalize produces the canonical form used for hashing and comparison: no
// trailing slash except for the root, forward slashes only, case preserved.
func Normalize(p string) string {
	p = CleanPath(p)
	if p != "/" && strings.HasSuffix(p, "/") {
		p = strings.TrimSuffix(p, "/")
	}
	return p
}

// HashPath returns the 64-bit identity hash of a path. It is a pure function
// of the normalized path bytes and never depends on whether the path exists.
func HashPath(p string) uint64 {
	return xxhash.Sum64String(Normalize(p))
}

// CaseSensitiveFilesystem reports whether path comparisons on the host
// platform should be case sensitive. Linux and the BSDs are; Windows and
// macOS are not, regardless of the underlying filesystem's own capabilities.
func CaseSensitiveFilesystem() bool {
	switch runtime.GOOS {
	case "windows", "darwin":
		return false
	default:
		return true
	}
}

func segmentsEqual(a, b string) bool {
	if CaseSensitiveFilesystem() {
		return a == b
	}
	return strings.EqualFold(a, b)
}

// PathsEqual compares two paths for equality using platform case rules,
// after normalization.
func PathsEqual(a, b string) bool {
	return segmentsEqual(Normalize(a), Normalize(b))
}

// PathHierarchy returns the chain from p up to and including the filesystem
// root, deepest first. Termination is by fixed point: the parent is taken
// repeatedly until it stops getting shorter.
func PathHierarchy(p string) []string {
	p = Normalize(p)
	if p == "" {
		return nil
	}
	if p == "/" {
		return []string{"/"}
	}

	result := []string{p}
	current := p
	for {
		parent := path.Dir(current)
		if len(parent) >= len(current) {
			break
		}
		result = append(result, parent)
		current = parent
	}
	return result
}

// LongestCommonRootPath returns the deepest directory that is an ancestor of
// both a and b (or one of them, if it is itself an ancestor of the other).
// Returns "" if the two paths share no common root, which can only happen
// for relative or malformed inputs.
func LongestCommonRootPath(a, b string) string {
	if PathsEqual(a, b) {
		return Normalize(a)
	}

	ha := reversed(PathHierarchy(a))
	hb := reversed(PathHierarchy(b))

	last := ""
	n := len(ha)
	if len(hb) < n {
		n = len(hb)
	}
	for i := 0; i < n; i++ {
		if !segmentsEqual(ha[i], hb[i]) {
			break
		}
		if ha[i] == "." {
			continue
		}
		last = ha[i]
	}
	return last
}

func reversed(in []string) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[len(in)-1-i] = v
	}
	return out
}

// FullName returns the last path segment: the file name with extension, or a
// directory's final segment. The root path returns itself.
func FullName(p string) string {
	p = Normalize(p)
	if p == "/" {
		return "/"
	}
	return path.Base(p)
}

// ParentDir returns the absolute parent directory of p. For a filesystem
// root it returns p unchanged.
func ParentDir(p string) string {
	p = Normalize(p)
	if p == "/" {
		return "/"
	}
	parent := path.Dir(p)
	if parent == "." {
		return "/"
	}
	return parent
}

// SplitNameExt applies the extension policy: the final dot-separated segment
// of a file name is the extension. A leading dot file (".rc") has an empty
// base name and "rc" as its extension.
func SplitNameExt(fullName string) (base, ext string) {
	idx := strings.LastIndex(fullName, ".")
	switch {
	case idx < 0:
		return fullName, ""
	case idx == 0:
		return "", fullName[1:]
	default:
		return fullName[:idx], fullName[idx+1:]
	}
}

// FileSizeToString renders size using binary units (GiB/MiB/KiB/B),
// rounded to one decimal place. maxUnit optionally caps the largest unit
// used ('B', 'K', or 'M'); pass 0 for no cap. spacer, if non-empty, is
// inserted as a thousands separator in the integer part of the number.
func FileSizeToString(size uint64, maxUnit byte, spacer string) string {
	const (
		kb = 1024
		mb = kb * 1024
		gb = mb * 1024
	)

	maxUnitSize := uint64(math.MaxUint64)
	switch maxUnit {
	case 'B':
		maxUnitSize = 0
	case 'K':
		maxUnitSize = kb
	case 'M':
		maxUnitSize = mb
	}

	var n float64
	var unit string
	switch {
	case size >= gb && maxUnitSize >= gb:
		n, unit = float64(size)/gb, "GiB"
	case size >= mb && maxUnitSize >= mb:
		n, unit = float64(size)/mb, "MiB"
	case size >= kb && maxUnitSize >= kb:
		n, unit = float64(size)/kb, "KiB"
	default:
		return withSpacer(fmt.Sprintf("%d", size), spacer) + " B"
	}

	formatted := fmt.Sprintf("%.1f", n)
	whole, frac, _ := strings.Cut(formatted, ".")
	return withSpacer(whole, spacer) + "." + frac + " " + unit
}

func withSpacer(digits, spacer string) string {
	if spacer == "" || len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	rem := len(digits) % 3
	if rem == 0 {
		rem = 3
	}
	b.WriteString(digits[:rem])
	for i := rem; i < len(digits); i += 3 {
		b.WriteString(spacer)
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
