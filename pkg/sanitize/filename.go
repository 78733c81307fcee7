package sanitize

import (
	"path/filepath"
	"strings"
)

const maxFilenameBytes = 255

// reservedDeviceNames are Windows device names that cannot be used as plain
// filenames. Matched against the upper-cased stem.
var reservedDeviceNames = map[string]bool{
	"CON": true, "PRN": true, "AUX": true, "NUL": true,
	"COM1": true, "COM2": true, "COM3": true, "COM4": true, "COM5": true,
	"COM6": true, "COM7": true, "COM8": true, "COM9": true,
	"LPT1": true, "LPT2": true, "LPT3": true, "LPT4": true, "LPT5": true,
	"LPT6": true, "LPT7": true, "LPT8": true, "LPT9": true,
}

// Filename reduces an untrusted filename to a safe basename: path components
// and traversal go away, control and filesystem-reserved characters are
// stripped, dot runs collapse, device-name collisions get a prefix, and the
// result is truncated to 255 bytes with the extension preserved. Filename is
// idempotent; applying it to its own output is a no-op.
func Filename(name string) string {
	// Drop every path component, whichever separator the client used.
	if idx := strings.LastIndexAny(name, "/\\"); idx >= 0 {
		name = name[idx+1:]
	}

	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		if r < 0x20 || r == 0x7F {
			continue
		}
		if strings.ContainsRune(`<>:"/\|?*`, r) {
			continue
		}
		b.WriteRune(r)
	}
	name = b.String()

	name = collapseDots(name)
	name = strings.Trim(name, ". \t")

	if name == "" {
		return "unnamed"
	}

	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)

	if reservedDeviceNames[strings.ToUpper(stem)] {
		stem = "file_" + stem
	}

	name = stem + ext
	if len(name) > maxFilenameBytes {
		budget := maxFilenameBytes - len(ext)
		if budget <= 0 {
			// Degenerate extension longer than the whole budget; keep the
			// head of the raw name instead.
			return strings.TrimRight(truncateRunes(name, maxFilenameBytes), ". ")
		}
		stem = strings.TrimRight(truncateRunes(stem, budget), ". ")
		name = stem + ext
	}

	return name
}

func collapseDots(s string) string {
	for strings.Contains(s, "..") {
		s = strings.ReplaceAll(s, "..", ".")
	}
	return s
}

// truncateRunes cuts s to at most n bytes without splitting a rune.
func truncateRunes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	out := make([]rune, 0, n)
	total := 0
	for _, r := range s {
		total += len(string(r))
		if total > n {
			break
		}
		out = append(out, r)
	}
	return string(out)
}
