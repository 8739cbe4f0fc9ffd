package system

import (
	"bufio"
	"strings"
)

// MountEntry is one line of /proc/mounts
type MountEntry struct {
	Device     string
	MountPoint string
	Filesystem string
	Options    string
}

// ParseMounts parses /proc/mounts content keyed by mount point.
// Format: "device mountpoint fstype options dump pass"
func ParseMounts(content string) map[string]MountEntry {
	mounts := make(map[string]MountEntry)
	scanner := bufio.NewScanner(strings.NewReader(content))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 3 {
			continue
		}
		entry := MountEntry{
			Device:     unescapeOctal(fields[0]),
			MountPoint: unescapeOctal(fields[1]),
			Filesystem: fields[2],
		}
		if len(fields) > 3 {
			entry.Options = fields[3]
		}
		mounts[entry.MountPoint] = entry
	}
	return mounts
}

// unescapeOctal decodes the \040-style escapes the kernel uses for spaces,
// tabs and backslashes in mount paths.
func unescapeOctal(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+3 < len(s) && isOctal(s[i+1]) && isOctal(s[i+2]) && isOctal(s[i+3]) {
			b.WriteByte((s[i+1]-'0')<<6 | (s[i+2]-'0')<<3 | (s[i+3] - '0'))
			i += 3
			continue
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

func isOctal(c byte) bool {
	return c >= '0' && c <= '7'
}
