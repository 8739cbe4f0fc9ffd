// Package device resolves block device identities and the crypttab mapping.
package device

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Alias prefixes used in crypttab and fstab source specifiers
const (
	PrefixUUID      = "UUID="
	PrefixPartUUID  = "PARTUUID="
	PrefixPartLabel = "PARTLABEL="
)

// AliasMap binds every known identity of a device (raw path, UUID=,
// PARTUUID=, PARTLABEL=) to the filesystem UUID of that device.
type AliasMap map[string]string

// ResolutionError reports an unreadable device-naming tree
type ResolutionError struct {
	Path string
	Err  error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("unable to read device tree %s: %v", e.Path, e.Err)
}

func (e *ResolutionError) Unwrap() error {
	return e.Err
}

// ByUUIDPath returns the persistent by-uuid path of a filesystem UUID
func ByUUIDPath(devicesRoot, fsUUID string) string {
	return filepath.Join(devicesRoot, "disk", "by-uuid", fsUUID)
}

// ResolveAliases walks <devicesRoot>/disk/by-{uuid,partuuid,partlabel}.
// The by-uuid pass provides the raw path bindings the other passes look up.
func ResolveAliases(devicesRoot string) (AliasMap, error) {
	if _, err := os.Stat(devicesRoot); err != nil {
		return nil, &ResolutionError{Path: devicesRoot, Err: err}
	}

	aliases := make(AliasMap)

	byUUID, err := readLinks(filepath.Join(devicesRoot, "disk", "by-uuid"))
	if err != nil {
		return nil, err
	}
	for name, target := range byUUID {
		aliases[target] = name
		aliases[PrefixUUID+name] = name
	}

	for dir, prefix := range map[string]string{
		"by-partuuid":  PrefixPartUUID,
		"by-partlabel": PrefixPartLabel,
	} {
		links, err := readLinks(filepath.Join(devicesRoot, "disk", dir))
		if err != nil {
			return nil, err
		}
		for name, target := range links {
			if fsUUID, ok := aliases[target]; ok {
				aliases[prefix+name] = fsUUID
			}
		}
	}

	return aliases, nil
}

// readLinks maps each entry name of dir to its fully resolved target.
// A missing dir yields no entries; dangling links are skipped.
func readLinks(dir string) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, &ResolutionError{Path: dir, Err: err}
	}

	links := make(map[string]string, len(entries))
	for _, entry := range entries {
		target, err := filepath.EvalSymlinks(filepath.Join(dir, entry.Name()))
		if err != nil {
			continue
		}
		links[unescapeName(entry.Name())] = target
	}
	return links, nil
}

// unescapeName decodes the \xNN escapes udev writes into link names
// (e.g. "EFI\x20System" for a partition label with a space).
func unescapeName(name string) string {
	if !strings.Contains(name, `\x`) {
		return name
	}
	var b strings.Builder
	for i := 0; i < len(name); i++ {
		if name[i] == '\\' && i+3 < len(name) && name[i+1] == 'x' {
			if v, err := strconv.ParseUint(name[i+2:i+4], 16, 8); err == nil {
				b.WriteByte(byte(v))
				i += 3
				continue
			}
		}
		b.WriteByte(name[i])
	}
	return b.String()
}
