package device

import (
	"bufio"
	"errors"
	"io/fs"
	"os"
	"strings"
)

// EncryptionMap binds a container's canonical UUID to its mapped device name
type EncryptionMap map[string]string

// ParseMappingTable parses crypttab content. Lines need at least four
// fields (name, source, key file, options); shorter lines are skipped.
// Options are not used to filter entries.
func ParseMappingTable(content string, aliases AliasMap) EncryptionMap {
	result := make(EncryptionMap)
	scanner := bufio.NewScanner(strings.NewReader(content))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 4 {
			continue
		}
		result[canonicalSource(fields[1], aliases)] = fields[0]
	}
	return result
}

// canonicalSource resolves a source specifier through the alias map. An
// unresolved UUID= form is already canonical once the prefix is removed;
// anything else is kept verbatim.
func canonicalSource(source string, aliases AliasMap) string {
	if fsUUID, ok := aliases[source]; ok {
		return fsUUID
	}
	if strings.HasPrefix(source, PrefixUUID) {
		return strings.TrimPrefix(source, PrefixUUID)
	}
	return source
}

// ReadMappingTable reads and parses the crypttab at path. A missing file is
// an empty table.
func ReadMappingTable(path string, aliases AliasMap) (EncryptionMap, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return EncryptionMap{}, nil
		}
		return nil, err
	}
	return ParseMappingTable(string(data), aliases), nil
}
