package pacman

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/conn-castle/pkgtrim/internal/messages"
)

// ReadInstalled returns name → version for every package in the local
// database under dbPath. Entries without a readable desc file are skipped.
func ReadInstalled(dbPath string) (map[string]string, error) {
	local := filepath.Join(dbPath, "local")
	entries, err := os.ReadDir(local)
	if err != nil {
		return nil, fmt.Errorf(messages.PacmanReadLocalDBFmt, local, err)
	}

	installed := make(map[string]string, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		data, err := readFileFn(filepath.Join(local, entry.Name(), "desc"))
		if err != nil {
			continue
		}
		name, version := parseDesc(data)
		if name == "" || version == "" {
			continue
		}
		installed[name] = version
	}
	return installed, nil
}

// parseDesc extracts %NAME% and %VERSION% from a local database desc file.
func parseDesc(data []byte) (string, string) {
	var name, version string
	var section string
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
			section = ""
		case strings.HasPrefix(line, "%") && strings.HasSuffix(line, "%"):
			section = line
		case section == "%NAME%" && name == "":
			name = line
		case section == "%VERSION%" && version == "":
			version = line
		}
	}
	return name, version
}
