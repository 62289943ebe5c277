// Package pacman reads the parts of the pacman configuration and local
// database that pkgtrim depends on.
package pacman

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/conn-castle/pkgtrim/internal/messages"
)

// Defaults used when pacman.conf leaves a directive unset.
const (
	DefaultConfPath = "/etc/pacman.conf"
	DefaultDBPath   = "/var/lib/pacman/"
	DefaultRootDir  = "/"
	DefaultCacheDir = "/var/cache/pacman/pkg/"
)

const maxIncludeDepth = 10

// Conf holds the [options] directives pkgtrim uses.
type Conf struct {
	RootDir   string
	DBPath    string
	CacheDirs []string
	// SkippedIncludes lists included files that could not be read.
	SkippedIncludes []string
}

var readFileFn = os.ReadFile
var globFn = filepath.Glob

// LoadConf parses the pacman.conf at path, following Include directives, and
// fills unset directives with pacman's defaults.
// path is the main config file; returns the resolved options or a read/parse error.
func LoadConf(path string) (Conf, error) {
	var conf Conf
	if err := parseFile(&conf, path, 0, false); err != nil {
		return Conf{}, err
	}
	conf.applyDefaults()
	return conf, nil
}

// ParseConf parses pacman.conf content without defaults. Include directives
// are resolved against the filesystem.
// content is the raw file content; returns the directives found or a parse error.
func ParseConf(content string) (Conf, error) {
	var conf Conf
	if err := parseContent(&conf, "<input>", content, 0, false); err != nil {
		return Conf{}, err
	}
	return conf, nil
}

func (c *Conf) applyDefaults() {
	if c.RootDir == "" {
		c.RootDir = DefaultRootDir
	}
	if c.DBPath == "" {
		c.DBPath = DefaultDBPath
	}
	if len(c.CacheDirs) == 0 {
		c.CacheDirs = []string{DefaultCacheDir}
	}
}

// parseFile parses one file; ignore is the section state at its Include line.
func parseFile(conf *Conf, path string, depth int, ignore bool) error {
	data, err := readFileFn(path)
	if err != nil {
		if depth > 0 {
			conf.SkippedIncludes = append(conf.SkippedIncludes, path)
			return nil
		}
		return fmt.Errorf(messages.PacmanReadConfFmt, path, err)
	}
	return parseContent(conf, path, string(data), depth, ignore)
}

// parseContent applies every line of one file. An included file starts in
// the section of its Include line, and its own section headers do not leak
// back into the including file. Only [options] directives are kept, while
// Include is followed everywhere.
func parseContent(conf *Conf, path string, content string, depth int, ignore bool) error {
	scanner := bufio.NewScanner(strings.NewReader(content))
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if idx := strings.IndexByte(line, '#'); idx >= 0 {
			line = line[:idx]
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "[") {
			if !strings.HasSuffix(line, "]") {
				return fmt.Errorf(messages.PacmanInvalidSectionFmt, path, lineNo, line)
			}
			ignore = strings.TrimSpace(line[1:len(line)-1]) != "options"
			continue
		}

		key, value, _ := strings.Cut(line, "=")
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		switch {
		case key == "Include":
			if value == "" || depth+1 >= maxIncludeDepth {
				continue
			}
			matches, err := globFn(value)
			if err != nil {
				continue
			}
			for _, match := range matches {
				if err := parseFile(conf, match, depth+1, ignore); err != nil {
					return err
				}
			}
		case ignore:
			continue
		case key == "DBPath":
			conf.DBPath = value
		case key == "RootDir":
			conf.RootDir = value
		case key == "CacheDir":
			conf.CacheDirs = append(conf.CacheDirs, strings.Fields(value)...)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf(messages.PacmanReadConfFmt, path, err)
	}
	return nil
}
