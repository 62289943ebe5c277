// Package pkginfo reads package metadata from the .PKGINFO entry of a
// pacman package archive.
package pkginfo

import (
	"archive/tar"
	"bufio"
	"bytes"
	"compress/bzip2"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"

	"github.com/conn-castle/pkgtrim/internal/messages"
)

// ErrNotPackage reports a file that is not a readable package archive.
var ErrNotPackage = errors.New(messages.PkginfoNotPackage)

// maxPkginfoSize bounds how much of .PKGINFO is read.
const maxPkginfoSize = 1 << 20

// Info is the subset of .PKGINFO used for classification.
type Info struct {
	Name    string
	Version string
	Arch    string
}

var (
	magicZstd  = []byte{0x28, 0xb5, 0x2f, 0xfd}
	magicXZ    = []byte{0xfd, '7', 'z', 'X', 'Z', 0x00}
	magicGzip  = []byte{0x1f, 0x8b}
	magicBzip2 = []byte("BZh")
)

// IsCandidate reports whether a cache file name looks like a package archive.
// Signatures and partial downloads are excluded.
func IsCandidate(name string) bool {
	if strings.HasSuffix(name, ".sig") || strings.HasSuffix(name, ".part") {
		return false
	}
	return strings.Contains(name, ".pkg.tar")
}

// ReadFile opens path and reads its metadata.
func ReadFile(path string) (Info, error) {
	f, err := os.Open(path)
	if err != nil {
		return Info{}, err
	}
	defer func() {
		_ = f.Close()
	}()
	return Read(f)
}

// Read decompresses r as needed and parses its .PKGINFO entry.
func Read(r io.Reader) (Info, error) {
	stream, closeFn, err := decompress(bufio.NewReader(r))
	if err != nil {
		return Info{}, err
	}
	defer closeFn()

	tr := tar.NewReader(stream)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return Info{}, fmt.Errorf(messages.PkginfoMissingFmt, ErrNotPackage)
		}
		if err != nil {
			return Info{}, fmt.Errorf(messages.PkginfoReadArchiveFmt, ErrNotPackage, err)
		}
		if strings.TrimPrefix(hdr.Name, "./") != ".PKGINFO" {
			continue
		}
		data, err := io.ReadAll(io.LimitReader(tr, maxPkginfoSize))
		if err != nil {
			return Info{}, fmt.Errorf(messages.PkginfoReadArchiveFmt, ErrNotPackage, err)
		}
		return Parse(data)
	}
}

// Parse reads "key = value" lines of a .PKGINFO file.
func Parse(data []byte) (Info, error) {
	var info Info
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)
		switch strings.TrimSpace(key) {
		case "pkgname":
			info.Name = value
		case "pkgver":
			info.Version = value
		case "arch":
			info.Arch = value
		}
	}
	if err := scanner.Err(); err != nil {
		return Info{}, fmt.Errorf(messages.PkginfoReadArchiveFmt, ErrNotPackage, err)
	}
	if info.Name == "" || info.Version == "" {
		return Info{}, fmt.Errorf(messages.PkginfoIncompleteFmt, ErrNotPackage)
	}
	return info, nil
}

// decompress picks a decoder from the stream's magic bytes.
func decompress(br *bufio.Reader) (io.Reader, func(), error) {
	head, err := br.Peek(6)
	if err != nil && len(head) == 0 {
		return nil, nil, fmt.Errorf(messages.PkginfoReadArchiveFmt, ErrNotPackage, err)
	}
	noop := func() {}
	switch {
	case bytes.HasPrefix(head, magicZstd):
		dec, err := zstd.NewReader(br)
		if err != nil {
			return nil, nil, fmt.Errorf(messages.PkginfoReadArchiveFmt, ErrNotPackage, err)
		}
		return dec, dec.Close, nil
	case bytes.HasPrefix(head, magicXZ):
		dec, err := xz.NewReader(br)
		if err != nil {
			return nil, nil, fmt.Errorf(messages.PkginfoReadArchiveFmt, ErrNotPackage, err)
		}
		return dec, noop, nil
	case bytes.HasPrefix(head, magicGzip):
		dec, err := gzip.NewReader(br)
		if err != nil {
			return nil, nil, fmt.Errorf(messages.PkginfoReadArchiveFmt, ErrNotPackage, err)
		}
		return dec, func() { _ = dec.Close() }, nil
	case bytes.HasPrefix(head, magicBzip2):
		return bzip2.NewReader(br), noop, nil
	default:
		return br, noop, nil
	}
}
