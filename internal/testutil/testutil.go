package testutil

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"
)

// Compression selects how WritePackage compresses the archive.
type Compression string

// Supported package compressions.
const (
	Zstd  Compression = "zst"
	XZ    Compression = "xz"
	Gzip  Compression = "gz"
	Plain Compression = "none"
)

// Package describes a fake package archive.
type Package struct {
	Name    string
	Version string
	Arch    string
	// Compression defaults to Zstd.
	Compression Compression
	// Payload is extra file content stored after .PKGINFO to give the archive a size.
	Payload []byte
}

// FileName returns the canonical cache file name of p.
func (p Package) FileName() string {
	arch := p.Arch
	if arch == "" {
		arch = "x86_64"
	}
	name := fmt.Sprintf("%s-%s-%s.pkg.tar", p.Name, p.Version, arch)
	if p.compression() != Plain {
		name += "." + string(p.compression())
	}
	return name
}

func (p Package) compression() Compression {
	if p.Compression == "" {
		return Zstd
	}
	return p.Compression
}

// WritePackage writes p as a package archive into dir and returns its path.
// t is the active test; dir is the cache directory; p describes the archive.
func WritePackage(t *testing.T, dir string, p Package) string {
	t.Helper()
	path := filepath.Join(dir, p.FileName())
	if err := os.WriteFile(path, PackageBytes(t, p), 0o644); err != nil {
		t.Fatalf("write package: %v", err)
	}
	return path
}

// PackageBytes returns the archive bytes for p.
// t is the active test; p describes the archive.
func PackageBytes(t *testing.T, p Package) []byte {
	t.Helper()
	arch := p.Arch
	if arch == "" {
		arch = "x86_64"
	}
	pkginfo := fmt.Sprintf("# Generated by makepkg\npkgname = %s\npkgbase = %s\npkgver = %s\narch = %s\n", p.Name, p.Name, p.Version, arch)

	var tarBuf bytes.Buffer
	tw := tar.NewWriter(&tarBuf)
	writeEntry(t, tw, ".PKGINFO", []byte(pkginfo))
	if len(p.Payload) > 0 {
		writeEntry(t, tw, "usr/share/"+p.Name+"/data", p.Payload)
	}
	if err := tw.Close(); err != nil {
		t.Fatalf("close tar: %v", err)
	}
	return Compress(t, p.compression(), tarBuf.Bytes())
}

// Compress compresses data with c.
// t is the active test; c is the compression; data is the raw stream.
func Compress(t *testing.T, c Compression, data []byte) []byte {
	t.Helper()
	var out bytes.Buffer
	var w io.WriteCloser
	var err error
	switch c {
	case Zstd:
		w, err = zstd.NewWriter(&out)
	case XZ:
		w, err = xz.NewWriter(&out)
	case Gzip:
		w = gzip.NewWriter(&out)
	case Plain:
		return data
	default:
		t.Fatalf("unknown compression %q", c)
	}
	if err != nil {
		t.Fatalf("create %s writer: %v", c, err)
	}
	if _, err := w.Write(data); err != nil {
		t.Fatalf("compress: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close %s writer: %v", c, err)
	}
	return out.Bytes()
}

func writeEntry(t *testing.T, tw *tar.Writer, name string, content []byte) {
	t.Helper()
	if err := tw.WriteHeader(&tar.Header{Name: name, Mode: 0o644, Size: int64(len(content)), Typeflag: tar.TypeReg}); err != nil {
		t.Fatalf("write tar header: %v", err)
	}
	if _, err := tw.Write(content); err != nil {
		t.Fatalf("write tar entry: %v", err)
	}
}

// WriteLocalDB creates a pacman local database under dbPath with one entry per
// name=version pair, and returns the local directory.
// t is the active test; dbPath is the DBPath root; installed maps names to versions.
func WriteLocalDB(t *testing.T, dbPath string, installed map[string]string) string {
	t.Helper()
	local := filepath.Join(dbPath, "local")
	if err := os.MkdirAll(local, 0o755); err != nil {
		t.Fatalf("create local db: %v", err)
	}
	if err := os.WriteFile(filepath.Join(local, "ALPM_DB_VERSION"), []byte("9\n"), 0o644); err != nil {
		t.Fatalf("write db version: %v", err)
	}
	for name, version := range installed {
		entry := filepath.Join(local, name+"-"+version)
		if err := os.MkdirAll(entry, 0o755); err != nil {
			t.Fatalf("create db entry: %v", err)
		}
		desc := strings.Join([]string{
			"%NAME%", name, "",
			"%VERSION%", version, "",
			"%ARCH%", "x86_64", "",
		}, "\n")
		if err := os.WriteFile(filepath.Join(entry, "desc"), []byte(desc), 0o644); err != nil {
			t.Fatalf("write desc: %v", err)
		}
	}
	return local
}

// WriteFile writes content to dir/name, creating parent directories.
// t is the active test; dir is the base directory; name is the relative path.
func WriteFile(t *testing.T, dir string, name string, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("create dir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	return path
}
