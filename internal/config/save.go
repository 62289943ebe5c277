package config

import (
	"fmt"
	"os"
	"path/filepath"

	tomlv1 "github.com/pelletier/go-toml"

	"github.com/conn-castle/pkgtrim/internal/messages"
)

// PersistError reports that the config could not be saved. The previous file,
// if any, is left untouched.
type PersistError struct {
	Path string
	Err  error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf(messages.ConfigPersistFmt, e.Path, e.Err)
}

func (e *PersistError) Unwrap() error {
	return e.Err
}

var (
	mkdirAllFn   = os.MkdirAll
	createTempFn = os.CreateTemp
	renameFn     = os.Rename
)

// Save validates cfg and atomically replaces the file at path.
func Save(path string, cfg *Config) error {
	if err := cfg.Validate(path); err != nil {
		return fmt.Errorf("%w: %w", ErrConfigValidation, err)
	}
	data, err := Marshal(cfg)
	if err != nil {
		return &PersistError{Path: path, Err: err}
	}
	// Syntax check on the rendered document before it replaces the old one.
	if _, err := tomlv1.LoadBytes(data); err != nil {
		return &PersistError{Path: path, Err: err}
	}
	if err := writeFileAtomic(path, data); err != nil {
		return &PersistError{Path: path, Err: err}
	}
	return nil
}

// writeFileAtomic writes data to a temp file next to path, syncs it and
// renames it into place. The temp file is removed on failure.
func writeFileAtomic(path string, data []byte) (err error) {
	dir := filepath.Dir(path)
	if err := mkdirAllFn(dir, 0o755); err != nil {
		return err
	}
	tmp, err := createTempFn(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return err
	}
	if err = tmp.Chmod(0o644); err != nil {
		return err
	}
	if err = tmp.Sync(); err != nil {
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	return renameFn(tmpName, path)
}
