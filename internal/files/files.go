// Package files reads schedule documents and writes exports for the CLI.
package files

import (
	"crypto/rand"
	"encoding/hex"
	stderrors "errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/hpungsan/agenda/internal/errors"
)

// ReadLimited reads path, failing with PAYLOAD_TOO_LARGE when it holds more
// than maxBytes. maxBytes <= 0 disables the limit.
func ReadLimited(path string, maxBytes int64) ([]byte, error) {
	f, err := openNoFollow(path, os.O_RDONLY, 0)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var r io.Reader = f
	if maxBytes > 0 {
		r = io.LimitReader(f, maxBytes+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.NewInternal(fmt.Errorf("read %s: %w", path, err))
	}
	if maxBytes > 0 && int64(len(data)) > maxBytes {
		return nil, errors.NewPayloadTooLarge(int(maxBytes >> 20))
	}
	return data, nil
}

// WriteAtomic writes data to a temp file next to path and renames it into
// place, so an existing export survives a failed write.
func WriteAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.NewInternal(fmt.Errorf("create output directory: %w", err))
	}

	randBytes := make([]byte, 8)
	if _, err := rand.Read(randBytes); err != nil {
		return errors.NewInternal(fmt.Errorf("generate temp file name: %w", err))
	}
	tempPath := path + "." + hex.EncodeToString(randBytes) + ".tmp"
	file, err := openNoFollow(tempPath, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0644)
	if err != nil {
		return err
	}

	// Clean up temp file on failure (the previous export is preserved)
	success := false
	defer func() {
		if file != nil {
			file.Close()
		}
		if !success {
			os.Remove(tempPath)
		}
	}()

	if _, err := file.Write(data); err != nil {
		return errors.NewInternal(fmt.Errorf("write %s: %w", tempPath, err))
	}
	if err := file.Sync(); err != nil {
		return errors.NewInternal(fmt.Errorf("sync %s: %w", tempPath, err))
	}
	if err := file.Close(); err != nil {
		return errors.NewInternal(fmt.Errorf("close %s: %w", tempPath, err))
	}
	file = nil

	// os.Rename would replace a symlink at path, not its target
	if info, err := os.Lstat(path); err == nil && info.Mode()&os.ModeSymlink != 0 {
		return errors.NewInvalidRequest("path must not be a symlink")
	}
	if err := os.Rename(tempPath, path); err != nil {
		return errors.NewInternal(fmt.Errorf("rename into %s: %w", path, err))
	}

	success = true
	return nil
}

// openError maps an open failure onto an AgendaError.
func openError(path string, err error) error {
	if stderrors.Is(err, fs.ErrNotExist) {
		return errors.NewFileNotFound(path)
	}
	return errors.NewInternal(fmt.Errorf("open %s: %w", path, err))
}
