package files

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hpungsan/agenda/internal/errors"
)

// Mode indicates whether the path check is for reading or writing.
type Mode int

const (
	ModeRead  Mode = iota // schedule input
	ModeWrite             // CSV/ICS output
)

// ValidatePath checks a CLI input or output path:
// 1. Non-empty
// 2. Extension is one of exts (case-insensitive)
// 3. For reads, the file exists
// 4. The file itself is not a symlink
func ValidatePath(path string, mode Mode, exts ...string) error {
	if strings.TrimSpace(path) == "" {
		return errors.NewInvalidRequest("path is required")
	}

	cleaned := filepath.Clean(path)
	if !hasExtension(cleaned, exts) {
		return errors.NewInvalidRequest(fmt.Sprintf("path must have one of these extensions: %s", strings.Join(exts, ", ")))
	}

	info, err := os.Lstat(cleaned)
	if err != nil {
		if os.IsNotExist(err) {
			if mode == ModeRead {
				return errors.NewFileNotFound(path)
			}
			return nil
		}
		return errors.NewInvalidRequest(fmt.Sprintf("invalid path: %v", err))
	}

	// Reject symlink files for both read and write modes.
	// O_NOFOLLOW at open time would catch this too, but rejecting early gives a clearer error.
	if info.Mode()&os.ModeSymlink != 0 {
		return errors.NewInvalidRequest("path must not be a symlink")
	}
	if info.IsDir() {
		return errors.NewInvalidRequest("path is a directory")
	}
	return nil
}

func hasExtension(path string, exts []string) bool {
	if len(exts) == 0 {
		return true
	}
	ext := strings.ToLower(filepath.Ext(path))
	for _, want := range exts {
		if ext == strings.ToLower(want) {
			return true
		}
	}
	return false
}
