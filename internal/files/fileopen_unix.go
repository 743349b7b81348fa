//go:build !windows

package files

import (
	stderrors "errors"
	"os"
	"syscall"

	"github.com/hpungsan/agenda/internal/errors"
)

// openNoFollow opens path with O_NOFOLLOW|O_CLOEXEC. A symlink at the final
// path component fails with INVALID_REQUEST instead of being followed.
func openNoFollow(path string, flag int, perm os.FileMode) (*os.File, error) {
	fd, err := syscall.Open(path, flag|syscall.O_NOFOLLOW|syscall.O_CLOEXEC, uint32(perm))
	if err != nil {
		if stderrors.Is(err, syscall.ELOOP) {
			return nil, errors.NewInvalidRequest("path must not be a symlink")
		}
		return nil, openError(path, err)
	}
	return os.NewFile(uintptr(fd), path), nil
}
