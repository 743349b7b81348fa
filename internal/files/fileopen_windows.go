//go:build windows

package files

import "os"

// openNoFollow opens path. Windows has no O_NOFOLLOW; ValidatePath's Lstat
// check is the only symlink guard there.
func openNoFollow(path string, flag int, perm os.FileMode) (*os.File, error) {
	f, err := os.OpenFile(path, flag, perm)
	if err != nil {
		return nil, openError(path, err)
	}
	return f, nil
}
