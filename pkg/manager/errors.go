package manager

import "fmt"

// AlreadyMountedError reports a mount request for a host that already has
// an active mount. The existing mount is left untouched.
type AlreadyMountedError struct {
	Hostname     string
	ExistingPath string
}

func (e *AlreadyMountedError) Error() string {
	return fmt.Sprintf("host %s already mounted at %s", e.Hostname, e.ExistingPath)
}

// UnmountFailedError reports that every teardown strategy failed. The
// mount point is left in place; removing it under a live mount would
// orphan the kernel mount.
type UnmountFailedError struct {
	LocalPath string
	Err       error
}

func (e *UnmountFailedError) Error() string {
	return fmt.Sprintf("unmount %s: %v", e.LocalPath, e.Err)
}

func (e *UnmountFailedError) Unwrap() error {
	return e.Err
}
