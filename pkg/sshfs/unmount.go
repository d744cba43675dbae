package sshfs

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"

	"github.com/moorfs/moorfs/pkg/proc"
)

// unmountStrategies are tried in order until one succeeds. fusermount
// covers most Linux FUSE installs, fusermount3 the split fuse3 packages,
// lazy umount survives busy mounts, plain umount needs user mount
// permissions, and diskutil handles macOS.
var unmountStrategies = [][]string{
	{"fusermount", "-u"},
	{"fusermount3", "-u"},
	{"umount", "-l"},
	{"umount"},
	{"diskutil", "unmount"},
}

// Unmount detaches the filesystem at localPath. When every strategy fails,
// the returned error aggregates each strategy's failure.
func Unmount(ctx context.Context, runner proc.Runner, localPath string) error {
	var result *multierror.Error
	for _, strategy := range unmountStrategies {
		args := make([]string, 0, len(strategy))
		args = append(args, strategy[1:]...)
		args = append(args, localPath)

		out, err := runner.Run(ctx, strategy[0], args...)
		if err == nil {
			return nil
		}
		result = multierror.Append(result, fmt.Errorf("%s: %w: %s",
			strings.Join(strategy, " "), err, bytes.TrimSpace(out)))
	}
	return result.ErrorOrNil()
}
