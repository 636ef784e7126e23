package signals

import "golang.org/x/sys/unix"

// PathMax is the longest path, including the terminating NUL, the hangup
// fallback will try to create.
const PathMax = unix.PathMax
