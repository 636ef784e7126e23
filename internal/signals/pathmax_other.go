//go:build !linux

package signals

// PathMax is the longest path, including the terminating NUL, the hangup
// fallback will try to create.
const PathMax = 1024
