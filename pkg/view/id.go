package view

import "sync/atomic"

// globalUIDCounter is the source of view uids. It is only ever
// incremented, so uids are unique and monotonically increasing for the
// life of the process.
var globalUIDCounter uint64

// nextUID returns the next view uid.
func nextUID() uint64 {
	return atomic.AddUint64(&globalUIDCounter, 1)
}
