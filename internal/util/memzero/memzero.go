// Package memzero wipes secrets held in byte slices.
package memzero

import "runtime"

// Zero clears every buffer in place. KeepAlive keeps the writes from being
// dropped as dead stores.
func Zero(bufs ...[]byte) {
	for _, b := range bufs {
		clear(b)
		runtime.KeepAlive(b)
	}
}
