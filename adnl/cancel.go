package adnl

import (
	"context"
	"net"
	"sync"
	"time"
)

// interruptOnCancel expires conn's deadline once ctx is done so blocked
// I/O returns. The returned release detaches the watcher and reports
// whether it fired. When it fired, release waits for the deadline to be
// expired before returning, so a later SetDeadline is never overwritten.
// release may be called more than once.
func interruptOnCancel(ctx context.Context, conn net.Conn) (release func() bool) {
	fired := make(chan struct{})
	stop := context.AfterFunc(ctx, func() {
		conn.SetDeadline(time.Unix(1, 0))
		close(fired)
	})

	var (
		once      sync.Once
		cancelled bool
	)
	return func() bool {
		once.Do(func() {
			if !stop() {
				<-fired
				cancelled = true
			}
		})
		return cancelled
	}
}
