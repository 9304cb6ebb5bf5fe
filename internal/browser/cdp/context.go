package cdp

import "context"

// combineContext derives from tabCtx, which carries the CDP target, and is
// also cancelled when opCtx is. Values come from tabCtx only.
func combineContext(tabCtx, opCtx context.Context) (context.Context, context.CancelFunc) {
	combined, cancel := context.WithCancel(tabCtx)
	go func() {
		select {
		case <-opCtx.Done():
			cancel()
		case <-combined.Done():
		}
	}()
	return combined, cancel
}
