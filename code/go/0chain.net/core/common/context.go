package common

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

var rootContext context.Context
var rootCancel context.CancelFunc

/*SetupRootContext - sets up the root context that can be used to shutdown the node */
func SetupRootContext(ctx context.Context) {
	rootContext, rootCancel = context.WithCancel(ctx)
}

/*GetRootContext - get the root context for the server
* This will be used to control shutting down the server but cleanup all the workers
 */
func GetRootContext() context.Context {
	return rootContext
}

/*Done - call this when the program needs to stop and notify all workers */
func Done() {
	rootCancel()
}

/*HandleShutdown - handles various shutdown signals */
func HandleShutdown(server *http.Server) {
	c := make(chan os.Signal, 2)
	signal.Notify(c, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		for sig := range c {
			switch sig {
			case syscall.SIGINT, syscall.SIGTERM:
				rootCancel()
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				server.Shutdown(ctx) //nolint:errcheck
				cancel()
				return
			}
		}
	}()
}
