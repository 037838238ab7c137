// Package shutdown coordinates graceful process termination.
//
//	h := shutdown.NewHandler(10 * time.Second)
//	h.OnShutdown(srv.Shutdown)
//	err := h.Wait(ctx) // returns after SIGINT/SIGTERM and all hooks ran
package shutdown
