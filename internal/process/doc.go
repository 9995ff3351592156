// Package process supervises a fixed batch of independent child processes.
//
// A Supervisor launches every ChildSpec of a batch in order (LaunchAll),
// then blocks until all of them have exited (WaitAll):
//   - Each child runs in its own process group with output streamed
//     line by line through a pluggable LogParser
//   - Launch failures are collected per child; the rest of the batch
//     still starts
//   - SIGINT and SIGTERM are caught from LaunchAll until WaitAll returns;
//     the first one, or context cancellation, sends the stop signal to
//     every running child in launch order
//   - Children still running after the grace period are killed
//   - Terminating a child that already exited is a no-op
//
// Example usage:
//
//	sup := process.NewSupervisor(process.WithLogger(logger))
//	group, failures, err := sup.LaunchAll(specs)
//	if err != nil {
//	    return err
//	}
//	for _, f := range failures {
//	    log.Printf("child %d failed: %v", f.Index, f)
//	}
//	outcomes := sup.WaitAll(ctx, group)
package process
