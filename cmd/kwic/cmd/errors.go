package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/corey/kwic/internal/adapters/socket"
	"github.com/spf13/cobra"
	bolt "go.etcd.io/bbolt"
)

// Process exit codes. grep keeps GNU semantics on top of these:
// 0 = lines matched, 1 = none matched.
const (
	exitFailure  = 1
	exitUsage    = 2
	exitNotFound = 3
	exitLoad     = 4
)

// exitStatus carries a bare exit code with no message, like grep's
// "no lines selected".
type exitStatus int

func (e exitStatus) Error() string { return fmt.Sprintf("exit status %d", int(e)) }

// usageError marks bad flags or arguments.
type usageError struct{ err error }

func (e usageError) Error() string { return e.err.Error() }
func (e usageError) Unwrap() error { return e.err }

// exactArgs is cobra.ExactArgs reporting a usage error.
func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.ExactArgs(n)(cmd, args); err != nil {
			return usageError{err}
		}
		return nil
	}
}

// ExitCode maps an error returned by Execute to a process exit code.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var es exitStatus
	if errors.As(err, &es) {
		return int(es)
	}
	var ue usageError
	if errors.As(err, &ue) {
		return exitUsage
	}
	var se *socket.Error
	if errors.As(err, &se) {
		switch se.Code {
		case socket.CodeInvalid:
			return exitUsage
		case socket.CodeNotFound:
			return exitNotFound
		case socket.CodeLoad:
			return exitLoad
		}
	}
	return exitFailure
}

// IsSilent reports errors that only carry an exit code.
func IsSilent(err error) bool {
	var es exitStatus
	return errors.As(err, &es)
}

// isDBLockError returns true if the error chain contains a bbolt lock timeout.
// bbolt gives up with ErrTimeout when it cannot acquire the file lock within
// the configured deadline.
func isDBLockError(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, bolt.ErrTimeout) || strings.Contains(err.Error(), "timeout")
}

// diagnoseDBLock checks the daemon state and returns actionable guidance
// when the archive cannot be opened due to lock contention. It distinguishes
// three scenarios: daemon running, stale socket, and unknown lock holder.
func diagnoseDBLock(sockPath, archive string) string {
	client := socket.NewClient(sockPath)

	if client.Ping() {
		return fmt.Sprintf("archive %s is open in the running daemon\n"+
			"  → stop it first:  kwic daemon stop --archive %s\n"+
			"  → then retry your command", archive, archive)
	}

	if _, err := os.Stat(sockPath); err == nil {
		return fmt.Sprintf("archive %s is locked and the daemon socket is not responding\n"+
			"  → a previous daemon may have crashed\n"+
			"  → find the process:  ps aux | grep 'kwic serve'\n"+
			"  → kill it:           kill <PID>\n"+
			"  → clean up socket:   rm %s", archive, sockPath)
	}

	return fmt.Sprintf("archive %s is locked by another process (an import may be running)\n"+
		"  → find the process:  ps aux | grep 'kwic'\n"+
		"  → then retry your command", archive)
}

// lockError replaces a bbolt lock timeout with a diagnosis.
func lockError(err error) error {
	if cfg.UsesArchive() && isDBLockError(err) {
		return errors.New(diagnoseDBLock(cfg.SocketPath(), cfg.Archive))
	}
	return err
}
