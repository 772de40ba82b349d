package session

import (
	"fmt"

	"github.com/shirou/gopsutil/v3/process"
)

// validateTarget confirms the target PID is actually running before
// dialing a peer over it, matching the teacher's mgmtdetect/
// process_snapshot.go idiom of using gopsutil as the source of truth for
// "is this process alive" rather than trusting caller-supplied input.
func validateTarget(t Target) error {
	if t.PID == 0 {
		return nil
	}
	running, err := process.PidExists(int32(t.PID))
	if err != nil {
		return fmt.Errorf("session: check target pid: %w", err)
	}
	if !running {
		return fmt.Errorf("session: target pid %d is not running", t.PID)
	}
	return nil
}
