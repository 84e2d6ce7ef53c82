// Package power shuts down or restarts the host.
package power

import (
	"context"
	"fmt"
	"log"
	"os/exec"
	"strings"
)

// Controller performs OS-level power actions
type Controller interface {
	Shutdown(ctx context.Context) error
	Restart(ctx context.Context) error
}

// Runner executes a command; swapped out in tests
type Runner func(ctx context.Context, name string, args ...string) error

// Exec runs the system power commands through sudo
type Exec struct {
	Run Runner
}

// NewExec returns a controller that really powers the machine off
func NewExec() *Exec {
	return &Exec{Run: runCommand}
}

func (e *Exec) Shutdown(ctx context.Context) error {
	return e.run(ctx, "sudo", "shutdown", "-h", "now")
}

func (e *Exec) Restart(ctx context.Context) error {
	return e.run(ctx, "sudo", "reboot")
}

func (e *Exec) run(ctx context.Context, name string, args ...string) error {
	log.Printf("Power: running %s %s", name, strings.Join(args, " "))
	if err := e.Run(ctx, name, args...); err != nil {
		return fmt.Errorf("%s %s: %w", name, strings.Join(args, " "), err)
	}
	return nil
}

func runCommand(ctx context.Context, name string, args ...string) error {
	out, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	if err != nil && len(out) > 0 {
		return fmt.Errorf("%w: %s", err, strings.TrimSpace(string(out)))
	}
	return err
}

// DryRun only logs what it would do
type DryRun struct{}

func (DryRun) Shutdown(ctx context.Context) error {
	log.Println("Power: dry run, not shutting down")
	return nil
}

func (DryRun) Restart(ctx context.Context) error {
	log.Println("Power: dry run, not restarting")
	return nil
}
