// Package satdump owns the SDR capture child process. The tracker spawns at
// most one instance per pass, either alongside steering (start mode) or as a
// blocking run after the pass (end mode). A missing binary or a failed spawn
// never aborts a pass; the station keeps steering and seals whatever files
// exist.
package satdump

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/exec"
	"strconv"
	"time"

	"github.com/palydovai/stotis/internal/config"
)

// Binary is the capture tool invoked for every recording.
const Binary = "satdump"

// StopGrace is how long a terminated child gets before the kill.
const StopGrace = 10 * time.Second

// Args builds the SatDump invocation for one pass. The device-args flag is
// appended only when configured.
func Args(s config.Settings, satName, outDir string) []string {
	sat, _ := Alias(satName)
	args := []string{
		"--no-gui",
		"--auto",
		"--source", s.SatdumpSource,
		"--satellite", sat,
		"-s", strconv.Itoa(s.SatdumpRate),
		"-o", outDir,
	}
	if s.SatdumpDeviceArgs != "" {
		args = append(args, "--device-args", s.SatdumpDeviceArgs)
	}
	return args
}

// Runner spawns and supervises capture processes.
type Runner struct {
	Bin string // defaults to Binary when empty
	Log *log.Logger
}

func (r *Runner) bin() string {
	if r.Bin != "" {
		return r.Bin
	}
	return Binary
}

func (r *Runner) warnUnknown(satName string) {
	if _, known := Alias(satName); !known {
		r.Log.Printf("satdump: %q has no alias, passing raw name through", satName)
	}
}

// Start launches a capture in the background and returns a stop function.
// When the binary is absent the spawn is logged and a nil stop is returned;
// the caller steers without capture. The stop function terminates the child
// and force-kills it after the grace period.
func (r *Runner) Start(satName, outDir string, s config.Settings) (func(grace time.Duration), error) {
	if _, err := exec.LookPath(r.bin()); err != nil {
		r.Log.Printf("satdump: %s not found, pass will steer without capture", r.bin())
		return nil, nil
	}
	r.warnUnknown(satName)

	cmd := exec.Command(r.bin(), Args(s, satName, outDir)...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Start(); err != nil {
		r.Log.Printf("satdump: start failed: %v", err)
		return nil, nil
	}
	r.Log.Printf("satdump: started pid %d for %s -> %s", cmd.Process.Pid, satName, outDir)

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	stop := func(grace time.Duration) {
		select {
		case <-done:
			return
		default:
		}
		_ = cmd.Process.Signal(os.Interrupt)
		select {
		case <-done:
			r.Log.Printf("satdump: pid %d exited", cmd.Process.Pid)
		case <-time.After(grace):
			r.Log.Printf("satdump: pid %d did not exit in %s, killing", cmd.Process.Pid, grace)
			_ = cmd.Process.Kill()
			<-done
		}
	}
	return stop, nil
}

// RunBlocking executes a capture to completion with a hard deadline. The
// context deadline kills the child; a timeout is logged, not returned, so
// the pass seals with whatever was written.
func (r *Runner) RunBlocking(ctx context.Context, satName, outDir string, s config.Settings, timeout time.Duration) error {
	if _, err := exec.LookPath(r.bin()); err != nil {
		r.Log.Printf("satdump: %s not found, skipping capture", r.bin())
		return nil
	}
	r.warnUnknown(satName)

	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, r.bin(), Args(s, satName, outDir)...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	r.Log.Printf("satdump: blocking capture for %s (timeout %s)", satName, timeout)
	err := cmd.Run()
	if runCtx.Err() == context.DeadlineExceeded {
		r.Log.Printf("satdump: capture for %s hit the %s deadline, terminated", satName, timeout)
		return nil
	}
	if err != nil {
		return fmt.Errorf("satdump run: %w", err)
	}
	return nil
}
