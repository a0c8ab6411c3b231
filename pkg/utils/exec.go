package utils

import (
	"bytes"
	"context"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"
)

// killGrace is how long a cancelled child may keep its output pipes open after being killed.
const killGrace = 2 * time.Second

// Runner runs an external command and captures its output. Tests stub it.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)
}

// ExecRunner runs commands with os/exec. The child is killed when ctx expires.
type ExecRunner struct {
	Logger *zap.Logger // optional
}

// Run executes name with args and returns captured stdout and stderr.
func (r ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	start := time.Now()

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.WaitDelay = killGrace
	var out, errb bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errb

	err := cmd.Run()
	if ctx.Err() != nil && err != nil {
		err = ctx.Err()
	}
	if r.Logger != nil {
		fields := []zap.Field{
			zap.String("cmd", name),
			zap.String("args", strings.Join(args, " ")),
			zap.Duration("duration", time.Since(start)),
		}
		if err != nil {
			r.Logger.Debug("exec failed", append(fields, zap.Error(err), zap.String("stderr", Truncate(errb.String(), 8<<10)))...)
		} else {
			r.Logger.Debug("exec ok", append(fields, zap.Int("stdout_bytes", out.Len()))...)
		}
	}
	return out.Bytes(), errb.Bytes(), err
}
