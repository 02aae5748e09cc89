package executor

import (
	"context"
	"os/exec"
	"time"
)

//go:generate go run github.com/maxbrunsfeld/counterfeiter/v6 -generate

const defaultWaitDelay = 10 * time.Second

//counterfeiter:generate . Executor
type Executor interface {
	CommandContext(ctx context.Context, name string, args ...string) Command
}

//counterfeiter:generate . Command
type Command interface {
	SetDir(dir string)
	CombinedOutput() ([]byte, error)
}

var _ Executor = BinaryFileExecutor{}

// BinaryFileExecutor runs real binaries. A cancelled context kills the process,
// WaitDelay bounds how long we wait on its output pipes afterwards.
type BinaryFileExecutor struct {
	WaitDelay time.Duration
}

func (b BinaryFileExecutor) CommandContext(ctx context.Context, name string, args ...string) Command {
	cmd := exec.CommandContext(ctx, name, args...)

	cmd.WaitDelay = b.WaitDelay
	if cmd.WaitDelay == 0 {
		cmd.WaitDelay = defaultWaitDelay
	}

	return &binaryCommand{cmd: cmd}
}

type binaryCommand struct {
	cmd *exec.Cmd
}

func (b *binaryCommand) SetDir(dir string) {
	b.cmd.Dir = dir
}

func (b *binaryCommand) CombinedOutput() ([]byte, error) {
	return b.cmd.CombinedOutput()
}
