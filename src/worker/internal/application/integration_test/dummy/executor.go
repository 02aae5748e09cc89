package dummy

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/veedubyou/stem-remixer/src/shared/remix/stem"
	"github.com/veedubyou/stem-remixer/src/worker/internal/application/executor"
)

type Invocation struct {
	Name string
	Args []string
	Dir  string
}

type invocationLog struct {
	mutex       sync.Mutex
	invocations []Invocation
}

func (i *invocationLog) record(invocation Invocation) {
	i.mutex.Lock()
	defer i.mutex.Unlock()
	i.invocations = append(i.invocations, invocation)
}

func (i *invocationLog) Invocations() []Invocation {
	i.mutex.Lock()
	defer i.mutex.Unlock()
	return append([]Invocation{}, i.invocations...)
}

// funcCommand adapts a closure to executor.Command.
type funcCommand struct {
	dir string
	run func(dir string) ([]byte, error)
}

func (f *funcCommand) SetDir(dir string) {
	f.dir = dir
}

func (f *funcCommand) CombinedOutput() ([]byte, error) {
	return f.run(f.dir)
}

func argValue(args []string, flag string) string {
	for i := 0; i < len(args)-1; i++ {
		if args[i] == flag {
			return args[i+1]
		}
	}

	return ""
}

func argValues(args []string, flag string) []string {
	values := []string{}
	for i := 0; i < len(args)-1; i++ {
		if args[i] == flag {
			values = append(values, args[i+1])
		}
	}

	return values
}

var _ executor.Executor = &DemucsExecutor{}

// DemucsExecutor writes "<input contents>-<stem>" into each stem file,
// laid out the way demucs does it.
type DemucsExecutor struct {
	invocationLog
	Fail         bool
	FailOutput   string
	MissingStems []stem.Name
	// Started is signalled when a run begins, Block holds the run until
	// its context ends.
	Started chan struct{}
	Block   bool
}

func NewDummyDemucsExecutor() *DemucsExecutor {
	return &DemucsExecutor{
		FailOutput: "RuntimeError: Could not load file",
	}
}

func (d *DemucsExecutor) CommandContext(ctx context.Context, name string, args ...string) executor.Command {
	return &funcCommand{run: func(dir string) ([]byte, error) {
		d.record(Invocation{Name: name, Args: args, Dir: dir})

		if d.Started != nil {
			d.Started <- struct{}{}
		}

		if d.Block {
			<-ctx.Done()
		}

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		if d.Fail {
			return []byte(d.FailOutput), ToolFailure
		}

		inputPath := args[len(args)-1]
		contents, err := os.ReadFile(inputPath)
		if err != nil {
			return []byte(err.Error()), ToolFailure
		}

		base := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))
		stemDir := filepath.Join(argValue(args, "--out"), argValue(args, "-n"), base)
		if err := os.MkdirAll(stemDir, 0o755); err != nil {
			return []byte(err.Error()), ToolFailure
		}

		for _, name := range stem.All {
			if d.isMissing(name) {
				continue
			}

			stemContents := append(append([]byte{}, contents...), []byte("-"+string(name))...)
			if err := os.WriteFile(filepath.Join(stemDir, name.FileName()), stemContents, 0o644); err != nil {
				return []byte(err.Error()), ToolFailure
			}
		}

		return []byte("Separated tracks will be stored in " + stemDir), nil
	}}
}

func (d *DemucsExecutor) isMissing(name stem.Name) bool {
	for _, missing := range d.MissingStems {
		if missing == name {
			return true
		}
	}

	return false
}

var _ executor.Executor = &FFmpegExecutor{}

// FFmpegExecutor concatenates its inputs into the output file,
// padded to SizeFor(bitrate) bytes when SizeFor is set.
type FFmpegExecutor struct {
	invocationLog
	SizeFor       func(bitrate string) int64
	FailAtBitrate string
}

func NewDummyFFmpegExecutor() *FFmpegExecutor {
	return &FFmpegExecutor{}
}

func (f *FFmpegExecutor) CommandContext(ctx context.Context, name string, args ...string) executor.Command {
	return &funcCommand{run: func(dir string) ([]byte, error) {
		f.record(Invocation{Name: name, Args: args, Dir: dir})

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		bitrate := argValue(args, "-b:a")
		if f.FailAtBitrate != "" && bitrate == f.FailAtBitrate {
			return []byte("Error while opening encoder"), ToolFailure
		}

		mixed := [][]byte{}
		for _, input := range argValues(args, "-i") {
			contents, err := os.ReadFile(input)
			if err != nil {
				return []byte(err.Error()), ToolFailure
			}
			mixed = append(mixed, contents)
		}

		outContents := bytes.Join(mixed, []byte("+"))
		if f.SizeFor != nil {
			outContents = bytes.Repeat([]byte("x"), int(f.SizeFor(bitrate)))
		}

		outPath := args[len(args)-1]
		if err := os.WriteFile(outPath, outContents, 0o644); err != nil {
			return []byte(err.Error()), ToolFailure
		}

		return []byte("size=" + bitrate), nil
	}}
}

// Bitrates are the -b:a values in the order they were tried.
func (f *FFmpegExecutor) Bitrates() []string {
	bitrates := []string{}
	for _, invocation := range f.Invocations() {
		bitrates = append(bitrates, argValue(invocation.Args, "-b:a"))
	}

	return bitrates
}

var _ executor.Executor = &VersionExecutor{}

// VersionExecutor answers version probes for the binaries in Available.
type VersionExecutor struct {
	invocationLog
	Available map[string]string
}

func (v *VersionExecutor) CommandContext(ctx context.Context, name string, args ...string) executor.Command {
	return &funcCommand{run: func(dir string) ([]byte, error) {
		v.record(Invocation{Name: name, Args: args, Dir: dir})

		banner, ok := v.Available[name]
		if !ok {
			return []byte(name + ": not found"), ToolFailure
		}

		return []byte(banner), nil
	}}
}
