package toolcheck

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/apex/log"
	"github.com/veedubyou/stem-remixer/src/worker/internal/application/executor"
	"github.com/veedubyou/stem-remixer/src/worker/internal/lib/cerr"
)

const probeTimeout = 30 * time.Second

// Requirement is an external binary the pipeline shells out to.
type Requirement struct {
	Name        string
	Command     string
	ProbeArgs   []string
	Description string
}

type Status struct {
	Name        string
	Command     string
	Description string
	Available   bool
	Version     string
	Detail      string
}

func Demucs(binPath string) Requirement {
	return Requirement{
		Name:        "demucs",
		Command:     binPath,
		ProbeArgs:   []string{"--help"},
		Description: "Splits tracks into stems",
	}
}

func FFmpeg(binPath string) Requirement {
	return Requirement{
		Name:        "ffmpeg",
		Command:     binPath,
		ProbeArgs:   []string{"-version"},
		Description: "Mixes stems and encodes MP3",
	}
}

type Checker struct {
	executor executor.Executor
	lookPath func(file string) (string, error)
}

func NewChecker(executor executor.Executor) Checker {
	return Checker{
		executor: executor,
		lookPath: exec.LookPath,
	}
}

// WithLookPath swaps how commands are resolved, tests use it to skip the real PATH.
func (c Checker) WithLookPath(lookPath func(file string) (string, error)) Checker {
	c.lookPath = lookPath
	return c
}

// Check resolves each command and runs its probe.
func (c Checker) Check(ctx context.Context, requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))

	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
		}

		if cmd == "" {
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}

		resolved, err := c.lookPath(cmd)
		if err != nil {
			status.Detail = fmt.Sprintf("binary %q not found", cmd)
			results = append(results, status)
			continue
		}
		status.Command = resolved

		probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
		output, err := c.executor.CommandContext(probeCtx, resolved, req.ProbeArgs...).CombinedOutput()
		cancel()

		if err != nil {
			status.Detail = fmt.Sprintf("probe failed: %s", firstLine(string(output), err.Error()))
			results = append(results, status)
			continue
		}

		status.Available = true
		status.Version = firstLine(string(output), "")
		results = append(results, status)
	}

	return results
}

// Require is Check that fails when anything is unavailable.
func (c Checker) Require(ctx context.Context, requirements ...Requirement) ([]Status, error) {
	statuses := c.Check(ctx, requirements)

	missing := []string{}
	for _, status := range statuses {
		logger := log.WithFields(log.Fields{
			"tool":    status.Name,
			"command": status.Command,
		})

		if status.Available {
			logger.WithField("version", status.Version).Info("Found external tool")
			continue
		}

		logger.WithField("detail", status.Detail).Error("External tool is unavailable")
		missing = append(missing, fmt.Sprintf("%s (%s)", status.Name, status.Detail))
	}

	if len(missing) > 0 {
		return statuses, cerr.Field("missing", missing).Error("Required external tools are unavailable")
	}

	return statuses, nil
}

func firstLine(output string, fallback string) string {
	for _, line := range strings.Split(output, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			return trimmed
		}
	}

	return fallback
}
