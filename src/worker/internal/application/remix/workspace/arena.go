package workspace

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"github.com/apex/log"
	"github.com/gofrs/flock"
	"github.com/veedubyou/stem-remixer/src/worker/internal/lib/cerr"
)

const (
	dirPrefix  = "job-"
	lockSuffix = ".lock"

	separatedDir = "separated"
	inputDir     = "input"
	outputDir    = "output"
)

var jobIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,128}$`)

// Release tears down a workspace. It's safe to call more than once.
type Release func()

// Arena hands out one private directory per job under a shared root.
// Each directory is guarded by an advisory file lock for the job's lifetime,
// so two jobs never alias paths and a sweeper can tell live from abandoned.
type Arena struct {
	root string
}

func NewArena(root string) (Arena, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return Arena{}, cerr.Field("root", root).Wrap(err).Error("Failed to convert arena root to absolute format")
	}

	if err := os.MkdirAll(absRoot, 0o755); err != nil {
		return Arena{}, cerr.Field("root", absRoot).Wrap(err).Error("Failed to create arena root")
	}

	return Arena{root: absRoot}, nil
}

func (a Arena) Root() string {
	return a.root
}

func (a Arena) dirFor(jobID string) string {
	return filepath.Join(a.root, dirPrefix+jobID)
}

func (a Arena) lockFor(jobID string) string {
	return a.dirFor(jobID) + lockSuffix
}

// Acquire creates the job's workspace and holds its lock until release.
// A leftover directory from a crashed run of the same job is reclaimed,
// a workspace that is still locked by a live job is an error.
func (a Arena) Acquire(jobID string) (Workspace, Release, error) {
	errctx := cerr.Field("job_id", jobID)

	if !jobIDPattern.MatchString(jobID) {
		return Workspace{}, nil, errctx.Error("Job ID is not usable as a workspace name")
	}

	dir := a.dirFor(jobID)
	lockPath := a.lockFor(jobID)
	errctx = errctx.Field("workspace_dir", dir)

	lock := flock.New(lockPath)
	locked, err := lock.TryLock()
	if err != nil {
		return Workspace{}, nil, errctx.Wrap(err).Error("Failed to lock workspace")
	}

	if !locked {
		return Workspace{}, nil, errctx.Error("Workspace is held by another job")
	}

	if _, err := os.Stat(dir); err == nil {
		log.WithField("workspace_dir", dir).Warn("Reclaiming leftover workspace")
		if err := os.RemoveAll(dir); err != nil {
			_ = lock.Unlock()
			return Workspace{}, nil, errctx.Wrap(err).Error("Failed to clear leftover workspace")
		}
	}

	for _, sub := range []string{separatedDir, inputDir, outputDir} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0o755); err != nil {
			_ = os.RemoveAll(dir)
			_ = lock.Unlock()
			return Workspace{}, nil, errctx.Wrap(err).Error("Failed to create workspace")
		}
	}

	ws := Workspace{
		jobID: jobID,
		dir:   dir,
	}

	var once sync.Once
	release := func() {
		once.Do(func() {
			logger := log.WithField("workspace_dir", dir)

			if err := os.RemoveAll(dir); err != nil {
				logger.WithError(err).Error("Failed to remove workspace")
			}

			if err := os.Remove(lockPath); err != nil && !os.IsNotExist(err) {
				logger.WithError(err).Warn("Failed to remove workspace lock file")
			}

			if err := lock.Unlock(); err != nil {
				logger.WithError(err).Warn("Failed to unlock workspace")
			}

			logger.Debug("Released workspace")
		})
	}

	return ws, release, nil
}

// Workspace is a single job's scratch directory.
type Workspace struct {
	jobID string
	dir   string
}

func (w Workspace) JobID() string {
	return w.jobID
}

func (w Workspace) Dir() string {
	return w.dir
}

func (w Workspace) SeparatedDir() string {
	return filepath.Join(w.dir, separatedDir)
}

func (w Workspace) InputPath(fileName string) string {
	return filepath.Join(w.dir, inputDir, cleanFileName(fileName))
}

func (w Workspace) OutputPath(fileName string) string {
	return filepath.Join(w.dir, outputDir, cleanFileName(fileName))
}

// cleanFileName keeps callers from escaping the workspace with a crafted name.
func cleanFileName(fileName string) string {
	base := filepath.Base(strings.ReplaceAll(fileName, "\\", "/"))
	if base == "." || base == ".." || base == "/" {
		return "_"
	}

	return base
}
