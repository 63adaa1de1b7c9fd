package curator

import (
	"errors"
	"fmt"
	"os"

	"github.com/gofrs/flock"

	"curator/internal/pipeline"
)

// OutputLock returns an exclusive lock on the output directory itself, so a
// run leaves nothing besides the sub-* trees behind.
func OutputLock(outputDir string) *flock.Flock {
	return flock.New(outputDir, flock.SetFlag(os.O_RDONLY))
}

// ErrOutputLocked reports that another run holds the output directory.
var ErrOutputLocked = errors.New("output directory is in use by another curator run")

func lockOutput(outputDir string) (*flock.Flock, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, pipeline.Wrap(pipeline.ErrWrite, stage, "create output directory", outputDir, err)
	}
	lock := OutputLock(outputDir)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, pipeline.Wrap(pipeline.ErrWrite, stage, "acquire output lock", outputDir, err)
	}
	if !ok {
		return nil, pipeline.Wrap(pipeline.ErrWrite, stage, "acquire output lock", outputDir, ErrOutputLocked)
	}
	return lock, nil
}

func unlockOutput(lock *flock.Flock) error {
	if lock == nil {
		return nil
	}
	if err := lock.Unlock(); err != nil {
		return fmt.Errorf("release output lock: %w", err)
	}
	return nil
}

func ensureDir(dir string) error {
	return os.MkdirAll(dir, 0o755)
}
