package cleaner

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"

	"assetpipe/src/common"
	"assetpipe/src/config"
)

// Decision is the outcome for a single PNG file
type Decision int

const (
	DecisionKept Decision = iota
	DecisionKeptNoCounterpart
	DecisionDeleted
	DecisionError
)

// FileError records a failed deletion
type FileError struct {
	Path string
	Err  error
}

func (e FileError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e FileError) Unwrap() error {
	return e.Err
}

// Summary holds the counters printed at the end of a run
type Summary struct {
	Deleted int
	Kept    int
	Errors  []FileError
}

// Cleaner deletes PNG originals that already have a WebP counterpart
type Cleaner struct {
	cfg    *config.Config
	logger *slog.Logger
	out    io.Writer
}

// New creates a cleaner writing its decision log to out
func New(cfg *config.Config, logger *slog.Logger, out io.Writer) *Cleaner {
	return &Cleaner{
		cfg:    cfg,
		logger: logger.With("component", "cleaner"),
		out:    out,
	}
}

// Run walks the image root and applies Decide to every PNG file.
// Deletion failures are recorded in the summary, never returned.
func (c *Cleaner) Run() (*Summary, error) {
	c.printf("🗑️ Looking for PNG files to delete...\n\n")

	files, err := common.FindFiles(c.cfg.ImageRoot(), nil, c.logger, common.IsPNG)
	if err != nil {
		return nil, fmt.Errorf("failed to scan images: %w", err)
	}

	summary := &Summary{}
	for _, path := range files {
		decision, err := c.Decide(path)
		rel := c.rel(path)

		switch decision {
		case DecisionKept:
			c.printf("⏭️  Keeping: %s\n", rel)
			summary.Kept++
		case DecisionKeptNoCounterpart:
			c.printf("⚠️  No WebP counterpart, keeping: %s\n", rel)
			summary.Kept++
		case DecisionDeleted:
			c.printf("✅ Deleted: %s\n", rel)
			summary.Deleted++
		case DecisionError:
			c.printf("❌ Error deleting %s: %v\n", rel, err)
			summary.Errors = append(summary.Errors, FileError{Path: path, Err: err})
		}
	}

	c.printf("\n📊 Summary:\n")
	c.printf("   ✅ Deleted: %d\n", summary.Deleted)
	c.printf("   ⏭️  Kept: %d\n", summary.Kept)
	if len(summary.Errors) > 0 {
		c.printf("   ❌ Errors: %d\n", len(summary.Errors))
	}

	return summary, nil
}

// Decide applies the keep-list, then the counterpart check, deleting the file
// when both allow it
func (c *Cleaner) Decide(path string) (Decision, error) {
	if slices.Contains(c.cfg.Clean.Keep, filepath.Base(path)) {
		return DecisionKept, nil
	}

	if _, err := os.Stat(common.WebPCounterpart(path)); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			c.logger.Debug("counterpart check failed", "path", path, "error", err)
		}
		return DecisionKeptNoCounterpart, nil
	}

	if err := os.Remove(path); err != nil {
		return DecisionError, fmt.Errorf("failed to delete file: %w", err)
	}
	return DecisionDeleted, nil
}

func (c *Cleaner) rel(path string) string {
	rel, err := filepath.Rel(c.cfg.BaseDir, path)
	if err != nil {
		return path
	}
	return rel
}

func (c *Cleaner) printf(format string, args ...any) {
	fmt.Fprintf(c.out, format, args...)
}
