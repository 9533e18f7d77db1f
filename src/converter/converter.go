package converter

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"assetpipe/src/common"
	"assetpipe/src/config"
)

// Converter turns PNG files into WebP siblings and rewrites references to them
type Converter struct {
	cfg    *config.Config
	logger *slog.Logger
	out    io.Writer
}

// Summary holds the counters printed at the end of a run
type Summary struct {
	Found      int
	Converted  int
	Failed     int
	References ReferenceSummary
}

// ReferenceSummary holds the outcome of a reference rewrite pass
type ReferenceSummary struct {
	// Updated lists rewritten files relative to the asset root
	Updated      []string
	Replacements int
	Errors       int
}

// FilesUpdated returns the number of rewritten files
func (s ReferenceSummary) FilesUpdated() int {
	return len(s.Updated)
}

// New creates a converter writing its progress report to out
func New(cfg *config.Config, logger *slog.Logger, out io.Writer) *Converter {
	return &Converter{
		cfg:    cfg,
		logger: logger.With("component", "converter"),
		out:    out,
	}
}

// Run converts every candidate PNG and then rewrites references.
// Per-file failures are reported and counted, never returned.
func (c *Converter) Run() (*Summary, error) {
	c.printf("🔄 Starting PNG → WebP conversion...\n\n")

	c.printf("📋 Looking for PNG files...\n")
	files, err := c.FindPNGFiles()
	if err != nil {
		return nil, fmt.Errorf("failed to scan images: %w", err)
	}
	c.printf("✅ Found %d PNG files to convert\n\n", len(files))

	summary := &Summary{Found: len(files)}
	if len(files) == 0 {
		c.printf("❌ No PNG files found to convert\n")
		return summary, nil
	}

	c.printf("🔄 Converting PNG files to WebP...\n\n")
	for _, path := range files {
		if c.ConvertFile(path) {
			summary.Converted++
		} else {
			summary.Failed++
		}
	}
	c.printf("\n✅ Conversion finished: %d succeeded, %d failed\n\n", summary.Converted, summary.Failed)

	c.printf("📝 Updating references in code...\n\n")
	refs, err := c.UpdateReferences()
	if err != nil {
		return nil, fmt.Errorf("failed to update references: %w", err)
	}
	summary.References = refs

	c.printf("\n🎉 Conversion complete!\n")
	c.printf("\n⚠️ NOTE: the original PNG files still exist.\n")
	c.printf("   Review the changes, then delete the PNG files if everything looks right.\n")

	return summary, nil
}

// ShouldConvert reports whether a PNG file name passes the exclusion list
func (c *Converter) ShouldConvert(name string) bool {
	lower := strings.ToLower(name)
	if !strings.HasSuffix(lower, ".png") {
		return false
	}
	for _, pattern := range c.cfg.Convert.Exclude {
		if strings.Contains(lower, strings.ToLower(pattern)) {
			return false
		}
	}
	return true
}

// FindPNGFiles lists every convertible PNG under the image root.
// No directory is skipped.
func (c *Converter) FindPNGFiles() ([]string, error) {
	return common.FindFiles(c.cfg.ImageRoot(), nil, c.logger, c.ShouldConvert)
}

// ConvertFile converts one PNG and reports the outcome
func (c *Converter) ConvertFile(path string) bool {
	name := filepath.Base(path)

	result, err := common.ConvertToWebP(path, common.WebPOptions{
		Quality: c.cfg.Convert.Quality,
		Method:  c.cfg.Convert.Method,
	})
	if err != nil {
		c.printf("❌ Error converting %s: %v\n", name, err)
		c.logger.Debug("conversion failed", "path", path, "error", err)
		return false
	}

	c.printf("✅ %s → %s (%dKB → %dKB, -%.1f%%)\n",
		name, filepath.Base(result.Output),
		result.SourceSize/1024, result.OutputSize/1024, result.Reduction())
	c.logger.Debug("converted", "path", path, "mode", result.Mode)
	return true
}

// UpdateReferences rewrites .png references to .webp in text assets
func (c *Converter) UpdateReferences() (ReferenceSummary, error) {
	root := c.cfg.AssetRoot()
	var summary ReferenceSummary

	err := common.WalkFiles(root, c.cfg.Convert.SkipDirs, c.logger, func(path string) error {
		if !c.isTextAsset(filepath.Base(path)) {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			rel = path
		}

		replacements, updated, err := rewriteFile(path)
		if err != nil {
			summary.Errors++
			c.printf("⚠️ Error processing %s: %v\n", path, err)
			return nil
		}
		if !updated {
			return nil
		}

		summary.Updated = append(summary.Updated, rel)
		summary.Replacements += replacements
		c.printf("📝 Updated: %s (%d references)\n", rel, replacements)
		return nil
	})
	if err != nil {
		return summary, err
	}

	c.printf("\n✅ Total: %d files updated, %d references changed\n", summary.FilesUpdated(), summary.Replacements)
	return summary, nil
}

func (c *Converter) isTextAsset(name string) bool {
	for _, ext := range c.cfg.Convert.TextExtensions {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}

// rewriteFile applies the rewrite rules to one file, overwriting it only when
// something changed
func rewriteFile(path string) (int, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, false, fmt.Errorf("failed to read file: %w", err)
	}

	original := string(data)
	content, changed, err := common.RewriteReferencesBytes(data)
	if err != nil {
		return 0, false, err
	}
	if !changed {
		return 0, false, nil
	}

	info, err := os.Stat(path)
	if err != nil {
		return 0, false, fmt.Errorf("failed to stat file: %w", err)
	}
	if err := os.WriteFile(path, []byte(content), info.Mode().Perm()); err != nil {
		return 0, false, fmt.Errorf("failed to write file: %w", err)
	}

	return common.EstimateReplacements(original, content), true, nil
}

func (c *Converter) printf(format string, args ...any) {
	fmt.Fprintf(c.out, format, args...)
}
