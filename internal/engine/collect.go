package engine

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/apenaflor/evolab/pkg/core"
)

// artifactPatterns are the workspace globs swept into the output directory
// after every run, in collection order.
var artifactPatterns = []string{"*.log", "*.csv", "*.png"}

// collect moves run artifacts out of the workspace into the output
// directory and records them in the state store. Collection is best
// effort: a task that produced nothing simply contributes nothing, and a
// file that cannot be moved is logged and skipped. The run's exit status
// is never affected by collection.
func (e *Engine) collect(runID string) []core.Artifact {
	if err := os.MkdirAll(e.cfg.OutputDir, 0o750); err != nil {
		e.logger.Warn("failed to create output directory", "output_dir", e.cfg.OutputDir, "error", err)
		return nil
	}

	var collected []core.Artifact
	for _, pattern := range artifactPatterns {
		matches, err := filepath.Glob(filepath.Join(e.cfg.WorkDir, pattern))
		if err != nil {
			continue
		}
		sort.Strings(matches)
		for _, src := range matches {
			name := filepath.Base(src)
			info, err := os.Stat(src)
			if err != nil || info.IsDir() {
				continue
			}
			dest := filepath.Join(e.cfg.OutputDir, name)
			if err := moveFile(src, dest); err != nil {
				e.logger.Warn("failed to collect artifact", "artifact", name, "error", err)
				continue
			}

			art := core.Artifact{
				RunID:     runID,
				Name:      name,
				Kind:      artifactKind(name),
				SizeBytes: info.Size(),
			}
			if err := e.store.RecordArtifact(&art); err != nil {
				e.logger.Warn("failed to record artifact", "artifact", name, "error", err)
			}
			collected = append(collected, art)
			e.logger.Debug("collected artifact", "artifact", name, "kind", art.Kind, "bytes", art.SizeBytes)
		}
	}
	return collected
}

// moveFile renames src to dest, falling back to copy-and-remove when the
// two paths sit on different filesystems.
func moveFile(src, dest string) error {
	if err := os.Rename(src, dest); err == nil {
		return nil
	}
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	if err := os.WriteFile(dest, data, 0o640); err != nil {
		return err
	}
	return os.Remove(src)
}

func artifactKind(name string) string {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
	switch ext {
	case "log", "csv", "png":
		return ext
	default:
		return "file"
	}
}
