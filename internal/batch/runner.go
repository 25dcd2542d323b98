package batch

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/MikeSquared-Agency/harmonize/internal/events"
	"github.com/MikeSquared-Agency/harmonize/internal/harmony"
	"github.com/MikeSquared-Agency/harmonize/internal/openwebui"
	"github.com/MikeSquared-Agency/harmonize/internal/store"
)

// outputSuffix is appended to each input file's stem for the per-chat
// output file.
const outputSuffix = ".harmony.strict.json"

// Config holds the batch conversion settings.
type Config struct {
	Input         string // input file or directory
	OutDir        string // output directory; empty = next to the input
	Recursive     bool   // walk subdirectories when Input is a directory
	Validate      bool   // run the grammar validator on each walkthrough
	WriteManifest bool
	ManifestName  string
}

// Runner converts every discovered export file, one at a time in sorted
// order. A failure in one file is recorded and the run continues; nothing is
// fatal to the batch.
type Runner struct {
	cfg       Config
	builder   *harmony.Builder
	validator *harmony.Validator
	store     *store.Store      // optional conversion ledger
	events    *events.Publisher // optional event stream
	logger    *slog.Logger
}

// NewRunner creates a batch runner. store and events may be nil.
func NewRunner(cfg Config, b *harmony.Builder, v *harmony.Validator, st *store.Store, ev *events.Publisher, logger *slog.Logger) *Runner {
	return &Runner{
		cfg:       cfg,
		builder:   b,
		validator: v,
		store:     st,
		events:    ev,
		logger:    logger,
	}
}

// Run executes the batch conversion.
func (r *Runner) Run(ctx context.Context) error {
	files, err := r.discoverFiles()
	if err != nil {
		return fmt.Errorf("discover files: %w", err)
	}
	r.logger.Info("files discovered", "count", len(files))

	outDir, err := r.resolveOutDir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	var manifest *Manifest
	if r.cfg.WriteManifest {
		manifest, err = OpenManifest(filepath.Join(outDir, r.cfg.ManifestName))
		if err != nil {
			return err
		}
	}

	converted := 0
	failed := 0
	for _, path := range files {
		select {
		case <-ctx.Done():
			if manifest != nil {
				_ = manifest.Flush()
			}
			return ctx.Err()
		default:
		}

		rows, err := r.processFile(ctx, path, outDir)
		if manifest != nil {
			for _, row := range rows {
				manifest.Add(row)
			}
		}
		for _, row := range rows {
			if row.Status == StatusPass || row.Status == StatusOK {
				converted++
			}
		}
		if err != nil {
			failed++
			r.logger.Error("file conversion failed", "path", path, "error", err)
			if manifest != nil {
				manifest.Add(Row{File: path, Status: StatusError, Detail: err.Error()})
			}
		}
	}

	r.logger.Info("batch complete",
		"files", len(files),
		"converted", converted,
		"failed_files", failed,
	)

	if manifest != nil {
		return manifest.Flush()
	}
	return nil
}

// processFile converts every chat in one export file. An error aborts the
// remaining chats of that file; rows for chats converted before the error
// are still returned alongside it.
func (r *Runner) processFile(ctx context.Context, path, outDir string) ([]Row, error) {
	chats, err := openwebui.LoadFile(path)
	if err != nil {
		return nil, err
	}
	if len(chats) == 0 {
		r.logger.Info("no chats found, skipping", "path", path)
		return []Row{{File: path, Status: StatusSkip, Detail: "no chats found"}}, nil
	}

	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	var rows []Row
	for idx := range chats {
		out := r.builder.Build(&chats[idx])

		name := stem + outputSuffix
		if len(chats) > 1 {
			name = fmt.Sprintf("%s_%d%s", stem, idx, outputSuffix)
		}
		outPath := filepath.Join(outDir, name)

		data, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return rows, fmt.Errorf("marshal %s: %w", name, err)
		}
		if err := os.WriteFile(outPath, data, 0o644); err != nil {
			return rows, fmt.Errorf("write %s: %w", name, err)
		}

		// Validation failure flags the chat but the output file above is
		// already written; conversion is never aborted by a FAIL.
		status, detail := StatusOK, "validation disabled"
		if r.cfg.Validate {
			if violations := r.validator.Validate(out.HarmonyWalkthrough); len(violations) > 0 {
				status, detail = StatusFail, strings.Join(violations, "; ")
				r.logger.Warn("walkthrough failed validation", "output", name, "detail", detail)
			} else {
				status, detail = StatusPass, "walkthrough is VALID"
				r.logger.Info("walkthrough valid", "output", name)
			}
		} else {
			r.logger.Info("converted without validation", "output", name)
		}

		row := Row{
			File:   path,
			Title:  derefTitle(out.Title),
			Seed:   formatValue(out.Seed),
			Models: strings.Join(out.ModelHint, " "),
			Status: status,
			Detail: detail,
		}
		rows = append(rows, row)

		r.record(ctx, path, out, status, detail)
	}

	return rows, nil
}

// record mirrors the conversion into the optional store and event stream.
// Both are best-effort; failures are logged and never abort the run.
func (r *Runner) record(ctx context.Context, path string, out *harmony.Output, status, detail string) {
	if r.store != nil {
		rec := store.ConversionRecord{
			ID:         out.ID,
			SourceFile: path,
			Title:      derefTitle(out.Title),
			Seed:       formatValue(out.Seed),
			Models:     out.ModelHint,
			Status:     status,
			Detail:     detail,
		}
		if err := r.store.RecordConversion(ctx, rec); err != nil {
			r.logger.Warn("failed to record conversion", "id", out.ID, "error", err)
		}
	}

	if r.events != nil {
		if err := r.events.PublishConverted(events.ChatConverted{
			ID:         out.ID,
			SourceFile: path,
			Title:      derefTitle(out.Title),
			Status:     status,
		}); err != nil {
			r.logger.Warn("failed to publish conversion event", "id", out.ID, "error", err)
		}
	}
}

// discoverFiles resolves the input path to a sorted list of JSON files.
func (r *Runner) discoverFiles() ([]string, error) {
	info, err := os.Stat(r.cfg.Input)
	if err != nil {
		return nil, fmt.Errorf("input not found: %s", r.cfg.Input)
	}
	if !info.IsDir() {
		return []string{r.cfg.Input}, nil
	}

	var files []string
	if r.cfg.Recursive {
		err = filepath.WalkDir(r.cfg.Input, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return nil // skip unreadable entries
			}
			if !d.IsDir() && strings.HasSuffix(d.Name(), ".json") {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walk input dir: %w", err)
		}
	} else {
		entries, err := os.ReadDir(r.cfg.Input)
		if err != nil {
			return nil, fmt.Errorf("read input dir: %w", err)
		}
		for _, e := range entries {
			if !e.IsDir() && strings.HasSuffix(e.Name(), ".json") {
				files = append(files, filepath.Join(r.cfg.Input, e.Name()))
			}
		}
	}
	sort.Strings(files)
	return files, nil
}

// resolveOutDir picks the output directory: the configured one, else the
// input directory itself, else the input file's parent.
func (r *Runner) resolveOutDir() (string, error) {
	if r.cfg.OutDir != "" {
		return r.cfg.OutDir, nil
	}
	info, err := os.Stat(r.cfg.Input)
	if err != nil {
		return "", fmt.Errorf("input not found: %s", r.cfg.Input)
	}
	if info.IsDir() {
		return r.cfg.Input, nil
	}
	return filepath.Dir(r.cfg.Input), nil
}

func derefTitle(title *string) string {
	if title == nil {
		return ""
	}
	return *title
}

func formatValue(v any) string {
	if v == nil {
		return ""
	}
	if f, ok := v.(float64); ok && f == float64(int64(f)) {
		return fmt.Sprintf("%d", int64(f))
	}
	return fmt.Sprint(v)
}
