package curator

import (
	"context"
	"fmt"
	"path/filepath"

	"curator/internal/classify"
	"curator/internal/config"
	"curator/internal/container"
	"curator/internal/fileutil"
	"curator/internal/logging"
	"curator/internal/manifest"
	"curator/internal/pipeline"
	"curator/internal/session"
	"curator/internal/timestamps"
)

type copyOp struct {
	src string
	dst string
}

// sessionPlan is everything decided about a session before any byte is
// written.
type sessionPlan struct {
	dir       string
	copies    []copyOp
	files     classify.Partition
	series    timestamps.Series
	doc       *container.Document
	container string
}

// SessionDir returns the canonical output directory for a session.
func SessionDir(outputDir, subject, sessionID string) string {
	return filepath.Join(outputDir, "sub-"+subject, "ses-"+sessionID)
}

func (c *Curator) processSession(ctx context.Context, sess session.Session, req Request, runID string) SessionResult {
	logger := logging.WithContext(ctx, c.logger)
	result := SessionResult{
		Subject:   sess.Subject,
		SessionID: sess.ID(),
		Dir:       SessionDir(req.OutputDir, sess.Subject, sess.ID()),
	}

	if c.cfg.Curation.SkipCompleted && c.store != nil {
		done, err := c.store.IsCompleted(ctx, sess.Subject, sess.ID(), string(req.Mode))
		if err != nil {
			logger.Warn("manifest lookup failed; curating session", logging.Error(err))
		} else if done && c.containerIntact(ctx, sess, req) {
			result.Outcome = OutcomeSkipped
			logger.Info("session already curated; skipping")
			return result
		}
	}

	plan, err := c.planSession(ctx, sess, req)
	if err != nil {
		return c.fail(ctx, result, req, runID, fmt.Errorf("session %s: %w", sess.Key(), err))
	}
	result.Files = len(plan.copies)
	result.Unclassified = plan.files.Count(classify.RoleUnclassified)
	result.Roles = roleCounts(plan.files)
	result.TimestampLog = plan.series.Source
	result.TimestampRows = plan.series.Len()
	result.ContainerPath = plan.container

	if req.DryRun {
		result.Outcome = OutcomePlanned
		logger.Info("session planned",
			logging.String("dir", plan.dir),
			logging.Int("files", len(plan.copies)),
		)
		return result
	}

	c.mark(ctx, manifest.SessionRecord{
		Subject:   sess.Subject,
		SessionID: sess.ID(),
		Mode:      string(req.Mode),
		RunID:     runID,
		Status:    manifest.StatusInProgress,
		FileCount: len(plan.copies),
		OutputDir: plan.dir,
	})

	copied, err := c.copyFiles(ctx, plan)
	result.Bytes = copied
	if err != nil {
		return c.fail(ctx, result, req, runID, fmt.Errorf("session %s: %w", sess.Key(), err))
	}
	if plan.doc != nil {
		digest, err := container.Write(*plan.doc, plan.container)
		if err != nil {
			return c.fail(ctx, result, req, runID, fmt.Errorf("session %s: %w", sess.Key(), err))
		}
		result.ContainerSHA256 = digest
	}

	result.Outcome = OutcomeCompleted
	c.mark(ctx, manifest.SessionRecord{
		Subject:         sess.Subject,
		SessionID:       sess.ID(),
		Mode:            string(req.Mode),
		RunID:           runID,
		Status:          manifest.StatusCompleted,
		FileCount:       len(plan.copies),
		OutputDir:       plan.dir,
		ContainerPath:   plan.container,
		ContainerSHA256: result.ContainerSHA256,
	})
	attrs := []logging.Attr{
		logging.String("dir", plan.dir),
		logging.Int("files", len(plan.copies)),
		logging.String("size", logging.FormatBytes(copied)),
		logging.Int("timestamps", plan.series.Len()),
	}
	if plan.container != "" {
		attrs = append(attrs, logging.String("container", plan.container))
	}
	logger.Info("session curated", logging.Args(attrs...)...)
	return result
}

func (c *Curator) planSession(ctx context.Context, sess session.Session, req Request) (sessionPlan, error) {
	logger := logging.WithContext(ctx, c.logger)
	plan := sessionPlan{
		dir: SessionDir(req.OutputDir, sess.Subject, sess.ID()),
	}

	series, err := timestamps.Resolve(sess.Files, c.tsOpts)
	if err != nil {
		return sessionPlan{}, err
	}
	if len(series.Ignored) > 0 {
		logging.WarnWithContext(logger, "multiple timestamp logs in session", "timestamp_ambiguous",
			logging.String("used", filepath.Base(series.Source)),
			logging.Strings("ignored", series.Ignored),
			logging.String(logging.FieldErrorHint, "remove stray logs from the session"),
			logging.String(logging.FieldImpact, "lexically first log used for alignment"),
		)
	}
	plan.series = series

	copies, err := c.planCopies(ctx, sess, plan.dir)
	if err != nil {
		return sessionPlan{}, err
	}
	plan.copies = copies

	sources := make([]string, 0, len(copies))
	for _, op := range copies {
		sources = append(sources, op.src)
	}
	plan.files = classify.Split(sources, c.tsOpts.IsLog)

	if req.Mode == ModeContainer {
		doc, err := c.assembler.Assemble(container.Input{Session: sess, Files: plan.files, Series: series})
		if err != nil {
			return sessionPlan{}, err
		}
		plan.doc = &doc
		plan.container = container.Path(req.OutputDir, sess.Subject, sess.ID(), c.cfg.Container.Extension)
	}
	return plan, nil
}

// planCopies maps every session file to its destination and resolves name
// collisions according to curation.collisions.
func (c *Curator) planCopies(ctx context.Context, sess session.Session, dir string) ([]copyOp, error) {
	logger := logging.WithContext(ctx, c.logger)
	ops := make([]copyOp, 0, len(sess.Files))
	byName := make(map[string]int, len(sess.Files))
	for _, src := range sess.Files {
		name := filepath.Base(src)
		idx, exists := byName[name]
		if !exists {
			byName[name] = len(ops)
			ops = append(ops, copyOp{src: src, dst: filepath.Join(dir, name)})
			continue
		}
		previous := ops[idx].src
		if c.cfg.Curation.Collisions != config.CollisionOverwrite {
			return nil, pipeline.Wrap(pipeline.ErrWrite, stage, "plan copies",
				fmt.Sprintf("%s and %s both map to %s", previous, src, name), nil)
		}
		logging.WarnWithContext(logger, "destination name collision", "name_collision",
			logging.String("name", name),
			logging.String("kept", src),
			logging.String("dropped", previous),
			logging.String(logging.FieldErrorHint, "rename one of the source files"),
			logging.String(logging.FieldImpact, "earlier file not curated"),
		)
		ops[idx].src = src
	}
	return ops, nil
}

func (c *Curator) copyFiles(ctx context.Context, plan sessionPlan) (int64, error) {
	if err := ensureDir(plan.dir); err != nil {
		return 0, pipeline.Wrap(pipeline.ErrWrite, stage, "create session directory", plan.dir, err)
	}
	copyFn := fileutil.CopyFile
	if c.cfg.Curation.VerifyCopies {
		copyFn = fileutil.CopyFileVerified
	}
	var total int64
	for _, op := range plan.copies {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		n, err := copyFn(op.src, op.dst)
		total += n
		if err != nil {
			return total, pipeline.Wrap(pipeline.ErrWrite, stage, "copy file", op.src, err)
		}
	}
	return total, nil
}

func (c *Curator) fail(ctx context.Context, result SessionResult, req Request, runID string, err error) SessionResult {
	logger := logging.WithContext(ctx, c.logger)
	result.Outcome = OutcomeFailed
	result.Err = err
	logging.ErrorWithContext(logger, "session failed", "session_failed", err)
	if !req.DryRun {
		c.mark(ctx, manifest.SessionRecord{
			Subject:      result.Subject,
			SessionID:    result.SessionID,
			Mode:         string(req.Mode),
			RunID:        runID,
			Status:       manifest.StatusFailed,
			FileCount:    result.Files,
			OutputDir:    result.Dir,
			ErrorKind:    pipeline.Kind(err),
			ErrorMessage: err.Error(),
		})
	}
	return result
}

func (c *Curator) mark(ctx context.Context, rec manifest.SessionRecord) {
	if c.store == nil {
		return
	}
	if err := c.store.MarkSession(context.WithoutCancel(ctx), rec); err != nil {
		logging.WithContext(ctx, c.logger).Warn("failed to record session outcome",
			logging.String("status", string(rec.Status)),
			logging.Error(err),
		)
	}
}

func roleCounts(p classify.Partition) map[string]int {
	counts := make(map[string]int, len(p))
	for role, files := range p {
		counts[string(role)] = len(files)
	}
	return counts
}

// containerIntact reports whether a completed container-mode session still has
// a readable container for the same session. Flat sessions have nothing to check.
func (c *Curator) containerIntact(ctx context.Context, sess session.Session, req Request) bool {
	if req.Mode != ModeContainer {
		return true
	}
	path := container.Path(req.OutputDir, sess.Subject, sess.ID(), c.cfg.Container.Extension)
	doc, err := container.Read(path)
	if err == nil && doc.Session.ID == sess.ID() {
		return true
	}
	if err == nil {
		err = fmt.Errorf("%s records session %s", path, doc.Session.ID)
	}
	logging.WarnWithContext(logging.WithContext(ctx, c.logger), "recorded container missing or unreadable", "container_stale",
		logging.String("container", path),
		logging.Error(err),
		logging.String(logging.FieldImpact, "session curated again"),
	)
	return false
}
