package curator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"curator/internal/config"
	"curator/internal/container"
	"curator/internal/discovery"
	"curator/internal/logging"
	"curator/internal/manifest"
	"curator/internal/pipeline"
	"curator/internal/preflight"
	"curator/internal/session"
	"curator/internal/timestamps"
)

const stage = "curation"

// Mode selects the output strategy for a whole run.
type Mode string

const (
	// ModeFlat copies session files into the canonical layout.
	ModeFlat Mode = "flat"
	// ModeContainer copies files and writes one container per session.
	ModeContainer Mode = "container"
)

// Request describes one curation run.
type Request struct {
	BaseDir   string
	OutputDir string
	// StartDate is an exclusive lower bound on session dates.
	StartDate *time.Time
	// Subjects restricts the run to these subject IDs. Empty means all.
	Subjects []string
	Mode     Mode
	// DryRun plans every session without writing output or manifest rows.
	DryRun bool
}

// Curator runs curation requests against one configuration.
type Curator struct {
	cfg       *config.Config
	store     *manifest.Store
	logger    *slog.Logger
	pattern   *regexp.Regexp
	tsOpts    timestamps.Options
	assembler *container.Assembler
	newID     func() string
	now       func() time.Time
}

// New builds a Curator. store may be nil, which disables the manifest and
// skip-completed handling.
func New(cfg *config.Config, store *manifest.Store, logger *slog.Logger) (*Curator, error) {
	if cfg == nil {
		return nil, errors.New("curator requires a config")
	}
	pattern, err := regexp.Compile(cfg.Discovery.SubjectPattern)
	if err != nil {
		return nil, pipeline.Wrap(pipeline.ErrConfiguration, stage, "compile subject pattern", cfg.Discovery.SubjectPattern, err)
	}
	subjects, err := container.LoadSubjects(cfg.Container.SubjectsFile)
	if err != nil {
		return nil, pipeline.Wrap(pipeline.ErrConfiguration, stage, "load subjects file", cfg.Container.SubjectsFile, err)
	}
	return &Curator{
		cfg:       cfg,
		store:     store,
		logger:    logging.NewComponentLogger(logger, "curator"),
		pattern:   pattern,
		tsOpts:    timestamps.Options{Extensions: cfg.Timestamps.Extensions},
		assembler: container.NewAssembler(cfg.Container, subjects),
		newID:     uuid.NewString,
		now:       time.Now,
	}, nil
}

func (r Request) validate() error {
	if strings.TrimSpace(r.BaseDir) == "" {
		return pipeline.Wrap(pipeline.ErrConfiguration, stage, "validate request", "base directory is required", nil)
	}
	if strings.TrimSpace(r.OutputDir) == "" {
		return pipeline.Wrap(pipeline.ErrConfiguration, stage, "validate request", "output directory is required", nil)
	}
	switch r.Mode {
	case ModeFlat, ModeContainer:
	default:
		return pipeline.Wrap(pipeline.ErrConfiguration, stage, "validate request", fmt.Sprintf("unknown mode %q", r.Mode), nil)
	}
	return nil
}

// Run executes req. The returned Report is populated even when err is
// non-nil. With continue-on-error, err aggregates every session failure.
func (c *Curator) Run(ctx context.Context, req Request) (report Report, err error) {
	if req.Mode == "" {
		req.Mode = ModeFlat
	}
	if err := req.validate(); err != nil {
		return Report{Mode: req.Mode, DryRun: req.DryRun}, err
	}

	runID := c.newID()
	ctx = pipeline.WithRunID(ctx, runID)
	logger := logging.WithContext(ctx, c.logger)
	report = Report{RunID: runID, Mode: req.Mode, DryRun: req.DryRun, StartedAt: c.now()}
	defer func() { report.FinishedAt = c.now() }()

	found, err := discovery.Discover(ctx, discovery.Options{
		BaseDir:        req.BaseDir,
		Subjects:       req.Subjects,
		SubjectPattern: c.pattern,
		IncludeHidden:  c.cfg.Discovery.IncludeHidden,
	})
	if err != nil {
		return report, err
	}
	for _, s := range found.Subjects {
		report.Subjects = append(report.Subjects, s.ID)
	}
	report.MissingSubjects = found.Missing
	for _, id := range found.Missing {
		logging.WarnWithContext(logger, "requested subject not found", "subject_missing",
			logging.String(logging.FieldSubject, id),
			logging.String(logging.FieldErrorHint, "check --animals against the base directory"),
			logging.String(logging.FieldImpact, "subject skipped"),
		)
	}

	if !req.DryRun {
		lock, lockErr := lockOutput(req.OutputDir)
		if lockErr != nil {
			return report, lockErr
		}
		defer func() {
			if unlockErr := unlockOutput(lock); unlockErr != nil {
				logger.Warn("failed to release output lock", logging.Error(unlockErr))
			}
		}()
	}

	recording := c.store != nil && !req.DryRun
	if recording {
		if err := c.store.BeginRun(ctx, manifest.Run{
			ID:        runID,
			BaseDir:   req.BaseDir,
			OutputDir: req.OutputDir,
			Mode:      string(req.Mode),
			StartedAt: report.StartedAt,
		}); err != nil {
			return report, fmt.Errorf("record run: %w", err)
		}
		defer func() {
			if finishErr := c.store.FinishRun(context.WithoutCancel(ctx), runID, summarize(report, err)); finishErr != nil {
				logger.Warn("failed to record run outcome", logging.Error(finishErr))
			}
		}()
	}

	logger.Info("curation started",
		logging.String("base_dir", req.BaseDir),
		logging.String("output_dir", req.OutputDir),
		logging.String("mode", string(req.Mode)),
		logging.Bool("dry_run", req.DryRun),
		logging.Int("subjects", len(found.Subjects)),
		logging.Int("files", found.FileCount()),
	)

	var failures []error
	keepGoing := c.cfg.Curation.ContinueOnError
	var planned []session.Session
	for _, subject := range found.Subjects {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		sessions, groupErr := c.groupSubject(pipeline.WithSubject(ctx, subject.ID), subject, req, &report)
		if groupErr != nil {
			report.Sessions = append(report.Sessions, SessionResult{
				Subject: subject.ID,
				Outcome: OutcomeFailed,
				Dir:     subject.Dir,
				Err:     groupErr,
			})
			if !keepGoing {
				return report, groupErr
			}
			failures = append(failures, groupErr)
			continue
		}
		planned = append(planned, sessions...)
	}

	if err := c.preflight(ctx, req, planned, &report); err != nil {
		return report, err
	}

	for _, sess := range planned {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		sessionCtx := pipeline.WithSession(pipeline.WithSubject(ctx, sess.Subject), sess.ID())
		result := c.processSession(sessionCtx, sess, req, runID)
		report.Sessions = append(report.Sessions, result)
		if result.Err == nil {
			continue
		}
		if !keepGoing {
			return report, result.Err
		}
		failures = append(failures, result.Err)
	}

	logger.Info("curation finished",
		logging.Int("sessions", len(report.Sessions)),
		logging.Int("completed", report.Count(OutcomeCompleted)),
		logging.Int("skipped", report.Count(OutcomeSkipped)),
		logging.Int("planned", report.Count(OutcomePlanned)),
		logging.Int("failed", report.Count(OutcomeFailed)),
		logging.Int("unmatched_files", len(report.Unmatched)),
	)

	if len(failures) > 0 {
		return report, fmt.Errorf("%d of %d sessions failed: %w", len(failures), len(report.Sessions), errors.Join(failures...))
	}
	return report, nil
}

func (c *Curator) groupSubject(ctx context.Context, subject discovery.Subject, req Request, report *Report) ([]session.Session, error) {
	logger := logging.WithContext(ctx, c.logger)
	grouped, err := session.Group(subject.ID, subject.Files, session.GroupOptions{StartDate: req.StartDate})
	if err != nil {
		return nil, err
	}
	report.Excluded += grouped.Excluded
	report.Unmatched = append(report.Unmatched, grouped.Unmatched...)

	if len(grouped.Unmatched) > 0 {
		switch c.cfg.Curation.Unmatched {
		case config.UnmatchedFail:
			return nil, pipeline.Wrap(pipeline.ErrParse, "grouping", "match date/time token",
				fmt.Sprintf("%d file(s) without a date/time token in %s, first %s", len(grouped.Unmatched), subject.ID, grouped.Unmatched[0]), nil)
		case config.UnmatchedIgnore:
			logger.Debug("files without date/time token ignored", logging.Int("count", len(grouped.Unmatched)))
		default:
			for _, path := range grouped.Unmatched {
				logging.WarnWithContext(logger, "file has no date/time token", "file_unmatched",
					logging.String("path", path),
					logging.String(logging.FieldErrorHint, "rename the file with a YYYY-MM-DDTHH_MM_SS token or set curation.unmatched"),
					logging.String(logging.FieldImpact, "file not curated"),
				)
			}
		}
	}

	logger.Debug("subject grouped",
		logging.Int("sessions", len(grouped.Sessions)),
		logging.Int("excluded_files", grouped.Excluded),
	)
	return grouped.Sessions, nil
}

// preflight checks the run's paths and free space before anything is copied.
// Dry runs record the results but never fail on them.
func (c *Curator) preflight(ctx context.Context, req Request, sessions []session.Session, report *Report) error {
	logger := logging.WithContext(ctx, c.logger)
	var files []string
	for _, sess := range sessions {
		files = append(files, sess.Files...)
	}
	required, err := preflight.RequiredBytes(files)
	if err != nil {
		return pipeline.Wrap(pipeline.ErrDiscovery, stage, "measure session files", "", err)
	}
	report.RequiredBytes = required
	report.Preflight = preflight.RunAll(preflight.Request{
		BaseDir:       req.BaseDir,
		OutputDir:     req.OutputDir,
		RequiredBytes: required,
	})
	failed, ok := preflight.FirstFailure(report.Preflight)
	if !ok {
		logger.Debug("preflight passed", logging.String("required", logging.FormatBytes(required)))
		return nil
	}
	if req.DryRun {
		logging.WarnWithContext(logger, "preflight check failed", "preflight_failed",
			logging.String("check", failed.Name),
			logging.String("detail", failed.Detail),
			logging.String(logging.FieldImpact, "a real run would abort"),
		)
		return nil
	}
	return pipeline.Wrap(pipeline.ErrWrite, stage, "preflight", failed.Name+": "+failed.Detail, nil)
}

func summarize(report Report, runErr error) manifest.RunSummary {
	summary := manifest.RunSummary{
		Status:            manifest.StatusCompleted,
		SessionsTotal:     len(report.Sessions),
		SessionsCompleted: report.Count(OutcomeCompleted),
		SessionsFailed:    report.Count(OutcomeFailed),
		SessionsSkipped:   report.Count(OutcomeSkipped),
	}
	if runErr != nil {
		summary.ErrorMessage = runErr.Error()
		summary.Status = manifest.StatusFailed
		if summary.SessionsCompleted > 0 || summary.SessionsSkipped > 0 {
			summary.Status = manifest.StatusPartial
		}
	}
	return summary
}
