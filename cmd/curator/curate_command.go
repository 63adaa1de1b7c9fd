package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"curator/internal/config"
	"curator/internal/curator"
	"curator/internal/manifest"
	"curator/internal/pipeline"
	"curator/internal/session"
)

type curateOptions struct {
	startDate     string
	animals       []string
	saveNWB       bool
	keepGoing     bool
	skipCompleted bool
	dryRun        bool
	jsonOutput    bool
}

func newCurateCommand(ctx *commandContext) *cobra.Command {
	var opts curateOptions

	cmd := &cobra.Command{
		Use:   "curator <base_dir> <output_dir>",
		Short: "Curate raw recording sessions into the sub-<subject>/ses-<id> layout",
		Long: "Discovers subject directories under base_dir, groups their files into sessions by the\n" +
			"YYYY-MM-DDTHH_MM_SS token in each filename, and copies every session into\n" +
			"output_dir/sub-<subject>/ses-<YYYYMMDD>T<HHMMSS>/. With --save_nwb a container\n" +
			"describing the session's streams and aligned timestamps is written alongside.\n\n" +
			"--animals takes one value per flag or a comma separated list. A space separated\n" +
			"list (--animals Mouse1 Mouse2) is not accepted: the second ID is read as an\n" +
			"extra positional argument.",
		Example: "  curator raw/ curated/ --animals Mouse1,Mouse2\n" +
			"  curator raw/ curated/ --animals Mouse1 --animals Mouse2 --save_nwb",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCurate(cmd, ctx, args[0], args[1], opts)
		},
	}

	cmd.Flags().StringVar(&opts.startDate, "start_date", "", "Only curate sessions dated after YYYY-MM-DD")
	cmd.Flags().StringSliceVar(&opts.animals, "animals", nil, "Subject IDs to curate: --animals A,B or --animals A --animals B (not space separated; default all)")
	cmd.Flags().BoolVar(&opts.saveNWB, "save_nwb", false, "Write a container file per session")
	cmd.Flags().BoolVar(&opts.keepGoing, "keep_going", false, "Continue with remaining sessions after a failure")
	cmd.Flags().BoolVar(&opts.skipCompleted, "skip_completed", false, "Skip sessions the manifest records as completed")
	cmd.Flags().BoolVar(&opts.dryRun, "dry_run", false, "Plan sessions without writing output")
	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Print the run report as JSON")
	return cmd
}

func runCurate(cmd *cobra.Command, ctx *commandContext, baseDir, outputDir string, opts curateOptions) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	logger, err := ctx.ensureLogger()
	if err != nil {
		return err
	}

	req := curator.Request{
		BaseDir:   baseDir,
		OutputDir: outputDir,
		Subjects:  opts.animals,
		Mode:      curator.ModeFlat,
		DryRun:    opts.dryRun,
	}
	if opts.saveNWB {
		req.Mode = curator.ModeContainer
	}
	if strings.TrimSpace(opts.startDate) != "" {
		start, err := session.ParseDate(opts.startDate)
		if err != nil {
			return pipeline.Wrap(pipeline.ErrConfiguration, "cli", "parse --start_date", opts.startDate, err)
		}
		req.StartDate = &start
	}

	runCfg := *cfg
	if opts.keepGoing {
		runCfg.Curation.ContinueOnError = true
	}
	if opts.skipCompleted {
		runCfg.Curation.SkipCompleted = true
	}

	signalCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return ctx.withManifest(func(store *manifest.Store) error {
		c, err := curator.New(&runCfg, store, logger)
		if err != nil {
			return err
		}
		report, runErr := c.Run(signalCtx, req)
		if opts.jsonOutput {
			if err := writeJSON(cmd, newReportView(report)); err != nil {
				return err
			}
			return runErr
		}
		printReport(cmd, &runCfg, report)
		return runErr
	})
}

func printReport(cmd *cobra.Command, cfg *config.Config, report curator.Report) {
	out := cmd.OutOrStdout()

	if len(report.Sessions) > 0 {
		headers := []string{"Subject", "Session", "Outcome", "Files", "Timestamps", "Output"}
		rows := make([][]string, 0, len(report.Sessions))
		for _, s := range report.Sessions {
			target := s.Dir
			if s.ContainerPath != "" {
				target = s.ContainerPath
			}
			rows = append(rows, []string{
				s.Subject,
				s.SessionID,
				string(s.Outcome),
				strconv.Itoa(s.Files),
				strconv.Itoa(s.TimestampRows),
				target,
			})
		}
		fmt.Fprintln(out, renderTable(headers, rows, []columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignLeft}))
	}

	title := "Curation"
	if report.DryRun {
		title = "Curation (dry run)"
	}
	status := newStatusWriter(out)
	status.header(title)
	status.line("Run", statusInfo, report.RunID)
	status.line("Mode", statusInfo, fmt.Sprintf("%s (%s)", report.Mode, cfg.Container.Extension))
	status.line("Subjects", statusInfo, strconv.Itoa(len(report.Subjects)))
	for _, check := range report.Preflight {
		kind := statusOK
		if !check.Passed {
			kind = statusError
			if report.DryRun {
				kind = statusWarn
			}
		}
		status.line(check.Name, kind, check.Detail)
	}
	if report.DryRun {
		status.line("Planned", statusInfo, strconv.Itoa(report.Count(curator.OutcomePlanned)))
	} else {
		status.line("Completed", statusOK, strconv.Itoa(report.Count(curator.OutcomeCompleted)))
	}
	if n := report.Count(curator.OutcomeSkipped); n > 0 {
		status.line("Skipped", statusInfo, strconv.Itoa(n))
	}
	if len(report.Unmatched) > 0 {
		status.line("Unmatched files", statusWarn, strconv.Itoa(len(report.Unmatched)))
	}
	if len(report.MissingSubjects) > 0 {
		status.line("Missing subjects", statusWarn, strings.Join(report.MissingSubjects, ", "))
	}
	for _, f := range report.Failures() {
		label := f.Subject
		if f.SessionID != "" {
			label = filepath.Join(f.Subject, f.SessionID)
		}
		status.line(label, statusError, pipeline.Kind(f.Err))
	}
	if d := report.Duration(); d > 0 {
		status.line("Elapsed", statusInfo, d.Round(time.Millisecond).String())
	}
}
