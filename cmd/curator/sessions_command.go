package main

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"curator/internal/classify"
	"curator/internal/discovery"
	"curator/internal/pipeline"
	"curator/internal/session"
	"curator/internal/timestamps"
)

type sessionListing struct {
	Subject      string         `json:"subject"`
	SessionID    string         `json:"session_id"`
	Files        int            `json:"files"`
	Roles        map[string]int `json:"roles"`
	TimestampLog string         `json:"timestamp_log,omitempty"`
}

func newSessionsCommand(ctx *commandContext) *cobra.Command {
	var startDate string
	var animals []string
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "sessions <base_dir>",
		Short: "List the sessions a curation run would process",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			pattern, err := regexp.Compile(cfg.Discovery.SubjectPattern)
			if err != nil {
				return pipeline.Wrap(pipeline.ErrConfiguration, "cli", "compile subject pattern", cfg.Discovery.SubjectPattern, err)
			}
			opts := session.GroupOptions{}
			if strings.TrimSpace(startDate) != "" {
				start, err := session.ParseDate(startDate)
				if err != nil {
					return pipeline.Wrap(pipeline.ErrConfiguration, "cli", "parse --start_date", startDate, err)
				}
				opts.StartDate = &start
			}

			found, err := discovery.Discover(cmd.Context(), discovery.Options{
				BaseDir:        args[0],
				Subjects:       animals,
				SubjectPattern: pattern,
				IncludeHidden:  cfg.Discovery.IncludeHidden,
			})
			if err != nil {
				return err
			}

			tsOpts := timestamps.Options{Extensions: cfg.Timestamps.Extensions}
			listings := make([]sessionListing, 0)
			unmatched := 0
			for _, subject := range found.Subjects {
				grouped, err := session.Group(subject.ID, subject.Files, opts)
				if err != nil {
					return err
				}
				unmatched += len(grouped.Unmatched)
				for _, sess := range grouped.Sessions {
					listings = append(listings, listSession(sess, tsOpts))
				}
			}

			if jsonOutput {
				return writeJSON(cmd, listings)
			}
			out := cmd.OutOrStdout()
			if len(listings) == 0 {
				fmt.Fprintln(out, "No sessions found")
			} else {
				fmt.Fprintln(out, renderSessionTable(listings))
			}
			status := newStatusWriter(out)
			if unmatched > 0 {
				status.line("Unmatched files", statusWarn, strconv.Itoa(unmatched))
			}
			if len(found.Missing) > 0 {
				status.line("Missing subjects", statusWarn, strings.Join(found.Missing, ", "))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&startDate, "start_date", "", "Only list sessions dated after YYYY-MM-DD")
	cmd.Flags().StringSliceVar(&animals, "animals", nil, "Subject IDs to list (repeatable or comma separated)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print sessions as JSON")
	return cmd
}

func listSession(sess session.Session, tsOpts timestamps.Options) sessionListing {
	files := classify.Split(sess.Files, tsOpts.IsLog)
	listing := sessionListing{
		Subject:   sess.Subject,
		SessionID: sess.ID(),
		Files:     len(sess.Files),
		Roles:     make(map[string]int, len(files)),
	}
	for role, members := range files {
		listing.Roles[string(role)] = len(members)
	}
	if source, _, err := timestamps.Find(sess.Files, tsOpts); err == nil {
		listing.TimestampLog = filepath.Base(source)
	}
	return listing
}

func renderSessionTable(listings []sessionListing) string {
	headers := []string{"Subject", "Session", "Files"}
	aligns := []columnAlignment{alignLeft, alignLeft, alignRight}
	for _, role := range classify.StreamRoles {
		headers = append(headers, role.Title())
		aligns = append(aligns, alignRight)
	}
	headers = append(headers, classify.RoleUnclassified.Title(), "Timestamp Log")
	aligns = append(aligns, alignRight, alignLeft)

	rows := make([][]string, 0, len(listings))
	for _, l := range listings {
		row := []string{l.Subject, l.SessionID, strconv.Itoa(l.Files)}
		for _, role := range classify.StreamRoles {
			row = append(row, strconv.Itoa(l.Roles[string(role)]))
		}
		logName := l.TimestampLog
		if logName == "" {
			logName = "missing"
		}
		row = append(row, strconv.Itoa(l.Roles[string(classify.RoleUnclassified)]), logName)
		rows = append(rows, row)
	}
	return renderTable(headers, rows, aligns)
}
