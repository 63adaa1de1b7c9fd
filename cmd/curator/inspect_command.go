package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"curator/internal/classify"
	"curator/internal/container"
	"curator/internal/pipeline"
)

type streamView struct {
	Name      string   `json:"name"`
	Role      string   `json:"role"`
	Type      string   `json:"neurodata_type"`
	Files     []string `json:"external_file"`
	FirstFile string   `json:"first_file,omitempty"`
}

type containerView struct {
	Path       string       `json:"path"`
	Identifier string       `json:"identifier"`
	Subject    string       `json:"subject"`
	SessionID  string       `json:"session_id"`
	StartTime  string       `json:"start_time"`
	Timestamps int          `json:"timestamps"`
	Streams    []streamView `json:"streams"`
}

func newStreamView(path string, s container.Stream) streamView {
	return streamView{
		Name:      s.Name,
		Role:      string(s.Role),
		Type:      s.NeurodataType,
		Files:     s.ExternalFile,
		FirstFile: s.FirstFile(path),
	}
}

func newInspectCommand() *cobra.Command {
	var streamName string
	var roleName string
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "inspect <container>",
		Short: "Show the streams recorded in a session container",
		Long: "Reads a container written with --save_nwb and lists its acquisition streams.\n" +
			"With --stream or --role only the first external file of that stream is printed,\n" +
			"resolved against the container's directory, for use by downstream tools.",
		Args:        cobra.ExactArgs(1),
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			doc, err := container.Read(path)
			if err != nil {
				return err
			}

			if streamName != "" || roleName != "" {
				stream, err := lookupStream(doc, path, streamName, roleName)
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(cmd, newStreamView(path, stream))
				}
				first := stream.FirstFile(path)
				if first == "" {
					return pipeline.Wrap(pipeline.ErrValidation, "inspect", "first external file",
						fmt.Sprintf("stream %s lists no files", stream.Name), nil)
				}
				fmt.Fprintln(cmd.OutOrStdout(), first)
				return nil
			}

			view := containerView{
				Path:       path,
				Identifier: doc.Identifier,
				Subject:    doc.Subject.SubjectID,
				SessionID:  doc.Session.ID,
				StartTime:  doc.Session.StartTime.Format(time.RFC3339Nano),
				Timestamps: len(doc.Timestamps.Data),
				Streams:    make([]streamView, 0, len(doc.Acquisition)),
			}
			for _, s := range doc.Acquisition {
				view.Streams = append(view.Streams, newStreamView(path, s))
			}
			if jsonOutput {
				return writeJSON(cmd, view)
			}

			out := cmd.OutOrStdout()
			rows := make([][]string, 0, len(doc.Acquisition))
			for _, s := range doc.Acquisition {
				rows = append(rows, []string{
					s.Name,
					s.Role.Title(),
					s.NeurodataType,
					strconv.Itoa(len(s.ExternalFile)),
					s.FirstFile(path),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Stream", "Role", "Type", "Files", "First File"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
			))
			status := newStatusWriter(out)
			status.line("Subject", statusInfo, view.Subject)
			status.line("Session", statusInfo, view.SessionID)
			status.line("Start", statusInfo, view.StartTime)
			status.line("Timestamps", statusInfo, strconv.Itoa(view.Timestamps))
			return nil
		},
	}

	cmd.Flags().StringVar(&streamName, "stream", "", "Print the first file of the named stream (e.g. gcamp, behavior_linear)")
	cmd.Flags().StringVar(&roleName, "role", "", "Print the first file of the stream for a role (imaging, behavior_linear, behavior_home)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print as JSON")
	cmd.MarkFlagsMutuallyExclusive("stream", "role")
	return cmd
}

func lookupStream(doc container.Document, path, name, roleName string) (container.Stream, error) {
	if name != "" {
		if s, ok := doc.Stream(name); ok {
			return s, nil
		}
		return container.Stream{}, pipeline.Wrap(pipeline.ErrValidation, "inspect", "find stream",
			fmt.Sprintf("%s has no stream %q", path, name), nil)
	}
	role := classify.Role(strings.TrimSpace(roleName))
	if !role.IsStream() {
		return container.Stream{}, pipeline.Wrap(pipeline.ErrConfiguration, "inspect", "parse role",
			fmt.Sprintf("role %q does not produce a stream", roleName), nil)
	}
	if s, ok := doc.StreamByRole(role); ok {
		return s, nil
	}
	return container.Stream{}, pipeline.Wrap(pipeline.ErrValidation, "inspect", "find stream",
		fmt.Sprintf("%s has no %s stream", path, role), nil)
}
