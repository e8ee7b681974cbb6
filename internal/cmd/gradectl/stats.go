package gradectl

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/louisbranch/boulderlog/internal/services/grades/app"
	"github.com/louisbranch/boulderlog/internal/services/grades/domain/climb"
	"github.com/louisbranch/boulderlog/internal/services/grades/domain/stats"
	"github.com/spf13/cobra"
)

type sessionReport struct {
	SessionID string               `json:"sessionId,omitempty"`
	Location  string               `json:"location,omitempty"`
	Stats     stats.SessionStats   `json:"stats"`
	Pyramid   []stats.PyramidLevel `json:"pyramid"`
	Attempts  []attemptLine        `json:"attempts,omitempty"`
}

type attemptLine struct {
	Name        string `json:"name,omitempty"`
	Grade       string `json:"grade"`
	Approximate bool   `json:"approximate"`
	Tries       int    `json:"tries"`
	Flash       bool   `json:"flash"`
}

type statsReport struct {
	SystemID string                 `json:"systemId"`
	Sessions []sessionReport        `json:"sessions"`
	Progress *stats.ProgressSummary `json:"progress,omitempty"`
}

func newStatsCommand(rt *runtime) *cobra.Command {
	var systemID, format string
	var showAttempts bool
	cmd := &cobra.Command{
		Use:   "stats FILE",
		Short: "Summarize logged sessions from a YAML or JSON file",
		Long: `Summarize logged sessions. Attempts missing a grade snapshot are
enriched using the session's gradeSystemId (legacy "V" and "Font" codes
are accepted). Grades are reported in --system, or the selected display
system when omitted.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sessions, err := readSessions(args[0])
			if err != nil {
				return err
			}
			return rt.withCore(cmd, func(ctx context.Context, core *app.Core) error {
				target := systemID
				if strings.TrimSpace(target) == "" {
					target = core.Custom.SelectedSystemID(ctx)
				}
				report := buildReport(core, sessions, target, showAttempts)
				if format == "json" {
					enc := json.NewEncoder(rt.out)
					enc.SetIndent("", "  ")
					return enc.Encode(report)
				}
				return writeReport(rt.out, report)
			})
		},
	}
	cmd.Flags().StringVar(&systemID, "system", "", "Grade system to report in")
	cmd.Flags().StringVar(&format, "format", "text", "Output format: text or json")
	cmd.Flags().BoolVar(&showAttempts, "attempts", false, "List every attempt with its displayed grade")
	return cmd
}

func buildReport(core *app.Core, sessions []climb.Session, target string, showAttempts bool) statsReport {
	report := statsReport{SystemID: target}
	for i := range sessions {
		session := &sessions[i]
		core.Snapshots.EnrichAll(session)
		entry := sessionReport{
			SessionID: session.ID,
			Location:  session.Location,
			Stats:     core.Stats.BuildSessionStats(session.Attempts, target),
			Pyramid:   core.Stats.BuildGradePyramid(session.Attempts, target),
		}
		if showAttempts {
			for _, attempt := range session.Attempts {
				formatted := core.Engine.FormatGrade(attempt, target)
				entry.Attempts = append(entry.Attempts, attemptLine{
					Name:        attempt.Name,
					Grade:       formatted.Label,
					Approximate: formatted.Approximate,
					Tries:       attempt.Tries(),
					Flash:       attempt.IsFlash(),
				})
			}
		}
		report.Sessions = append(report.Sessions, entry)
	}
	if len(sessions) > 1 {
		progress := stats.SummarizeProgress(sessions)
		report.Progress = &progress
	}
	return report
}

func writeReport(out io.Writer, report statsReport) error {
	for i, session := range report.Sessions {
		if i > 0 {
			fmt.Fprintln(out)
		}
		title := session.SessionID
		if title == "" {
			title = fmt.Sprintf("session %d", i+1)
		}
		if session.Location != "" {
			title += " @ " + session.Location
		}
		s := session.Stats
		fmt.Fprintf(out, "%s\n", title)
		fmt.Fprintf(out, "  volume %d  problems %d  flashes %d  flash rate %.0f%%  max %s\n",
			s.Volume, s.Problems, s.Flashes, s.FlashRate*100, orDash(s.MaxGrade))

		w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintf(w, "  GRADE\tSENDS\tFLASHES\n")
		for _, level := range session.Pyramid {
			label := level.Grade
			if !level.Resolved {
				label += " (?)"
			}
			fmt.Fprintf(w, "  %s\t%d\t%d\n", label, level.Sends, level.Flashes)
		}
		if err := w.Flush(); err != nil {
			return err
		}

		for _, attempt := range session.Attempts {
			grade := attempt.Grade
			if attempt.Approximate {
				grade = "~" + grade
			}
			name := attempt.Name
			if name == "" {
				name = "-"
			}
			fmt.Fprintf(out, "  %s %s x%d\n", name, grade, attempt.Tries)
		}
	}

	if p := report.Progress; p != nil {
		fmt.Fprintf(out, "\nprogress over %d sessions (%d samples)\n", p.Sessions, p.Samples)
		fmt.Fprintf(out, "  mean %.2f  stddev %.2f  median %.1f  hardest %d\n",
			p.MeanCanonical, p.StdDevCanonical, p.MedianCanonical, p.HardestCanonical)
	}
	return nil
}

func orDash(value string) string {
	if value == "" {
		return "-"
	}
	return value
}
