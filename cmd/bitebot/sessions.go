package main

import (
	"BiteBot/internal/app/discovery"
	"BiteBot/internal/config"
	"BiteBot/internal/service/audio/wasapi"
	"BiteBot/internal/service/procinfo"
	"BiteBot/internal/service/registry"
	"BiteBot/internal/service/window"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newSessionsCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "sessions",
		Short: "List audio sessions, show which match and which window they resolve to",
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger, err := newLogger(cfg.DebugMode)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			src, err := wasapi.Open(logger.Sugar())
			if err != nil {
				return err
			}
			defer src.Close()

			disc := discovery.New(src, window.NewResolver(), procinfo.System{}, registry.New(), discovery.Options{
				SessionMatch: cfg.Discovery.SessionMatch,
				ProcessMatch: cfg.Discovery.ProcessMatch,
			}, zap.NewNop().Sugar())
			cs, err := disc.Inspect(cmd.Context())
			if err != nil {
				return err
			}
			return printCandidates(cmd.OutOrStdout(), cs)
		},
	}
}

func printCandidates(w io.Writer, cs []discovery.Candidate) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "PID\tSTATE\tPEAK\tMATCH\tPROCESS\tWINDOW\tSESSION")
	for _, c := range cs {
		win := "-"
		switch {
		case c.Err != nil:
			win = "error: " + c.Err.Error()
		case c.Matched:
			win = fmt.Sprintf("%#x %q", uintptr(c.Window), c.Title)
		}
		fmt.Fprintf(tw, "%d\t%s\t%.3f\t%t\t%s\t%s\t%s\n",
			c.Session.PID, c.Session.State, c.Session.Peak, c.Matched, c.Process, win, c.Session.Identifier)
	}
	return tw.Flush()
}
