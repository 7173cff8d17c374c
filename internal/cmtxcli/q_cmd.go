package cmtxcli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"cmtx/internal/core/explain"
	"cmtx/internal/index/backend"
	"cmtx/internal/index/store"
)

func newQCommand(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "q <keyword>",
		Short: "Search the comments of a recorded run",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := optionsFrom(cmd)
			if opts == nil {
				return fmt.Errorf("options missing")
			}
			keyword := strings.Join(args, " ")

			var ex *explain.Collector
			if opts.Explain != "" {
				ex = explain.NewCollector(opts.Explain)
			}

			st, err := backend.Open(opts.Store, opts.DBPath)
			if err != nil {
				return fmt.Errorf("open %s store %s: %w", opts.Store, opts.DBPath, err)
			}
			defer st.Close()

			runID := strings.TrimSpace(opts.RunID)
			if runID == "" {
				run, err := st.LatestRun()
				if errors.Is(err, store.ErrNoRuns) {
					return fmt.Errorf("%w in %s (record one with: cmtx extract --record)", err, opts.DBPath)
				}
				if err != nil {
					return err
				}
				runID = run.ID
			} else if _, err := st.GetRun(runID); err != nil {
				return fmt.Errorf("run %s: %w", runID, err)
			}

			stop := func() {}
			if ex != nil {
				stop = ex.Timer("search")
			}
			res, err := st.Search(runID, keyword, opts.Limit)
			stop()
			if err != nil {
				return err
			}
			if ex != nil {
				ex.KV("run", runID)
				ex.KV("backend", res.Backend)
				ex.KV("results", len(res.Comments))
			}

			hits := hitsFrom(res.Comments)
			var out string
			switch {
			case opts.Jsonl:
				out = RenderJSONL(hits)
			case opts.Show:
				out = RenderShow(hits, keyword)
			default:
				out = RenderDefault(hits)
			}
			_, _ = fmt.Fprint(cmd.OutOrStdout(), out)

			if ex != nil {
				_ = ex.Emit(cmd.ErrOrStderr())
			}
			return nil
		},
	}

	bindQueryFlags(cmd, opts)
	return cmd
}
