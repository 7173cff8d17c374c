package cmtxcli

import (
	"fmt"

	"github.com/spf13/cobra"

	"cmtx/internal/index/backend"
)

func newRunsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "runs",
		Short: "List recorded runs, oldest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := optionsFrom(cmd)
			if opts == nil {
				return fmt.Errorf("options missing")
			}

			st, err := backend.Open(opts.Store, opts.DBPath)
			if err != nil {
				return fmt.Errorf("open %s store %s: %w", opts.Store, opts.DBPath, err)
			}
			defer st.Close()

			runs, err := st.ListRuns()
			if err != nil {
				return err
			}

			items := runsFrom(runs)
			if opts.Jsonl {
				_, _ = fmt.Fprint(cmd.OutOrStdout(), RenderJSONL(items))
				return nil
			}
			_, _ = fmt.Fprint(cmd.OutOrStdout(), RenderRuns(items))
			return nil
		},
	}
}
