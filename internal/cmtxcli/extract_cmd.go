package cmtxcli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"cmtx/internal/core/explain"
	"cmtx/internal/core/extract"
	"cmtx/internal/index/backend"
	"cmtx/internal/index/store"
)

func newExtractCommand(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extract [root]",
		Short: "Print every comment of the C-family files, then of the assembly files, under root",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			maybePrintViz(cmd)

			opts := optionsFrom(cmd)
			if opts == nil {
				return fmt.Errorf("options missing")
			}

			root := opts.SourceRoot
			if len(args) == 1 {
				root = args[0]
			}

			log := newLogger(cmd.ErrOrStderr(), opts.Verbose)
			if opts.cfg != nil && opts.cfg.Path != "" {
				log.Debug("loaded config", "path", opts.cfg.Path)
			}

			var ex *explain.Collector
			if opts.Explain != "" {
				ex = explain.NewCollector(opts.Explain)
			}

			eopts := extract.Options{
				CExtensions:   opts.CExtensions,
				AsmExtensions: opts.AsmExtensions,
				IncludeGlobs:  opts.IncludeGlobs,
				ExcludeGlobs:  opts.ExcludeGlobs,
				RespectIgnore: opts.RespectIgnore,
				Mode:          extract.Mode(opts.Mode),
				Engine:        extract.Engine(opts.Engine),
				Logger:        log,
			}
			if ex != nil {
				eopts.Explain = ex
			}

			if !opts.Record || opts.Mode == string(extract.ModeRaw) {
				if opts.Record {
					log.Warn("--record is ignored in raw mode")
				}
				if _, err := extract.Run(root, cmd.OutOrStdout(), eopts); err != nil {
					return err
				}
				if ex != nil {
					_ = ex.Emit(cmd.ErrOrStderr())
				}
				return nil
			}

			st, err := backend.Open(opts.Store, opts.DBPath)
			if err != nil {
				return fmt.Errorf("open %s store %s: %w", opts.Store, opts.DBPath, err)
			}
			defer st.Close()
			if pa, ok := st.(store.WritePragmaApplier); ok {
				if err := pa.ApplyWritePragmas(); err != nil {
					return err
				}
			}

			absRoot, err := filepath.Abs(root)
			if err != nil {
				return err
			}
			runID, err := store.NewRunID()
			if err != nil {
				return err
			}
			if err := st.BeginRun(runID, absRoot); err != nil {
				return err
			}
			if ex != nil {
				ex.KV("store", st.Backend())
				ex.KV("run", runID)
			}

			eopts.Recorder = extract.RecordTo(st, runID)
			stats, err := extract.Run(root, cmd.OutOrStdout(), eopts)
			if err != nil {
				return err
			}
			if err := st.FinishRun(runID, stats.Files); err != nil {
				return err
			}
			log.Info("recorded run", "run", runID, "files", stats.Files, "comments", stats.Comments, "store", opts.DBPath)
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "recorded run %s (%d files, %d comments)\n", runID, stats.Files, stats.Comments)

			if ex != nil {
				_ = ex.Emit(cmd.ErrOrStderr())
			}
			return nil
		},
	}

	bindExtractFlags(cmd, opts)
	return cmd
}
