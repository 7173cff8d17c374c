package cmtxcli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"cmtx/internal/index/backend"
	"cmtx/internal/version"
)

func NewRootCommand() *cobra.Command {
	opts := newDefaultOptions()
	cmd := &cobra.Command{
		Use:          "cmtx",
		Short:        "Print the comments of a C and assembly source tree",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := optionsFrom(cmd)
			if opts == nil {
				return fmt.Errorf("options missing")
			}

			if opts.ListDatabases {
				return listDatabases(cmd)
			}
			if opts.Viz != "" {
				maybePrintViz(cmd)
				return nil
			}

			return cmd.Help()
		},
	}
	cmd.SetVersionTemplate("{{.Version}}\n")
	cmd.Version = version.String()
	cmd.InitDefaultVersionFlag()
	if f := cmd.Flags().Lookup("version"); f != nil {
		f.Shorthand = "v"
	}

	withOptionsContext(cmd, opts)
	bindFlags(cmd, opts)

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		opts := optionsFrom(cmd)
		if opts == nil {
			return nil
		}
		if err := opts.Prepare(); err != nil {
			return err
		}
		cfg, err := loadConfig(opts.ConfigPath)
		if err != nil {
			return err
		}
		opts.applyConfig(cmd, cfg)
		return nil
	}

	cmd.AddCommand(newExtractCommand(opts))
	cmd.AddCommand(newRunsCommand())
	cmd.AddCommand(newQCommand(opts))
	return cmd
}

func listDatabases(cmd *cobra.Command) error {
	cwd, err := os.Getwd()
	if err != nil {
		return err
	}

	locs, err := backend.List(cwd)
	if err != nil {
		return err
	}
	for _, loc := range locs {
		rel := loc.Path
		if r, err := filepath.Rel(cwd, loc.Path); err == nil {
			rel = filepath.ToSlash(r)
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", rel, loc.Backend)
	}
	return nil
}
