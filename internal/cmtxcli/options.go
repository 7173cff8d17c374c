package cmtxcli

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"cmtx/internal/config"
	"cmtx/internal/core/extract"
	"cmtx/internal/index/backend"
)

type Options struct {
	DBPath        string
	Store         string
	ConfigPath    string
	Verbose       bool
	RespectIgnore bool
	IncludeGlobs  []string
	ExcludeGlobs  []string
	Jsonl         bool
	Explain       string
	Viz           string
	ListDatabases bool

	// extract
	SourceRoot    string
	Mode          string
	Engine        string
	CExtensions   []string
	AsmExtensions []string
	Record        bool

	// q
	RunID string
	Limit int
	Show  bool

	cfg *config.File
}

func (o *Options) Prepare() error {
	o.normalize()

	switch o.Store {
	case "sqlite", "bleve":
	default:
		return fmt.Errorf("invalid --store %q (expected: sqlite|bleve)", o.Store)
	}
	switch extract.Mode(o.Mode) {
	case extract.ModeComments, extract.ModeRaw:
	default:
		return fmt.Errorf("invalid --mode %q (expected: comments|raw)", o.Mode)
	}
	switch extract.Engine(o.Engine) {
	case extract.EngineFSM, extract.EngineTreesitter:
	default:
		return fmt.Errorf("invalid --engine %q (expected: fsm|treesitter)", o.Engine)
	}
	switch o.Explain {
	case "", "text", "json":
	default:
		return fmt.Errorf("invalid --explain %q (expected: text|json)", o.Explain)
	}
	if o.Viz != "" {
		switch o.Viz {
		case "ascii":
		default:
			return fmt.Errorf("invalid --viz %q (expected: ascii)", o.Viz)
		}
	}
	if o.Limit <= 0 {
		return fmt.Errorf("limit must be > 0")
	}
	for _, ext := range append(append([]string(nil), o.CExtensions...), o.AsmExtensions...) {
		if !strings.HasPrefix(ext, ".") {
			return fmt.Errorf("invalid extension %q (expected a leading dot)", ext)
		}
	}
	return nil
}

func (o *Options) normalize() {
	o.Store = backend.NormalizeName(o.Store)
	o.Mode = strings.ToLower(strings.TrimSpace(o.Mode))
	if o.Mode == "" {
		o.Mode = string(extract.ModeComments)
	}
	o.Engine = strings.ToLower(strings.TrimSpace(o.Engine))
	if o.Engine == "" {
		o.Engine = string(extract.EngineFSM)
	}
	o.Explain = strings.ToLower(strings.TrimSpace(o.Explain))
	o.CExtensions = trimAll(o.CExtensions)
	o.AsmExtensions = trimAll(o.AsmExtensions)
}

// applyConfig fills every option the command line left unset from cfg.
func (o *Options) applyConfig(cmd *cobra.Command, cfg *config.File) {
	if cfg == nil {
		cfg = config.Default()
	}
	o.cfg = cfg

	if o.SourceRoot == "" {
		o.SourceRoot = "."
		if root := strings.TrimSpace(cfg.SourceRoot); root != "" {
			if !filepath.IsAbs(root) && cfg.Path != "" {
				root = filepath.Join(filepath.Dir(cfg.Path), root)
			}
			o.SourceRoot = root
		}
	}
	if !changed(cmd, "respect-ignore") && cfg.RespectIgnore {
		o.RespectIgnore = true
	}
	if !changed(cmd, "glob") && len(cfg.Include) > 0 {
		o.IncludeGlobs = append([]string(nil), cfg.Include...)
	}
	if !changed(cmd, "exclude") && len(cfg.Exclude) > 0 {
		o.ExcludeGlobs = append([]string(nil), cfg.Exclude...)
	}
	if !changed(cmd, "ext") {
		o.CExtensions = append([]string(nil), cfg.Extensions.C...)
	}
	if !changed(cmd, "asm-ext") {
		o.AsmExtensions = append([]string(nil), cfg.Extensions.Asm...)
	}
	if !changed(cmd, "store") && cfg.Store.Backend != "" {
		o.Store = backend.NormalizeName(cfg.Store.Backend)
	}
	if !changed(cmd, "database") {
		o.DBPath = strings.TrimSpace(cfg.Store.Path)
	}
	if o.DBPath == "" {
		o.DBPath = backend.DefaultPath(".", o.Store)
	}
	o.DBPath = backend.NormalizePath(o.Store, o.DBPath)
}

func loadConfig(path string) (*config.File, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		found, err := config.Find(".")
		if err != nil {
			return nil, err
		}
		if found == "" {
			return config.Default(), nil
		}
		path = found
	}
	return config.Load(path)
}

func changed(cmd *cobra.Command, name string) bool {
	if cmd == nil {
		return false
	}
	f := cmd.Flag(name)
	return f != nil && f.Changed
}

func trimAll(in []string) []string {
	var out []string
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

type optionsKey struct{}

func optionsFrom(cmd *cobra.Command) *Options {
	if cmd == nil {
		return nil
	}
	root := cmd.Root()
	if root == nil {
		root = cmd
	}
	v := root.Context().Value(optionsKey{})
	opts, _ := v.(*Options)
	return opts
}

func bindFlags(cmd *cobra.Command, opts *Options) {
	cmd.PersistentFlags().StringVarP(&opts.DBPath, "database", "d", opts.DBPath, "report store to use (default: .cmtx/report.db)")
	cmd.PersistentFlags().StringVar(&opts.Store, "store", opts.Store, "report store backend: sqlite|bleve")
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", opts.ConfigPath, "config file (default: .cmtx.yaml in the working directory)")
	cmd.PersistentFlags().BoolVar(&opts.Verbose, "verbose", opts.Verbose, "log every file to stderr")
	cmd.PersistentFlags().BoolVar(&opts.RespectIgnore, "respect-ignore", opts.RespectIgnore, "skip hidden files, node_modules and .gitignore/.cmtxignore matches")
	cmd.PersistentFlags().StringSliceVarP(&opts.ExcludeGlobs, "exclude", "x", nil, "exclude these files (comma separated list: -x kernel/media/**,*.S)")
	cmd.PersistentFlags().StringSliceVarP(&opts.IncludeGlobs, "glob", "g", nil, "only scan these files (can repeat)")
	cmd.PersistentFlags().BoolVar(&opts.Jsonl, "jsonl", opts.Jsonl, "output as JSONL")
	cmd.PersistentFlags().StringVar(&opts.Explain, "explain", opts.Explain, "print explain info to stderr (text|json)")
	cmd.PersistentFlags().Lookup("explain").NoOptDefVal = "text"
	cmd.PersistentFlags().StringVar(&opts.Viz, "viz", opts.Viz, "viz output mode (ascii)")
	cmd.PersistentFlags().BoolVarP(&opts.ListDatabases, "list-databases", "l", opts.ListDatabases, "lists report stores available")
}

func bindExtractFlags(cmd *cobra.Command, opts *Options) {
	cmd.Flags().StringVar(&opts.Mode, "mode", opts.Mode, "output mode: comments|raw")
	cmd.Flags().StringVar(&opts.Engine, "engine", opts.Engine, "comment engine for C files: fsm|treesitter")
	cmd.Flags().StringSliceVar(&opts.CExtensions, "ext", nil, "C-family file suffixes (default: .h,.c)")
	cmd.Flags().StringSliceVar(&opts.AsmExtensions, "asm-ext", nil, "assembly file suffixes (default: .asm,.s)")
	cmd.Flags().BoolVar(&opts.Record, "record", opts.Record, "record the comments into the report store")
}

func bindQueryFlags(cmd *cobra.Command, opts *Options) {
	cmd.Flags().StringVar(&opts.RunID, "run", opts.RunID, "run to search (default: latest)")
	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", opts.Limit, "maximum number of results")
	cmd.Flags().BoolVar(&opts.Show, "show", opts.Show, "print whole comments with line numbers")
}

func ExecuteForTest(cmd *cobra.Command) (string, Options, error) {
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)

	err := cmd.Execute()

	opts := optionsFrom(cmd)
	if opts == nil {
		return out.String(), Options{}, err
	}
	opts.normalize()

	return out.String(), *opts, err
}

func newDefaultOptions() *Options {
	return &Options{
		Store:  "sqlite",
		Mode:   string(extract.ModeComments),
		Engine: string(extract.EngineFSM),
		Limit:  20,
	}
}

func withOptionsContext(cmd *cobra.Command, opts *Options) {
	cmd.SetContext(context.WithValue(context.Background(), optionsKey{}, opts))
}
