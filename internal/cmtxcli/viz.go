package cmtxcli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// VizASCII draws the extraction pipeline for the current options.
func VizASCII(opts *Options) string {
	if opts == nil {
		opts = newDefaultOptions()
	}

	cScanner := "scan(block /* */)"
	if opts.Engine == "treesitter" {
		cScanner = "parse(tree-sitter)"
	}
	if opts.Mode == "raw" {
		cScanner = "copy(raw)"
	}
	asmScanner := "scan(line ;)"
	if opts.Mode == "raw" {
		asmScanner = "copy(raw)"
	}
	sink := "stdout"
	if opts.Record && opts.Mode != "raw" {
		sink = "stdout + record(" + opts.Store + ")"
	}

	var b strings.Builder
	b.WriteString("cmtx pipeline\n")
	_, _ = fmt.Fprintf(&b, "  1. walk(%s) -> banner -> %s -> %s\n", strings.Join(opts.CExtensions, ","), cScanner, sink)
	_, _ = fmt.Fprintf(&b, "  2. walk(%s) -> banner -> %s -> %s\n", strings.Join(opts.AsmExtensions, ","), asmScanner, sink)
	b.WriteString("  q: store -> search -> render\n")
	return b.String()
}

func maybePrintViz(cmd *cobra.Command) {
	if cmd == nil {
		return
	}
	opts := optionsFrom(cmd)
	if opts == nil {
		return
	}

	switch opts.Viz {
	case "ascii":
		_, _ = fmt.Fprint(cmd.ErrOrStderr(), VizASCII(opts))
	}
}
