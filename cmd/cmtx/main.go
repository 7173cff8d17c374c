package main

import (
	"os"

	"cmtx/internal/cmtxcli"
)

func main() {
	cmd := cmtxcli.NewRootCommand()
	cmd.SetArgs(cmtxcli.RewriteArgsForImplicitExtract(cmd, os.Args[1:]))
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
