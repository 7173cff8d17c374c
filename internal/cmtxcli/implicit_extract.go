package cmtxcli

import (
	"strings"

	"github.com/spf13/cobra"
)

// RewriteArgsForImplicitExtract turns "cmtx [flags] [root]" into
// "cmtx extract [flags] [root]". Known subcommands and root-only flags such
// as --version are left alone.
func RewriteArgsForImplicitExtract(root *cobra.Command, args []string) []string {
	if root == nil {
		return args
	}

	first, ok := firstPositionalArgAfterFlags(args)
	if ok {
		if knownTopLevelCommands(root)[strings.TrimSpace(first)] {
			return args
		}
		return append([]string{"extract"}, args...)
	}

	if hasRootOnlyFlag(args) {
		return args
	}
	return append([]string{"extract"}, args...)
}

func knownTopLevelCommands(root *cobra.Command) map[string]bool {
	known := map[string]bool{
		"help":       true,
		"completion": true,
	}

	if root == nil {
		return known
	}

	for _, c := range root.Commands() {
		if c == nil {
			continue
		}
		known[c.Name()] = true
		for _, a := range c.Aliases {
			known[a] = true
		}
	}

	return known
}

func hasRootOnlyFlag(args []string) bool {
	for _, a := range args {
		switch strings.TrimSpace(a) {
		case "-h", "--help", "-v", "--version", "-l", "--list-databases":
			return true
		case "--":
			return false
		}
	}
	return false
}

func firstPositionalArgAfterFlags(args []string) (string, bool) {
	skipNext := false
	positionalOnly := false

	for i := 0; i < len(args); i++ {
		a := strings.TrimSpace(args[i])
		if a == "" {
			continue
		}
		if skipNext {
			skipNext = false
			continue
		}

		if a == "--" {
			positionalOnly = true
			continue
		}

		if positionalOnly {
			return a, true
		}

		if strings.HasPrefix(a, "--") {
			if strings.Contains(a, "=") {
				continue
			}

			// --explain takes its format only as --explain=json.
			switch strings.TrimPrefix(a, "--") {
			case "database", "store", "config", "exclude", "glob", "viz",
				"mode", "engine", "ext", "asm-ext", "run", "limit":
				skipNext = true
			}
			continue
		}

		if strings.HasPrefix(a, "-") && a != "-" {
			// Value-taking short flags: -d/-x/-g/-n
			if len(a) == 2 {
				switch a[1] {
				case 'd', 'x', 'g', 'n':
					skipNext = true
				}
				continue
			}

			// Inline values, e.g. -dfoo / -d=foo
			continue
		}

		return a, true
	}

	return "", false
}
