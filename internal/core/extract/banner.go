package extract

import (
	"io"
	"strings"
)

var (
	bannerTop    = strings.Repeat("=", 57)
	bannerBottom = strings.Repeat("=", 59)
)

// writeBanner writes the per-file header: a blank line, a rule, the path and
// a slightly longer rule.
func writeBanner(w io.Writer, path string) error {
	_, err := io.WriteString(w, "\n"+bannerTop+"\n"+path+"\n"+bannerBottom+"\n")
	return err
}
