package chaincheck

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

// WriteReport prints findings grouped by partition followed by a summary
// line. Replay diffs are indented under their finding.
func WriteReport(w io.Writer, r Report, colored bool) error {
	bad := color.New(color.FgRed, color.Bold)
	warn := color.New(color.FgYellow)
	good := color.New(color.FgGreen, color.Bold)
	added := color.New(color.FgGreen)
	removed := color.New(color.FgRed)
	for _, c := range []*color.Color{bad, warn, good, added, removed} {
		if colored {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}

	var sb strings.Builder
	last := ""
	for _, f := range r.Findings {
		if p := f.Partition.String(); p != last {
			fmt.Fprintf(&sb, "%s\n", bad.Sprint(p))
			last = p
		}
		subject := f.AuditID
		if subject == "" {
			subject = "(partition)"
		}
		fmt.Fprintf(&sb, "  %s %s", warn.Sprint(string(f.Kind)), subject)

		if f.Kind != KindReplayMismatch {
			fmt.Fprintf(&sb, ": %s\n", f.Detail)
			continue
		}
		sb.WriteString("\n")
		for _, line := range strings.SplitAfter(f.Detail, "\n") {
			switch {
			case line == "":
			case strings.HasPrefix(line, "+"):
				sb.WriteString("    " + added.Sprint(line))
			case strings.HasPrefix(line, "-"):
				sb.WriteString("    " + removed.Sprint(line))
			default:
				sb.WriteString("    " + line)
			}
		}
	}

	summary := fmt.Sprintf("%d partitions, %d records, %d findings", r.Partitions, r.Records, len(r.Findings))
	if r.OK() {
		fmt.Fprintf(&sb, "%s\n", good.Sprint("ok: "+summary))
	} else {
		fmt.Fprintf(&sb, "%s\n", bad.Sprint("FAIL: "+summary))
	}

	_, err := io.WriteString(w, sb.String())
	return err
}
