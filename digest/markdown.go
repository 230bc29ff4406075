package digest

import (
	"fmt"
	"strings"
)

// Render produces the Markdown form of the document.
//
// Layout: a dated heading, an overview list of the top statements, then
// one section per group with its statement and a source list citing the
// surviving items.
func Render(doc *Document) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "# Daily Recap — %s\n\n", doc.Date.Format("2006-01-02"))

	if len(doc.Sections) == 0 {
		sb.WriteString("No notable activity in this window.\n")
		return sb.String()
	}

	if len(doc.Overview) > 0 {
		sb.WriteString("## Overview\n\n")
		for _, bullet := range doc.Overview {
			fmt.Fprintf(&sb, "- %s\n", bullet)
		}
		sb.WriteString("\n")
	}

	for _, section := range doc.Sections {
		fmt.Fprintf(&sb, "## %s\n\n", section.Title)
		fmt.Fprintf(&sb, "%s\n\n", section.Statement)
		if section.ItemCount > 1 {
			fmt.Fprintf(&sb, "_%d related reports_\n\n", section.ItemCount)
		}
		if len(section.Citations) > 0 {
			sb.WriteString("Sources:\n")
			for _, citation := range section.Citations {
				label := citation.Key.String()
				stamp := citation.Timestamp.Format("2006-01-02 15:04")
				if citation.Link != "" {
					fmt.Fprintf(&sb, "- [%s](%s) %s\n", label, citation.Link, stamp)
				} else {
					fmt.Fprintf(&sb, "- %s %s\n", label, stamp)
				}
			}
			sb.WriteString("\n")
		}
	}

	return strings.TrimRight(sb.String(), "\n") + "\n"
}
