// Package intern renders interning update logs as an HTML ledger and
// wraps them, together with an invalidation report, in the report page.
//
// The set of categories is whatever the loader supplies; nothing here
// knows category names, so a new kind of interned object needs no code
// change.
package intern

import (
	"bytes"
	"fmt"
	"html"

	"github.com/matzehuels/tileview/pkg/assets"
	"github.com/matzehuels/tileview/pkg/tilecache"
)

// Build returns the full report document: the invalidation report
// fragment first, then an Interning header and one ledger section per
// category in the order given.
func Build(categories []tilecache.InternCategory, report string) string {
	var buf bytes.Buffer
	buf.WriteString("<!DOCTYPE html>\n<html>\n<head>\n")
	buf.WriteString("<meta charset=\"utf-8\">\n")
	for _, name := range assets.Names() {
		fmt.Fprintf(&buf, "<link rel=\"stylesheet\" type=\"text/css\" href=\"%s\">\n", name)
	}
	buf.WriteString("</head>\n<body>\n<div id=\"container\">\n")

	buf.WriteString(report)
	buf.WriteString("<div class=\"header\">Interning</div>\n")
	for i := range categories {
		writeCategory(&buf, &categories[i])
	}

	buf.WriteString("</div>\n</body>\n</html>\n")
	return buf.String()
}

// Ledger renders the sections for categories without the document shell.
func Ledger(categories []tilecache.InternCategory) string {
	var buf bytes.Buffer
	for i := range categories {
		writeCategory(&buf, &categories[i])
	}
	return buf.String()
}

func writeCategory(buf *bytes.Buffer, c *tilecache.InternCategory) {
	fmt.Fprintf(buf, "<div class=\"subheader\">%s</div>\n", html.EscapeString(c.Name))
	for _, batch := range c.Batches {
		buf.WriteString("<div class=\"batch\">\n")
		for _, ins := range batch.Insertions {
			fmt.Fprintf(buf, "<div class=\"intern insert\">%s: %s</div>\n",
				ins.UID, html.EscapeString(fmt.Sprintf("%+v", ins.Value)))
		}
		for _, uid := range batch.Removals {
			fmt.Fprintf(buf, "<div class=\"intern remove\">%s</div>\n", uid)
		}
		buf.WriteString("</div>\n")
	}
}
