package extraction

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/mitchellh/go-wordwrap"
)

var blockElements = map[string]bool{
	"address": true, "article": true, "aside": true, "blockquote": true,
	"div": true, "dl": true, "dt": true, "dd": true, "fieldset": true,
	"figure": true, "footer": true, "form": true, "h1": true, "h2": true,
	"h3": true, "h4": true, "h5": true, "h6": true, "header": true,
	"hr": true, "li": true, "main": true, "nav": true, "ol": true,
	"p": true, "pre": true, "section": true, "table": true, "tr": true,
	"ul": true,
}

var blankRuns = regexp.MustCompile(`\n{3,}`)

// HTMLToText renders an HTML document as plain text with block elements on
// their own lines and every line wrapped at width columns.
func HTMLToText(data []byte, width uint) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}
	doc.Find("head, script, style, noscript").Remove()

	var b strings.Builder
	writeText(doc.Selection, &b)

	lines := strings.Split(b.String(), "\n")
	for i, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if width > 0 {
			line = wordwrap.WrapString(line, width)
		}
		lines[i] = line
	}

	text := blankRuns.ReplaceAllString(strings.Join(lines, "\n"), "\n\n")
	return strings.TrimSpace(text), nil
}

func writeText(sel *goquery.Selection, b *strings.Builder) {
	sel.Contents().Each(func(_ int, s *goquery.Selection) {
		name := goquery.NodeName(s)
		switch {
		case name == "#text":
			b.WriteString(s.Text())
		case name == "br":
			b.WriteString("\n")
		case name == "li":
			b.WriteString("\n* ")
			writeText(s, b)
			b.WriteString("\n")
		case blockElements[name]:
			b.WriteString("\n")
			writeText(s, b)
			b.WriteString("\n")
		default:
			writeText(s, b)
		}
	})
}
