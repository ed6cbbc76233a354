package sources

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var blankRun = regexp.MustCompile(`\n{3,}`)

// markdownBody assembles a detail page body block by block.
type markdownBody struct {
	blocks []string
}

func (b *markdownBody) paragraph(text string) {
	if text = strings.TrimSpace(text); text != "" {
		b.blocks = append(b.blocks, text)
	}
}

func (b *markdownBody) bold(text string) {
	if text = strings.TrimSpace(text); text != "" {
		b.blocks = append(b.blocks, "**"+text+"**")
	}
}

func (b *markdownBody) italic(text string) {
	if text = strings.TrimSpace(text); text != "" {
		b.blocks = append(b.blocks, "*"+text+"*")
	}
}

func (b *markdownBody) quote(text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = "> " + strings.TrimSpace(l)
	}
	b.blocks = append(b.blocks, strings.Join(lines, "\n"))
}

func (b *markdownBody) image(src string) {
	if src = strings.TrimSpace(src); src != "" {
		b.blocks = append(b.blocks, fmt.Sprintf("![image](%s)", src))
	}
}

func (b *markdownBody) len() int { return len(b.blocks) }

func (b *markdownBody) String() string {
	out := strings.Join(b.blocks, "\n\n")
	return strings.TrimSpace(blankRun.ReplaceAllString(out, "\n\n"))
}

// inlineMarkdown renders the text of sel with anchors rewritten to
// [text](absolute_url), resolving relative hrefs against base.
func inlineMarkdown(sel *goquery.Selection, base string) string {
	var sb strings.Builder
	writeInline(&sb, sel, base)

	lines := strings.Split(sb.String(), "\n")
	out := lines[:0]
	for _, l := range lines {
		if l = squash(l); l != "" {
			out = append(out, l)
		}
	}
	return strings.Join(out, "\n")
}

func writeInline(sb *strings.Builder, sel *goquery.Selection, base string) {
	sel.Contents().Each(func(_ int, node *goquery.Selection) {
		switch goquery.NodeName(node) {
		case "#text":
			sb.WriteString(node.Text())
		case "a":
			text := squash(node.Text())
			href, _ := node.Attr("href")
			switch {
			case text == "":
			case strings.TrimSpace(href) == "" || strings.HasPrefix(strings.TrimSpace(href), "#"):
				sb.WriteString(text)
			default:
				fmt.Fprintf(sb, "[%s](%s)", text, resolveURL(href, base))
			}
		case "br":
			sb.WriteString("\n")
		case "script", "style", "#comment":
		default:
			writeInline(sb, node, base)
		}
	})
}
