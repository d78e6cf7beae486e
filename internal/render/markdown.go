// ABOUTME: Renders markdown answer text as styled terminal output
// ABOUTME: Walks the goldmark AST and emits ANSI colors via fatih/color

package render

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// Renderer converts markdown to plain terminal text with ANSI styling.
// Color output respects the fatih/color NO_COLOR and TTY detection.
type Renderer struct {
	md      goldmark.Markdown
	heading *color.Color
	bold    *color.Color
	italic  *color.Color
	code    *color.Color
	dim     *color.Color
}

// NewRenderer creates a renderer with the default style palette.
func NewRenderer() *Renderer {
	return &Renderer{
		md:      goldmark.New(),
		heading: color.New(color.FgCyan, color.Bold),
		bold:    color.New(color.Bold),
		italic:  color.New(color.Italic),
		code:    color.New(color.FgYellow),
		dim:     color.New(color.Faint),
	}
}

// Markdown renders markdown source as terminal text.
func (r *Renderer) Markdown(src string) string {
	source := []byte(src)
	doc := r.md.Parser().Parse(text.NewReader(source))

	var b strings.Builder
	for c := doc.FirstChild(); c != nil; c = c.NextSibling() {
		r.block(&b, c, source, 0)
	}
	return strings.TrimRight(b.String(), "\n")
}

func indent(depth int) string {
	return strings.Repeat("  ", depth)
}

func (r *Renderer) block(b *strings.Builder, n ast.Node, source []byte, depth int) {
	switch n.Kind() {
	case ast.KindHeading:
		b.WriteString(indent(depth))
		b.WriteString(r.heading.Sprint(r.inline(n, source)))
		b.WriteString("\n\n")

	case ast.KindParagraph:
		b.WriteString(indent(depth))
		b.WriteString(r.inline(n, source))
		b.WriteString("\n\n")

	case ast.KindTextBlock:
		b.WriteString(r.inline(n, source))
		b.WriteString("\n")

	case ast.KindList:
		list := n.(*ast.List)
		num := 1
		for item := n.FirstChild(); item != nil; item = item.NextSibling() {
			marker := "- "
			if list.IsOrdered() {
				marker = fmt.Sprintf("%d. ", num)
				num++
			}
			b.WriteString(indent(depth + 1))
			b.WriteString(marker)
			for ic := item.FirstChild(); ic != nil; ic = ic.NextSibling() {
				if ic.Kind() == ast.KindTextBlock || ic.Kind() == ast.KindParagraph {
					b.WriteString(r.inline(ic, source))
					b.WriteString("\n")
				} else {
					r.block(b, ic, source, depth+1)
				}
			}
		}
		if depth == 0 {
			b.WriteString("\n")
		}

	case ast.KindFencedCodeBlock, ast.KindCodeBlock:
		lines := n.Lines()
		for i := 0; i < lines.Len(); i++ {
			line := lines.At(i)
			b.WriteString(indent(depth + 1))
			b.WriteString(r.code.Sprint(strings.TrimRight(string(line.Value(source)), "\n")))
			b.WriteString("\n")
		}
		b.WriteString("\n")

	case ast.KindBlockquote:
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			b.WriteString(indent(depth))
			b.WriteString(r.dim.Sprint("> " + r.inline(c, source)))
			b.WriteString("\n")
		}
		b.WriteString("\n")

	case ast.KindThematicBreak:
		b.WriteString(indent(depth))
		b.WriteString(r.dim.Sprint("----"))
		b.WriteString("\n\n")

	default:
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			r.block(b, c, source, depth)
		}
	}
}

func (r *Renderer) inline(n ast.Node, source []byte) string {
	var b strings.Builder
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch c.Kind() {
		case ast.KindText:
			t := c.(*ast.Text)
			b.Write(t.Segment.Value(source))
			if t.SoftLineBreak() {
				b.WriteByte(' ')
			}
			if t.HardLineBreak() {
				b.WriteByte('\n')
			}

		case ast.KindEmphasis:
			em := c.(*ast.Emphasis)
			inner := r.inline(c, source)
			if em.Level >= 2 {
				b.WriteString(r.bold.Sprint(inner))
			} else {
				b.WriteString(r.italic.Sprint(inner))
			}

		case ast.KindCodeSpan:
			b.WriteString(r.code.Sprint(r.inline(c, source)))

		case ast.KindLink:
			link := c.(*ast.Link)
			b.WriteString(r.inline(c, source))
			if dest := string(link.Destination); dest != "" {
				b.WriteString(r.dim.Sprint(" (" + dest + ")"))
			}

		case ast.KindAutoLink:
			al := c.(*ast.AutoLink)
			b.Write(al.URL(source))

		default:
			b.WriteString(r.inline(c, source))
		}
	}
	return b.String()
}
