package export

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/cpctree/internal/tree"
	"github.com/yuin/goldmark"
)

var markdownEscaper = strings.NewReplacer(
	`\`, `\\`,
	"`", "\\`",
	`*`, `\*`,
	`_`, `\_`,
	`[`, `\[`,
	`]`, `\]`,
	`<`, `\<`,
	`>`, `\>`,
	`#`, `\#`,
	`&`, `\&`,
	`!`, `\!`,
)

// MarkdownWriter emits a nested bullet outline, one "- **SYMBOL** Title"
// line per node.
type MarkdownWriter struct{}

func (MarkdownWriter) Write(w io.Writer, nodes map[string]*tree.Node) error {
	var buf bytes.Buffer
	writeOutline(&buf, nodes)
	if _, err := w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("write markdown: %w", err)
	}
	return nil
}

func writeOutline(buf *bytes.Buffer, nodes map[string]*tree.Node) {
	tree.Walk(nodes, func(n *tree.Node, depth int) {
		buf.WriteString(strings.Repeat("  ", depth))
		buf.WriteString("- **")
		buf.WriteString(markdownEscaper.Replace(n.Code))
		buf.WriteString("**")
		if n.Title != "" {
			buf.WriteByte(' ')
			buf.WriteString(markdownEscaper.Replace(n.Title))
		}
		buf.WriteByte('\n')
	})
}

// HTMLWriter renders the markdown outline as an HTML fragment.
type HTMLWriter struct{}

func (HTMLWriter) Write(w io.Writer, nodes map[string]*tree.Node) error {
	var src bytes.Buffer
	writeOutline(&src, nodes)

	md := goldmark.New()
	if err := md.Convert(src.Bytes(), w); err != nil {
		return fmt.Errorf("render html: %w", err)
	}
	return nil
}
