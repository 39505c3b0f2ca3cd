package export

import (
	"fmt"
	"io"

	"github.com/dgallion1/cpctree/internal/tree"
	"github.com/fumiama/go-docx"
)

// maxHeadingLevel is the deepest heading style Word ships with by default.
const maxHeadingLevel = 6

// DOCXWriter emits one paragraph per node. Nodes are styled Heading1 through
// Heading6 by depth; deeper nodes use the document's default style.
type DOCXWriter struct{}

func (DOCXWriter) Write(w io.Writer, nodes map[string]*tree.Node) error {
	doc := docx.New().WithDefaultTheme()

	tree.Walk(nodes, func(n *tree.Node, depth int) {
		para := doc.AddParagraph()
		if level := depth + 1; level <= maxHeadingLevel {
			para.Style(fmt.Sprintf("Heading%d", level))
		}
		para.AddText(n.Code).Bold()
		if n.Title != "" {
			run := para.AddText(" " + n.Title)
			for _, child := range run.Children {
				if t, ok := child.(*docx.Text); ok {
					t.XMLSpace = "preserve"
				}
			}
		}
	})

	if _, err := doc.WriteTo(w); err != nil {
		return fmt.Errorf("write docx: %w", err)
	}
	return nil
}
