package scheme

import "strings"

// Title joins the non-empty class-title/title-part/text fragments of item
// with single spaces, in document order. It returns "" when there are none.
func Title(item *Item) string {
	if item == nil {
		return ""
	}
	var parts []string
	for _, ct := range item.Titles {
		for _, tp := range ct.Parts {
			for _, t := range tp.Texts {
				if t.Text != "" {
					parts = append(parts, t.Text)
				}
			}
		}
	}
	return strings.Join(parts, " ")
}
