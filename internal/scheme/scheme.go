package scheme

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/net/html/charset"
)

// RootFile is the mandatory entry document of a scheme directory.
const RootFile = "cpc-scheme.xml"

const itemElement = "classification-item"

// Item is a decoded <classification-item>.
type Item struct {
	XMLName     xml.Name
	LinkFile    string       `xml:"link-file,attr"`
	ClassSymbol *symbolElem  `xml:"classification-symbol"`
	Titles      []classTitle `xml:"class-title"`
	Items       []*Item      `xml:"classification-item"`
}

type symbolElem struct {
	Text string `xml:",chardata"`
}

type classTitle struct {
	Parts []titlePart `xml:"title-part"`
}

type titlePart struct {
	Texts []titleText `xml:"text"`
}

type titleText struct {
	Text string `xml:",chardata"`
}

// Symbol returns the item's classification symbol. ok is false when the
// symbol element is absent or has no text.
func (it *Item) Symbol() (string, bool) {
	if it == nil || it.ClassSymbol == nil || it.ClassSymbol.Text == "" {
		return "", false
	}
	return it.ClassSymbol.Text, true
}

// Document is one parsed scheme file. The root element may have any name.
type Document struct {
	root Item
}

// Name returns the local name of the root element.
func (d *Document) Name() string {
	return d.root.XMLName.Local
}

// Items returns the classification items directly under the root element.
func (d *Document) Items() []*Item {
	return d.root.Items
}

// Wrapper returns the item a linked file uses to restate the node that links
// to it: the root element itself when it is a classification item, otherwise
// the first classification item directly under the root. Nil if neither exists.
func (d *Document) Wrapper() *Item {
	if d.root.XMLName.Local == itemElement {
		return &d.root
	}
	if len(d.root.Items) > 0 {
		return d.root.Items[0]
	}
	return nil
}

// Decode parses a scheme document from r. The input must hold exactly one
// root element; anything but whitespace, comments and processing
// instructions around it is an error.
func Decode(r io.Reader) (*Document, error) {
	dec := xml.NewDecoder(r)
	dec.CharsetReader = charset.NewReaderLabel

	var doc Document
	start, err := rootStart(dec)
	if err != nil {
		return nil, fmt.Errorf("decode xml: %w", err)
	}
	if err := dec.DecodeElement(&doc.root, start); err != nil {
		return nil, fmt.Errorf("decode xml: %w", err)
	}
	if err := checkTrailing(dec); err != nil {
		return nil, fmt.Errorf("decode xml: %w", err)
	}
	return &doc, nil
}

func rootStart(dec *xml.Decoder) (*xml.StartElement, error) {
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return nil, errors.New("no root element")
		}
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			return &t, nil
		case xml.CharData:
			if len(bytes.TrimSpace(t)) > 0 {
				return nil, fmt.Errorf("line %d: text before root element", lineOf(dec))
			}
		}
	}
}

func checkTrailing(dec *xml.Decoder) error {
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			return fmt.Errorf("line %d: second root element <%s>", lineOf(dec), t.Name.Local)
		case xml.CharData:
			if len(bytes.TrimSpace(t)) > 0 {
				return fmt.Errorf("line %d: text after root element", lineOf(dec))
			}
		}
	}
}

func lineOf(dec *xml.Decoder) int {
	line, _ := dec.InputPos()
	return line
}

// ReadFile opens, decodes and closes the scheme document at path.
func ReadFile(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	doc, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}
