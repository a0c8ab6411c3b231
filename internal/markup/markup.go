// Package markup reads the parts of a record-system page that discovery needs:
// inputs, document anchors, label/value cells and visible text.
package markup

import (
	"bytes"
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

// documentHrefRe matches links that download a site-file document.
var documentHrefRe = regexp.MustCompile(`download-document|docSeqNo`)

// Input is one form field as found in the markup.
type Input struct {
	Tag         string
	Name        string
	ID          string
	Type        string
	Class       string
	Value       string
	Placeholder string
	AriaLabel   string
	Title       string
}

// HasClass reports whether class is one of the input's classes.
func (i Input) HasClass(class string) bool {
	for _, c := range strings.Fields(i.Class) {
		if strings.EqualFold(c, class) {
			return true
		}
	}
	return false
}

// Hints returns the attribute texts that may describe what the input holds.
func (i Input) Hints() []string {
	var out []string
	for _, h := range []string{i.Name, i.ID, i.AriaLabel, i.Placeholder, i.Title} {
		if h != "" {
			out = append(out, h)
		}
	}
	return out
}

// Anchor is a link. Cells holds the texts of the enclosing table row's cells when the
// link sits in a row, so callers can read the columns around it.
type Anchor struct {
	Href  string
	Text  string
	Cells []string
}

// IsDocument reports whether the link downloads a document.
func (a Anchor) IsDocument() bool {
	return documentHrefRe.MatchString(a.Href)
}

// Pair is a label cell followed by its value cell.
type Pair struct {
	Label string
	Value string
}

// Page is the parsed view of one HTML document.
type Page struct {
	Title    string
	Headings []string
	Inputs   []Input
	Anchors  []Anchor
	Pairs    []Pair
	// Text is the visible text with one line per block element.
	Text string
}

// Parse reads body into a Page.
func Parse(body []byte) (*Page, error) {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	p := &Page{}
	var text strings.Builder
	var walker func(*html.Node)
	walker = func(n *html.Node) {
		if n.Type == html.TextNode {
			text.WriteString(n.Data)
			return
		}
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "template":
				return
			case "title":
				p.Title = strings.TrimSpace(NodeText(n))
			case "h1", "h2", "h3", "h4":
				if t := collapse(NodeText(n)); t != "" {
					p.Headings = append(p.Headings, t)
				}
			case "input", "textarea", "select":
				p.Inputs = append(p.Inputs, readInput(n))
			case "a":
				if href := strings.TrimSpace(Attr(n, "href")); href != "" {
					p.Anchors = append(p.Anchors, Anchor{Href: href, Text: collapse(NodeText(n)), Cells: rowCells(n)})
				}
			case "tr":
				p.Pairs = append(p.Pairs, rowPairs(n)...)
			case "dl":
				p.Pairs = append(p.Pairs, definitionPairs(n)...)
			}
			if isBlock(n.Data) {
				text.WriteByte('\n')
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walker(c)
		}
		if n.Type == html.ElementNode && isBlock(n.Data) {
			text.WriteByte('\n')
		}
	}
	walker(doc)
	p.Text = text.String()
	return p, nil
}

// FormControlValues returns the values of input.form-control elements in document order.
func (p *Page) FormControlValues() []string {
	var out []string
	for _, in := range p.Inputs {
		if in.Tag == "input" && in.HasClass("form-control") {
			out = append(out, strings.TrimSpace(in.Value))
		}
	}
	return out
}

// DocumentAnchors returns the links that download documents, in document order, duplicates kept.
func (p *Page) DocumentAnchors() []Anchor {
	var out []Anchor
	for _, a := range p.Anchors {
		if a.IsDocument() {
			out = append(out, a)
		}
	}
	return out
}

// Attr returns the value of attribute key on n, or "".
func Attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// NodeText concatenates all text below n, skipping scripts and styles.
func NodeText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			return
		}
		if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if n.Type == html.ElementNode && isBlock(n.Data) {
			b.WriteByte(' ')
		}
	}
	walk(n)
	return b.String()
}

func readInput(n *html.Node) Input {
	in := Input{
		Tag:         n.Data,
		Name:        Attr(n, "name"),
		ID:          Attr(n, "id"),
		Type:        Attr(n, "type"),
		Class:       Attr(n, "class"),
		Value:       Attr(n, "value"),
		Placeholder: Attr(n, "placeholder"),
		AriaLabel:   Attr(n, "aria-label"),
		Title:       Attr(n, "title"),
	}
	switch n.Data {
	case "textarea":
		in.Value = NodeText(n)
	case "select":
		in.Value = selectedOption(n)
	}
	return in
}

func selectedOption(sel *html.Node) string {
	var first, selected string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "option" {
			v := Attr(n, "value")
			if v == "" {
				v = collapse(NodeText(n))
			}
			if first == "" {
				first = v
			}
			for _, a := range n.Attr {
				if a.Key == "selected" {
					selected = v
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(sel)
	if selected != "" {
		return selected
	}
	return first
}

// rowCells returns the cell texts of the nearest enclosing tr, or nil.
func rowCells(n *html.Node) []string {
	for p := n.Parent; p != nil; p = p.Parent {
		if p.Type != html.ElementNode {
			continue
		}
		switch p.Data {
		case "tr":
			var cells []string
			for c := p.FirstChild; c != nil; c = c.NextSibling {
				if c.Type == html.ElementNode && (c.Data == "td" || c.Data == "th") {
					cells = append(cells, collapse(NodeText(c)))
				}
			}
			return cells
		case "table", "body":
			return nil
		}
	}
	return nil
}

// rowPairs pairs each label cell with the cell after it. A th is always a label;
// a td is a label when its text ends with a colon or the row has exactly two cells.
func rowPairs(tr *html.Node) []Pair {
	var cells []*html.Node
	for c := tr.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && (c.Data == "td" || c.Data == "th") {
			cells = append(cells, c)
		}
	}
	var out []Pair
	for i := 0; i+1 < len(cells); i++ {
		label := collapse(NodeText(cells[i]))
		if label == "" {
			continue
		}
		isLabel := cells[i].Data == "th" || strings.HasSuffix(label, ":") || len(cells) == 2
		if !isLabel || cells[i+1].Data == "th" {
			continue
		}
		out = append(out, Pair{Label: strings.TrimSuffix(label, ":"), Value: collapse(NodeText(cells[i+1]))})
		i++
	}
	return out
}

// definitionPairs pairs each dt with the dd that follows it.
func definitionPairs(dl *html.Node) []Pair {
	var out []Pair
	label := ""
	for c := dl.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		switch c.Data {
		case "dt":
			label = strings.TrimSuffix(collapse(NodeText(c)), ":")
		case "dd":
			if label != "" {
				out = append(out, Pair{Label: label, Value: collapse(NodeText(c))})
				label = ""
			}
		}
	}
	return out
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func isBlock(tag string) bool {
	switch tag {
	case "p", "div", "br", "tr", "li", "h1", "h2", "h3", "h4", "h5", "h6",
		"table", "section", "header", "footer", "dt", "dd", "td", "th", "label", "title":
		return true
	}
	return false
}
