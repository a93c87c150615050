package populate

import (
	"bytes"
	"io"
	"os"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Document is a parsed page whose regions are populated in place.
type Document struct {
	root *html.Node
}

func Parse(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, err
	}
	return &Document{root: root}, nil
}

func ParseString(s string) (*Document, error) {
	return Parse(strings.NewReader(s))
}

func ParseFile(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Parse(f)
}

// Clone deep-copies the document so one parsed page can be rendered in
// several states.
func (d *Document) Clone() *Document {
	return &Document{root: cloneNode(d.root)}
}

func (d *Document) Root() *html.Node {
	return d.root
}

func (d *Document) Render(w io.Writer) error {
	return html.Render(w, d.root)
}

func (d *Document) String() string {
	var buf bytes.Buffer
	_ = d.Render(&buf)
	return buf.String()
}

// HTML returns the <html> element.
func (d *Document) HTML() *html.Node {
	return d.First(func(n *html.Node) bool { return n.DataAtom == atom.Html })
}

func (d *Document) Head() *html.Node {
	return d.First(func(n *html.Node) bool { return n.DataAtom == atom.Head })
}

func (d *Document) ElementByID(id string) *html.Node {
	if id == "" {
		return nil
	}
	return d.First(func(n *html.Node) bool {
		v, ok := Attr(n, "id")
		return ok && v == id
	})
}

func (d *Document) ElementsByClass(class string) []*html.Node {
	return d.All(func(n *html.Node) bool { return HasClass(n, class) })
}

func (d *Document) FirstByClass(class string) *html.Node {
	return d.First(func(n *html.Node) bool { return HasClass(n, class) })
}

// ElementsWithAttr returns every element carrying attribute key.
func (d *Document) ElementsWithAttr(key string) []*html.Node {
	return d.All(func(n *html.Node) bool {
		_, ok := Attr(n, key)
		return ok
	})
}

// MetaByName returns the <meta name=...> element.
func (d *Document) MetaByName(name string) *html.Node {
	return d.First(func(n *html.Node) bool {
		v, ok := Attr(n, "name")
		return n.DataAtom == atom.Meta && ok && v == name
	})
}

// First returns the first element in document order matching fn.
func (d *Document) First(fn func(*html.Node) bool) *html.Node {
	var found *html.Node
	walk(d.root, func(n *html.Node) bool {
		if n.Type == html.ElementNode && fn(n) {
			found = n
			return false
		}
		return true
	})
	return found
}

// All returns every element in document order matching fn.
func (d *Document) All(fn func(*html.Node) bool) []*html.Node {
	var out []*html.Node
	walk(d.root, func(n *html.Node) bool {
		if n.Type == html.ElementNode && fn(n) {
			out = append(out, n)
		}
		return true
	})
	return out
}

// walk visits n and its descendants depth-first until fn returns false.
func walk(n *html.Node, fn func(*html.Node) bool) bool {
	if !fn(n) {
		return false
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if !walk(c, fn) {
			return false
		}
	}
	return true
}

func cloneNode(n *html.Node) *html.Node {
	out := &html.Node{
		Type:      n.Type,
		DataAtom:  n.DataAtom,
		Data:      n.Data,
		Namespace: n.Namespace,
		Attr:      append([]html.Attribute(nil), n.Attr...),
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		out.AppendChild(cloneNode(c))
	}
	return out
}

func Attr(n *html.Node, key string) (string, bool) {
	if n == nil {
		return "", false
	}
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func SetAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

func RemoveAttr(n *html.Node, key string) {
	out := n.Attr[:0]
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			continue
		}
		out = append(out, a)
	}
	n.Attr = out
}

func Classes(n *html.Node) []string {
	v, _ := Attr(n, "class")
	return strings.Fields(v)
}

func HasClass(n *html.Node, class string) bool {
	for _, c := range Classes(n) {
		if c == class {
			return true
		}
	}
	return false
}

func AddClass(n *html.Node, classes ...string) {
	have := Classes(n)
	for _, class := range classes {
		if !HasClass(n, class) {
			have = append(have, class)
		}
	}
	SetAttr(n, "class", strings.Join(have, " "))
}

func RemoveClass(n *html.Node, classes ...string) {
	if _, ok := Attr(n, "class"); !ok {
		return
	}
	drop := make(map[string]bool, len(classes))
	for _, c := range classes {
		drop[c] = true
	}

	var keep []string
	for _, c := range Classes(n) {
		if !drop[c] {
			keep = append(keep, c)
		}
	}
	SetAttr(n, "class", strings.Join(keep, " "))
}

// ToggleClass adds class when on, removes it otherwise.
func ToggleClass(n *html.Node, class string, on bool) {
	if on {
		AddClass(n, class)
	} else {
		RemoveClass(n, class)
	}
}

func RemoveChildren(n *html.Node) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		n.RemoveChild(c)
		c = next
	}
}

// SetText replaces the content of n with a single text node.
func SetText(n *html.Node, text string) {
	RemoveChildren(n)
	n.AppendChild(&html.Node{Type: html.TextNode, Data: text})
}

// SetInnerHTML parses markup in the context of n and replaces its content.
func SetInnerHTML(n *html.Node, markup string) error {
	nodes, err := html.ParseFragment(strings.NewReader(markup), n)
	if err != nil {
		return err
	}
	RemoveChildren(n)
	for _, c := range nodes {
		n.AppendChild(c)
	}
	return nil
}

// TextContent concatenates the text below n.
func TextContent(n *html.Node) string {
	if n == nil {
		return ""
	}
	var sb strings.Builder
	walk(n, func(c *html.Node) bool {
		if c.Type == html.TextNode {
			sb.WriteString(c.Data)
		}
		return true
	})
	return sb.String()
}

// MergeStyle sets CSS properties in the style attribute of n, replacing
// existing declarations of the same properties.
func MergeStyle(n *html.Node, props [][2]string) {
	current, _ := Attr(n, "style")

	set := make(map[string]bool, len(props))
	for _, p := range props {
		set[p[0]] = true
	}

	var decls []string
	for _, decl := range strings.Split(current, ";") {
		decl = strings.TrimSpace(decl)
		if decl == "" {
			continue
		}
		name, _, _ := strings.Cut(decl, ":")
		if set[strings.ToLower(strings.TrimSpace(name))] {
			continue
		}
		decls = append(decls, decl)
	}
	for _, p := range props {
		decls = append(decls, p[0]+": "+p[1])
	}
	SetAttr(n, "style", strings.Join(decls, "; ")+";")
}
