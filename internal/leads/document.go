package leads

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html/charset"
)

// Node is one element of a parsed document: a Leaf, a *Branch or a *Repeated.
type Node interface {
	node()
}

// Leaf is an element holding only text.
type Leaf string

// Branch is an element with named children, kept in document order.
type Branch struct {
	keys     []string
	children map[string]Node
}

// Repeated collects sibling elements that share a name.
type Repeated struct {
	Items []Node
}

func (Leaf) node()      {}
func (*Branch) node()   {}
func (*Repeated) node() {}

func NewBranch() *Branch {
	return &Branch{children: make(map[string]Node)}
}

// Keys returns child names in first-seen order.
func (b *Branch) Keys() []string {
	return b.keys
}

func (b *Branch) Get(name string) (Node, bool) {
	n, ok := b.children[name]
	return n, ok
}

func (b *Branch) Len() int {
	return len(b.keys)
}

// Text returns the text of a Leaf child, or "" when name is missing or not a Leaf.
func (b *Branch) Text(name string) string {
	if leaf, ok := b.children[name].(Leaf); ok {
		return string(leaf)
	}
	return ""
}

func (b *Branch) add(name string, n Node) {
	existing, ok := b.children[name]
	if !ok {
		b.keys = append(b.keys, name)
		b.children[name] = n
		return
	}
	if rep, ok := existing.(*Repeated); ok {
		rep.Items = append(rep.Items, n)
		return
	}
	b.children[name] = &Repeated{Items: []Node{existing, n}}
}

// Document is a parsed XML document.
type Document struct {
	Root string
	Body *Branch
}

type frame struct {
	name     string
	branch   *Branch
	text     strings.Builder
	hasChild bool
}

// ParseDocument parses raw XML into a node tree. Elements with children become branches,
// childless elements with text become leaves and empty elements become empty branches.
// Attributes are ignored.
func ParseDocument(raw []byte) (*Document, error) {
	dec := xml.NewDecoder(bytes.NewReader(raw))
	dec.CharsetReader = charset.NewReaderLabel

	var (
		stack []*frame
		doc   *Document
	)

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse xml: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if doc != nil {
				return nil, fmt.Errorf("parse xml: multiple root elements")
			}
			if len(stack) > 0 {
				stack[len(stack)-1].hasChild = true
			}
			stack = append(stack, &frame{name: t.Name.Local, branch: NewBranch()})

		case xml.CharData:
			if len(stack) > 0 {
				stack[len(stack)-1].text.Write(t)
			}

		case xml.EndElement:
			top := stack[len(stack)-1]
			stack = stack[:len(stack)-1]

			var n Node = top.branch
			if !top.hasChild && top.text.Len() > 0 {
				n = Leaf(top.text.String())
			}

			if len(stack) == 0 {
				body, ok := n.(*Branch)
				if !ok {
					// A text-only root has no named children.
					body = NewBranch()
				}
				doc = &Document{Root: top.name, Body: body}
				continue
			}
			stack[len(stack)-1].branch.add(top.name, n)
		}
	}

	if doc == nil {
		return nil, fmt.Errorf("parse xml: no root element")
	}
	return doc, nil
}
