// Package xml provides the element accessor used to read CoreNLP output:
// parsing, child/attribute/text access and XPath lookup.
//
// Security Notes:
//   - The xmlquery library is used for parsing, which uses Go's encoding/xml
//     internally and does not fetch external entities.
package xml

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"

	cerrors "github.com/FocuswithJustin/corenlpxml/core/errors"
)

// Document represents a parsed XML document.
type Document struct {
	root *xmlquery.Node
}

// Node represents an XML node (element, text, attribute, etc.).
type Node struct {
	node *xmlquery.Node
}

// Parse parses XML data and returns a Document.
// Data that is not well-formed, or that has no single root element, fails
// with a *errors.ParseError matching errors.ErrMalformedInput.
func Parse(data []byte) (*Document, error) {
	root, err := xmlquery.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, cerrors.NewParse("XML", "", err.Error(), err)
	}
	switch countElements(root) {
	case 0:
		return nil, cerrors.NewParse("XML", "", "no root element", nil)
	case 1:
		return &Document{root: root}, nil
	default:
		return nil, cerrors.NewParse("XML", "", "multiple root elements", nil)
	}
}

func countElements(n *xmlquery.Node) int {
	count := 0
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if child.Type == xmlquery.ElementNode {
			count++
		}
	}
	return count
}

// Root returns the root element of the document.
func (d *Document) Root() *Node {
	if d.root == nil {
		return nil
	}
	for child := d.root.FirstChild; child != nil; child = child.NextSibling {
		if child.Type == xmlquery.ElementNode {
			return &Node{node: child}
		}
	}
	return nil
}

// XPath executes an XPath query and returns matching nodes.
func (d *Document) XPath(expr string) ([]*Node, error) {
	return queryAll(d.root, expr)
}

// XPathFirst executes an XPath query and returns the first matching node.
func (d *Document) XPathFirst(expr string) (*Node, error) {
	return queryFirst(d.root, expr)
}

func compile(expr string) (*xpath.Expr, error) {
	compiled, err := xpath.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid xpath %q: %w", expr, err)
	}
	return compiled, nil
}

func queryAll(top *xmlquery.Node, expr string) ([]*Node, error) {
	if top == nil {
		return nil, nil
	}
	compiled, err := compile(expr)
	if err != nil {
		return nil, err
	}
	nodes := xmlquery.QuerySelectorAll(top, compiled)
	result := make([]*Node, len(nodes))
	for i, n := range nodes {
		result[i] = &Node{node: n}
	}
	return result, nil
}

func queryFirst(top *xmlquery.Node, expr string) (*Node, error) {
	if top == nil {
		return nil, nil
	}
	compiled, err := compile(expr)
	if err != nil {
		return nil, err
	}
	n := xmlquery.QuerySelector(top, compiled)
	if n == nil {
		return nil, nil
	}
	return &Node{node: n}, nil
}

// Name returns the element name.
func (n *Node) Name() string {
	if n == nil || n.node == nil {
		return ""
	}
	return n.node.Data
}

// Text returns the direct text content of the node. The second result is
// false when the node carries no text at all, which callers treat as absent.
func (n *Node) Text() (string, bool) {
	if n == nil || n.node == nil {
		return "", false
	}
	switch n.node.Type {
	case xmlquery.TextNode, xmlquery.CharDataNode, xmlquery.AttributeNode:
		return n.node.InnerText(), true
	}

	var sb strings.Builder
	found := false
	for child := n.node.FirstChild; child != nil; child = child.NextSibling {
		if child.Type == xmlquery.TextNode || child.Type == xmlquery.CharDataNode {
			sb.WriteString(child.Data)
			found = true
		}
	}
	return sb.String(), found
}

// Children returns the child element nodes named tag, in document order.
// An empty tag selects every child element.
func (n *Node) Children(tag string) []*Node {
	if n == nil || n.node == nil {
		return nil
	}

	var children []*Node
	for child := n.node.FirstChild; child != nil; child = child.NextSibling {
		if child.Type != xmlquery.ElementNode {
			continue
		}
		if tag == "" || child.Data == tag {
			children = append(children, &Node{node: child})
		}
	}
	return children
}

// Child returns the first child element named tag, or nil.
func (n *Node) Child(tag string) *Node {
	if n == nil || n.node == nil {
		return nil
	}
	for child := n.node.FirstChild; child != nil; child = child.NextSibling {
		if child.Type == xmlquery.ElementNode && child.Data == tag {
			return &Node{node: child}
		}
	}
	return nil
}

// ChildText returns the text of the first child element named tag.
func (n *Node) ChildText(tag string) (string, bool) {
	return n.Child(tag).Text()
}

// Attr returns the value of a specific attribute and whether it was present.
func (n *Node) Attr(name string) (string, bool) {
	if n == nil || n.node == nil {
		return "", false
	}
	for _, attr := range n.node.Attr {
		if attr.Name.Local == name {
			return attr.Value, true
		}
	}
	return "", false
}

// XPath executes an XPath query relative to this node.
func (n *Node) XPath(expr string) ([]*Node, error) {
	if n == nil {
		return nil, nil
	}
	return queryAll(n.node, expr)
}

// XPathFirst executes an XPath query relative to this node and returns the
// first match, or nil.
func (n *Node) XPathFirst(expr string) (*Node, error) {
	if n == nil {
		return nil, nil
	}
	return queryFirst(n.node, expr)
}

// XPathText returns the text of the first node matched by expr.
func (n *Node) XPathText(expr string) (string, bool, error) {
	first, err := n.XPathFirst(expr)
	if err != nil || first == nil {
		return "", false, err
	}
	text, ok := first.Text()
	return text, ok, nil
}
