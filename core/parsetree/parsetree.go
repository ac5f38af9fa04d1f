// Package parsetree parses Penn Treebank style constituency parses, as
// emitted in the <parse> element of CoreNLP output, into labeled trees.
package parsetree

import (
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	cerrors "github.com/FocuswithJustin/corenlpxml/core/errors"
)

// Tree is a labeled constituency tree. A leaf is a Tree without children
// whose Label is the surface word.
type Tree struct {
	Label    string
	Children []*Tree
}

// bracketGrammar is the participle grammar for a bracketed tree.
// Examples: "(NN property)", "(ROOT (S (NP (DT a)) (VP (VBZ is))))", "( (S ...))"
//
//nolint:govet // participle grammar tags are not standard struct tags
type bracketGrammar struct {
	Label    string         `"(" @Atom?`
	Children []*bracketItem `@@* ")"`
}

//nolint:govet // participle grammar tags are not standard struct tags
type bracketItem struct {
	Tree *bracketGrammar `  @@`
	Leaf *string         `| @Atom`
}

// bracketLexer defines the lexer for bracketed trees.
// Atoms are any run of characters other than whitespace and brackets; CoreNLP
// escapes literal brackets in words as -LRB- and -RRB-.
var bracketLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Paren", Pattern: `[()]`},
	{Name: "Atom", Pattern: `[^\s()]+`},
	{Name: "Whitespace", Pattern: `\s+`},
})

// bracketParser is the participle parser for bracketed trees.
var bracketParser = participle.MustBuild[bracketGrammar](
	participle.Lexer(bracketLexer),
	participle.Elide("Whitespace"),
)

// Parse parses a bracketed S-expression string into a Tree.
func Parse(s string) (*Tree, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, cerrors.NewParse("parse tree", "", "empty parse string", nil)
	}

	parsed, err := bracketParser.ParseString("", s)
	if err != nil {
		return nil, cerrors.NewParse("parse tree", "", err.Error(), err)
	}
	return build(parsed), nil
}

func build(g *bracketGrammar) *Tree {
	t := &Tree{Label: g.Label}
	for _, item := range g.Children {
		switch {
		case item.Tree != nil:
			t.Children = append(t.Children, build(item.Tree))
		case item.Leaf != nil:
			t.Children = append(t.Children, &Tree{Label: *item.Leaf})
		}
	}
	return t
}

// IsLeaf reports whether t is a word rather than a constituent.
func (t *Tree) IsLeaf() bool {
	return len(t.Children) == 0
}

// Leaves returns the words under t, left to right.
func (t *Tree) Leaves() []string {
	var leaves []string
	t.walk(func(n *Tree) {
		if n.IsLeaf() {
			leaves = append(leaves, n.Label)
		}
	})
	return leaves
}

// Subtrees returns every constituent (t included, leaves excluded) for which
// filter returns true, in pre-order. A nil filter selects all constituents.
func (t *Tree) Subtrees(filter func(*Tree) bool) []*Tree {
	var out []*Tree
	t.walk(func(n *Tree) {
		if n.IsLeaf() {
			return
		}
		if filter == nil || filter(n) {
			out = append(out, n)
		}
	})
	return out
}

// Height returns the number of nodes on the longest path from t to a leaf.
func (t *Tree) Height() int {
	h := 0
	for _, c := range t.Children {
		if ch := c.Height(); ch > h {
			h = ch
		}
	}
	return h + 1
}

// String renders the tree back into bracketed form.
func (t *Tree) String() string {
	var sb strings.Builder
	t.write(&sb)
	return sb.String()
}

func (t *Tree) write(sb *strings.Builder) {
	if t.IsLeaf() {
		sb.WriteString(t.Label)
		return
	}
	sb.WriteString("(")
	sb.WriteString(t.Label)
	for _, c := range t.Children {
		sb.WriteString(" ")
		c.write(sb)
	}
	sb.WriteString(")")
}

func (t *Tree) walk(fn func(*Tree)) {
	fn(t)
	for _, c := range t.Children {
		c.walk(fn)
	}
}
