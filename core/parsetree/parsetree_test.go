package parsetree

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	cerrors "github.com/FocuswithJustin/corenlpxml/core/errors"
)

const flawed = `(ROOT (S (NP (DT This)) (VP (VBZ demonstrates) (NP (NP (DT a) (JJ flawed) (NN property)) (PP (IN of) (NP (NNS graphs))))) (. .)))`

func TestParse(t *testing.T) {
	tree, err := Parse(flawed)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if tree.Label != "ROOT" {
		t.Errorf("Label = %q, want %q", tree.Label, "ROOT")
	}
	if len(tree.Children) != 1 || tree.Children[0].Label != "S" {
		t.Fatalf("ROOT should have a single S child, got %v", tree.Children)
	}

	want := []string{"This", "demonstrates", "a", "flawed", "property", "of", "graphs", "."}
	if got := tree.Leaves(); !reflect.DeepEqual(got, want) {
		t.Errorf("Leaves() = %v, want %v", got, want)
	}
}

func TestParseRoundTrip(t *testing.T) {
	multiline := "(ROOT\n  (S\n    (NP (PRP It))\n    (VP (VBZ works))))"
	tests := []struct {
		input string
		want  string
	}{
		{flawed, flawed},
		{multiline, "(ROOT (S (NP (PRP It)) (VP (VBZ works))))"},
		{"( (S (NP (NN x))))", "( (S (NP (NN x))))"},
		{"(NN -LRB-)", "(NN -LRB-)"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			tree, err := Parse(tt.input)
			if err != nil {
				t.Fatalf("Parse failed: %v", err)
			}
			if got := tree.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"blank", "   "},
		{"unbalanced open", "(S (NP (NN x))"},
		{"unbalanced close", "(S (NP (NN x))))"},
		{"bare atom", "word"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.input)
			if err == nil {
				t.Fatal("Parse should fail")
			}
			if !errors.Is(err, cerrors.ErrMalformedInput) {
				t.Errorf("error %v should match ErrMalformedInput", err)
			}
		})
	}
}

func TestSubtrees(t *testing.T) {
	tree, err := Parse(flawed)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	nps := tree.Subtrees(func(n *Tree) bool { return n.Label == "NP" })
	var got []string
	for _, np := range nps {
		got = append(got, strings.Join(np.Leaves(), " "))
	}
	want := []string{
		"This",
		"a flawed property of graphs",
		"a flawed property",
		"graphs",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("NP subtrees = %q, want %q", got, want)
	}

	all := tree.Subtrees(nil)
	for _, n := range all {
		if n.IsLeaf() {
			t.Errorf("Subtrees should exclude leaves, got %q", n.Label)
		}
	}
	if all[0] != tree {
		t.Error("Subtrees should include the tree itself first")
	}
}

func TestHeight(t *testing.T) {
	tree, err := Parse("(NP (DT a) (NN b))")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if got := tree.Height(); got != 3 {
		t.Errorf("Height() = %d, want 3", got)
	}
}
