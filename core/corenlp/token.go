package corenlp

import (
	"strconv"
	"strings"

	cerrors "github.com/FocuswithJustin/corenlpxml/core/errors"
	"github.com/FocuswithJustin/corenlpxml/core/xml"
)

// Token is a single word of a sentence. String fields are empty when the
// pipeline did not emit the corresponding element.
type Token struct {
	id      int
	word    string
	lemma   string
	pos     string
	ner     string
	speaker string

	begin, end       int
	hasBegin, hasEnd bool
}

func newToken(el *xml.Node) (*Token, error) {
	raw, ok := el.Attr("id")
	if !ok {
		return nil, cerrors.NewMissingAttribute("token", "id")
	}
	id, err := strconv.Atoi(raw)
	if err != nil {
		return nil, cerrors.Wrapf(err, "token id %q", raw)
	}

	t := &Token{id: id}
	t.word, _ = el.ChildText("word")
	t.lemma, _ = el.ChildText("lemma")
	t.pos, _ = el.ChildText("POS")
	t.ner, _ = el.ChildText("NER")
	t.speaker, _ = el.ChildText("Speaker")
	t.begin, t.hasBegin = childInt(el, "CharacterOffsetBegin")
	t.end, t.hasEnd = childInt(el, "CharacterOffsetEnd")
	return t, nil
}

func childInt(el *xml.Node, tag string) (int, bool) {
	raw, ok := el.ChildText(tag)
	if !ok {
		return 0, false
	}
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, false
	}
	return v, true
}

// ID returns the 1-based position of the token within its sentence.
func (t *Token) ID() int { return t.id }

// Word returns the surface form.
func (t *Token) Word() string { return t.word }

// Lemma returns the lemma.
func (t *Token) Lemma() string { return t.lemma }

// POS returns the part-of-speech tag.
func (t *Token) POS() string { return t.pos }

// NER returns the named-entity tag.
func (t *Token) NER() string { return t.ner }

// Speaker returns the speaker label.
func (t *Token) Speaker() string { return t.speaker }

// CharacterOffsetBegin returns the document-global 0-based start offset.
func (t *Token) CharacterOffsetBegin() (int, bool) { return t.begin, t.hasBegin }

// CharacterOffsetEnd returns the document-global end offset (exclusive).
func (t *Token) CharacterOffsetEnd() (int, bool) { return t.end, t.hasEnd }

// String returns the surface form.
func (t *Token) String() string { return t.word }

// TokenList is an ordered run of tokens that renders as its space-joined words.
type TokenList []*Token

// Words returns the surface forms in order.
func (l TokenList) Words() []string {
	words := make([]string, len(l))
	for i, t := range l {
		words[i] = t.word
	}
	return words
}

// String joins the surface forms with single spaces.
func (l TokenList) String() string {
	return strings.Join(l.Words(), " ")
}

// Slice returns l[i:j] with both bounds clamped to the list, so out-of-range
// spans yield a shorter (possibly empty) list instead of panicking.
func (l TokenList) Slice(i, j int) TokenList {
	i = clamp(i, 0, len(l))
	j = clamp(j, 0, len(l))
	if j < i {
		return TokenList{}
	}
	return l[i:j:j]
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
