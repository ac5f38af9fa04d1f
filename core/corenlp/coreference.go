package corenlp

import (
	"sync"

	cerrors "github.com/FocuswithJustin/corenlpxml/core/errors"
	"github.com/FocuswithJustin/corenlpxml/core/xml"
	"github.com/FocuswithJustin/corenlpxml/internal/logging"
)

// Coreference is a chain of mentions that refer to the same entity.
type Coreference struct {
	doc *Document
	el  *xml.Node

	once           sync.Once
	mentions       []*Mention
	representative *Mention
}

func newCoreference(doc *Document, el *xml.Node) *Coreference {
	return &Coreference{doc: doc, el: el}
}

func (c *Coreference) load() {
	c.once.Do(func() {
		c.mentions = []*Mention{}
		for _, el := range c.el.Children("mention") {
			m, err := newMention(c, el)
			if err != nil {
				logging.Warn("skipping mention", "error", err)
				continue
			}
			c.mentions = append(c.mentions, m)
			if m.representative && c.representative == nil {
				c.representative = m
			}
		}
	})
}

// Mentions returns the chain's mentions in document order. The returned
// slice is the cached one and must not be modified.
func (c *Coreference) Mentions() []*Mention {
	c.load()
	return c.mentions
}

// Representative returns the first mention flagged representative, or nil
// when none is.
func (c *Coreference) Representative() *Mention {
	c.load()
	return c.representative
}

// Document returns the document the chain belongs to.
func (c *Coreference) Document() *Document {
	return c.doc
}

// Mention is a span of tokens within one sentence. Start and End are 1-based
// token positions with End exclusive, as CoreNLP writes them.
type Mention struct {
	coref *Coreference

	sentenceID     int
	start, end     int
	headID         int
	text           string
	representative bool

	sentenceOnce sync.Once
	sentence     *Sentence

	headOnce sync.Once
	head     *Token
}

func newMention(c *Coreference, el *xml.Node) (*Mention, error) {
	m := &Mention{coref: c}
	fields := []struct {
		tag string
		dst *int
	}{
		{"sentence", &m.sentenceID},
		{"start", &m.start},
		{"end", &m.end},
		{"head", &m.headID},
	}
	for _, f := range fields {
		v, ok := childInt(el, f.tag)
		if !ok {
			return nil, cerrors.Wrapf(cerrors.ErrMissingAttribute, "mention %s", f.tag)
		}
		*f.dst = v
	}
	m.text, _ = el.ChildText("text")
	flag, _ := el.Attr("representative")
	m.representative = flag == "true"
	return m, nil
}

// SentenceID returns the id of the sentence the mention occurs in.
func (m *Mention) SentenceID() int { return m.sentenceID }

// Start returns the 1-based position of the first token.
func (m *Mention) Start() int { return m.start }

// End returns the 1-based position one past the last token.
func (m *Mention) End() int { return m.end }

// HeadID returns the head index as written in the XML.
func (m *Mention) HeadID() int { return m.headID }

// Text returns the mention text as written in the XML.
func (m *Mention) Text() string { return m.text }

// Representative reports whether the mention is flagged as its chain's
// representative.
func (m *Mention) Representative() bool { return m.representative }

// Coreference returns the chain the mention belongs to.
func (m *Mention) Coreference() *Coreference { return m.coref }

// Sentence resolves the mention's sentence through the owning document, or
// nil when the document has no sentence with that id.
func (m *Mention) Sentence() *Sentence {
	m.sentenceOnce.Do(func() {
		m.sentence = m.coref.doc.SentenceByID(m.sentenceID)
	})
	return m.sentence
}

// Tokens returns the tokens covered by the mention: positions start-1
// through end-1 of the sentence's token list, end exclusive. Spans that run
// past the sentence are clamped.
func (m *Mention) Tokens() TokenList {
	s := m.Sentence()
	if s == nil {
		return nil
	}
	return s.Tokens().Slice(m.start-1, m.end-1)
}

// Head returns the token at position HeadID of the sentence's token list.
// The position is used as a raw list index, not shifted like Start and End,
// and not routed through a dependency graph. Out-of-range indices give nil.
func (m *Mention) Head() *Token {
	m.headOnce.Do(func() {
		s := m.Sentence()
		if s == nil {
			return
		}
		tokens := s.Tokens()
		if m.headID >= 0 && m.headID < len(tokens) {
			m.head = tokens[m.headID]
		}
	})
	return m.head
}

// Siblings returns the other mentions of the same chain.
func (m *Mention) Siblings() []*Mention {
	mentions := m.coref.Mentions()
	siblings := make([]*Mention, 0, len(mentions))
	for _, other := range mentions {
		if other != m {
			siblings = append(siblings, other)
		}
	}
	return siblings
}
