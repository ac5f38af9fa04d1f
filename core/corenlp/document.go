// Package corenlp provides a read-only, lazily materialized object model over
// the XML output of the Stanford CoreNLP pipeline.
//
// A Document is built from raw XML; its sentences, tokens, dependency graphs
// and coreference chains are constructed from the XML tree on first access and
// cached, so repeated calls return the identical objects. Lookups by id never
// fail: unknown ids resolve to nil.
//
// All lazy fields are guarded by sync.Once, so a Document may be shared
// between goroutines once constructed.
package corenlp

import (
	"os"
	"strconv"
	"sync"

	cerrors "github.com/FocuswithJustin/corenlpxml/core/errors"
	"github.com/FocuswithJustin/corenlpxml/core/xml"
	"github.com/FocuswithJustin/corenlpxml/internal/logging"
)

const (
	sentencesPath   = "/root/document/sentences"
	coreferencePath = "/root/document/coreference"
)

// Document abstracts a single CoreNLP output document.
type Document struct {
	xml *xml.Document

	sentimentOnce sync.Once
	sentiment     float64
	hasSentiment  bool

	sentencesOnce sync.Once
	sentences     []*Sentence
	sentenceByID  map[int]*Sentence

	corefOnce    sync.Once
	coreferences []*Coreference
}

// Parse builds a Document from CoreNLP XML. Only well-formedness is checked
// here; everything else is read on first access. Malformed XML fails with an
// error matching errors.ErrMalformedInput.
func Parse(data []byte) (*Document, error) {
	doc, err := xml.Parse(data)
	if err != nil {
		return nil, err
	}
	return &Document{xml: doc}, nil
}

// ParseString is Parse for string input.
func ParseString(s string) (*Document, error) {
	return Parse([]byte(s))
}

// ParseFile reads and parses the CoreNLP XML file at path.
func ParseFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, cerrors.Wrapf(err, "read %s", path)
	}
	doc, err := Parse(data)
	if err != nil {
		var perr *cerrors.ParseError
		if cerrors.As(err, &perr) {
			perr.Path = path
		}
		return nil, err
	}
	return doc, nil
}

// Sentiment returns the document's averageSentiment, and false when the
// pipeline did not run sentiment analysis.
func (d *Document) Sentiment() (float64, bool) {
	d.sentimentOnce.Do(func() {
		node, err := d.xml.XPathFirst(sentencesPath)
		if err != nil || node == nil {
			return
		}
		raw, ok := node.Attr("averageSentiment")
		if !ok {
			return
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			logging.Warn("ignoring unparsable averageSentiment", "value", raw, "error", err)
			return
		}
		d.sentiment, d.hasSentiment = v, true
	})
	return d.sentiment, d.hasSentiment
}

func (d *Document) loadSentences() {
	d.sentencesOnce.Do(func() {
		d.sentenceByID = make(map[int]*Sentence)
		elements, err := d.xml.XPath(sentencesPath + "/sentence")
		if err != nil {
			return
		}
		for _, el := range elements {
			s, err := newSentence(el)
			if err != nil {
				logging.Warn("skipping sentence", "error", err)
				continue
			}
			// Later duplicates replace earlier ones in place.
			if prev, ok := d.sentenceByID[s.id]; ok {
				for i := range d.sentences {
					if d.sentences[i] == prev {
						d.sentences[i] = s
					}
				}
			} else {
				d.sentences = append(d.sentences, s)
			}
			d.sentenceByID[s.id] = s
		}
		logging.Materialized("sentences", len(d.sentences))
	})
}

// Sentences returns the sentences in document order. The returned slice is
// the cached one and must not be modified.
func (d *Document) Sentences() []*Sentence {
	d.loadSentences()
	return d.sentences
}

// SentenceByID returns the sentence with the given id, or nil.
func (d *Document) SentenceByID(id int) *Sentence {
	d.loadSentences()
	return d.sentenceByID[id]
}

// Coreferences returns the coreference chains in document order. It returns
// nil when the document has no coreference block at all (coreference
// resolution was not run), and an empty non-nil slice when the block exists
// but holds no chains.
func (d *Document) Coreferences() []*Coreference {
	d.corefOnce.Do(func() {
		block, err := d.xml.XPathFirst(coreferencePath)
		if err != nil || block == nil {
			return
		}
		d.coreferences = []*Coreference{}
		for _, el := range block.Children("coreference") {
			d.coreferences = append(d.coreferences, newCoreference(d, el))
		}
		logging.Materialized("coreferences", len(d.coreferences))
	})
	return d.coreferences
}
