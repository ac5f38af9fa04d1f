package corenlp

import (
	"strconv"
	"strings"
	"sync"

	cerrors "github.com/FocuswithJustin/corenlpxml/core/errors"
	"github.com/FocuswithJustin/corenlpxml/core/parsetree"
	"github.com/FocuswithJustin/corenlpxml/core/xml"
	"github.com/FocuswithJustin/corenlpxml/internal/logging"
)

// Sentence is one <sentence> of a document: its tokens, constituency parse
// and dependency graphs, each built on first access.
type Sentence struct {
	el *xml.Node
	id int

	tokensOnce sync.Once
	tokens     TokenList
	tokenByID  map[int]*Token

	parseOnce sync.Once
	parse     *parsetree.Tree
	parseErr  error

	graphsMu sync.Mutex
	graphs   map[DependencyKind]*lazyGraph
}

type lazyGraph struct {
	once  sync.Once
	graph *DependencyGraph
	err   error
}

func newSentence(el *xml.Node) (*Sentence, error) {
	raw, ok := el.Attr("id")
	if !ok {
		return nil, cerrors.NewMissingAttribute("sentence", "id")
	}
	id, err := strconv.Atoi(raw)
	if err != nil {
		return nil, cerrors.Wrapf(err, "sentence id %q", raw)
	}
	return &Sentence{
		el:     el,
		id:     id,
		graphs: make(map[DependencyKind]*lazyGraph),
	}, nil
}

// ID returns the sentence id, unique within its document.
func (s *Sentence) ID() int { return s.id }

// HasSentiment reports whether the sentence carries a sentiment attribute.
func (s *Sentence) HasSentiment() bool {
	_, ok := s.el.Attr("sentiment")
	return ok
}

// Sentiment returns the sentence sentiment class (0-4 in CoreNLP's scale).
// A sentence without the attribute fails with *errors.MissingAttributeError;
// use HasSentiment to probe first.
func (s *Sentence) Sentiment() (int, error) {
	raw, ok := s.el.Attr("sentiment")
	if !ok {
		return 0, cerrors.NewMissingAttribute("sentence", "sentiment")
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, cerrors.Wrapf(err, "sentence %d sentiment %q", s.id, raw)
	}
	return v, nil
}

func (s *Sentence) loadTokens() {
	s.tokensOnce.Do(func() {
		s.tokens = TokenList{}
		s.tokenByID = make(map[int]*Token)
		for _, el := range s.el.Child("tokens").Children("token") {
			t, err := newToken(el)
			if err != nil {
				logging.Warn("skipping token", "sentence", s.id, "error", err)
				continue
			}
			// Later duplicates replace earlier ones in place.
			if prev, ok := s.tokenByID[t.id]; ok {
				for i := range s.tokens {
					if s.tokens[i] == prev {
						s.tokens[i] = t
					}
				}
			} else {
				s.tokens = append(s.tokens, t)
			}
			s.tokenByID[t.id] = t
		}
		logging.Materialized("tokens", len(s.tokens), "sentence", s.id)
	})
}

// Tokens returns the sentence's tokens in order. The returned list is the
// cached one and must not be modified.
func (s *Sentence) Tokens() TokenList {
	s.loadTokens()
	return s.tokens
}

// TokenByID returns the token with the given 1-based id, or nil.
func (s *Sentence) TokenByID(id int) *Token {
	s.loadTokens()
	return s.tokenByID[id]
}

// Text returns the sentence's words joined by spaces.
func (s *Sentence) Text() string {
	return s.Tokens().String()
}

// ParseString returns the raw bracketed constituency parse, if present.
func (s *Sentence) ParseString() (string, bool) {
	raw, ok := s.el.ChildText("parse")
	if !ok {
		return "", false
	}
	raw = strings.TrimSpace(raw)
	return raw, raw != ""
}

// Parse returns the constituency tree, or nil when the sentence has no parse.
func (s *Sentence) Parse() (*parsetree.Tree, error) {
	s.parseOnce.Do(func() {
		raw, ok := s.ParseString()
		if !ok {
			return
		}
		s.parse, s.parseErr = parsetree.Parse(raw)
		if s.parseErr != nil {
			s.parseErr = cerrors.Wrapf(s.parseErr, "sentence %d", s.id)
		}
	})
	return s.parse, s.parseErr
}

// SubtreesForPhrase returns every constituent labeled label (compared
// case-insensitively), nested matches included, in pre-order.
func (s *Sentence) SubtreesForPhrase(label string) ([]*parsetree.Tree, error) {
	tree, err := s.Parse()
	if err != nil || tree == nil {
		return nil, err
	}
	return tree.Subtrees(func(t *parsetree.Tree) bool {
		return strings.EqualFold(t.Label, label)
	}), nil
}

// PhraseStrings returns the space-joined words of each constituent labeled label.
func (s *Sentence) PhraseStrings(label string) ([]string, error) {
	subtrees, err := s.SubtreesForPhrase(label)
	if err != nil {
		return nil, err
	}
	phrases := make([]string, len(subtrees))
	for i, t := range subtrees {
		phrases[i] = strings.Join(t.Leaves(), " ")
	}
	return phrases, nil
}

// Dependencies returns the dependency graph of the given kind, or nil when
// the sentence has none. Each kind is built and cached independently.
func (s *Sentence) Dependencies(kind DependencyKind) (*DependencyGraph, error) {
	s.graphsMu.Lock()
	slot, ok := s.graphs[kind]
	if !ok {
		slot = &lazyGraph{}
		s.graphs[kind] = slot
	}
	s.graphsMu.Unlock()

	slot.once.Do(func() {
		for _, el := range s.el.Children("dependencies") {
			if t, _ := el.Attr("type"); t != string(kind) {
				continue
			}
			slot.graph, slot.err = newDependencyGraph(el)
			if slot.err != nil {
				slot.err = cerrors.Wrapf(slot.err, "sentence %d", s.id)
				return
			}
			logging.Materialized("dependency_graph", len(slot.graph.order), "sentence", s.id, "kind", string(kind))
			return
		}
	})
	return slot.graph, slot.err
}

// BasicDependencies returns the basic dependency graph, or nil.
func (s *Sentence) BasicDependencies() (*DependencyGraph, error) {
	return s.Dependencies(BasicDependencies)
}

// CollapsedDependencies returns the collapsed dependency graph, or nil.
func (s *Sentence) CollapsedDependencies() (*DependencyGraph, error) {
	return s.Dependencies(CollapsedDependencies)
}

// CollapsedCCProcessedDependencies returns the collapsed, CC-processed
// dependency graph, or nil.
func (s *Sentence) CollapsedCCProcessedDependencies() (*DependencyGraph, error) {
	return s.Dependencies(CollapsedCCProcessedDependencies)
}

// SemanticHead returns the dependent of the root relation in the basic
// dependency graph: the main predicate of the sentence. Well-formed CoreNLP
// output always has one, so its absence is an error.
func (s *Sentence) SemanticHead() (*DependencyNode, error) {
	g, err := s.BasicDependencies()
	if err != nil {
		return nil, err
	}
	if g == nil {
		return nil, cerrors.NewRelation(RootRelation, "sentence "+strconv.Itoa(s.id)+" has no basic dependencies")
	}
	roots := g.links.get(RootRelation)
	if len(roots) == 0 {
		return nil, cerrors.NewRelation(RootRelation, "sentence "+strconv.Itoa(s.id)+" has no root link")
	}
	return roots[0].dependent, nil
}
