package corenlp

import (
	"strconv"
	"strings"

	cerrors "github.com/FocuswithJustin/corenlpxml/core/errors"
	"github.com/FocuswithJustin/corenlpxml/core/xml"
)

// DependencyKind names one of the dependency graph variants CoreNLP emits,
// matching the type attribute of the <dependencies> element.
type DependencyKind string

// Graph variants emitted by the depparse and parse annotators.
const (
	BasicDependencies                DependencyKind = "basic-dependencies"
	CollapsedDependencies            DependencyKind = "collapsed-dependencies"
	CollapsedCCProcessedDependencies DependencyKind = "collapsed-ccprocessed-dependencies"
)

// RootRelation is the synthetic relation linking ROOT to the main predicate.
const RootRelation = "root"

// relations groups nodes or links by relation type, remembering the order in
// which each type was first seen.
type relations[T any] struct {
	order  []string
	byType map[string][]T
}

func (r *relations[T]) add(relType string, v T) {
	if r.byType == nil {
		r.byType = make(map[string][]T)
	}
	if _, ok := r.byType[relType]; !ok {
		r.order = append(r.order, relType)
	}
	r.byType[relType] = append(r.byType[relType], v)
}

func (r *relations[T]) get(relType string) []T {
	return r.byType[relType]
}

func (r *relations[T]) all() []T {
	var out []T
	for _, relType := range r.order {
		out = append(out, r.byType[relType]...)
	}
	return out
}

// DependencyGraph is a typed, directed multigraph over the token indices of
// one sentence. It is fully built by its constructor and read-only afterward.
type DependencyGraph struct {
	kind  DependencyKind
	nodes map[int]*DependencyNode
	order []*DependencyNode
	links relations[*DependencyLink]
}

func newDependencyGraph(el *xml.Node) (*DependencyGraph, error) {
	kind, _ := el.Attr("type")
	g := &DependencyGraph{
		kind:  DependencyKind(kind),
		nodes: make(map[int]*DependencyNode),
	}
	for i, dep := range el.Children("dep") {
		link, err := g.newLink(dep)
		if err != nil {
			return nil, cerrors.Wrapf(err, "%s dep %d", kind, i+1)
		}
		g.links.add(link.relType, link)
	}
	return g, nil
}

// loadNode returns the graph's node for the element's idx, creating and
// registering it on first sight.
func (g *DependencyGraph) loadNode(el *xml.Node) (*DependencyNode, error) {
	raw, ok := el.Attr("idx")
	if !ok {
		return nil, cerrors.NewRelation("", el.Name()+" has no idx")
	}
	idx, err := strconv.Atoi(raw)
	if err != nil {
		return nil, cerrors.NewRelation("", el.Name()+" idx "+strconv.Quote(raw)+" is not an integer")
	}
	if n, ok := g.nodes[idx]; ok {
		return n, nil
	}
	text, _ := el.Text()
	n := &DependencyNode{idx: idx, text: text}
	g.nodes[idx] = n
	g.order = append(g.order, n)
	return n, nil
}

// newLink resolves both endpoints of a <dep> element and registers the
// relation on each of them. Registration is not deduplicated: the same
// relation listed twice is recorded twice.
func (g *DependencyGraph) newLink(dep *xml.Node) (*DependencyLink, error) {
	relType, _ := dep.Attr("type")

	govEl := dep.Child("governor")
	if govEl == nil {
		return nil, cerrors.NewRelation(relType, "dep has no governor")
	}
	depEl := dep.Child("dependent")
	if depEl == nil {
		return nil, cerrors.NewRelation(relType, "dep has no dependent")
	}

	governor, err := g.loadNode(govEl)
	if err != nil {
		return nil, err
	}
	dependent, err := g.loadNode(depEl)
	if err != nil {
		return nil, err
	}

	dependent.governors.add(relType, governor)
	governor.dependents.add(relType, dependent)
	return &DependencyLink{relType: relType, governor: governor, dependent: dependent}, nil
}

// Kind returns the graph variant, e.g. "basic-dependencies".
func (g *DependencyGraph) Kind() DependencyKind { return g.kind }

// NodeByIndex returns the node for a token index, or nil if no relation
// mentions that index.
func (g *DependencyGraph) NodeByIndex(idx int) *DependencyNode {
	return g.nodes[idx]
}

// Nodes returns every node in order of first appearance.
func (g *DependencyGraph) Nodes() []*DependencyNode {
	out := make([]*DependencyNode, len(g.order))
	copy(out, g.order)
	return out
}

// Links returns all links grouped by relation type, types in order of first
// appearance and links in document order within a type.
func (g *DependencyGraph) Links() []*DependencyLink {
	return g.links.all()
}

// LinksByType returns the links of one relation type. Unknown types yield an
// empty, non-nil slice.
func (g *DependencyGraph) LinksByType(relType string) []*DependencyLink {
	links := g.links.get(relType)
	out := make([]*DependencyLink, len(links))
	copy(out, links)
	return out
}

// RelationTypes returns the relation types present, in order of first appearance.
func (g *DependencyGraph) RelationTypes() []string {
	out := make([]string, len(g.links.order))
	copy(out, g.links.order)
	return out
}

// DependencyNode is a single token index within a dependency graph. There is
// exactly one node per index in a graph.
type DependencyNode struct {
	idx        int
	text       string
	governors  relations[*DependencyNode]
	dependents relations[*DependencyNode]
}

// Index returns the token index (0 for the synthetic ROOT).
func (n *DependencyNode) Index() int { return n.idx }

// Text returns the word as written in the dependency element. It is not
// reconciled with the sentence's Token.
func (n *DependencyNode) Text() string { return n.text }

// Governors returns all governing nodes, grouped by relation type.
func (n *DependencyNode) Governors() []*DependencyNode { return n.governors.all() }

// Dependents returns all dependent nodes, grouped by relation type.
func (n *DependencyNode) Dependents() []*DependencyNode { return n.dependents.all() }

// GovernorsByType returns the governors over relation relType.
func (n *DependencyNode) GovernorsByType(relType string) []*DependencyNode {
	return cloneNodes(n.governors.get(relType))
}

// DependentsByType returns the dependents under relation relType.
func (n *DependencyNode) DependentsByType(relType string) []*DependencyNode {
	return cloneNodes(n.dependents.get(relType))
}

func cloneNodes(nodes []*DependencyNode) []*DependencyNode {
	out := make([]*DependencyNode, len(nodes))
	copy(out, nodes)
	return out
}

func (n *DependencyNode) String() string {
	return n.text + "-" + strconv.Itoa(n.idx)
}

// DependencyLink is one typed relation from a governor to a dependent.
type DependencyLink struct {
	relType   string
	governor  *DependencyNode
	dependent *DependencyNode
}

// Type returns the relation type, e.g. "nsubj".
func (l *DependencyLink) Type() string { return l.relType }

// Governor returns the head of the relation.
func (l *DependencyLink) Governor() *DependencyNode { return l.governor }

// Dependent returns the child of the relation.
func (l *DependencyLink) Dependent() *DependencyNode { return l.dependent }

// String renders the link in the usual type(governor-i, dependent-j) notation.
func (l *DependencyLink) String() string {
	var sb strings.Builder
	sb.WriteString(l.relType)
	sb.WriteString("(")
	sb.WriteString(l.governor.String())
	sb.WriteString(", ")
	sb.WriteString(l.dependent.String())
	sb.WriteString(")")
	return sb.String()
}
