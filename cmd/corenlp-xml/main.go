// Command corenlp-xml inspects CoreNLP XML output and maintains a searchable
// SQLite index of parsed documents.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/alecthomas/kong"
	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/FocuswithJustin/corenlpxml/core/corenlp"
	cerrors "github.com/FocuswithJustin/corenlpxml/core/errors"
	"github.com/FocuswithJustin/corenlpxml/core/sqlite"
	"github.com/FocuswithJustin/corenlpxml/internal/archive"
	"github.com/FocuswithJustin/corenlpxml/internal/index"
	"github.com/FocuswithJustin/corenlpxml/internal/logging"
)

const version = "0.1.0"

// Globals holds flags shared by every command.
type Globals struct {
	JSON      bool   `help:"Write JSON instead of text"`
	LogLevel  string `name:"log-level" env:"CORENLPXML_LOG_LEVEL" default:"warn" enum:"debug,info,warn,error" help:"Log level (debug, info, warn, error)"`
	LogFormat string `name:"log-format" env:"CORENLPXML_LOG_FORMAT" default:"text" enum:"text,json" help:"Log format (text, json)"`
}

// CLI defines the command-line interface for corenlp-xml.
var CLI struct {
	Globals

	Inspect InspectCmd `cmd:"" help:"Summarize a CoreNLP XML document"`
	Tokens  TokensCmd  `cmd:"" help:"List tokens with their annotations"`
	Deps    DepsCmd    `cmd:"" help:"Print a sentence's dependency relations"`
	Phrases PhrasesCmd `cmd:"" help:"Print phrases with a given constituent label"`
	Corefs  CorefsCmd  `cmd:"" help:"Print coreference chains"`
	Index   IndexGroup `cmd:"" help:"Corpus index operations"`
	Version VersionCmd `cmd:"" help:"Print version information"`
}

// IndexGroup contains corpus index operations.
type IndexGroup struct {
	Add    IndexAddCmd    `cmd:"" help:"Add documents or bundles to the index"`
	Search IndexSearchCmd `cmd:"" help:"Find tokens by lemma"`
	Stats  IndexStatsCmd  `cmd:"" help:"Show index row counts"`
}

// loadDocument reads a possibly compressed document and parses it.
func loadDocument(path string) (*corenlp.Document, error) {
	data, err := archive.ReadAll(path)
	if err != nil {
		return nil, err
	}
	doc, err := corenlp.Parse(data)
	if err != nil {
		var perr *cerrors.ParseError
		if cerrors.As(err, &perr) {
			perr.Path = path
		}
		return nil, err
	}
	logging.DocumentLoaded(path, index.Digest(data), len(doc.Sentences()))
	return doc, nil
}

func sentenceByID(doc *corenlp.Document, id int) (*corenlp.Sentence, error) {
	s := doc.SentenceByID(id)
	if s == nil {
		return nil, cerrors.NewNotFound("sentence", strconv.Itoa(id))
	}
	return s, nil
}

// selectSentences returns one sentence when id is set, otherwise all of them.
func selectSentences(doc *corenlp.Document, id *int) ([]*corenlp.Sentence, error) {
	if id == nil {
		return doc.Sentences(), nil
	}
	s, err := sentenceByID(doc, *id)
	if err != nil {
		return nil, err
	}
	return []*corenlp.Sentence{s}, nil
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// InspectCmd summarizes a document.
type InspectCmd struct {
	File string `arg:"" help:"CoreNLP XML file (.xml, .xml.gz, .xml.xz)" type:"existingfile"`
}

// Summary is the inspect output.
type Summary struct {
	Path         string   `json:"path"`
	Sentences    int      `json:"sentences"`
	Tokens       int      `json:"tokens"`
	Sentiment    *float64 `json:"sentiment,omitempty"`
	Coreferences int      `json:"coreferences"`
	Mentions     int      `json:"mentions"`
}

func (c *InspectCmd) Run(g *Globals, out io.Writer) error {
	doc, err := loadDocument(c.File)
	if err != nil {
		return err
	}

	sum := Summary{Path: c.File}
	for _, s := range doc.Sentences() {
		sum.Sentences++
		sum.Tokens += len(s.Tokens())
	}
	if v, ok := doc.Sentiment(); ok {
		sum.Sentiment = &v
	}
	for _, chain := range doc.Coreferences() {
		sum.Coreferences++
		sum.Mentions += len(chain.Mentions())
	}

	if g.JSON {
		return writeJSON(out, sum)
	}
	fmt.Fprintf(out, "Path:         %s\n", sum.Path)
	fmt.Fprintf(out, "Sentences:    %d\n", sum.Sentences)
	fmt.Fprintf(out, "Tokens:       %d\n", sum.Tokens)
	if sum.Sentiment != nil {
		fmt.Fprintf(out, "Sentiment:    %g\n", *sum.Sentiment)
	}
	fmt.Fprintf(out, "Coreferences: %d (%d mentions)\n", sum.Coreferences, sum.Mentions)
	return nil
}

// TokensCmd lists tokens.
type TokensCmd struct {
	File     string `arg:"" help:"CoreNLP XML file" type:"existingfile"`
	Sentence *int   `help:"Only list tokens of this sentence id"`
}

// TokenRow is one line of tokens output.
type TokenRow struct {
	Sentence int    `json:"sentence"`
	ID       int    `json:"id"`
	Word     string `json:"word"`
	Lemma    string `json:"lemma,omitempty"`
	POS      string `json:"pos,omitempty"`
	NER      string `json:"ner,omitempty"`
	Speaker  string `json:"speaker,omitempty"`
	Begin    *int   `json:"begin,omitempty"`
	End      *int   `json:"end,omitempty"`
}

func (c *TokensCmd) Run(g *Globals, out io.Writer) error {
	doc, err := loadDocument(c.File)
	if err != nil {
		return err
	}
	sentences, err := selectSentences(doc, c.Sentence)
	if err != nil {
		return err
	}

	rows := []TokenRow{}
	for _, s := range sentences {
		for _, t := range s.Tokens() {
			row := TokenRow{
				Sentence: s.ID(),
				ID:       t.ID(),
				Word:     t.Word(),
				Lemma:    t.Lemma(),
				POS:      t.POS(),
				NER:      t.NER(),
				Speaker:  t.Speaker(),
			}
			if v, ok := t.CharacterOffsetBegin(); ok {
				row.Begin = &v
			}
			if v, ok := t.CharacterOffsetEnd(); ok {
				row.End = &v
			}
			rows = append(rows, row)
		}
	}

	if g.JSON {
		return writeJSON(out, rows)
	}
	for _, r := range rows {
		fmt.Fprintf(out, "%d.%d\t%-15s %-15s %-5s %s\n", r.Sentence, r.ID, r.Word, r.Lemma, r.POS, r.NER)
	}
	return nil
}

// DepsCmd prints dependency relations.
type DepsCmd struct {
	File     string `arg:"" help:"CoreNLP XML file" type:"existingfile"`
	Sentence int    `required:"" help:"Sentence id"`
	Kind     string `default:"basic" enum:"basic,collapsed,collapsed-ccprocessed" help:"Graph variant (basic, collapsed, collapsed-ccprocessed)"`
}

// LinkRow is one dependency relation.
type LinkRow struct {
	Type           string `json:"type"`
	Governor       string `json:"governor"`
	GovernorIndex  int    `json:"governor_index"`
	Dependent      string `json:"dependent"`
	DependentIndex int    `json:"dependent_index"`
}

func (c *DepsCmd) Run(g *Globals, out io.Writer) error {
	doc, err := loadDocument(c.File)
	if err != nil {
		return err
	}
	s, err := sentenceByID(doc, c.Sentence)
	if err != nil {
		return err
	}
	kind := corenlp.DependencyKind(c.Kind + "-dependencies")
	graph, err := s.Dependencies(kind)
	if err != nil {
		return err
	}
	if graph == nil {
		return cerrors.NewNotFound(string(kind), "sentence "+strconv.Itoa(c.Sentence))
	}

	links := graph.Links()
	if g.JSON {
		rows := make([]LinkRow, len(links))
		for i, l := range links {
			rows[i] = LinkRow{
				Type:           l.Type(),
				Governor:       l.Governor().Text(),
				GovernorIndex:  l.Governor().Index(),
				Dependent:      l.Dependent().Text(),
				DependentIndex: l.Dependent().Index(),
			}
		}
		return writeJSON(out, rows)
	}
	for _, l := range links {
		fmt.Fprintln(out, l)
	}
	return nil
}

// PhrasesCmd prints phrases by constituent label.
type PhrasesCmd struct {
	File     string `arg:"" help:"CoreNLP XML file" type:"existingfile"`
	Label    string `required:"" help:"Constituent label, e.g. NP"`
	Sentence *int   `help:"Only search this sentence id"`
}

// PhraseRow is one matched phrase.
type PhraseRow struct {
	Sentence int    `json:"sentence"`
	Text     string `json:"text"`
}

func (c *PhrasesCmd) Run(g *Globals, out io.Writer) error {
	doc, err := loadDocument(c.File)
	if err != nil {
		return err
	}
	sentences, err := selectSentences(doc, c.Sentence)
	if err != nil {
		return err
	}

	rows := []PhraseRow{}
	for _, s := range sentences {
		phrases, err := s.PhraseStrings(c.Label)
		if err != nil {
			return err
		}
		for _, p := range phrases {
			rows = append(rows, PhraseRow{Sentence: s.ID(), Text: p})
		}
	}

	if g.JSON {
		return writeJSON(out, rows)
	}
	for _, r := range rows {
		fmt.Fprintf(out, "%d\t%s\n", r.Sentence, r.Text)
	}
	return nil
}

// CorefsCmd prints coreference chains.
type CorefsCmd struct {
	File string `arg:"" help:"CoreNLP XML file" type:"existingfile"`
}

// MentionRow is one mention of a chain.
type MentionRow struct {
	Sentence       int    `json:"sentence"`
	Start          int    `json:"start"`
	End            int    `json:"end"`
	Head           int    `json:"head"`
	Text           string `json:"text"`
	Representative bool   `json:"representative"`
}

// ChainRow is one coreference chain.
type ChainRow struct {
	Representative string       `json:"representative,omitempty"`
	Mentions       []MentionRow `json:"mentions"`
}

func (c *CorefsCmd) Run(g *Globals, out io.Writer) error {
	doc, err := loadDocument(c.File)
	if err != nil {
		return err
	}

	chains := []ChainRow{}
	for _, coref := range doc.Coreferences() {
		row := ChainRow{Mentions: []MentionRow{}}
		if rep := coref.Representative(); rep != nil {
			row.Representative = rep.Text()
		}
		for _, m := range coref.Mentions() {
			row.Mentions = append(row.Mentions, MentionRow{
				Sentence:       m.SentenceID(),
				Start:          m.Start(),
				End:            m.End(),
				Head:           m.HeadID(),
				Text:           m.Text(),
				Representative: m.Representative(),
			})
		}
		chains = append(chains, row)
	}

	if g.JSON {
		return writeJSON(out, chains)
	}
	for i, chain := range chains {
		rep := chain.Representative
		if rep == "" {
			rep = "(no representative)"
		}
		fmt.Fprintf(out, "Chain %d: %s\n", i+1, rep)
		for _, m := range chain.Mentions {
			marker := ""
			if m.Representative {
				marker = " *"
			}
			fmt.Fprintf(out, "  %d:%d-%d %q%s\n", m.Sentence, m.Start, m.End, m.Text, marker)
		}
	}
	return nil
}

// DBFlag selects the index database.
type DBFlag struct {
	DB string `name:"db" env:"CORENLPXML_DB" default:"corenlp-index.db" help:"Index database path" type:"path"`
}

func openIndex(ctx context.Context, dsn string) (*index.Index, error) {
	ix, err := index.Open(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open index %s: %w", dsn, err)
	}
	return ix, nil
}

// IndexAddCmd adds documents to the index.
type IndexAddCmd struct {
	DBFlag
	Paths []string `arg:"" help:"Documents (.xml, .xml.gz, .xml.xz) or bundles (.tar, .tar.gz, .tar.xz)"`
}

func (c *IndexAddCmd) Run(ctx context.Context, g *Globals, out io.Writer) error {
	ix, err := openIndex(ctx, c.DB)
	if err != nil {
		return err
	}
	defer ix.Close()

	entries := []*index.Entry{}
	for _, path := range c.Paths {
		err := archive.WalkDocuments(path, func(name string, data []byte) error {
			entry, err := ix.AddDocument(ctx, name, data)
			if err != nil {
				return err
			}
			entries = append(entries, entry)
			return nil
		})
		if err != nil {
			return err
		}
	}

	if g.JSON {
		return writeJSON(out, entries)
	}
	for _, e := range entries {
		fmt.Fprintf(out, "%s  %s (%d sentences)\n", e.Digest[:16], e.Path, e.Sentences)
	}
	return nil
}

// IndexSearchCmd finds tokens by lemma.
type IndexSearchCmd struct {
	DBFlag
	Lemma string `required:"" help:"Lemma to search for"`
}

func (c *IndexSearchCmd) Run(ctx context.Context, g *Globals, out io.Writer) error {
	ix, err := openIndex(ctx, c.DB)
	if err != nil {
		return err
	}
	defer ix.Close()

	hits, err := ix.SearchLemma(ctx, c.Lemma)
	if err != nil {
		return err
	}
	if g.JSON {
		return writeJSON(out, hits)
	}
	for _, h := range hits {
		fmt.Fprintf(out, "%s:%d.%d\t%s\n", h.Path, h.Sentence, h.Token, h.Word)
	}
	return nil
}

// IndexStatsCmd prints row counts.
type IndexStatsCmd struct {
	DBFlag
}

func (c *IndexStatsCmd) Run(ctx context.Context, g *Globals, out io.Writer) error {
	ix, err := openIndex(ctx, c.DB)
	if err != nil {
		return err
	}
	defer ix.Close()

	st, err := ix.Stats(ctx)
	if err != nil {
		return err
	}
	if g.JSON {
		return writeJSON(out, st)
	}
	fmt.Fprintf(out, "Documents:    %d\n", st.Documents)
	fmt.Fprintf(out, "Sentences:    %d\n", st.Sentences)
	fmt.Fprintf(out, "Tokens:       %d\n", st.Tokens)
	fmt.Fprintf(out, "Dependencies: %d\n", st.Dependencies)
	fmt.Fprintf(out, "Mentions:     %d\n", st.Mentions)
	return nil
}

// VersionCmd prints version information.
type VersionCmd struct{}

func (c *VersionCmd) Run(g *Globals, out io.Writer) error {
	info := sqlite.GetInfo()
	if g.JSON {
		return writeJSON(out, map[string]any{"version": version, "sqlite": info})
	}
	fmt.Fprintf(out, "corenlp-xml version %s (sqlite: %s, %s)\n", version, info.DriverType, info.Package)
	return nil
}

// setupLogging applies the global log flags.
func setupLogging(g *Globals) error {
	level, err := logging.ParseLevel(g.LogLevel)
	if err != nil {
		return err
	}
	format, err := logging.ParseFormat(g.LogFormat)
	if err != nil {
		return err
	}
	logging.InitLogger(level, format)
	return nil
}

func main() {
	// A missing .env is fine; the environment and flags still apply.
	_ = godotenv.Load()

	runCtx := logging.WithRunID(context.Background(), uuid.New().String())
	ctx := kong.Parse(&CLI,
		kong.Name("corenlp-xml"),
		kong.Description("Read CoreNLP XML output and index it for search"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.BindTo(runCtx, (*context.Context)(nil)),
		kong.BindTo(os.Stdout, (*io.Writer)(nil)),
	)
	ctx.FatalIfErrorf(setupLogging(&CLI.Globals))
	err := ctx.Run(&CLI.Globals)
	if err != nil {
		logging.Error("command failed", "command", ctx.Command(), "error", err)
	}
	ctx.FatalIfErrorf(err)
}
