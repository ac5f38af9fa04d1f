// Package index stores parsed CoreNLP documents in SQLite so a corpus can be
// searched without re-reading the XML. Documents are keyed by the BLAKE3
// digest of their bytes, which makes adding the same file twice a no-op.
package index

import (
	"context"
	"database/sql"
	"encoding/hex"
	"time"

	"github.com/google/uuid"
	"github.com/zeebo/blake3"

	"github.com/FocuswithJustin/corenlpxml/core/cache"
	"github.com/FocuswithJustin/corenlpxml/core/corenlp"
	cerrors "github.com/FocuswithJustin/corenlpxml/core/errors"
	"github.com/FocuswithJustin/corenlpxml/core/sqlite"
	"github.com/FocuswithJustin/corenlpxml/internal/logging"
)

// entryCacheSize bounds the number of document entries kept in memory.
const entryCacheSize = 256

// Index is a corpus index backed by one SQLite database.
type Index struct {
	db      *sql.DB
	entries *cache.LRU[string, *Entry]
}

// Entry describes one indexed document.
type Entry struct {
	Digest    string    `json:"digest"`
	Path      string    `json:"path"`
	RunID     string    `json:"run_id"`
	Sentiment *float64  `json:"sentiment,omitempty"`
	Sentences int       `json:"sentences"`
	Tokens    int       `json:"tokens"`
	AddedAt   time.Time `json:"added_at"`
}

// Hit is one token occurrence returned by a search.
type Hit struct {
	Digest   string `json:"digest"`
	Path     string `json:"path"`
	Sentence int    `json:"sentence"`
	Token    int    `json:"token"`
	Word     string `json:"word"`
}

// Stats holds row counts across the index.
type Stats struct {
	Documents    int `json:"documents"`
	Sentences    int `json:"sentences"`
	Tokens       int `json:"tokens"`
	Dependencies int `json:"dependencies"`
	Mentions     int `json:"mentions"`
}

// Digest returns the hex BLAKE3-256 digest used as a document's key.
func Digest(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Open opens (creating if needed) the index at dsn and applies the schema.
func Open(ctx context.Context, dsn string) (*Index, error) {
	db, err := sqlite.Open(dsn)
	if err != nil {
		return nil, err
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, cerrors.Wrap(err, "failed to create schema")
	}
	logging.IndexEvent(ctx, "opened", "dsn", dsn, "driver", sqlite.DriverType())
	return &Index{db: db, entries: cache.NewLRU[string, *Entry](entryCacheSize)}, nil
}

// Close closes the underlying database.
func (ix *Index) Close() error {
	return ix.db.Close()
}

// AddDocument parses data as CoreNLP XML and stores it under its digest.
// Content that is already indexed is not parsed again; the existing entry is
// returned.
func (ix *Index) AddDocument(ctx context.Context, path string, data []byte) (*Entry, error) {
	digest := Digest(data)
	existing, err := ix.Document(ctx, digest)
	if err == nil {
		logging.IndexEvent(ctx, "skipped", "path", path, "digest", digest, "reason", "already indexed")
		return existing, nil
	}
	if !cerrors.Is(err, cerrors.ErrNotFound) {
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

	entry := &Entry{
		Digest:  digest,
		Path:    path,
		RunID:   uuid.New().String(),
		AddedAt: time.Now().UTC(),
	}
	if v, ok := doc.Sentiment(); ok {
		entry.Sentiment = &v
	}
	for _, s := range doc.Sentences() {
		entry.Sentences++
		entry.Tokens += len(s.Tokens())
	}

	tx, err := ix.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, cerrors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	if err := insertDocument(ctx, tx, entry, doc); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, cerrors.Wrap(err, "failed to commit")
	}

	ix.entries.Put(digest, entry)
	logging.DocumentLoaded(path, digest, entry.Sentences, "run_id", entry.RunID, "tokens", entry.Tokens)
	return entry, nil
}

func insertDocument(ctx context.Context, tx *sql.Tx, entry *Entry, doc *corenlp.Document) error {
	_, err := tx.ExecContext(ctx,
		"INSERT INTO documents (digest, path, run_id, sentiment, sentences, tokens, added_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
		entry.Digest, entry.Path, entry.RunID, nullFloat(entry.Sentiment), entry.Sentences, entry.Tokens,
		entry.AddedAt.Format(time.RFC3339Nano))
	if err != nil {
		return cerrors.Wrap(err, "failed to insert document")
	}

	for _, s := range doc.Sentences() {
		var sentiment sql.NullInt64
		if v, err := s.Sentiment(); err == nil {
			sentiment = sql.NullInt64{Int64: int64(v), Valid: true}
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO sentences (digest, sentence_id, sentiment, text) VALUES (?, ?, ?, ?)",
			entry.Digest, s.ID(), sentiment, s.Text()); err != nil {
			return cerrors.Wrapf(err, "failed to insert sentence %d", s.ID())
		}

		for _, t := range s.Tokens() {
			begin, hasBegin := t.CharacterOffsetBegin()
			end, hasEnd := t.CharacterOffsetEnd()
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO tokens (digest, sentence_id, token_id, word, lemma, pos, ner, begin_char, end_char) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)",
				entry.Digest, s.ID(), t.ID(), t.Word(), t.Lemma(), t.POS(), t.NER(),
				sql.NullInt64{Int64: int64(begin), Valid: hasBegin},
				sql.NullInt64{Int64: int64(end), Valid: hasEnd}); err != nil {
				return cerrors.Wrapf(err, "failed to insert token %d.%d", s.ID(), t.ID())
			}
		}

		graph, err := s.BasicDependencies()
		if err != nil {
			logging.Warn("skipping dependencies", "digest", entry.Digest, "sentence", s.ID(), "error", err)
			continue
		}
		if graph == nil {
			continue
		}
		for _, link := range graph.Links() {
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO dependencies (digest, sentence_id, relation, governor, dependent) VALUES (?, ?, ?, ?, ?)",
				entry.Digest, s.ID(), link.Type(), link.Governor().Index(), link.Dependent().Index()); err != nil {
				return cerrors.Wrapf(err, "failed to insert dependency %s", link)
			}
		}
	}

	for chain, c := range doc.Coreferences() {
		for _, m := range c.Mentions() {
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO mentions (digest, chain, sentence_id, start_token, end_token, head, representative, text) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
				entry.Digest, chain, m.SentenceID(), m.Start(), m.End(), m.HeadID(), m.Representative(), m.Text()); err != nil {
				return cerrors.Wrapf(err, "failed to insert mention %q", m.Text())
			}
		}
	}
	return nil
}

// Document returns the entry for digest. Unknown digests yield a
// NotFoundError.
func (ix *Index) Document(ctx context.Context, digest string) (*Entry, error) {
	if entry, ok := ix.entries.Get(digest); ok {
		return entry, nil
	}

	var (
		entry     Entry
		sentiment sql.NullFloat64
		addedAt   string
	)
	err := ix.db.QueryRowContext(ctx,
		"SELECT digest, path, run_id, sentiment, sentences, tokens, added_at FROM documents WHERE digest = ?",
		digest).Scan(&entry.Digest, &entry.Path, &entry.RunID, &sentiment, &entry.Sentences, &entry.Tokens, &addedAt)
	if err == sql.ErrNoRows {
		return nil, cerrors.NewNotFound("document", digest)
	}
	if err != nil {
		return nil, cerrors.Wrap(err, "failed to query document")
	}
	if sentiment.Valid {
		entry.Sentiment = &sentiment.Float64
	}
	if entry.AddedAt, err = time.Parse(time.RFC3339Nano, addedAt); err != nil {
		return nil, cerrors.Wrapf(err, "document %s has a bad timestamp", digest)
	}
	ix.entries.Put(digest, &entry)
	return &entry, nil
}

// SearchLemma returns every token with the given lemma, ordered by
// document, sentence and token.
func (ix *Index) SearchLemma(ctx context.Context, lemma string) ([]Hit, error) {
	rows, err := ix.db.QueryContext(ctx, `
		SELECT t.digest, d.path, t.sentence_id, t.token_id, t.word
		FROM tokens t JOIN documents d ON d.digest = t.digest
		WHERE t.lemma = ?
		ORDER BY t.digest, t.sentence_id, t.token_id`, lemma)
	if err != nil {
		return nil, cerrors.Wrap(err, "failed to search tokens")
	}
	defer rows.Close()

	hits := []Hit{}
	for rows.Next() {
		var h Hit
		if err := rows.Scan(&h.Digest, &h.Path, &h.Sentence, &h.Token, &h.Word); err != nil {
			return nil, cerrors.Wrap(err, "failed to scan hit")
		}
		hits = append(hits, h)
	}
	if err := rows.Err(); err != nil {
		return nil, cerrors.Wrap(err, "failed to search tokens")
	}
	logging.IndexEvent(ctx, "searched", "lemma", lemma, "hits", len(hits))
	return hits, nil
}

// CacheStats reports hits and misses of the in-memory entry cache.
func (ix *Index) CacheStats() cache.Stats {
	return ix.entries.Stats()
}

// Stats counts the rows in each table.
func (ix *Index) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	counts := []struct {
		table string
		dst   *int
	}{
		{"documents", &st.Documents},
		{"sentences", &st.Sentences},
		{"tokens", &st.Tokens},
		{"dependencies", &st.Dependencies},
		{"mentions", &st.Mentions},
	}
	for _, c := range counts {
		if err := ix.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+c.table).Scan(c.dst); err != nil {
			return Stats{}, cerrors.Wrapf(err, "failed to count %s", c.table)
		}
	}
	return st, nil
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}
