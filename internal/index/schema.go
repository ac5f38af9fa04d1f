package index

// schema is applied on every Open; all statements are idempotent.
const schema = `
CREATE TABLE IF NOT EXISTS documents (
	digest    TEXT PRIMARY KEY,
	path      TEXT NOT NULL,
	run_id    TEXT NOT NULL,
	sentiment REAL,
	sentences INTEGER NOT NULL,
	tokens    INTEGER NOT NULL,
	added_at  TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS sentences (
	digest      TEXT NOT NULL REFERENCES documents(digest),
	sentence_id INTEGER NOT NULL,
	sentiment   INTEGER,
	text        TEXT NOT NULL,
	PRIMARY KEY (digest, sentence_id)
);
CREATE TABLE IF NOT EXISTS tokens (
	digest      TEXT NOT NULL,
	sentence_id INTEGER NOT NULL,
	token_id    INTEGER NOT NULL,
	word        TEXT NOT NULL,
	lemma       TEXT NOT NULL,
	pos         TEXT NOT NULL,
	ner         TEXT NOT NULL,
	begin_char  INTEGER,
	end_char    INTEGER,
	PRIMARY KEY (digest, sentence_id, token_id)
);
CREATE INDEX IF NOT EXISTS idx_tokens_lemma ON tokens(lemma);
CREATE TABLE IF NOT EXISTS dependencies (
	digest      TEXT NOT NULL,
	sentence_id INTEGER NOT NULL,
	relation    TEXT NOT NULL,
	governor    INTEGER NOT NULL,
	dependent   INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_dependencies_relation ON dependencies(relation);
CREATE TABLE IF NOT EXISTS mentions (
	digest         TEXT NOT NULL,
	chain          INTEGER NOT NULL,
	sentence_id    INTEGER NOT NULL,
	start_token    INTEGER NOT NULL,
	end_token      INTEGER NOT NULL,
	head           INTEGER NOT NULL,
	representative INTEGER NOT NULL,
	text           TEXT NOT NULL
);
`
