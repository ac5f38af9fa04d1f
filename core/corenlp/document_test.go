package corenlp

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	cerrors "github.com/FocuswithJustin/corenlpxml/core/errors"
)

const samplePath = "testdata/sample.xml"

// loadSample parses the shared two-sentence fixture.
func loadSample(t *testing.T) *Document {
	t.Helper()
	doc, err := ParseFile(samplePath)
	if err != nil {
		t.Fatalf("ParseFile(%s) failed: %v", samplePath, err)
	}
	return doc
}

func mustParseString(t *testing.T, s string) *Document {
	t.Helper()
	doc, err := ParseString(s)
	if err != nil {
		t.Fatalf("ParseString failed: %v", err)
	}
	return doc
}

// bareXML is a document without sentiment, parse, dependencies or coreference.
const bareXML = `<root><document><sentences>
  <sentence id="4"><tokens><token id="1"><word>Hi</word></token></tokens></sentence>
  <sentence id="9"><tokens><token id="1"><word>Bye</word></token></tokens></sentence>
</sentences></document></root>`

func TestParseMalformed(t *testing.T) {
	tests := []struct {
		name string
		xml  string
	}{
		{"mismatched tags", "<root><document></root>"},
		{"unclosed", "<root>"},
		{"empty", ""},
		{"multiple roots", "<root/><root/>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseString(tt.xml)
			if err == nil {
				t.Fatal("ParseString should fail for malformed XML")
			}
			if !errors.Is(err, cerrors.ErrMalformedInput) {
				t.Errorf("error %v should match ErrMalformedInput", err)
			}
		})
	}
}

func TestParseFileMalformedRecordsPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.xml")
	if err := os.WriteFile(path, []byte("<root><document></root>"), 0644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}

	_, err := ParseFile(path)
	var perr *cerrors.ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("ParseFile error = %v, want *ParseError", err)
	}
	if perr.Path != path {
		t.Errorf("Path = %q, want %q", perr.Path, path)
	}
}

func TestParseFileMissing(t *testing.T) {
	_, err := ParseFile(filepath.Join(t.TempDir(), "nope.xml"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("ParseFile error = %v, want os.ErrNotExist", err)
	}
}

func TestDocumentSentiment(t *testing.T) {
	doc := loadSample(t)
	got, ok := doc.Sentiment()
	if !ok || got != 1.5 {
		t.Errorf("Sentiment() = %v, %v; want 1.5, true", got, ok)
	}

	bare := mustParseString(t, bareXML)
	if _, ok := bare.Sentiment(); ok {
		t.Error("Sentiment() should be absent without averageSentiment")
	}
}

func TestSentences(t *testing.T) {
	doc := loadSample(t)
	sentences := doc.Sentences()
	if len(sentences) != 2 {
		t.Fatalf("got %d sentences, want 2", len(sentences))
	}
	for i, s := range sentences {
		if s.ID() != i+1 {
			t.Errorf("sentence %d has ID %d, want %d", i, s.ID(), i+1)
		}
		if got := doc.SentenceByID(s.ID()); got != s {
			t.Errorf("SentenceByID(%d) returned a different sentence", s.ID())
		}
	}

	again := doc.Sentences()
	if &again[0] != &sentences[0] {
		t.Error("Sentences() should return the cached slice")
	}
}

func TestSentencesNonContiguousIDs(t *testing.T) {
	doc := mustParseString(t, bareXML)
	sentences := doc.Sentences()
	if len(sentences) != 2 || sentences[0].ID() != 4 || sentences[1].ID() != 9 {
		t.Fatalf("unexpected sentences: %v", sentences)
	}
	if doc.SentenceByID(9).Text() != "Bye" {
		t.Errorf("SentenceByID(9).Text() = %q, want %q", doc.SentenceByID(9).Text(), "Bye")
	}
}

func TestSentenceByIDUnknown(t *testing.T) {
	doc := loadSample(t)
	for _, id := range []int{0, -1, 3, 99} {
		if s := doc.SentenceByID(id); s != nil {
			t.Errorf("SentenceByID(%d) = %v, want nil", id, s)
		}
	}
}

func TestSentencesSkipsInvalidIDs(t *testing.T) {
	doc := mustParseString(t, `<root><document><sentences>
  <sentence><tokens/></sentence>
  <sentence id="x"><tokens/></sentence>
  <sentence id="2"><tokens/></sentence>
</sentences></document></root>`)
	sentences := doc.Sentences()
	if len(sentences) != 1 || sentences[0].ID() != 2 {
		t.Errorf("Sentences() = %v, want only sentence 2", sentences)
	}
}

func TestNoSentences(t *testing.T) {
	doc := mustParseString(t, `<root><document/></root>`)
	if got := doc.Sentences(); len(got) != 0 {
		t.Errorf("Sentences() = %v, want empty", got)
	}
	if doc.SentenceByID(1) != nil {
		t.Error("SentenceByID should be nil on an empty document")
	}
}

func TestCoreferencesAbsentVersusEmpty(t *testing.T) {
	bare := mustParseString(t, bareXML)
	if corefs := bare.Coreferences(); corefs != nil {
		t.Errorf("Coreferences() = %v, want nil when block is absent", corefs)
	}

	empty := mustParseString(t, `<root><document><sentences/><coreference/></document></root>`)
	corefs := empty.Coreferences()
	if corefs == nil {
		t.Fatal("Coreferences() should be non-nil when the block exists")
	}
	if len(corefs) != 0 {
		t.Errorf("got %d chains, want 0", len(corefs))
	}
}

func TestCoreferencesMemoized(t *testing.T) {
	doc := loadSample(t)
	first := doc.Coreferences()
	if len(first) != 3 {
		t.Fatalf("got %d chains, want 3", len(first))
	}
	second := doc.Coreferences()
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("chain %d was rebuilt", i)
		}
		if first[i].Document() != doc {
			t.Errorf("chain %d does not point back at its document", i)
		}
	}
}

// TestEndToEndTaking checks the first token of the fixture through the
// document-level lookups.
func TestEndToEndTaking(t *testing.T) {
	doc := loadSample(t)
	s := doc.SentenceByID(1)
	if s == nil {
		t.Fatal("SentenceByID(1) = nil")
	}
	sentiment, err := s.Sentiment()
	if err != nil || sentiment != 1 {
		t.Errorf("Sentiment() = %d, %v; want 1, nil", sentiment, err)
	}
	tok := s.TokenByID(1)
	if tok == nil {
		t.Fatal("TokenByID(1) = nil")
	}
	if tok.Word() != "Taking" || tok.Lemma() != "take" || tok.POS() != "VBG" || tok.NER() != "O" || tok.Speaker() != "PER0" {
		t.Errorf("token 1 = %q/%q/%q/%q/%q", tok.Word(), tok.Lemma(), tok.POS(), tok.NER(), tok.Speaker())
	}
}
