package corenlp

import (
	"testing"
)

func sampleChain(t *testing.T, i int) *Coreference {
	t.Helper()
	corefs := loadSample(t).Coreferences()
	if i >= len(corefs) {
		t.Fatalf("fixture has %d chains, want at least %d", len(corefs), i+1)
	}
	return corefs[i]
}

func TestMentionsMemoized(t *testing.T) {
	c := sampleChain(t, 0)
	first := c.Mentions()
	if len(first) != 2 {
		t.Fatalf("got %d mentions, want 2", len(first))
	}
	second := c.Mentions()
	if &first[0] != &second[0] {
		t.Error("Mentions() should return the cached slice")
	}
}

func TestMentionFields(t *testing.T) {
	m := sampleChain(t, 0).Mentions()[1]
	if m.SentenceID() != 2 || m.Start() != 1 || m.End() != 3 || m.HeadID() != 1 {
		t.Errorf("mention = sentence %d [%d,%d) head %d", m.SentenceID(), m.Start(), m.End(), m.HeadID())
	}
	if m.Text() != "Pixar 's" {
		t.Errorf("Text() = %q, want %q", m.Text(), "Pixar 's")
	}
	if m.Representative() {
		t.Error("second mention should not be representative")
	}
}

func TestRepresentative(t *testing.T) {
	tests := []struct {
		chain int
		want  string
	}{
		{0, "Pixar"},
		{1, "a flawed property"},
	}
	for _, tt := range tests {
		c := sampleChain(t, tt.chain)
		// Representative forces the mention pass on its own.
		rep := c.Representative()
		if rep == nil {
			t.Fatalf("chain %d has no representative", tt.chain)
		}
		if rep.Text() != tt.want {
			t.Errorf("chain %d Representative() = %q, want %q", tt.chain, rep.Text(), tt.want)
		}
		if rep != c.Mentions()[0] {
			t.Errorf("chain %d representative should be the flagged mention instance", tt.chain)
		}
		flagged := 0
		for _, m := range c.Mentions() {
			if m.Representative() {
				flagged++
			}
		}
		if flagged != 1 {
			t.Errorf("chain %d has %d flagged mentions, want 1", tt.chain, flagged)
		}
	}

	if rep := sampleChain(t, 2).Representative(); rep != nil {
		t.Errorf("chain without a flagged mention: Representative() = %q, want nil", rep.Text())
	}
}

func TestRepresentativeFirstFlaggedWins(t *testing.T) {
	doc := mustParseString(t, `<root><document><sentences/><coreference><coreference>
  <mention><sentence>1</sentence><start>1</start><end>2</end><head>1</head><text>a</text></mention>
  <mention representative="true"><sentence>1</sentence><start>2</start><end>3</end><head>2</head><text>b</text></mention>
  <mention representative="true"><sentence>1</sentence><start>3</start><end>4</end><head>3</head><text>c</text></mention>
  <mention representative="false"><sentence>1</sentence><start>4</start><end>5</end><head>4</head><text>d</text></mention>
</coreference></coreference></document></root>`)
	c := doc.Coreferences()[0]
	if rep := c.Representative(); rep == nil || rep.Text() != "b" {
		t.Errorf("Representative() = %v, want mention b", rep)
	}
	if c.Mentions()[3].Representative() {
		t.Error(`representative="false" should not be flagged`)
	}
}

func TestSiblings(t *testing.T) {
	for _, c := range loadSample(t).Coreferences() {
		mentions := c.Mentions()
		for _, m := range mentions {
			siblings := m.Siblings()
			if len(siblings) != len(mentions)-1 {
				t.Errorf("len(Siblings()) = %d, want %d", len(siblings), len(mentions)-1)
			}
			for _, s := range siblings {
				if s == m {
					t.Error("Siblings() should not contain the mention itself")
				}
			}
		}
	}
}

func TestMentionSentence(t *testing.T) {
	doc := loadSample(t)
	m := doc.Coreferences()[0].Mentions()[1]
	s := m.Sentence()
	if s == nil {
		t.Fatal("Sentence() = nil")
	}
	if s != doc.SentenceByID(2) {
		t.Error("Sentence() should resolve to the document's own sentence")
	}
	if m.Sentence() != s {
		t.Error("Sentence() should be memoized")
	}
	if m.Coreference() != doc.Coreferences()[0] {
		t.Error("Coreference() should point at the owning chain")
	}
}

// TestMentionTokens fixes the start-1..end-1 slice convention against known spans.
func TestMentionTokens(t *testing.T) {
	tests := []struct {
		chain, mention int
		want           string
	}{
		{0, 0, "Pixar"},
		{0, 1, "Pixar 's"},
		{1, 0, "a flawed property"},
		{1, 1, "it"},
		{2, 0, "films"},
	}
	for _, tt := range tests {
		m := sampleChain(t, tt.chain).Mentions()[tt.mention]
		tokens := m.Tokens()
		if got := tokens.String(); got != tt.want {
			t.Errorf("chain %d mention %d Tokens() = %q, want %q", tt.chain, tt.mention, got, tt.want)
		}
		if got := tokens.String(); got != m.Text() {
			t.Errorf("Tokens() %q should agree with Text() %q", got, m.Text())
		}
	}
}

// TestMentionHead pins the raw-index head lookup: the head value indexes the
// token list directly, so it lands one token after the 1-based head id.
func TestMentionHead(t *testing.T) {
	tests := []struct {
		chain, mention int
		want           string
	}{
		{0, 0, "demonstrates"},
		{0, 1, "'s"},
		{1, 0, "."},
		{1, 1, "."},
	}
	for _, tt := range tests {
		m := sampleChain(t, tt.chain).Mentions()[tt.mention]
		head := m.Head()
		if head == nil {
			t.Fatalf("chain %d mention %d Head() = nil", tt.chain, tt.mention)
		}
		if head.Word() != tt.want {
			t.Errorf("chain %d mention %d Head() = %q, want %q", tt.chain, tt.mention, head.Word(), tt.want)
		}
		if m.Head() != head {
			t.Error("Head() should be memoized")
		}
	}
}

func TestMentionHeadOutOfRange(t *testing.T) {
	doc := mustParseString(t, `<root><document><sentences>
  <sentence id="1"><tokens><token id="1"><word>Hi</word></token></tokens></sentence>
</sentences><coreference><coreference>
  <mention><sentence>1</sentence><start>1</start><end>2</end><head>1</head><text>Hi</text></mention>
</coreference></coreference></document></root>`)
	m := doc.Coreferences()[0].Mentions()[0]
	if h := m.Head(); h != nil {
		t.Errorf("Head() = %q, want nil past the end of the sentence", h.Word())
	}
	if got := m.Tokens().String(); got != "Hi" {
		t.Errorf("Tokens() = %q, want %q", got, "Hi")
	}
}

func TestMentionUnknownSentence(t *testing.T) {
	m := sampleChain(t, 2).Mentions()[1]
	if m.SentenceID() != 99 {
		t.Fatalf("SentenceID() = %d, want 99", m.SentenceID())
	}
	if m.Sentence() != nil {
		t.Error("Sentence() should be nil for an unknown sentence id")
	}
	if m.Tokens() != nil {
		t.Error("Tokens() should be nil without a sentence")
	}
	if m.Head() != nil {
		t.Error("Head() should be nil without a sentence")
	}
}

func TestMalformedMentionSkipped(t *testing.T) {
	doc := mustParseString(t, `<root><document><sentences/><coreference><coreference>
  <mention><sentence>1</sentence><start>1</start><end>2</end><text>no head</text></mention>
  <mention><sentence>1</sentence><start>1</start><end>2</end><head>1</head><text>ok</text></mention>
</coreference></coreference></document></root>`)
	mentions := doc.Coreferences()[0].Mentions()
	if len(mentions) != 1 || mentions[0].Text() != "ok" {
		t.Errorf("Mentions() = %d mentions, want only the well-formed one", len(mentions))
	}
}
