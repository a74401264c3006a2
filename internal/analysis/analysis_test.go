package analysis

import (
	"math"
	"reflect"
	"strings"
	"testing"

	"hobodraft/internal/domain"
	"hobodraft/internal/grammar"
)

func el(id string, t grammar.ElementType, content string) domain.Element {
	return domain.Element{ID: id, Type: t, Content: content}
}

func TestCountsOnEmptyInput(t *testing.T) {
	if WordCount(nil) != 0 || PageCount(0) != 0 || CharCount(nil) != 0 {
		t.Fatalf("empty input must yield zero counts")
	}
	if got := Outline(grammar.For(grammar.Screenplay), nil); len(got) != 0 {
		t.Fatalf("outline = %v", got)
	}
	st := Screenplay(nil)
	if st.DialogueWords != 0 || len(st.Distribution) != 0 {
		t.Fatalf("screenplay stats = %+v", st)
	}
	if Poetry(nil).Scheme != "" {
		t.Fatalf("poetry scheme on empty input")
	}
}

func TestPageCountCeil(t *testing.T) {
	for words, want := range map[int]int{1: 1, 250: 1, 251: 2, 500: 2, 501: 3} {
		if got := PageCount(words); got != want {
			t.Fatalf("PageCount(%d) = %d, want %d", words, got, want)
		}
	}
}

func TestCharCountRunes(t *testing.T) {
	if got := CharCount([]domain.Element{el("a", grammar.Action, "Größe")}); got != 5 {
		t.Fatalf("CharCount = %d", got)
	}
}

func TestWordCountMonotonicUnderAppend(t *testing.T) {
	els := []domain.Element{el("a", grammar.Action, "one two"), el("b", grammar.Action, "")}
	before := WordCount(els)
	for _, suffix := range []string{"x", " three", "-four", "\tfive six"} {
		els[1].Content += suffix
		after := WordCount(els)
		if after < before {
			t.Fatalf("word count decreased after appending %q: %d -> %d", suffix, before, after)
		}
		before = after
	}
}

func TestOutlineScreenplay(t *testing.T) {
	els := []domain.Element{
		el("1", grammar.SceneHeading, "INT. HOUSE - DAY"),
		el("2", grammar.Action, "Quiet."),
		el("3", grammar.SceneHeading, "EXT. YARD - NIGHT"),
		el("4", grammar.Dialogue, "Hello."),
	}
	got := Outline(grammar.For(grammar.Screenplay), els)
	want := []OutlineEntry{
		{Number: 1, Position: 0, ElementID: "1", Title: "INT. HOUSE - DAY"},
		{Number: 2, Position: 2, ElementID: "3", Title: "EXT. YARD - NIGHT"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("outline = %+v", got)
	}
}

func TestScreenplayDistribution(t *testing.T) {
	els := []domain.Element{
		el("0", grammar.Dialogue, "nobody speaks here"),
		el("1", grammar.SceneHeading, "INT. HOUSE - DAY"),
		el("2", grammar.Action, "Ann enters the room."),
		el("3", grammar.Character, "ann"),
		el("4", grammar.Dialogue, "one two three"),
		el("5", grammar.Character, " BOB "),
		el("6", grammar.Dialogue, "four"),
		el("7", grammar.Character, "ANN"),
		el("8", grammar.Dialogue, "five six"),
	}
	st := Screenplay(els)
	if st.SceneCount != 1 || st.ActionWords != 4 || st.DialogueWords != 9 {
		t.Fatalf("stats = %+v", st)
	}
	if st.ByCharacter["ANN"] != 5 || st.ByCharacter["BOB"] != 1 {
		t.Fatalf("by character = %v", st.ByCharacter)
	}
	if st.Distribution[0].Name != "ANN" || math.Abs(st.Distribution[0].Percent-500.0/9) > 1e-9 {
		t.Fatalf("distribution = %+v", st.Distribution)
	}
}

func TestDistributionZeroTotalAndTopTen(t *testing.T) {
	var els []domain.Element
	for _, name := range strings.Fields("A B C D E F G H I J K L") {
		els = append(els, el(name, grammar.Character, name), el(name+"d", grammar.Dialogue, ""))
	}
	st := Screenplay(els)
	if len(st.Distribution) != DistributionLimit {
		t.Fatalf("distribution length = %d", len(st.Distribution))
	}
	for _, s := range st.Distribution {
		if s.Percent != 0 || math.IsNaN(s.Percent) {
			t.Fatalf("zero total must report 0%%, got %v", s.Percent)
		}
	}
	if st.Distribution[0].Name != "A" {
		t.Fatalf("ties must sort by name, got %s", st.Distribution[0].Name)
	}
}

func TestCountSyllables(t *testing.T) {
	cases := map[string]int{"cat": 1, "the": 1, "": 0, "!!": 0, "cake": 1, "light": 1}
	for w, want := range cases {
		if got := CountSyllables(w); got != want {
			t.Fatalf("CountSyllables(%q) = %d, want %d", w, got, want)
		}
	}
	if CountSyllables("banana") <= 1 {
		t.Fatalf("banana must have more than one syllable")
	}
}

func TestRhymeScheme(t *testing.T) {
	if got := RhymeScheme([]string{"cat", "hat", "dog", "log"}); got != "AABB" {
		t.Fatalf("scheme = %q, want AABB", got)
	}
	if got := RhymeScheme([]string{"light", "night", "day"}); got != "AAB" {
		t.Fatalf("scheme = %q, want AAB", got)
	}
}

func TestRhymeKeyFallback(t *testing.T) {
	if got := RhymeKey("rhythm"); got != "ythm" {
		t.Fatalf("RhymeKey(rhythm) = %q", got)
	}
	if got := RhymeKey("psst"); got != "st" {
		t.Fatalf("RhymeKey(psst) = %q", got)
	}
}

func TestLetterPastZ(t *testing.T) {
	for n, want := range map[int]string{0: "A", 25: "Z", 26: "AA", 27: "AB", 51: "AZ", 52: "BA"} {
		if got := Letter(n); got != want {
			t.Fatalf("Letter(%d) = %q, want %q", n, got, want)
		}
	}
}

func TestPoetryLines(t *testing.T) {
	els := []domain.Element{
		el("t", grammar.PoemTitle, "Night Song"),
		el("1", grammar.Line, "The stars are bright tonight,"),
		el("2", grammar.Line, "..."),
		el("3", grammar.Couplet, "A silver, fading light."),
		el("4", grammar.Stanza, "and then the day"),
	}
	st := Poetry(els)
	if st.Scheme != "AAB" || len(st.Lines) != 3 {
		t.Fatalf("poetry = %+v", st)
	}
	if st.Lines[0].LastWord != "tonight" || st.Lines[0].Syllables == 0 {
		t.Fatalf("first line = %+v", st.Lines[0])
	}
}

func TestFictionChapters(t *testing.T) {
	els := []domain.Element{
		el("p0", grammar.Paragraph, "it was a dark night"),
		el("h1", grammar.ChapterHeading, "One"),
		el("p1", grammar.Paragraph, "a b c d e f g h i j"),
		el("h2", grammar.ChapterHeading, "Two"),
		el("p2", grammar.Paragraph, "x y z"),
	}
	got := Fiction(els).Chapters
	want := []Chapter{
		{Title: "Opening", Words: 5},
		{Title: "One", ElementID: "h1", Words: 10},
		{Title: "Two", ElementID: "h2", Words: 3},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("chapters = %+v", got)
	}
}

func TestFictionOpeningRules(t *testing.T) {
	got := Fiction([]domain.Element{el("h", grammar.ChapterHeading, "One"), el("p", grammar.Paragraph, "hi")}).Chapters
	if len(got) != 1 || got[0].Title != "One" {
		t.Fatalf("empty opening must be dropped: %+v", got)
	}
	got = Fiction(nil).Chapters
	if len(got) != 1 || got[0].Title != OpeningTitle || got[0].Words != 0 {
		t.Fatalf("document without headings must report Opening: %+v", got)
	}
}

func TestExtraction(t *testing.T) {
	els := []domain.Element{
		el("1", grammar.SceneHeading, "INT. KITCHEN - NIGHT"),
		el("2", grammar.SceneHeading, "ext. back yard - continuous"),
		el("3", grammar.SceneHeading, "INT./EXT. CAR - DAY"),
		el("4", grammar.SceneHeading, "I/E. KITCHEN"),
		el("5", grammar.Character, "mary"),
		el("6", grammar.Character, "BOB"),
		el("7", grammar.Character, "MARY "),
		el("8", grammar.Action, "INT. NOT A HEADING"),
	}
	if got := ExtractLocations(els); !reflect.DeepEqual(got, []string{"BACK YARD", "CAR", "KITCHEN"}) {
		t.Fatalf("locations = %v", got)
	}
	if got := ExtractCharacters(els); !reflect.DeepEqual(got, []string{"BOB", "MARY"}) {
		t.Fatalf("characters = %v", got)
	}
}

func TestAnalyzeSelectsGenreSection(t *testing.T) {
	doc := domain.NewDocument(grammar.Poetry, domain.Content{Elements: []domain.Element{el("1", grammar.Line, "cat"), el("2", grammar.Line, "hat")}})
	r := Analyze(doc)
	if r.Poetry == nil || r.Screenplay != nil || r.Fiction != nil {
		t.Fatalf("expected only poetry section: %+v", r)
	}
	if r.Words != 2 || r.Pages != 1 || r.Elements != 2 || r.Poetry.Scheme != "AA" {
		t.Fatalf("report = %+v", r)
	}
}
