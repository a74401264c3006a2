package autocomplete

import (
	"reflect"
	"testing"

	"hobodraft/internal/domain"
	"hobodraft/internal/grammar"
)

var sp = grammar.For(grammar.Screenplay)

func TestCharacterSuggestions(t *testing.T) {
	idx := Index{Characters: []string{"MARY", "MARTIN", "BOB", "MAX"}}
	got := Derive(sp, domain.Element{Type: grammar.Character, Content: "ma"}, idx)
	want := []string{"MARY", "MARTIN", "MAX"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestCharacterExactMatchExcluded(t *testing.T) {
	idx := Index{Characters: []string{"MARY", "MARYANNE"}}
	got := Derive(sp, domain.Element{Type: grammar.Character, Content: "Mary"}, idx)
	if !reflect.DeepEqual(got, []string{"MARYANNE"}) {
		t.Fatalf("got %v", got)
	}
}

func TestCharacterEmptyInput(t *testing.T) {
	got := Derive(sp, domain.Element{Type: grammar.Character, Content: "  "}, Index{Characters: []string{"BOB"}})
	if len(got) != 0 {
		t.Fatalf("empty input produced %v", got)
	}
}

func TestSceneHeadingSuggestions(t *testing.T) {
	idx := Index{Locations: []string{"KITCHEN", "BACK KITCHEN", "GARAGE"}}
	got := Derive(sp, domain.Element{Type: grammar.SceneHeading, Content: "EXT. kitc"}, idx)
	want := []string{"EXT. KITCHEN - DAY", "EXT. BACK KITCHEN - DAY"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestSceneHeadingNeedsMoreThanFourChars(t *testing.T) {
	idx := Index{Locations: []string{"KITCHEN"}}
	if got := Derive(sp, domain.Element{Type: grammar.SceneHeading, Content: "INT."}, idx); len(got) != 0 {
		t.Fatalf("short input produced %v", got)
	}
	if got := Derive(sp, domain.Element{Type: grammar.SceneHeading, Content: "INT. "}, idx); len(got) != 0 {
		t.Fatalf("trimmed short input produced %v", got)
	}
	got := Derive(sp, domain.Element{Type: grammar.SceneHeading, Content: "INT. K"}, idx)
	if !reflect.DeepEqual(got, []string{"INT. KITCHEN - DAY"}) {
		t.Fatalf("got %v", got)
	}
}

func TestSceneHeadingDefaultPrefixAndExactExcluded(t *testing.T) {
	idx := Index{Locations: []string{"GARAGE"}}
	got := Derive(sp, domain.Element{Type: grammar.SceneHeading, Content: "garage"}, idx)
	if !reflect.DeepEqual(got, []string{"INT. GARAGE - DAY"}) {
		t.Fatalf("got %v", got)
	}
	got = Derive(sp, domain.Element{Type: grammar.SceneHeading, Content: "INT. GARAGE - DAY"}, idx)
	if len(got) != 0 {
		t.Fatalf("exact heading should not be suggested: %v", got)
	}
}

func TestOtherTypesAndGenres(t *testing.T) {
	idx := Index{Characters: []string{"BOB"}, Locations: []string{"HOUSE"}}
	if got := Derive(sp, domain.Element{Type: grammar.Action, Content: "BO"}, idx); got != nil {
		t.Fatalf("action produced %v", got)
	}
	fic := grammar.For(grammar.Fiction)
	if got := Derive(fic, domain.Element{Type: grammar.Dialogue, Content: "BO"}, idx); got != nil {
		t.Fatalf("fiction produced %v", got)
	}
}

func TestVisibleCaps(t *testing.T) {
	items := []string{"a", "b", "c", "d", "e", "f", "g"}
	if got := Visible(items); len(got) != DisplayLimit {
		t.Fatalf("visible = %d", len(got))
	}
	if got := Visible(items[:2]); len(got) != 2 {
		t.Fatalf("visible short = %d", len(got))
	}
}
