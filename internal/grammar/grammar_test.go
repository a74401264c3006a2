package grammar

import "testing"

func TestClassify(t *testing.T) {
	cases := map[string]Genre{
		"novel":       Fiction,
		"Short-Story": Fiction,
		" novella ":   Fiction,
		"poem":        Poetry,
		"POETRY":      Poetry,
		"screenplay":  Screenplay,
		"":            Screenplay,
		"sitcom":      Screenplay,
	}
	for tag, want := range cases {
		if got := Classify(tag); got != want {
			t.Fatalf("Classify(%q) = %q, want %q", tag, got, want)
		}
	}
}

func TestForUnknownFallsBackToScreenplay(t *testing.T) {
	g := For(Genre("opera"))
	if g.Genre() != Screenplay || g.Default() != SceneHeading {
		t.Fatalf("unexpected fallback grammar: %v %v", g.Genre(), g.Default())
	}
}

func TestSuccessorDefinedForEveryType(t *testing.T) {
	for _, genre := range []Genre{Screenplay, Poetry, Fiction} {
		g := For(genre)
		for _, typ := range g.Types() {
			if !g.Has(g.Successor(typ)) {
				t.Fatalf("%s: successor of %s = %q not in grammar", genre, typ, g.Successor(typ))
			}
		}
		if got := g.Successor("nonsense"); got != g.Types()[0] {
			t.Fatalf("%s: unknown successor = %q, want %q", genre, got, g.Types()[0])
		}
	}
}

func TestScreenplaySuccessors(t *testing.T) {
	g := For(Screenplay)
	want := map[ElementType]ElementType{
		SceneHeading: Action,
		Character:    Dialogue,
		Dialogue:     Character,
		Transition:   SceneHeading,
	}
	for in, out := range want {
		if got := g.Successor(in); got != out {
			t.Fatalf("Successor(%s) = %s, want %s", in, got, out)
		}
	}
}

func TestCycleReturnsAfterFullLoop(t *testing.T) {
	for _, genre := range []Genre{Screenplay, Poetry, Fiction} {
		g := For(genre)
		n := len(g.Types())
		for _, start := range g.Types() {
			for _, dir := range []int{1, -1} {
				cur := start
				for i := 0; i < n; i++ {
					cur = g.Cycle(cur, dir)
				}
				if cur != start {
					t.Fatalf("%s: cycling %s %d times by %d ended at %s", genre, start, n, dir, cur)
				}
			}
		}
	}
}

func TestCycleFromForeignTypeJoinsList(t *testing.T) {
	g := For(Poetry)
	n := len(g.Types())
	if got := g.Cycle(SceneHeading, 1); got != g.Types()[1] {
		t.Fatalf("first step from a foreign type = %s, want %s", got, g.Types()[1])
	}
	cur := SceneHeading
	for i := 0; i < n; i++ {
		cur = g.Cycle(cur, 1)
	}
	if cur != g.Types()[0] {
		t.Fatalf("full loop from a foreign type ended at %s, want %s", cur, g.Types()[0])
	}
}

func TestCycleWraps(t *testing.T) {
	g := For(Screenplay)
	if got := g.Cycle(SceneHeading, -1); got != Shot {
		t.Fatalf("Cycle back from first = %s, want %s", got, Shot)
	}
	if got := g.Cycle(Shot, 1); got != SceneHeading {
		t.Fatalf("Cycle forward from last = %s, want %s", got, SceneHeading)
	}
}

func TestTypesIsACopy(t *testing.T) {
	g := For(Fiction)
	ts := g.Types()
	ts[0] = "mutated"
	if g.Types()[0] != ChapterHeading {
		t.Fatalf("Types leaked internal slice")
	}
}

func TestDesignations(t *testing.T) {
	if For(Poetry).Character() != "" || For(Fiction).SceneHeading() != "" {
		t.Fatalf("non-screenplay genres must not designate character/scene types")
	}
	if For(Fiction).Heading() != ChapterHeading || For(Poetry).Heading() != PoemTitle {
		t.Fatalf("unexpected heading designations")
	}
}
