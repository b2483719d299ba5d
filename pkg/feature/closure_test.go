package feature

import (
	"slices"
	"testing"
)

func TestTransitiveDeps_Reflexive(t *testing.T) {
	g := NewGraph()
	g.Add(Base, Deps{Externals: []string{"libc"}})

	features, externals := TransitiveDeps(g, Base)

	if !slices.Equal(features, []string{""}) {
		t.Errorf("features = %v, want [\"\"]", features)
	}
	if !slices.Equal(externals, []string{"libc"}) {
		t.Errorf("externals = %v, want [libc]", externals)
	}
}

func TestTransitiveDeps_Chain(t *testing.T) {
	g := NewGraph()
	g.Add(Base, Deps{Externals: []string{"libc"}})
	g.Add("std", Deps{Features: []string{""}, Externals: []string{"memchr"}})
	g.Add("default", Deps{Features: []string{"std"}})

	features, externals := TransitiveDeps(g, "default")

	if !slices.Equal(features, []string{"", "default", "std"}) {
		t.Errorf("features = %v, want [\"\" default std]", features)
	}
	if !slices.Equal(externals, []string{"libc", "memchr"}) {
		t.Errorf("externals = %v, want [libc memchr]", externals)
	}
}

func TestTransitiveDeps_DiamondVisitedOnce(t *testing.T) {
	// a -> b, c; b -> d; c -> d. The shared node d must not duplicate
	// output or loop.
	g := NewGraph()
	g.Add("a", Deps{Features: []string{"b", "c"}})
	g.Add("b", Deps{Features: []string{"d"}})
	g.Add("c", Deps{Features: []string{"d"}})
	g.Add("d", Deps{Externals: []string{"x"}})

	features, externals := TransitiveDeps(g, "a")

	if !slices.Equal(features, []string{"a", "b", "c", "d"}) {
		t.Errorf("features = %v, want [a b c d]", features)
	}
	if !slices.Equal(externals, []string{"x"}) {
		t.Errorf("externals = %v, want [x]", externals)
	}
}

func TestTransitiveDeps_UnknownFeaturePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("TransitiveDeps(unknown) did not panic")
		}
	}()
	TransitiveDeps(NewGraph(), "nope")
}
