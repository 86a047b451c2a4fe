package shader

import "testing"

func TestStageFromName(t *testing.T) {
	cases := map[string]Stage{
		"tri.vert":        Vertex,
		"blur.frag":       Fragment,
		"cull.comp":       Compute,
		"common":          StageNone,
		"lights.vert.inc": StageNone,
		"a.b.frag":        Fragment,
	}
	for name, want := range cases {
		if got := StageFromName(name); got != want {
			t.Fatalf("StageFromName(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestStageTagRoundTrip(t *testing.T) {
	for _, st := range []Stage{Vertex, Fragment, Compute} {
		got, ok := ParseStage(st.Tag())
		if !ok || got != st {
			t.Fatalf("ParseStage(%q) = %v,%v", st.Tag(), got, ok)
		}
	}
	if _, ok := ParseStage(""); ok {
		t.Fatalf("empty tag must not parse")
	}
	if StageNone.Tag() != "" {
		t.Fatalf("snippet stage has no tag")
	}
}

func TestLanguageFromExt(t *testing.T) {
	if l, ok := LanguageFromExt(".GLSL"); !ok || l != GLSL {
		t.Fatalf("glsl not recognised")
	}
	if l, ok := LanguageFromExt(".wgsl"); !ok || l != WGSL {
		t.Fatalf("wgsl not recognised")
	}
	if _, ok := LanguageFromExt(".hlsl"); ok {
		t.Fatalf("hlsl must not be recognised")
	}
}
