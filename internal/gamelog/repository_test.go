package gamelog

import "testing"

func TestBuildMovetext(t *testing.T) {
    got := buildMovetext([]string{"e4", "e5", "Nf3"}, "1-0")
    want := "1. e4 e5 2. Nf3 1-0"
    if got != want { t.Fatalf("movetext: %q != %q", got, want) }

    if got := buildMovetext(nil, "*"); got != "*" {
        t.Fatalf("empty movetext: %q", got)
    }
}

func TestPGNResult(t *testing.T) {
    cases := map[string]string{"white": "1-0", "black": "0-1", "draw": "1/2-1/2", "": "*", "abort": "*"}
    for in, want := range cases {
        if got := pgnResult(in); got != want {
            t.Fatalf("pgnResult(%q) = %q, want %q", in, got, want)
        }
    }
}
