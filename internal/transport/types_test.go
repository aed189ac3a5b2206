package transport

import "testing"

func TestMoveFromUCI(t *testing.T) {
    mv, err := MoveFromUCI("e2e4")
    if err != nil { t.Fatalf("plain: %v", err) }
    if mv.From != "e2" || mv.To != "e4" || mv.Promotion != "" || mv.Drop != "" {
        t.Fatalf("unexpected move: %+v", mv)
    }
    if mv.UCI() != "e2e4" { t.Fatalf("round trip: %q", mv.UCI()) }

    mv, err = MoveFromUCI("e7e8q")
    if err != nil { t.Fatalf("promotion: %v", err) }
    if mv.Promotion != "q" || mv.UCI() != "e7e8q" {
        t.Fatalf("unexpected promotion move: %+v", mv)
    }

    mv, err = MoveFromUCI("N@f3")
    if err != nil { t.Fatalf("drop: %v", err) }
    if mv.Drop != "N" || mv.To != "f3" || mv.From != "" {
        t.Fatalf("unexpected drop move: %+v", mv)
    }
    if mv.UCI() != "N@f3" { t.Fatalf("drop round trip: %q", mv.UCI()) }

    for _, bad := range []string{"", "e2", "e2e4q9", "@f3", "NN@f3"} {
        if _, err := MoveFromUCI(bad); err == nil {
            t.Fatalf("expected error for %q", bad)
        }
    }
}
