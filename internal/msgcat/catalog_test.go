package msgcat

import (
    "os"
    "path/filepath"
    "strings"
    "testing"
)

func TestRenderDefaults(t *testing.T) {
    c, err := New("")
    if err != nil { t.Fatalf("New: %v", err) }

    got, err := c.Render("vote.round_open", map[string]any{"Seconds": 15})
    if err != nil { t.Fatalf("Render: %v", err) }
    if !strings.Contains(got, "15s") { t.Fatalf("unexpected render: %q", got) }

    got, err = c.Render("vote.move", map[string]any{"SAN": "e4", "Votes": 2})
    if err != nil { t.Fatalf("Render: %v", err) }
    if !strings.Contains(got, "e4") || !strings.Contains(got, "2 votes") {
        t.Fatalf("unexpected render: %q", got)
    }

    got, err = c.Render("vote.move", map[string]any{"SAN": "e4", "Votes": 1})
    if err != nil { t.Fatalf("Render: %v", err) }
    if strings.Contains(got, "votes") { t.Fatalf("singular expected: %q", got) }
}

func TestRenderMissingKey(t *testing.T) {
    c, err := New("")
    if err != nil { t.Fatalf("New: %v", err) }
    if _, err := c.Render("vote.nope", nil); err == nil {
        t.Fatalf("expected error for unknown key")
    }
}

func TestOverrideDir(t *testing.T) {
    dir := t.TempDir()
    if err := os.WriteFile(filepath.Join(dir, "local.yaml"), []byte("vote:\n  waiting: \"custom waiting\"\n"), 0o644); err != nil {
        t.Fatalf("write override: %v", err)
    }
    c, err := New(dir)
    if err != nil { t.Fatalf("New: %v", err) }
    got, err := c.Render("vote.waiting", nil)
    if err != nil { t.Fatalf("Render: %v", err) }
    if got != "custom waiting" { t.Fatalf("override not applied: %q", got) }
    // untouched keys keep their defaults
    if _, err := c.Render("vote.resign", nil); err != nil { t.Fatalf("default lost: %v", err) }
}
