package hostgate

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"slices"
	"strings"
	"testing"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestGate creates a gate over a fresh MemoryStore.
func newTestGate(t *testing.T, initial string) (*Gate, *MemoryStore) {
	t.Helper()

	store := NewMemoryStore(initial)
	g := New(context.Background(), store, WithLogger(discardLogger()))
	t.Cleanup(g.Close)
	return g, store
}

// TestNormalize tests host entry normalization.
func TestNormalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "strips scheme and path", input: "https://example.com/a/b?c=d", want: "example.com"},
		{name: "strips www", input: "http://www.example.com/", want: "example.com"},
		{name: "lowercases", input: "HTTPS://WWW.Example.COM/Path", want: "example.com"},
		{name: "bare host", input: "example.com", want: "example.com"},
		{name: "bare www host", input: "www.cell.com", want: "cell.com"},
		{name: "keeps subdomains", input: "https://journals.plos.org/plosone/article", want: "journals.plos.org"},
		{name: "keeps port", input: "http://localhost:8080/x", want: "localhost:8080"},
		{name: "strips query without path", input: "https://example.com?x=1", want: "example.com"},
		{name: "strips fragment", input: "https://example.com#top", want: "example.com"},
		{name: "strips userinfo", input: "https://user:p@ss@example.com/", want: "example.com"},
		{name: "repeated www labels", input: "www.www.example.com", want: "example.com"},
		{name: "trims whitespace", input: "  https://example.com/  ", want: "example.com"},
		{name: "empty stays empty", input: "", want: ""},
		{name: "unparsable returns itself", input: "not a url", want: "not a url"},
		{name: "only www", input: "www.", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := Normalize(tt.input); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

// TestNormalizeIdempotent checks normalize(normalize(x)) == normalize(x).
func TestNormalizeIdempotent(t *testing.T) {
	t.Parallel()

	inputs := []string{
		"https://www.example.com/path",
		"HTTP://WWW.WWW.Example.com",
		"www.cell.com",
		"ftp://user@files.example.org:21/pub",
		"example.com?x=1#y",
		"   ",
		"weird://://host/x",
		"a_@@_b",
	}

	for _, in := range inputs {
		once := Normalize(in)
		twice := Normalize(once)
		if once != twice {
			t.Errorf("not idempotent for %q: %q then %q", in, once, twice)
		}
		if strings.Contains(once, Delimiter) {
			t.Errorf("normalized %q still contains the delimiter: %q", in, once)
		}
	}
}

// TestCodec tests the delimiter-joined persistence format.
func TestCodec(t *testing.T) {
	t.Parallel()

	t.Run("round trips a set", func(t *testing.T) {
		t.Parallel()
		got := Decode(Encode([]string{"b.com", "a.com"}))
		if !slices.Equal(got, []string{"a.com", "b.com"}) {
			t.Errorf("unexpected hosts: %v", got)
		}
	})

	t.Run("decode filters empty and duplicate entries", func(t *testing.T) {
		t.Parallel()
		got := Decode("a.com_@@__@@_b.com_@@_a.com_@@_")
		if !slices.Equal(got, []string{"a.com", "b.com"}) {
			t.Errorf("unexpected hosts: %v", got)
		}
	})

	t.Run("empty value decodes to nothing", func(t *testing.T) {
		t.Parallel()
		if got := Decode(""); len(got) != 0 {
			t.Errorf("expected no hosts, got %v", got)
		}
	})

	t.Run("encode uses the delimiter", func(t *testing.T) {
		t.Parallel()
		if got := Encode([]string{"a.com", "", "b.com"}); got != "a.com_@@_b.com" {
			t.Errorf("unexpected encoding: %q", got)
		}
	})
}

// TestParseMode tests mode parsing.
func TestParseMode(t *testing.T) {
	t.Parallel()

	for input, want := range map[string]Mode{"once": Once, "FOREVER": Forever, " Once ": Once} {
		got, err := ParseMode(input)
		if err != nil {
			t.Errorf("ParseMode(%q) returned error: %v", input, err)
		}
		if got != want {
			t.Errorf("ParseMode(%q) = %v, want %v", input, got, want)
		}
	}

	if _, err := ParseMode("sometimes"); !errors.Is(err, ErrInvalidMode) {
		t.Errorf("expected ErrInvalidMode, got %v", err)
	}
}

// TestGate tests the enable/disable state machine of the gate.
func TestGate(t *testing.T) {
	t.Parallel()

	t.Run("loads persisted hosts", func(t *testing.T) {
		t.Parallel()
		g, _ := newTestGate(t, "example.com_@@_cell.com")

		if !g.IsDisabled("https://www.cell.com/article/1") {
			t.Error("expected cell.com to be disabled")
		}
		if mode, _ := g.Mode("example.com"); mode != Forever {
			t.Errorf("expected Forever, got %v", mode)
		}
		if g.IsDisabled("https://other.org") {
			t.Error("expected other.org to be enabled")
		}
	})

	t.Run("disable forever", func(t *testing.T) {
		t.Parallel()
		g, _ := newTestGate(t, "")

		g.Disable("https://www.example.com/a", Forever)

		if !g.IsDisabled("example.com") {
			t.Error("expected host to be disabled")
		}
		if slices.Contains(g.Session(), "example.com") {
			t.Error("host must not be in the session set")
		}
		if !slices.Contains(g.Persistent(), "example.com") {
			t.Error("host must be in the persistent set")
		}
	})

	t.Run("disable once then enable", func(t *testing.T) {
		t.Parallel()
		g, _ := newTestGate(t, "")

		g.Disable("example.com", Once)
		if !g.IsDisabled("http://example.com/x") {
			t.Fatal("expected host to be disabled")
		}

		g.Enable("https://www.example.com")

		if g.IsDisabled("example.com") {
			t.Error("expected host to be enabled")
		}
		if len(g.Session()) != 0 || len(g.Persistent()) != 0 {
			t.Errorf("expected both sets empty, got session=%v persistent=%v", g.Session(), g.Persistent())
		}
	})

	t.Run("forever then once leaves session only", func(t *testing.T) {
		t.Parallel()
		g, store := newTestGate(t, "")

		g.Disable("example.com", Forever)
		g.Disable("example.com", Once)
		g.Close()

		if !slices.Equal(g.Session(), []string{"example.com"}) {
			t.Errorf("expected session set [example.com], got %v", g.Session())
		}
		if len(g.Persistent()) != 0 {
			t.Errorf("expected empty persistent set, got %v", g.Persistent())
		}
		if store.Value() != "" {
			t.Errorf("expected persisted value to be cleared, got %q", store.Value())
		}
	})

	t.Run("once then forever leaves persistent only", func(t *testing.T) {
		t.Parallel()
		g, _ := newTestGate(t, "")

		g.Disable("example.com", Once)
		g.Disable("example.com", Forever)

		if len(g.Session()) != 0 {
			t.Errorf("expected empty session set, got %v", g.Session())
		}
		if !slices.Equal(g.Persistent(), []string{"example.com"}) {
			t.Errorf("expected persistent set [example.com], got %v", g.Persistent())
		}
	})

	t.Run("sets stay deduplicated", func(t *testing.T) {
		t.Parallel()
		g, _ := newTestGate(t, "")

		g.Disable("https://example.com", Forever)
		g.Disable("http://www.example.com/other", Forever)
		g.Disable("EXAMPLE.COM", Forever)

		if len(g.Persistent()) != 1 {
			t.Errorf("expected one entry, got %v", g.Persistent())
		}
	})

	t.Run("invalid mode is ignored", func(t *testing.T) {
		t.Parallel()
		g, _ := newTestGate(t, "")

		g.Disable("example.com", Mode(42))
		if g.IsDisabled("example.com") {
			t.Error("expected host to stay enabled")
		}
	})

	t.Run("nil store keeps state in memory", func(t *testing.T) {
		t.Parallel()
		g := New(context.Background(), nil, WithLogger(discardLogger()))
		defer g.Close()

		g.Disable("example.com", Forever)
		if !g.IsDisabled("example.com") {
			t.Error("expected host to be disabled")
		}
	})
}

// TestGatePersistence tests that persistent changes reach the store.
func TestGatePersistence(t *testing.T) {
	t.Parallel()

	t.Run("forever survives a restart", func(t *testing.T) {
		t.Parallel()

		store := NewMemoryStore("")
		g := New(context.Background(), store, WithLogger(discardLogger()))
		g.Disable("https://www.b.com", Forever)
		g.Disable("https://a.com", Forever)
		g.Disable("https://session.com", Once)
		g.Close()

		if store.Value() != "a.com_@@_b.com" {
			t.Errorf("unexpected persisted value %q", store.Value())
		}

		restarted := New(context.Background(), store, WithLogger(discardLogger()))
		defer restarted.Close()

		if !restarted.IsDisabled("b.com") || !restarted.IsDisabled("a.com") {
			t.Error("expected persisted hosts to be disabled after restart")
		}
		if restarted.IsDisabled("session.com") {
			t.Error("session hosts must not survive a restart")
		}
	})

	t.Run("enable of unknown host still writes", func(t *testing.T) {
		t.Parallel()

		store := NewMemoryStore("a.com")
		g := New(context.Background(), store, WithLogger(discardLogger()))
		g.Enable("never-disabled.org")
		g.Close()

		if store.Saves() == 0 {
			t.Error("expected a persistence write")
		}
		if store.Value() != "a.com" {
			t.Errorf("expected value unchanged, got %q", store.Value())
		}
	})

	t.Run("write failure keeps in-memory state", func(t *testing.T) {
		t.Parallel()

		store := NewMemoryStore("")
		store.FailWith(errors.New("disk full"))

		g := New(context.Background(), store, WithLogger(discardLogger()))
		g.Disable("example.com", Forever)
		g.Close()

		if !g.IsDisabled("example.com") {
			t.Error("in-memory state must remain correct after a failed write")
		}
		if store.Value() != "" {
			t.Errorf("expected nothing persisted, got %q", store.Value())
		}
	})

	t.Run("close is idempotent", func(t *testing.T) {
		t.Parallel()

		g := New(context.Background(), NewMemoryStore(""), WithLogger(discardLogger()))
		g.Close()
		g.Close()
	})
}

// failingStore fails every Load.
type failingStore struct{ MemoryStore }

func (f *failingStore) Load(_ context.Context) (string, error) {
	return "", errors.New("unavailable")
}

// TestGateLoadFailure tests that a failed load starts the gate empty.
func TestGateLoadFailure(t *testing.T) {
	t.Parallel()

	g := New(context.Background(), &failingStore{}, WithLogger(discardLogger()))
	defer g.Close()

	if g.IsDisabled("example.com") {
		t.Error("expected fail-open empty gate")
	}
	g.Disable("example.com", Forever)
	if !g.IsDisabled("example.com") {
		t.Error("expected gate to keep working after a failed load")
	}
}
