package cache

import (
	"strings"
	"testing"
)

func TestKeyerDeterministic(t *testing.T) {
	k := NewDefaultKeyer()

	first, err := k.Key("fetch", "user", 42)
	if err != nil {
		t.Fatalf("Key: %v", err)
	}
	second, err := k.Key("fetch", "user", 42)
	if err != nil {
		t.Fatalf("Key: %v", err)
	}
	if first != second {
		t.Fatalf("equal inputs produced %q and %q", first, second)
	}
}

func TestKeyerFormat(t *testing.T) {
	k := NewDefaultKeyer()

	key, err := k.Key("lookup", 1)
	if err != nil {
		t.Fatalf("Key: %v", err)
	}
	if !strings.HasPrefix(key, "call:lookup:") {
		t.Fatalf("key %q missing call:lookup: prefix", key)
	}
	hash := strings.TrimPrefix(key, "call:lookup:")
	if len(hash) != 16 {
		t.Fatalf("hash %q has length %d, want 16", hash, len(hash))
	}
}

func TestKeyerDistinguishesInputs(t *testing.T) {
	k := NewDefaultKeyer()

	a, _ := k.Key("fn", 1)
	b, _ := k.Key("fn", 2)
	c, _ := k.Key("other", 1)

	if a == b {
		t.Fatal("different args must produce different keys")
	}
	if a == c {
		t.Fatal("different names must produce different keys")
	}
}

func TestKeyerMapOrderIndependent(t *testing.T) {
	k := NewDefaultKeyer()

	// Run enough iterations that map iteration order would vary if the
	// canonicalization did not sort keys.
	want, err := k.Key("fn", map[string]any{"a": 1, "b": 2, "c": 3, "d": 4})
	if err != nil {
		t.Fatalf("Key: %v", err)
	}
	for i := 0; i < 50; i++ {
		got, err := k.Key("fn", map[string]any{"d": 4, "c": 3, "b": 2, "a": 1})
		if err != nil {
			t.Fatalf("Key: %v", err)
		}
		if got != want {
			t.Fatalf("iteration %d: got %q, want %q", i, got, want)
		}
	}
}

func TestKeyerNestedStructures(t *testing.T) {
	k := NewDefaultKeyer()

	a, err := k.Key("fn", map[string]any{
		"filters": []any{"x", "y"},
		"opts":    map[string]any{"limit": 10, "offset": 0},
	})
	if err != nil {
		t.Fatalf("Key: %v", err)
	}
	b, err := k.Key("fn", map[string]any{
		"opts":    map[string]any{"offset": 0, "limit": 10},
		"filters": []any{"x", "y"},
	})
	if err != nil {
		t.Fatalf("Key: %v", err)
	}
	if a != b {
		t.Fatalf("nested reordering changed the key: %q vs %q", a, b)
	}

	c, _ := k.Key("fn", map[string]any{
		"filters": []any{"y", "x"},
		"opts":    map[string]any{"limit": 10, "offset": 0},
	})
	if a == c {
		t.Fatal("slice order is significant and must change the key")
	}
}

func TestKeyerNoArgs(t *testing.T) {
	k := NewDefaultKeyer()

	a, err := k.Key("fn")
	if err != nil {
		t.Fatalf("Key: %v", err)
	}
	b, _ := k.Key("fn")
	if a != b {
		t.Fatal("zero-arg keys must be stable")
	}
}

func TestKeyerUnmarshalableArg(t *testing.T) {
	k := NewDefaultKeyer()

	if _, err := k.Key("fn", make(chan int)); err == nil {
		t.Fatal("expected error for unserializable argument")
	}
}
