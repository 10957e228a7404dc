package id_test

import (
	"strings"
	"testing"

	"github.com/Abichu1/gym-members/internal/domain/id"
)

const urlSafeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-_"

// TestNewLength tests that generated identifiers have the documented length.
func TestNewLength(t *testing.T) {
	got := id.New()
	if len(got) != id.Length {
		t.Errorf("len(New()) = %d, want %d", len(got), id.Length)
	}
}

// TestNewURLSafe tests that identifiers contain only URL-safe characters.
func TestNewURLSafe(t *testing.T) {
	for i := 0; i < 100; i++ {
		got := id.New()
		for _, c := range got {
			if !strings.ContainsRune(urlSafeAlphabet, c) {
				t.Fatalf("New() = %q contains non-URL-safe character %q", got, c)
			}
		}
	}
}

// TestNewUnique tests that consecutive identifiers do not collide.
func TestNewUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 10000; i++ {
		got := id.New()
		if seen[got] {
			t.Fatalf("New() produced duplicate identifier %q", got)
		}
		seen[got] = true
	}
}
