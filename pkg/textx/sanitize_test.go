// Package textx contains tests for the text utilities.
package textx

import (
	"reflect"
	"testing"
)

func TestSanitizeText(t *testing.T) {
	in := "he\x00llo\nwo\x7frld\t!"
	got := SanitizeText(in)
	if got != "hello\nworld\t!" {
		t.Fatalf("unexpected: %q", got)
	}
}

func TestSanitizeAll(t *testing.T) {
	in := []string{" math ", "\x00", "art"}
	got := SanitizeAll(in)
	if !reflect.DeepEqual(got, []string{"math", "art"}) {
		t.Fatalf("unexpected: %q", got)
	}
}
