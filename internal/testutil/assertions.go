// Package testutil provides shared test helpers for the withbee project.
package testutil

import (
	"reflect"
	"testing"

	"github.com/bawdo/withbee/nodes"
)

// AssertEqual checks that got == want and reports a descriptive error if not.
func AssertEqual[T comparable](t *testing.T, got, want T) {
	t.Helper()
	if got != want {
		t.Errorf("expected:\n  %v\ngot:\n  %v", want, got)
	}
}

// AssertSQL accepts a visitor and node, renders the SQL, and compares it with the expected string.
func AssertSQL(t *testing.T, v nodes.Visitor, node nodes.Node, expected string) {
	t.Helper()
	got := node.Accept(v)
	if got != expected {
		t.Errorf("expected:\n  %s\ngot:\n  %s", expected, got)
	}
}

// AssertCompiled compares a compiled statement and its bound values.
func AssertCompiled(t *testing.T, gotSQL string, gotArgs []any, wantSQL string, wantArgs ...any) {
	t.Helper()
	if gotSQL != wantSQL {
		t.Errorf("expected:\n  %s\ngot:\n  %s", wantSQL, gotSQL)
	}
	AssertArgs(t, gotArgs, wantArgs...)
}

// AssertArgs compares bound values in order. A nil and an empty list are
// equal.
func AssertArgs(t *testing.T, got []any, want ...any) {
	t.Helper()
	if len(got) == 0 && len(want) == 0 {
		return
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected args:\n  %v\ngot:\n  %v", want, got)
	}
}

// AssertNoError fails the test if err is non-nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil.
func AssertError(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected an error but got nil")
	}
}
