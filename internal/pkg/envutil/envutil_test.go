package envutil

import (
	"testing"
	"time"
)

func TestInt(t *testing.T) {
	t.Setenv("GL_TEST_INT", "42")
	if got := Int("GL_TEST_INT", 1); got != 42 {
		t.Fatalf("Int: got=%d", got)
	}
	t.Setenv("GL_TEST_INT", "nope")
	if got := Int("GL_TEST_INT", 7); got != 7 {
		t.Fatalf("Int fallback: got=%d", got)
	}
}

func TestBool(t *testing.T) {
	t.Setenv("GL_TEST_BOOL", "on")
	if !Bool("GL_TEST_BOOL", false) {
		t.Fatalf("expected true")
	}
	t.Setenv("GL_TEST_BOOL", "maybe")
	if Bool("GL_TEST_BOOL", false) {
		t.Fatalf("expected default false")
	}
}

func TestDuration(t *testing.T) {
	t.Setenv("GL_TEST_DUR", "90s")
	if got := Duration("GL_TEST_DUR", time.Second); got != 90*time.Second {
		t.Fatalf("Duration: got=%v", got)
	}
	t.Setenv("GL_TEST_DUR", "30")
	if got := Duration("GL_TEST_DUR", time.Second); got != 30*time.Second {
		t.Fatalf("Duration seconds: got=%v", got)
	}
}

func TestList(t *testing.T) {
	t.Setenv("GL_TEST_LIST", " a, ,b ")
	got := List("GL_TEST_LIST", nil)
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("List: got=%v", got)
	}
}
