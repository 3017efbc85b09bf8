package hashutil

import "testing"

func TestScriptDigest(t *testing.T) {
	a := ScriptDigest("#!/bin/sh\necho a\n")
	b := ScriptDigest("#!/bin/sh\necho b\n")
	if a == b {
		t.Fatal("different scripts produced the same digest")
	}
	if len(a) != 64 {
		t.Fatalf("digest length = %d, want 64", len(a))
	}
	if a != ScriptDigest("#!/bin/sh\necho a\n") {
		t.Fatal("digest is not deterministic")
	}
}
