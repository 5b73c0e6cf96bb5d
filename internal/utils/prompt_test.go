package utils

import "testing"

func TestConfirmNonInteractiveDefaultsToNo(t *testing.T) {
	// test binaries run with stdout piped, so the prompt must not block
	// on stdin and the [y/N] default applies
	if Confirm("Proceed?") {
		t.Error("expected Confirm to answer no without a terminal")
	}
}
