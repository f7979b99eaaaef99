package logfields

import (
	"errors"
	"log/slog"
	"testing"
	"time"
)

// TestHelperKeyNames verifies string-based helper key/value stability.
func TestHelperKeyNames(t *testing.T) {
	cases := []struct {
		name    string
		attrKey string
		attrVal string
		attr    slog.Attr
	}{
		{"BuildID", KeyBuildID, "b1", BuildID("b1")},
		{"Stage", KeyStage, "style", Stage("style")},
		{"Mode", KeyMode, "parallel", Mode("parallel")},
		{"Outcome", KeyOutcome, "failure", Outcome("failure")},
		{"Path", KeyPath, "src/a.css", Path("src/a.css")},
		{"File", KeyFile, "a.css", File("a.css")},
		{"Pattern", KeyPattern, "src/*.css", Pattern("src/*.css")},
		{"Event", KeyEvent, "modified", Event("modified")},
		{"Revision", KeyRevision, "abc123", Revision("abc123")},
	}

	for _, tc := range cases {
		if tc.attr.Key != tc.attrKey {
			// Key drift would break log ingestion schemas.
			t.Fatalf("%s: expected key %s, got %s", tc.name, tc.attrKey, tc.attr.Key)
		}
		if tc.attr.Value.String() != tc.attrVal {
			t.Fatalf("%s: expected value %s, got %s", tc.name, tc.attrVal, tc.attr.Value.String())
		}
	}
}

func TestNumericHelpers(t *testing.T) {
	if a := Duration(1500 * time.Millisecond); a.Key != KeyDurationMS || a.Value.Int64() != 1500 {
		t.Fatalf("unexpected duration attr %v", a)
	}
	if a := Artifacts(3); a.Key != KeyArtifacts || a.Value.Int64() != 3 {
		t.Fatalf("unexpected artifacts attr %v", a)
	}
}

func TestErrorHelper(t *testing.T) {
	if a := Error(nil); a.Value.String() != "" {
		t.Fatalf("nil error should produce empty value, got %q", a.Value.String())
	}
	if a := Error(errors.New("boom")); a.Value.String() != "boom" {
		t.Fatalf("unexpected error value %q", a.Value.String())
	}
}
