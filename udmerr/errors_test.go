package udmerr

import "testing"

func TestKindString(t *testing.T) {
	cases := map[Kind]string{
		InvalidEntity:            "invalid-entity",
		ArityMismatch:            "arity-mismatch",
		RankConnectivityMismatch: "rank-connectivity-mismatch",
		NoChange:                 "no-change",
	}
	for k, want := range cases {
		if got := k.String(); got != want {
			t.Errorf("Kind(%d).String() = %q, want %q", k, got, want)
		}
	}
}

func TestWarningVsFatal(t *testing.T) {
	if !NoChange.Warning() {
		t.Error("NoChange should be a warning")
	}
	if NoChange.Fatal() {
		t.Error("NoChange should not be fatal")
	}
	if !PartitionFailed.Fatal() {
		t.Error("PartitionFailed should be fatal")
	}
	if PartitionFailed.Warning() {
		t.Error("PartitionFailed should not be a warning")
	}
}

func TestNewAndIs(t *testing.T) {
	err := New(UnknownSolution, "solution %q not registered", "Pressure")
	if !Is(err, UnknownSolution) {
		t.Error("Is should match the kind the error was created with")
	}
	if Is(err, ArityMismatch) {
		t.Error("Is should not match an unrelated kind")
	}
	k, ok := KindOf(err)
	if !ok || k != UnknownSolution {
		t.Errorf("KindOf = %v, %v, want UnknownSolution, true", k, ok)
	}
}

func TestNewContextCapturedAtDebugLevel3(t *testing.T) {
	old := DebugLevel
	defer func() { DebugLevel = old }()

	DebugLevel = 1
	e1 := New(InvalidEntity, "bad id")
	if e1.Context != "" {
		t.Error("context should not be captured below debug level 3")
	}

	DebugLevel = 3
	e2 := New(InvalidEntity, "bad id")
	if e2.Context == "" {
		t.Error("context should be captured at debug level 3")
	}
}
