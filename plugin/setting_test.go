package plugin

import (
	"errors"
	"testing"
)

func TestRangeBounds(t *testing.T) {
	s := NewRange("opacity", "Opacity", 5, 0, 10)

	for _, v := range []float64{0, 10, 5.5} {
		if err := s.ApplyUser(v); err != nil {
			t.Errorf("ApplyUser(%v) = %v, want nil", v, err)
		}
	}
	for _, v := range []float64{-1, 11} {
		err := s.ApplyUser(v)
		if !errors.Is(err, ErrOutOfRange) {
			t.Errorf("ApplyUser(%v) = %v, want ErrOutOfRange", v, err)
		}
	}
}

func TestRangeRejectedWriteIsNoOp(t *testing.T) {
	s := NewRange("size", "Size", 3, 0, 10)
	changed := false
	s.OnChange = func(float64) { changed = true }

	if err := s.ApplyUser(float64(42)); err == nil {
		t.Fatal("expected out-of-range error")
	}
	if s.Value() != 3 {
		t.Errorf("value = %v, want 3 after rejected write", s.Value())
	}
	if changed {
		t.Error("OnChange fired for a rejected write")
	}
}

func TestRangeMinGreaterThanMaxPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for min > max")
		}
	}()
	NewRange("bad", "Bad", 0, 10, 0)
}

func TestToggleValidator(t *testing.T) {
	s := NewToggle("dark", "Dark mode", false)
	s.Validate = func(v bool) bool { return !v }

	if err := s.ApplyUser(true); !errors.Is(err, ErrValidation) {
		t.Errorf("ApplyUser(true) = %v, want ErrValidation", err)
	}
	if s.Value() {
		t.Error("value changed after validator rejection")
	}
	if err := s.ApplyUser(false); err != nil {
		t.Errorf("ApplyUser(false) = %v", err)
	}
}

func TestKindMismatch(t *testing.T) {
	s := NewText("label", "Label", "hi")
	if err := s.ApplyUser(12); !errors.Is(err, ErrBadKind) {
		t.Errorf("ApplyUser(12) = %v, want ErrBadKind", err)
	}
	if err := s.ApplyStored(true); !errors.Is(err, ErrBadKind) {
		t.Errorf("ApplyStored(true) = %v, want ErrBadKind", err)
	}
}

func TestChoiceDefaultCoercion(t *testing.T) {
	s := NewChoice("mode", "Mode", []string{"a", "b"}, "z")
	if s.Value() != "a" {
		t.Errorf("value = %q, want coerced default %q", s.Value(), "a")
	}
}

func TestChoiceMembership(t *testing.T) {
	s := NewChoice("mode", "Mode", []string{"a", "b"}, "b")
	if err := s.ApplyUser("c"); !errors.Is(err, ErrValidation) {
		t.Errorf("ApplyUser(non-member) = %v, want ErrValidation", err)
	}
	if s.Value() != "b" {
		t.Errorf("value = %q after rejected write, want %q", s.Value(), "b")
	}
	if err := s.ApplyUser("a"); err != nil {
		t.Errorf("ApplyUser(member) = %v", err)
	}
}

func TestChoiceStoredNonMemberAccepted(t *testing.T) {
	// ApplyStored keeps non-members; normalization is the settings
	// manager's job so the healing write can be persisted.
	s := NewChoice("mode", "Mode", []string{"a", "b"}, "a")
	if err := s.ApplyStored("z"); err != nil {
		t.Fatalf("ApplyStored = %v", err)
	}
	if s.Value() != "z" {
		t.Errorf("value = %q, want raw stored %q", s.Value(), "z")
	}
}

func TestButtonPress(t *testing.T) {
	pressed := 0
	s := NewButton("reset", "Reset", func() { pressed++ })
	if err := s.ApplyUser(nil); err != nil {
		t.Fatalf("ApplyUser = %v", err)
	}
	if pressed != 1 {
		t.Errorf("pressed = %d, want 1", pressed)
	}
	if _, ok := s.Snapshot(); ok {
		t.Error("button should not contribute to snapshots")
	}
}

func TestSetHiddenNotifiesOnChangeOnly(t *testing.T) {
	s := NewToggle("x", "X", false)
	notified := 0
	s.Observe(func() { notified++ })

	s.SetHidden(true)
	s.SetHidden(true) // no-op write, no notification
	s.SetDisabled(false)
	s.SetDisabled(true)

	if notified != 2 {
		t.Errorf("notified = %d, want 2", notified)
	}
	if !s.Hidden() || !s.Disabled() {
		t.Error("state setters did not take effect")
	}
}

func TestStoredNumberWidening(t *testing.T) {
	s := NewRange("n", "N", 1, 0, 100)
	if err := s.ApplyStored(7); err != nil {
		t.Errorf("ApplyStored(int) = %v", err)
	}
	if s.Value() != 7 {
		t.Errorf("value = %v, want 7", s.Value())
	}
}
