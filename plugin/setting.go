package plugin

import (
	"errors"
	"fmt"
)

// Kind identifies the control type of a setting. Each kind maps to one
// concrete Setting implementation carrying its own typed value.
type Kind string

// Kind constants define the supported setting control types.
const (
	KindToggle Kind = "toggle"
	KindRange  Kind = "range"
	KindColor  Kind = "color"
	KindText   Kind = "text"
	KindButton Kind = "button"
	KindChoice Kind = "choice"
)

// Errors returned by the setting write path. Callers should match with
// errors.Is; all rejected writes leave the setting's value untouched.
var (
	ErrBadKind    = errors.New("value type does not match setting kind")
	ErrOutOfRange = errors.New("value outside allowed range")
	ErrValidation = errors.New("value rejected by validator")
)

// EnableKey is the reserved key of the per-plugin enable toggle. It exists on
// every plugin, is never hidden, and is rendered in the plugin's summary row
// rather than the per-setting detail list.
const EnableKey = "enable"

// Setting is one typed, named, persisted configuration value owned by a
// plugin. Concrete implementations are ToggleSetting, RangeSetting,
// ColorSetting, TextSetting, ButtonSetting, and ChoiceSetting.
type Setting interface {
	Key() string
	Kind() Kind
	DisplayText() string
	Description() string

	Hidden() bool
	Disabled() bool
	// SetHidden and SetDisabled change presentation state and notify the
	// installed observer, but only when the value actually changed.
	SetHidden(bool)
	SetDisabled(bool)

	// Observe installs the state-change observer invoked by SetHidden and
	// SetDisabled. The settings manager installs exactly one per setting.
	Observe(func())

	// Snapshot returns the primitive value to persist. The second return is
	// false for settings with no value (buttons).
	Snapshot() (any, bool)

	// ApplyStored overwrites the value with a persisted primitive. Only the
	// runtime type is checked; the loaded-from-store callback fires on
	// success.
	ApplyStored(v any) error

	// ApplyUser runs the full write protocol for a candidate value: type
	// check, kind-specific bounds, custom validator, then assignment and the
	// change callback. A rejected candidate leaves the value untouched.
	ApplyUser(v any) error
}

type settingBase struct {
	key      string
	display  string
	desc     string
	hidden   bool
	disabled bool
	notify   func()
}

func newBase(key, display string) settingBase {
	if key == "" {
		panic("plugin: setting key must not be empty")
	}
	return settingBase{key: key, display: display}
}

func (b *settingBase) Key() string         { return b.key }
func (b *settingBase) DisplayText() string { return b.display }
func (b *settingBase) Description() string { return b.desc }
func (b *settingBase) Hidden() bool        { return b.hidden }
func (b *settingBase) Disabled() bool      { return b.disabled }

// SetDescription sets the optional help text shown under the control.
func (b *settingBase) SetDescription(d string) { b.desc = d }

func (b *settingBase) SetHidden(h bool) {
	if b.hidden == h {
		return
	}
	b.hidden = h
	b.notifyChanged()
}

func (b *settingBase) SetDisabled(d bool) {
	if b.disabled == d {
		return
	}
	b.disabled = d
	b.notifyChanged()
}

func (b *settingBase) Observe(fn func()) { b.notify = fn }

func (b *settingBase) notifyChanged() {
	if b.notify != nil {
		b.notify()
	}
}

// ToggleSetting is a boolean checkbox.
type ToggleSetting struct {
	settingBase
	value bool

	Validate func(bool) bool
	OnChange func(bool)
	OnLoaded func(bool)
}

// NewToggle creates a boolean toggle setting with the given default.
func NewToggle(key, display string, def bool) *ToggleSetting {
	return &ToggleSetting{settingBase: newBase(key, display), value: def}
}

// Kind returns KindToggle.
func (s *ToggleSetting) Kind() Kind { return KindToggle }

// Value returns the current boolean value.
func (s *ToggleSetting) Value() bool { return s.value }

// Set assigns the value directly, bypassing validation. Used by plugin code
// and by the enable-toggle write path.
func (s *ToggleSetting) Set(v bool) { s.value = v }

func (s *ToggleSetting) Snapshot() (any, bool) { return s.value, true }

func (s *ToggleSetting) ApplyStored(v any) error {
	b, ok := v.(bool)
	if !ok {
		return fmt.Errorf("setting %s: stored %T: %w", s.key, v, ErrBadKind)
	}
	s.value = b
	if s.OnLoaded != nil {
		s.OnLoaded(b)
	}
	return nil
}

func (s *ToggleSetting) ApplyUser(v any) error {
	b, ok := v.(bool)
	if !ok {
		return fmt.Errorf("setting %s: candidate %T: %w", s.key, v, ErrBadKind)
	}
	if s.Validate != nil && !s.Validate(b) {
		return fmt.Errorf("setting %s: %w", s.key, ErrValidation)
	}
	s.value = b
	if s.OnChange != nil {
		s.OnChange(b)
	}
	return nil
}

// RangeSetting is a numeric value constrained to [Min, Max].
type RangeSetting struct {
	settingBase
	value float64
	min   float64
	max   float64

	Validate func(float64) bool
	OnChange func(float64)
	OnLoaded func(float64)
}

// NewRange creates a numeric range setting. It panics if min > max, which is
// a plugin-author configuration error.
func NewRange(key, display string, def, min, max float64) *RangeSetting {
	if min > max {
		panic(fmt.Sprintf("plugin: setting %s: min %v > max %v", key, min, max))
	}
	return &RangeSetting{settingBase: newBase(key, display), value: def, min: min, max: max}
}

// Kind returns KindRange.
func (s *RangeSetting) Kind() Kind { return KindRange }

// Value returns the current numeric value.
func (s *RangeSetting) Value() float64 { return s.value }

// Min returns the inclusive lower bound.
func (s *RangeSetting) Min() float64 { return s.min }

// Max returns the inclusive upper bound.
func (s *RangeSetting) Max() float64 { return s.max }

func (s *RangeSetting) Snapshot() (any, bool) { return s.value, true }

func (s *RangeSetting) ApplyStored(v any) error {
	f, ok := asFloat(v)
	if !ok {
		return fmt.Errorf("setting %s: stored %T: %w", s.key, v, ErrBadKind)
	}
	s.value = f
	if s.OnLoaded != nil {
		s.OnLoaded(f)
	}
	return nil
}

func (s *RangeSetting) ApplyUser(v any) error {
	f, ok := asFloat(v)
	if !ok {
		return fmt.Errorf("setting %s: candidate %T: %w", s.key, v, ErrBadKind)
	}
	if f < s.min || f > s.max {
		return fmt.Errorf("setting %s: %v not in [%v, %v]: %w", s.key, f, s.min, s.max, ErrOutOfRange)
	}
	if s.Validate != nil && !s.Validate(f) {
		return fmt.Errorf("setting %s: %w", s.key, ErrValidation)
	}
	s.value = f
	if s.OnChange != nil {
		s.OnChange(f)
	}
	return nil
}

// ColorSetting holds a hex color string such as "#ffcc00".
type ColorSetting struct {
	settingBase
	value string

	Validate func(string) bool
	OnChange func(string)
	OnLoaded func(string)
}

// NewColor creates a color-picker setting with the given default hex value.
func NewColor(key, display, def string) *ColorSetting {
	return &ColorSetting{settingBase: newBase(key, display), value: def}
}

// Kind returns KindColor.
func (s *ColorSetting) Kind() Kind { return KindColor }

// Value returns the current color string.
func (s *ColorSetting) Value() string { return s.value }

func (s *ColorSetting) Snapshot() (any, bool) { return s.value, true }

func (s *ColorSetting) ApplyStored(v any) error {
	str, ok := v.(string)
	if !ok {
		return fmt.Errorf("setting %s: stored %T: %w", s.key, v, ErrBadKind)
	}
	s.value = str
	if s.OnLoaded != nil {
		s.OnLoaded(str)
	}
	return nil
}

func (s *ColorSetting) ApplyUser(v any) error {
	str, ok := v.(string)
	if !ok {
		return fmt.Errorf("setting %s: candidate %T: %w", s.key, v, ErrBadKind)
	}
	if s.Validate != nil && !s.Validate(str) {
		return fmt.Errorf("setting %s: %w", s.key, ErrValidation)
	}
	s.value = str
	if s.OnChange != nil {
		s.OnChange(str)
	}
	return nil
}

// TextSetting is a free-form text field.
type TextSetting struct {
	settingBase
	value string

	Validate func(string) bool
	OnChange func(string)
	OnLoaded func(string)
}

// NewText creates a free-text setting with the given default.
func NewText(key, display, def string) *TextSetting {
	return &TextSetting{settingBase: newBase(key, display), value: def}
}

// Kind returns KindText.
func (s *TextSetting) Kind() Kind { return KindText }

// Value returns the current text value.
func (s *TextSetting) Value() string { return s.value }

func (s *TextSetting) Snapshot() (any, bool) { return s.value, true }

func (s *TextSetting) ApplyStored(v any) error {
	str, ok := v.(string)
	if !ok {
		return fmt.Errorf("setting %s: stored %T: %w", s.key, v, ErrBadKind)
	}
	s.value = str
	if s.OnLoaded != nil {
		s.OnLoaded(str)
	}
	return nil
}

func (s *TextSetting) ApplyUser(v any) error {
	str, ok := v.(string)
	if !ok {
		return fmt.Errorf("setting %s: candidate %T: %w", s.key, v, ErrBadKind)
	}
	if s.Validate != nil && !s.Validate(str) {
		return fmt.Errorf("setting %s: %w", s.key, ErrValidation)
	}
	s.value = str
	if s.OnChange != nil {
		s.OnChange(str)
	}
	return nil
}

// ButtonSetting is an action trigger with no persisted value.
type ButtonSetting struct {
	settingBase

	OnPress func()
}

// NewButton creates an action-button setting.
func NewButton(key, display string, onPress func()) *ButtonSetting {
	return &ButtonSetting{settingBase: newBase(key, display), OnPress: onPress}
}

// Kind returns KindButton.
func (s *ButtonSetting) Kind() Kind { return KindButton }

// Press invokes the button callback.
func (s *ButtonSetting) Press() {
	if s.OnPress != nil {
		s.OnPress()
	}
}

func (s *ButtonSetting) Snapshot() (any, bool) { return nil, false }

func (s *ButtonSetting) ApplyStored(any) error { return nil }

// ApplyUser on a button skips validation entirely and presses it.
func (s *ButtonSetting) ApplyUser(any) error {
	s.Press()
	return nil
}

// ChoiceSetting selects one value from an ordered list of choices.
type ChoiceSetting struct {
	settingBase
	choices []string
	value   string

	Validate func(string) bool
	OnChange func(string)
	OnLoaded func(string)
}

// NewChoice creates a single-choice setting. It panics on an empty choice
// list. A default that is not a member of choices is coerced to the first
// choice.
func NewChoice(key, display string, choices []string, def string) *ChoiceSetting {
	if len(choices) == 0 {
		panic(fmt.Sprintf("plugin: setting %s: empty choice list", key))
	}
	s := &ChoiceSetting{settingBase: newBase(key, display), choices: append([]string(nil), choices...)}
	if s.Member(def) {
		s.value = def
	} else {
		s.value = s.choices[0]
	}
	return s
}

// Kind returns KindChoice.
func (s *ChoiceSetting) Kind() Kind { return KindChoice }

// Value returns the currently selected choice.
func (s *ChoiceSetting) Value() string { return s.value }

// Choices returns the ordered choice list.
func (s *ChoiceSetting) Choices() []string { return append([]string(nil), s.choices...) }

// Member reports whether v is in the choice list.
func (s *ChoiceSetting) Member(v string) bool {
	for _, c := range s.choices {
		if c == v {
			return true
		}
	}
	return false
}

func (s *ChoiceSetting) Snapshot() (any, bool) { return s.value, true }

// ApplyStored accepts any string, including a non-member left behind by an
// older choice list. The settings manager normalizes non-members afterwards
// through the regular write path.
func (s *ChoiceSetting) ApplyStored(v any) error {
	str, ok := v.(string)
	if !ok {
		return fmt.Errorf("setting %s: stored %T: %w", s.key, v, ErrBadKind)
	}
	s.value = str
	if s.OnLoaded != nil {
		s.OnLoaded(str)
	}
	return nil
}

func (s *ChoiceSetting) ApplyUser(v any) error {
	str, ok := v.(string)
	if !ok {
		return fmt.Errorf("setting %s: candidate %T: %w", s.key, v, ErrBadKind)
	}
	if !s.Member(str) {
		return fmt.Errorf("setting %s: %q is not a choice: %w", s.key, str, ErrValidation)
	}
	if s.Validate != nil && !s.Validate(str) {
		return fmt.Errorf("setting %s: %w", s.key, ErrValidation)
	}
	s.value = str
	if s.OnChange != nil {
		s.OnChange(str)
	}
	return nil
}

// asFloat widens the numeric types a store or JSON decoder may hand back.
func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}
