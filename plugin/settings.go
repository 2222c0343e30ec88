package plugin

import "fmt"

// SettingSet is a plugin's insertion-ordered settings map. Every set owns a
// reserved enable toggle created at construction; it is reported by Enable
// and All but excluded from Listed, matching how the settings surface renders
// it in the plugin's summary row.
type SettingSet struct {
	order  []string
	byKey  map[string]Setting
	enable *ToggleSetting
}

// NewSettings creates a SettingSet seeded with the enable toggle set to the
// plugin's default.
func NewSettings(enabledByDefault bool) *SettingSet {
	s := &SettingSet{byKey: make(map[string]Setting)}
	s.enable = NewToggle(EnableKey, "Enable", enabledByDefault)
	s.add(s.enable)
	return s
}

// Add appends a setting in declaration order. A duplicate or reserved key is
// a plugin-author configuration error and panics.
func (s *SettingSet) Add(st Setting) {
	if st == nil {
		panic("plugin: Add called with nil setting")
	}
	if st.Key() == EnableKey {
		panic("plugin: setting key \"enable\" is reserved")
	}
	if _, exists := s.byKey[st.Key()]; exists {
		panic(fmt.Sprintf("plugin: duplicate setting key %q", st.Key()))
	}
	s.add(st)
}

func (s *SettingSet) add(st Setting) {
	s.order = append(s.order, st.Key())
	s.byKey[st.Key()] = st
}

// Get returns the setting with the given key.
func (s *SettingSet) Get(key string) (Setting, bool) {
	st, ok := s.byKey[key]
	return st, ok
}

// Enable returns the reserved enable toggle.
func (s *SettingSet) Enable() *ToggleSetting { return s.enable }

// Enabled reports the current value of the enable toggle.
func (s *SettingSet) Enabled() bool { return s.enable.Value() }

// All returns every setting, including enable, in declaration order.
func (s *SettingSet) All() []Setting {
	out := make([]Setting, 0, len(s.order))
	for _, k := range s.order {
		out = append(out, s.byKey[k])
	}
	return out
}

// Listed returns the settings shown in the per-plugin detail list: everything
// except the enable toggle, in declaration order.
func (s *SettingSet) Listed() []Setting {
	out := make([]Setting, 0, len(s.order)-1)
	for _, k := range s.order {
		if k == EnableKey {
			continue
		}
		out = append(out, s.byKey[k])
	}
	return out
}

// Len returns the number of settings, including enable.
func (s *SettingSet) Len() int { return len(s.order) }

// Snapshot returns the flat key-to-primitive map persisted for this set.
// Settings without a value (buttons) are omitted.
func (s *SettingSet) Snapshot() map[string]any {
	out := make(map[string]any, len(s.order))
	for _, k := range s.order {
		if v, ok := s.byKey[k].Snapshot(); ok {
			out[k] = v
		}
	}
	return out
}
