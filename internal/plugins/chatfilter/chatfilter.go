// Package chatfilter provides a built-in plugin that mutes chat lines
// containing blocked words. Register it with a blank import:
//
//	_ "github.com/veldt-labs/gamehost/internal/plugins/chatfilter"
package chatfilter

import (
	"context"
	"strings"

	"github.com/veldt-labs/gamehost/internal/logging"
	"github.com/veldt-labs/gamehost/plugin"
)

func init() {
	plugin.RegisterFactory("chatfilter", func() plugin.Plugin {
		return New()
	})
}

// Filter mutes chat messages containing any configured blocked word.
type Filter struct {
	plugin.Base

	words         *plugin.TextSetting
	caseSensitive *plugin.ToggleSetting

	muted int
}

// New constructs the plugin.
func New() *Filter {
	f := &Filter{}

	f.words = plugin.NewText("blocked_words", "Blocked words (comma separated)", "")
	f.caseSensitive = plugin.NewToggle("case_sensitive", "Case sensitive", false)

	s := plugin.NewSettings(false)
	s.Add(f.words)
	s.Add(f.caseSensitive)
	f.Base = plugin.NewBase("chatfilter", "veldt", s)

	f.On("chat", f.onChat)
	return f
}

func (f *Filter) onChat(ctx context.Context, ev plugin.Event) error {
	if !f.Enabled() || len(ev.Args) == 0 {
		return nil
	}
	line, ok := ev.Args[0].(string)
	if !ok {
		return nil
	}
	if word, blocked := f.Blocked(line); blocked {
		f.muted++
		logging.FromContext(ctx).Debug("muted chat line", "word", word)
	}
	return nil
}

// Blocked reports whether a chat line contains a blocked word, and which.
func (f *Filter) Blocked(line string) (string, bool) {
	raw := strings.Split(f.words.Value(), ",")
	if !f.caseSensitive.Value() {
		line = strings.ToLower(line)
	}
	for _, w := range raw {
		w = strings.TrimSpace(w)
		if w == "" {
			continue
		}
		if !f.caseSensitive.Value() {
			w = strings.ToLower(w)
		}
		if strings.Contains(line, w) {
			return w, true
		}
	}
	return "", false
}

// Muted returns how many lines have been muted this session.
func (f *Filter) Muted() int { return f.muted }
