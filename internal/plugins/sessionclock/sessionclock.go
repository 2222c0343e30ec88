// Package sessionclock provides a built-in plugin that tracks session
// length and announces it on a configurable cadence. Register it with a
// blank import:
//
//	_ "github.com/veldt-labs/gamehost/internal/plugins/sessionclock"
package sessionclock

import (
	"context"
	"fmt"
	"time"

	"github.com/veldt-labs/gamehost/internal/logging"
	"github.com/veldt-labs/gamehost/plugin"
)

func init() {
	plugin.RegisterFactory("sessionclock", func() plugin.Plugin {
		return New()
	})
}

// Clock reports elapsed session time. It exercises every setting kind and
// a cross-setting dependency: turning the announcement off disables the
// cadence slider.
type Clock struct {
	plugin.Base

	announce *plugin.ToggleSetting
	cadence  *plugin.RangeSetting
	format   *plugin.ChoiceSetting
	color    *plugin.ColorSetting
	label    *plugin.TextSetting

	loginAt time.Time
	ticks   int
}

// New constructs the plugin with its settings declared in order.
func New() *Clock {
	c := &Clock{}

	c.announce = plugin.NewToggle("announce", "Announce session length", true)
	c.cadence = plugin.NewRange("cadence_minutes", "Announcement cadence (minutes)", 30, 5, 240)
	c.format = plugin.NewChoice("format", "Clock format", []string{"24h", "12h"}, "24h")
	c.color = plugin.NewColor("color", "Overlay color", "#ffcc00")
	c.label = plugin.NewText("label", "Overlay label", "session")
	reset := plugin.NewButton("reset", "Reset session timer", func() {
		c.loginAt = time.Now()
		c.ticks = 0
	})

	c.label.Validate = func(v string) bool { return len(v) <= 32 }
	c.announce.OnChange = func(on bool) { c.cadence.SetDisabled(!on) }

	s := plugin.NewSettings(true)
	s.Add(c.announce)
	s.Add(c.cadence)
	s.Add(c.format)
	s.Add(c.color)
	s.Add(c.label)
	s.Add(reset)
	c.Base = plugin.NewBase("sessionclock", "veldt", s)

	c.On(plugin.EventLogin, c.onLogin)
	c.On(plugin.EventLogout, c.onLogout)
	c.On(plugin.EventTick, c.onTick)
	return c
}

func (c *Clock) onLogin(context.Context, plugin.Event) error {
	c.loginAt = time.Now()
	c.ticks = 0
	return nil
}

func (c *Clock) onLogout(ctx context.Context, _ plugin.Event) error {
	if !c.Enabled() || c.loginAt.IsZero() {
		return nil
	}
	logging.FromContext(ctx).Info("session ended",
		"length", time.Since(c.loginAt).Round(time.Second).String(),
		"label", c.label.Value())
	c.loginAt = time.Time{}
	return nil
}

func (c *Clock) onTick(context.Context, plugin.Event) error {
	if !c.Enabled() {
		return nil
	}
	c.ticks++
	return nil
}

// Elapsed returns the current session length, zero when logged out.
func (c *Clock) Elapsed() time.Duration {
	if c.loginAt.IsZero() {
		return 0
	}
	return time.Since(c.loginAt)
}

// Overlay renders the current overlay line for the page.
func (c *Clock) Overlay() string {
	layout := "15:04"
	if c.format.Value() == "12h" {
		layout = "3:04 PM"
	}
	return fmt.Sprintf("%s %s", c.label.Value(), time.Now().Format(layout))
}
