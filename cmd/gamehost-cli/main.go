// Package main provides the gamehost-cli command-line tool for inspecting
// and validating host configuration and plugins.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	gamehost "github.com/veldt-labs/gamehost"
	"github.com/veldt-labs/gamehost/internal/version"
	"github.com/veldt-labs/gamehost/plugin"
	"github.com/veldt-labs/gamehost/plugin/luaext"

	// Register built-in plugins so they appear in the plugin list.
	_ "github.com/veldt-labs/gamehost/internal/plugins/chatfilter"
	_ "github.com/veldt-labs/gamehost/internal/plugins/sessionclock"
)

func main() {
	root := &cobra.Command{
		Use:           "gamehost-cli",
		Short:         "gamehost command line tool",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(validateCmd(), pluginsCmd(), checkCmd(), versionCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <config-file>",
		Short: "Validate a host configuration file (JSON/YAML)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := gamehost.LoadConfig(args[0])
			if err != nil {
				return err
			}
			if err := gamehost.ValidateConfig(*cfg); err != nil {
				return err
			}

			driver := cfg.Store.Driver
			if driver == "" {
				driver = gamehost.DriverSQLite
			}
			fmt.Println("Config is valid")
			fmt.Printf("  User:    %s\n", cfg.User)
			fmt.Printf("  Store:   %s\n", driver)
			if len(cfg.Plugins) > 0 {
				fmt.Printf("  Plugins: %s\n", strings.Join(cfg.Plugins, ", "))
			} else {
				fmt.Printf("  Plugins: all registered (%s)\n", strings.Join(plugin.FactoryNames(), ", "))
			}
			for _, path := range cfg.LuaPlugins {
				fmt.Printf("  Lua:     %s\n", path)
			}
			return nil
		},
	}
}

func pluginsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "plugins",
		Short: "List registered built-in plugins and their settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			names := plugin.FactoryNames()
			if len(names) == 0 {
				fmt.Println("No plugins registered.")
				return nil
			}
			for _, name := range names {
				f, _ := plugin.LookupFactory(name)
				p := f()
				state := "disabled"
				if p.Settings().Enabled() {
					state = "enabled"
				}
				fmt.Printf("%s by %s (%s by default)\n", p.Name(), p.Author(), state)
				for _, st := range p.Settings().Listed() {
					fmt.Printf("  %-20s %-7s %s\n", st.Key(), st.Kind(), st.DisplayText())
				}
			}
			return nil
		},
	}
}

// checkCmd loads a Lua plugin script without running the host, surfacing
// declaration errors before deploy.
func checkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check <script.lua>",
		Short: "Load a Lua plugin script and report its declarations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := luaext.Load(args[0])
			if err != nil {
				return err
			}
			defer p.Close()

			fmt.Printf("%s by %s\n", p.Name(), p.Author())
			for _, st := range p.Settings().Listed() {
				fmt.Printf("  %-20s %-7s %s\n", st.Key(), st.Kind(), st.DisplayText())
			}
			if hooks := p.Hooks().Names(); len(hooks) > 0 {
				fmt.Printf("  hooks: %s\n", strings.Join(hooks, ", "))
			}
			return nil
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version info",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("gamehost-cli", version.String())
		},
	}
}
