package gamehost

// Config holds the configuration for the extension host.
type Config struct {
	// User is the identity that partitions persisted settings. It is
	// normalized to lowercase before use.
	User string `json:"user" yaml:"user"`
	// Listen is the address the settings surface and game feed bind to.
	Listen string `json:"listen,omitempty" yaml:"listen,omitempty"`
	// Store selects the settings persistence backend.
	Store StoreConfig `json:"store" yaml:"store"`
	// Plugins names the registered plugin factories to instantiate, in
	// order. Empty means every registered factory, in sorted name order.
	Plugins []string `json:"plugins,omitempty" yaml:"plugins,omitempty"`
	// LuaPlugins lists paths of Lua plugin scripts to load after the
	// built-in plugins.
	LuaPlugins []string `json:"lua_plugins,omitempty" yaml:"lua_plugins,omitempty"`
	// Log configures structured logging.
	Log LogConfig `json:"log,omitempty" yaml:"log,omitempty"`
}

// StoreConfig selects and configures the settings store backend.
type StoreConfig struct {
	// Driver is one of "sqlite" (default), "postgres", or "memory".
	Driver string `json:"driver,omitempty" yaml:"driver,omitempty"`
	// DSN is the database location; a file path for sqlite, a connection
	// string for postgres. Ignored by the memory driver.
	DSN string `json:"dsn,omitempty" yaml:"dsn,omitempty"`
}

// LogConfig configures the structured logger.
type LogConfig struct {
	// Level is one of debug, info, warn, error (default info).
	Level string `json:"level,omitempty" yaml:"level,omitempty"`
	// Format is "json" (default) or "text".
	Format string `json:"format,omitempty" yaml:"format,omitempty"`
}

// Store driver constants.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// DefaultListen is used when Config.Listen is empty.
const DefaultListen = "127.0.0.1:8137"
