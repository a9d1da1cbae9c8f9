package config

// CLIConfig is the configuration for snapkv-cli.
type CLIConfig struct {
	DefaultServer string `yaml:"default_server" json:"default_server"`
	DefaultOutput string `yaml:"default_output" json:"default_output"` // table, json, yaml

	// Servers maps alias names to server addresses.
	Servers map[string]string `yaml:"servers,omitempty" json:"servers,omitempty"`
}

// Default returns the default CLI configuration.
func Default() *CLIConfig {
	return &CLIConfig{
		DefaultServer: "localhost:5080",
		DefaultOutput: "table",
		Servers:       make(map[string]string),
	}
}

// Resolve maps a server alias to its address. Anything that is not an
// alias is returned unchanged; an empty name resolves to DefaultServer.
func (c *CLIConfig) Resolve(name string) string {
	if name == "" {
		name = c.DefaultServer
	}
	if addr, ok := c.Servers[name]; ok {
		return addr
	}
	return name
}
