package config

// Default configuration values.
const (
	DefaultWorkDir     = "workspace"
	DefaultOutputDir   = "results"
	DefaultStateFile   = ".evolab/state.db"
	DefaultEnvironment = "local"
)

// ApplyDefaults fills empty fields with the defaults.
func ApplyDefaults(c *Config) {
	if c == nil {
		return
	}
	if c.WorkDir == "" {
		c.WorkDir = DefaultWorkDir
	}
	if c.OutputDir == "" {
		c.OutputDir = DefaultOutputDir
	}
	if c.StatePath == "" {
		c.StatePath = DefaultStateFile
	}
	if c.Environment == "" {
		c.Environment = DefaultEnvironment
	}
}
