package log

// Config configures the logger.
type Config struct {
	// Name is attached to every entry as the "logger" field.
	Name string `conf:"name" yaml:"name" json:"name"`

	// Level is one of debug, info, warn, error. Defaults to info.
	Level string `conf:"level" yaml:"level" json:"level"`

	// Format is one of json, console. Defaults to json.
	Format string `conf:"format" yaml:"format" json:"format"`

	// Debug enables caller annotation and development-friendly output.
	Debug bool `conf:"debug" yaml:"debug" json:"debug"`

	// File writes entries to the given path with rotation instead of stderr.
	File       string `conf:"file" yaml:"file" json:"file"`
	MaxSize    int    `conf:"max_size" yaml:"max_size" json:"max_size"`
	MaxBackups int    `conf:"max_backups" yaml:"max_backups" json:"max_backups"`
	MaxAge     int    `conf:"max_age" yaml:"max_age" json:"max_age"`
}
