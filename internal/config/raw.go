package config

// RawConfig mirrors the YAML file. Pointer fields distinguish "absent" from
// "zero" so absent keys keep their defaults.
type RawConfig struct {
	Display      *string    `yaml:"display"`
	Mode         *Mode      `yaml:"mode"`
	PollInterval *Duration  `yaml:"poll_interval"`
	LogLevel     *string    `yaml:"log_level"`
	Format       *Format    `yaml:"format"`
	Color        *ColorMode `yaml:"color"`
}
