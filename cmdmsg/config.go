package cmdmsg

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config declares a session's command table and protocol settings in a YAML
// document, so the host-side table can live next to the device sketch it
// must mirror:
//
//	commands:
//	  - name: who_are_you
//	  - name: my_name_is
//	    formats: s
//	  - name: sum_two_ints
//	    formats: ii
//	separators:
//	  field: ","
//	  command: ";"
//	  escape: "/"
//	poll_interval: 250ms
//
// Command order in the document defines the wire ids. Separators and
// poll_interval are optional; format strings are validated at load time.
type Config struct {
	Commands     []CommandConfig  `yaml:"commands"`
	Separators   *SeparatorConfig `yaml:"separators"`
	PollInterval Duration         `yaml:"poll_interval"`
}

// Duration is a time.Duration that unmarshals from YAML duration strings
// such as "250ms".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var text string
	if err := value.Decode(&text); err != nil {
		return err
	}

	parsed, err := time.ParseDuration(text)
	if err != nil {
		return fmt.Errorf("cmdmsg: invalid duration %q: %w", text, err)
	}
	*d = Duration(parsed)

	return nil
}

// CommandConfig declares one command: its name and, optionally, its default
// argument format string.
type CommandConfig struct {
	Name    string `yaml:"name"`
	Formats string `yaml:"formats"`
}

// SeparatorConfig declares the three separator bytes as one-character
// strings.
type SeparatorConfig struct {
	Field   string `yaml:"field"`
	Command string `yaml:"command"`
	Escape  string `yaml:"escape"`
}

// LoadConfig reads and validates a YAML session configuration file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cmdmsg: read config: %w", err)
	}

	return ParseConfig(data)
}

// ParseConfig parses and validates a YAML session configuration document.
func ParseConfig(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("cmdmsg: parse config: %w", err)
	}

	if len(cfg.Commands) == 0 {
		return nil, fmt.Errorf("cmdmsg: config declares no commands")
	}
	for i, cmd := range cfg.Commands {
		if cmd.Name == "" {
			return nil, fmt.Errorf("cmdmsg: config command %d has no name", i)
		}
		if _, err := ParseFormats(cmd.Formats); err != nil {
			return nil, fmt.Errorf("cmdmsg: config command %q: %w", cmd.Name, err)
		}
	}

	if cfg.Separators != nil {
		if _, err := cfg.Separators.separators(); err != nil {
			return nil, err
		}
	}
	if cfg.PollInterval < 0 {
		return nil, fmt.Errorf("cmdmsg: config poll_interval %v is negative", time.Duration(cfg.PollInterval))
	}

	return cfg, nil
}

// CommandNames returns the ordered command name list for NewSession.
func (c *Config) CommandNames() []string {
	names := make([]string, len(c.Commands))
	for i, cmd := range c.Commands {
		names[i] = cmd.Name
	}

	return names
}

// SessionOptions converts the configuration into functional session options.
func (c *Config) SessionOptions() []SessionOption {
	opts := make([]SessionOption, 0, 3)

	formats := make(map[string]string)
	for _, cmd := range c.Commands {
		if cmd.Formats != "" {
			formats[cmd.Name] = cmd.Formats
		}
	}
	if len(formats) > 0 {
		opts = append(opts, WithCommandFormats(formats))
	}

	if c.Separators != nil {
		sep, _ := c.Separators.separators()
		opts = append(opts, WithSeparators(sep))
	}

	if c.PollInterval > 0 {
		opts = append(opts, WithPollInterval(time.Duration(c.PollInterval)))
	}

	return opts
}

// separators converts the one-character strings into separator bytes.
func (sc *SeparatorConfig) separators() (Separators, error) {
	sep := DefaultSeparators()

	for _, field := range []struct {
		name  string
		value string
		dst   *byte
	}{
		{"field", sc.Field, &sep.Field},
		{"command", sc.Command, &sep.Command},
		{"escape", sc.Escape, &sep.Escape},
	} {
		if field.value == "" {
			continue
		}
		if len(field.value) != 1 {
			return sep, fmt.Errorf("%w: %s separator %q is not a single character",
				ErrInvalidSeparators, field.name, field.value)
		}
		*field.dst = field.value[0]
	}

	if err := sep.Validate(); err != nil {
		return sep, err
	}

	return sep, nil
}
