package script

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// manifestFile is the fixed manifest name inside each command directory.
const manifestFile = "manifest.yaml"

// defaultTimeout bounds a script invocation when the manifest does not
// set one.
const defaultTimeout = 5 * time.Second

// namePattern restricts command names to what the console tokenizer can
// route: no whitespace, lowercase alphanumerics with separators.
var namePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)

// Manifest describes one scripted command.
type Manifest struct {
	// Name is the command name registered on the console.
	Name string `yaml:"name"`

	// Description is shown by help-style listings.
	Description string `yaml:"description"`

	// Entry is the Lua file relative to the command directory.
	// Defaults to init.lua.
	Entry string `yaml:"entry"`

	// Timeout bounds one invocation, as a duration string ("2s").
	Timeout string `yaml:"timeout"`
}

// ReadManifest loads and validates the manifest in dir.
func ReadManifest(dir string) (Manifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, manifestFile))
	if err != nil {
		return Manifest{}, fmt.Errorf("reading manifest in %s: %w", dir, err)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return Manifest{}, fmt.Errorf("parsing manifest in %s: %w", dir, err)
	}
	if m.Entry == "" {
		m.Entry = "init.lua"
	}
	if err := m.validate(); err != nil {
		return Manifest{}, fmt.Errorf("manifest in %s: %w", dir, err)
	}
	return m, nil
}

func (m Manifest) validate() error {
	if m.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidManifest)
	}
	if !namePattern.MatchString(m.Name) {
		return fmt.Errorf("%w: name %q is not a valid command name", ErrInvalidManifest, m.Name)
	}
	if filepath.IsAbs(m.Entry) || filepath.Clean(m.Entry) != m.Entry || m.Entry == ".." {
		return fmt.Errorf("%w: entry %q must be a plain relative path", ErrInvalidManifest, m.Entry)
	}
	if _, err := m.timeout(); err != nil {
		return err
	}
	return nil
}

// timeout parses the configured timeout, falling back to the default.
func (m Manifest) timeout() (time.Duration, error) {
	if m.Timeout == "" {
		return defaultTimeout, nil
	}
	d, err := time.ParseDuration(m.Timeout)
	if err != nil {
		return 0, fmt.Errorf("%w: bad timeout %q", ErrInvalidManifest, m.Timeout)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%w: timeout must be positive", ErrInvalidManifest)
	}
	return d, nil
}
