package config

import (
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Secret holds a sensitive string (password, API key) and keeps it out of
// logs and default formatting. The plaintext is only available through an
// explicit Expose call, which should happen at exactly one place: where the
// value is handed to the external system that needs it.
//
// Formatting a Secret (fmt verbs %v, %s, %#v) always yields "[redacted]",
// as does YAML marshalling, so a dumped Config never leaks credentials.
type Secret struct {
	value string
}

// NewSecret wraps a plaintext value in a Secret.
func NewSecret(v string) Secret {
	return Secret{value: v}
}

// Expose returns the plaintext value. Callers must treat the returned
// string as sensitive and never log it.
func (s Secret) Expose() string {
	return s.value
}

// String implements fmt.Stringer and always redacts.
func (s Secret) String() string {
	return "[redacted]"
}

// GoString implements fmt.GoStringer so %#v does not leak either.
func (s Secret) GoString() string {
	return `config.Secret("[redacted]")`
}

// UnmarshalYAML reads the secret from a YAML scalar.
func (s *Secret) UnmarshalYAML(value *yaml.Node) error {
	var plain string
	if err := value.Decode(&plain); err != nil {
		return errors.Wrap(err, "failed to decode secret value")
	}

	s.value = plain
	return nil
}

// MarshalYAML redacts the secret when the config is serialized.
func (Secret) MarshalYAML() (any, error) {
	return "[redacted]", nil
}
