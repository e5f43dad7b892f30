package dialect

import (
	"fmt"

	"github.com/papercomputeco/spool/pkg/llm/dialect/anthropic"
	"github.com/papercomputeco/spool/pkg/llm/dialect/openai"
)

// Supported dialect name constants
const (
	Anthropic = "anthropic"
	OpenAI    = "openai"
)

// Supported returns the list of all supported dialect names.
func Supported() []string {
	return []string{Anthropic, OpenAI}
}

// New creates a Dialect instance for the given name.
// Returns an error if the name is not recognized.
func New(name string) (Dialect, error) {
	switch name {
	case Anthropic:
		return anthropic.New(), nil
	case OpenAI:
		return openai.New(), nil
	default:
		return nil, fmt.Errorf("unknown dialect: %q (supported: %v)", name, Supported())
	}
}
