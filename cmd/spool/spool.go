// Package spoolcmder
package spoolcmder

import (
	"github.com/spf13/cobra"

	configcmder "github.com/papercomputeco/spool/cmd/spool/config"
	decodecmder "github.com/papercomputeco/spool/cmd/spool/decode"
	tailcmder "github.com/papercomputeco/spool/cmd/spool/tail"
	versioncmder "github.com/papercomputeco/spool/cmd/version"
)

const spoolLongDesc string = `Spool decodes streaming LLM responses.

It splits server-sent event streams into frames, normalizes OpenAI and
Anthropic wire dialects into a common event set, and accumulates deltas
into finished messages.

  spool decode [file]    Decode a captured stream (or stdin)
  spool tail <file>      Follow a growing capture file
  spool config           Manage persistent configuration`

const spoolShortDesc string = "Spool - streaming LLM response decoder"

func NewSpoolCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "spool",
		Short: spoolShortDesc,
		Long:  spoolLongDesc,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Override the .spool/ config directory")

	// Add subcommands
	cmd.AddCommand(decodecmder.NewDecodeCmd())
	cmd.AddCommand(tailcmder.NewTailCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
