package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewValidateCmd parses the config file, including schema validation of the
// rule tables, and reports the result.
func NewValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the config file and its rule tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			fmt.Printf("Config OK: rules=%s (%d anti-skip, %d skip), lexicon=%s (%d languages)\n",
				cfg.Rules.Version, len(cfg.Rules.AntiSkip), len(cfg.Rules.Skip),
				cfg.Lexicon.Version, len(cfg.Lexicon.Languages))
			return nil
		},
	}
}
