package cmd

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/solaproject/sola/internal/config"
	"github.com/solaproject/sola/internal/ui"
)

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or create the configuration",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "path",
			Short: "Print the config file path",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Println(config.Path())
			},
		},
		&cobra.Command{
			Use:   "show",
			Short: "Print the effective configuration as TOML",
			Run: func(cmd *cobra.Command, args []string) {
				cfg, err := loadConfig()
				if err != nil {
					fail("%v", err)
				}
				if err := toml.NewEncoder(os.Stdout).Encode(cfg); err != nil {
					fail("encode: %v", err)
				}
			},
		},
		&cobra.Command{
			Use:   "init",
			Short: "Write the default config file if none exists",
			Run: func(cmd *cobra.Command, args []string) {
				if err := config.EnsureExists(); err != nil {
					fail("%v", err)
				}
				ui.Good.Printf("  %s %s\n", ui.StatusIcon(true), config.Path())
			},
		},
	)

	return cmd
}
