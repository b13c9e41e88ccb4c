package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/quadwarp/internal/config"
	"github.com/MeKo-Tech/quadwarp/internal/output"
)

func newConfigCommand(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and generate configuration",
	}

	var format string
	show := &cobra.Command{
		Use:   "show",
		Short: "Print the resolved configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := output.ParseFormat(format)
			if err != nil {
				return err
			}
			return output.WriteValue(cmd.OutOrStdout(), c.cfg, f)
		},
	}
	show.Flags().StringVarP(&format, "format", "f", "yaml", "output format: json or yaml")

	var force bool
	initCmd := &cobra.Command{
		Use:   "init [FILE]",
		Short: "Write a configuration file holding every default",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.ConfigFileName + ".yaml"
			if len(args) == 1 {
				path = args[0]
			}
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}
			if err := config.GenerateDefaultConfigFile(path); err != nil {
				return fmt.Errorf("failed to write config file: %w", err)
			}
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "Configuration written to %s\n", path)
			return err
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")

	paths := &cobra.Command{
		Use:   "paths",
		Short: "Show where configuration is looked up",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			c.loader.PrintConfigInfo(cmd.OutOrStdout())
		},
	}

	cmd.AddCommand(show, initCmd, paths)
	return cmd
}
