package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/TimurManjosov/goprofiles/internal/cli"
)

var profilesCmd = &cobra.Command{
	Use:   "profiles",
	Short: "List registered profiles",
	Long: `List the providers of every tier in the order they are consulted.
The last entry of each tier is its default profile.

Example:
  profilectl profiles --format json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := outputFormat()
		if err != nil {
			return err
		}
		c, err := newClient()
		if err != nil {
			return err
		}
		ctx, cancel := requestContext(cmd)
		defer cancel()

		p, err := c.Profiles(ctx)
		if err != nil {
			return fmt.Errorf("failed to list profiles: %w", err)
		}
		if quiet {
			return nil
		}
		return cli.PrintProfiles(os.Stdout, p, f)
	},
}

func init() {
	rootCmd.AddCommand(profilesCmd)
}
