package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/wenzapen/page-loader/version"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "print version",
		Long:  "print version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			version.Printer(cmd.OutOrStdout())
		},
	}
}

// NewRootCmd builds the page-loader command:
//
//	page-loader --output <directory> <url>
func NewRootCmd() *cobra.Command {
	o := &loadOptions{}
	rootCmd := &cobra.Command{
		Use:   "page-loader [flags] <url>",
		Short: "download a web page for offline viewing",
		Long: "Download a web page together with the images, styles and scripts served\n" +
			"from its host. The page is saved as <name>.html, resources go to <name>_files\n" +
			"and the path of the saved page is printed.",
		Example:       "  page-loader --output . https://example.com",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.run(cmd, args[0])
		},
	}
	o.bindFlags(rootCmd.Flags())
	rootCmd.AddCommand(newVersionCmd())
	return rootCmd
}

func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
