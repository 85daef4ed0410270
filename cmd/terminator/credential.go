package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/terminatorcore/terminator/credential"
)

func newCredentialCommand(root *rootFlags) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "credential",
		Short: "Resolve the access key and print it with the secret masked",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := loadConfig(root)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("file") {
				app.Credential.File = file
			}

			provider, err := credential.NewProviderWithOptions(&app.Credential)
			if err != nil {
				return err
			}
			defer provider.Close()

			c, err := provider.Retrieve(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), c.String())
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", credential.DefaultFilePath, "credential file, first line id and second line secret")
	return cmd
}
