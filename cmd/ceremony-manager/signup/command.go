package signup

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pawskey/ceremony-manager/internal/business"
	"github.com/pawskey/ceremony-manager/internal/cmdutils"
	"github.com/pawskey/ceremony-manager/internal/config"
)

func Cmd(buildInfo string) *cobra.Command {
	var userName string

	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Run a single registration ceremony",
		Long:  "Runs one passkey registration ceremony against the configured broker and exits",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := cmdutils.LoadConfig(buildInfo)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			err = cmdutils.RunAsJob(cmd.Context(), func(ctx context.Context, cfg *config.Config) error {
				return business.SignUpMain(ctx, cfg, userName)
			}, cfg)
			if err != nil {
				return fmt.Errorf("running the signup ceremony: %w", err)
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&userName, "username", "", "user name to register the passkey for")
	_ = cmd.MarkFlagRequired("username")

	return cmd
}
