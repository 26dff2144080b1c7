package signin

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/pawskey/ceremony-manager/internal/business"
	"github.com/pawskey/ceremony-manager/internal/cmdutils"
	"github.com/pawskey/ceremony-manager/internal/config"
)

func Cmd(buildInfo string) *cobra.Command {
	return cmdutils.CobraCommand(
		"signin",
		"Run a single assertion ceremony",
		"Runs one passkey assertion ceremony against the configured broker and exits",
		buildInfo,
		cmdutils.RunAsJob,
		func(ctx context.Context, cfg *config.Config) error {
			return business.SignInMain(ctx, cfg)
		},
	)
}
