package apiserver

import (
	"github.com/spf13/cobra"

	"github.com/pawskey/ceremony-manager/internal/business"
	"github.com/pawskey/ceremony-manager/internal/cmdutils"
)

func Cmd(buildInfo string) *cobra.Command {
	return cmdutils.CobraCommand(
		"api-server",
		"Ceremony Manager API server",
		"Ceremony Manager API server hosts the public passkey ceremony HTTP API",
		buildInfo,
		cmdutils.RunAsService,
		business.Main,
	)
}
