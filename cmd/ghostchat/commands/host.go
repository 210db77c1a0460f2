package commands

import (
	"github.com/spf13/cobra"
)

func hostCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "host",
		Short: "Create a room and wait for a peer to join",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := appCtx.NewSession()
			if err != nil {
				return err
			}
			if err := s.Host(cmd.Context()); err != nil {
				return err
			}
			return runChat(s)
		},
	}
}
