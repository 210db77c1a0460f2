package commands

import (
	"github.com/spf13/cobra"
)

func rejoinCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rejoin",
		Short: "Re-enter the last room using the stored handle",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := appCtx.NewSession()
			if err != nil {
				return err
			}
			if err := s.Rejoin(cmd.Context()); err != nil {
				return err
			}
			return runChat(s)
		},
	}
}
