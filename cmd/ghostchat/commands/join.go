package commands

import (
	"github.com/spf13/cobra"

	"ghostchat/internal/domain"
)

func joinCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "join <room-id>",
		Short: "Join a room by invite id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := appCtx.NewSession()
			if err != nil {
				return err
			}
			if err := s.Join(cmd.Context(), domain.RoomID(args[0])); err != nil {
				return err
			}
			return runChat(s)
		},
	}
}
