package commands

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"ghostchat/internal/app"
)

var (
	home     string
	relayURL string
	privacy  bool
	stunURLs string

	appCtx *app.Wire
)

func Execute() error {
	root := &cobra.Command{
		Use:   "ghostchat",
		Short: "Peer-to-peer end-to-end encrypted chat",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			_ = godotenv.Load()
			if relayURL == "" {
				relayURL = os.Getenv("GHOSTCHAT_RELAY")
			}
			if relayURL == "" {
				relayURL = "http://127.0.0.1:8080"
			}
			if home == "" {
				dir, err := os.UserHomeDir()
				if err != nil {
					return err
				}
				home = filepath.Join(dir, ".ghostchat")
			}

			var stun []string
			if stunURLs != "" {
				stun = strings.Split(stunURLs, ",")
			}
			wire, err := app.NewWire(app.Config{
				Home:     home,
				RelayURL: relayURL,
				Privacy:  privacy,
				STUNURLs: stun,
			})
			if err != nil {
				return err
			}
			appCtx = wire
			return nil
		},
	}

	root.PersistentFlags().StringVar(&home, "home", "", "config dir (default ~/.ghostchat)")
	root.PersistentFlags().StringVar(&relayURL, "relay", "", "relay base URL (default $GHOSTCHAT_RELAY or http://127.0.0.1:8080)")
	root.PersistentFlags().BoolVar(&privacy, "privacy", false, "relay-only ICE, never expose direct addresses")
	root.PersistentFlags().StringVar(&stunURLs, "stun", "", "comma-separated STUN server URLs")

	root.AddCommand(hostCmd(), joinCmd(), rejoinCmd())
	return root.Execute()
}
