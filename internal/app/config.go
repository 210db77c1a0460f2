package app

// Config holds runtime wiring options for building the app.
type Config struct {
	Home     string   // config directory, e.g. $HOME/.ghostchat
	RelayURL string   // relay base URL, e.g. http://127.0.0.1:8080
	Privacy  bool     // relay-only ICE, hide direct candidates
	STUNURLs []string // optional STUN override
}
