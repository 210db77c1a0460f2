package signaling

import (
	"crypto/rand"
	"encoding/base64"
	"time"

	"ghostchat/internal/domain"
)

// roomIDBytes sizes the random room token at 384 bits, enough that
// guessing a live room id is infeasible.
const roomIDBytes = 48

// roomTTL is how long an empty room survives for rejoin.
const roomTTL = 10 * time.Minute

// maxRoomPeers is the hard cap on live connections per room.
const maxRoomPeers = 2

// room is the server-side pairing state for two peers. All mutation
// happens under the server registry lock.
type room struct {
	id         domain.RoomID
	peers      map[string]*peer // by peer id
	inviteUsed bool
	createdAt  time.Time
}

func newRoomID() (domain.RoomID, error) {
	raw := make([]byte, roomIDBytes)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	return domain.RoomID(base64.RawURLEncoding.EncodeToString(raw)), nil
}

// other returns the peer in r that is not self, if any.
func (r *room) other(self *peer) *peer {
	for id, p := range r.peers {
		if id != self.id {
			return p
		}
	}
	return nil
}

// expired reports whether an empty room has outlived its rejoin window.
func (r *room) expired(now time.Time) bool {
	return len(r.peers) == 0 && now.Sub(r.createdAt) > roomTTL
}
