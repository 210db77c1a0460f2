package types

// RoomID is the 384-bit random token minted by the relay for one room.
type RoomID string

// String returns the string form of the room id.
func (id RoomID) String() string { return string(id) }

// Role says which side of the room a peer occupies.
type Role string

const (
	// RoleHost created the room and drives the offer/answer exchange.
	RoleHost Role = "host"
	// RoleGuest joined through the one-time invite and answers.
	RoleGuest Role = "guest"
)

// String returns the string form of the role.
func (r Role) String() string { return string(r) }

// Valid reports whether r is one of the two defined roles.
func (r Role) Valid() bool { return r == RoleHost || r == RoleGuest }

// Fingerprint is the human-comparable safety number derived from both
// parties' public keys, formatted as 8 space-separated groups of 4
// uppercase hex characters.
type Fingerprint string

// String returns the string form of the fingerprint.
func (f Fingerprint) String() string { return string(f) }
