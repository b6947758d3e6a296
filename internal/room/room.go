// Package room derives canonical identifiers for two-party chat rooms.
package room

import "strings"

const separator = ":"

// Participant IDs are escaped before joining so that an identity which
// itself contains the separator can never collide with another pair.
var escaper = strings.NewReplacer("%", "%25", separator, "%3A")

// ID returns the room identifier shared by two users. It is a pure,
// order-independent function: ID(a, b) == ID(b, a), and distinct unordered
// pairs always map to distinct identifiers. Both participants can compute
// it locally without a negotiation round-trip.
func ID(userA, userB string) string {
	a := escaper.Replace(userA)
	b := escaper.Replace(userB)
	if b < a {
		a, b = b, a
	}
	return a + separator + b
}
