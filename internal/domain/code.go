package domain

import (
	"crypto/rand"
	"fmt"
)

const (
	// RoomCodeLength is the number of symbols in a room code.
	RoomCodeLength = 6
	// RoomCodeChars omits I, O, 0 and 1.
	RoomCodeChars = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
)

// NewRoomCode samples a random room code. len(RoomCodeChars) divides 256, so
// the modulo does not bias the draw.
func NewRoomCode() (string, error) {
	b := make([]byte, RoomCodeLength)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate room code: %w", err)
	}
	code := make([]byte, RoomCodeLength)
	for i := range code {
		code[i] = RoomCodeChars[int(b[i])%len(RoomCodeChars)]
	}
	return string(code), nil
}
