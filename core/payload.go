package core

import (
	"bytes"

	"primechain/interfaces"
)

// DefaultInitialPayloadLen adalah panjang awal payload GrowingPayload.
const DefaultInitialPayloadLen = 200

// GrowingPayload menghasilkan payload berisi byte Fill sepanjang
// InitialLen + number, jadi setiap blok satu byte lebih panjang dari
// blok sebelumnya (blok 1 = InitialLen+1 byte).
type GrowingPayload struct {
	InitialLen int
	Fill       byte
}

var _ interfaces.PayloadSource = GrowingPayload{}

func NewGrowingPayload(initialLen int) GrowingPayload {
	if initialLen < 0 {
		initialLen = DefaultInitialPayloadLen
	}
	return GrowingPayload{InitialLen: initialLen, Fill: 'a'}
}

func (p GrowingPayload) Next(number uint64) []byte {
	return bytes.Repeat([]byte{p.Fill}, p.InitialLen+int(number))
}

// FixedPayload selalu mengembalikan payload yang sama.
type FixedPayload []byte

func (p FixedPayload) Next(uint64) []byte {
	return append([]byte{}, p...)
}
