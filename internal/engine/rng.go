package engine

import (
	"crypto/hmac"
	"crypto/sha256"
	"fmt"
	"math"
)

// ByteGenerator produces a deterministic byte stream from a world seed and
// an arbitrary string key using HMAC-SHA256. The stream depends only on
// (seed, key), never on call order or process state, so any value derived
// from it is reproducible across runs.
type ByteGenerator struct {
	seed         string
	key          string
	currentRound uint64
	currentPos   int
	buffer       [32]byte
}

// NewByteGenerator creates a generator positioned at the given cursor
// within the (seed, key) stream.
func NewByteGenerator(seed, key string, cursor uint64) *ByteGenerator {
	bg := &ByteGenerator{
		seed:         seed,
		key:          key,
		currentRound: cursor / 32,
		currentPos:   int(cursor % 32),
	}

	// Always generate the initial round
	bg.generateRound()

	return bg
}

// Next returns the next byte from the generator.
func (bg *ByteGenerator) Next() byte {
	// Check if we need to advance to the next round
	if bg.currentPos >= 32 {
		bg.currentRound++
		bg.currentPos = 0
		bg.generateRound()
	}

	b := bg.buffer[bg.currentPos]
	bg.currentPos++
	return b
}

// NextFloat generates the next float in [0, 1) using exactly 4 bytes.
func (bg *ByteGenerator) NextFloat() float64 {
	b0 := bg.Next()
	b1 := bg.Next()
	b2 := bg.Next()
	b3 := bg.Next()

	return bytesToFloat([4]byte{b0, b1, b2, b3})
}

func (bg *ByteGenerator) generateRound() {
	h := hmac.New(sha256.New, []byte(bg.seed))
	message := fmt.Sprintf("%s:%d", bg.key, bg.currentRound)
	h.Write([]byte(message))
	copy(bg.buffer[:], h.Sum(nil))
}

// bytesToFloat converts exactly 4 bytes to float64 using the sum of
// b_i / 256^(i+1), which yields a value in [0, 1).
func bytesToFloat(bytes [4]byte) float64 {
	result := 0.0
	for i, b := range bytes {
		divider := math.Pow(256, float64(i+1))
		result += float64(b) / divider
	}
	return result
}

// Hash01 maps (seed, key) to a single reproducible float in [0, 1).
// This is the primitive behind cache spawn decisions and initial token
// counts: same seed and key always produce the same value.
func Hash01(seed, key string) float64 {
	return NewByteGenerator(seed, key, 0).NextFloat()
}

// Floats generates count floats from the (seed, key) stream starting at
// the given cursor.
func Floats(seed, key string, cursor uint64, count int) []float64 {
	bg := NewByteGenerator(seed, key, cursor)
	floats := make([]float64, count)

	for i := 0; i < count; i++ {
		floats[i] = bg.NextFloat()
	}

	return floats
}

// FloatsInto fills the provided slice with floats, avoiding allocation
// when the caller already owns a buffer of sufficient size.
func FloatsInto(dst []float64, seed, key string, cursor uint64, count int) []float64 {
	if len(dst) < count {
		dst = make([]float64, count)
	}

	bg := NewByteGenerator(seed, key, cursor)

	for i := 0; i < count; i++ {
		dst[i] = bg.NextFloat()
	}

	return dst[:count]
}
