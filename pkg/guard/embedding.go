package guard

import (
	"context"
	"crypto/sha256"
	"math"

	chromem "github.com/philippgille/chromem-go"
)

// EmbeddingDim is the dimensionality of the deterministic pseudo-embedding.
// 12 SHA-256 digests of 32 bytes each, mapped into [-1,1] and normalized.
const EmbeddingDim = 384

const embedBlocks = EmbeddingDim / sha256.Size

// Embed maps text to a unit-norm 384-float vector. The mapping is pure:
// the same text always produces the same vector, with no model dependency.
// Block i is SHA-256(text || uint16_be(i)); each digest byte b becomes
// (b/255)*2-1.
func Embed(text string) []float64 {
	vec := make([]float64, EmbeddingDim)
	raw := []byte(text)
	buf := make([]byte, len(raw)+2)
	copy(buf, raw)
	for i := 0; i < embedBlocks; i++ {
		buf[len(raw)] = byte(i >> 8)
		buf[len(raw)+1] = byte(i)
		digest := sha256.Sum256(buf)
		for j, b := range digest {
			vec[i*sha256.Size+j] = float64(b)/255.0*2.0 - 1.0
		}
	}
	return normalize(vec)
}

// Embed32 is Embed converted to float32, the element type chromem stores.
func Embed32(text string) []float32 {
	v64 := Embed(text)
	v32 := make([]float32, len(v64))
	for i, x := range v64 {
		v32[i] = float32(x)
	}
	return v32
}

// NewEmbeddingFunc adapts Embed to the chromem collection contract.
func NewEmbeddingFunc() chromem.EmbeddingFunc {
	return func(_ context.Context, text string) ([]float32, error) {
		return Embed32(text), nil
	}
}

func normalize(vec []float64) []float64 {
	var sum float64
	for _, x := range vec {
		sum += x * x
	}
	norm := math.Sqrt(sum)
	if norm == 0 {
		return vec
	}
	for i := range vec {
		vec[i] /= norm
	}
	return vec
}

// dot is cosine similarity for unit vectors.
func dot(a, b []float64) float64 {
	var sum float64
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}
