package chunker

import (
	"bytes"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkBytesCoversWholeInput(t *testing.T) {
	data := deterministicBytes(1 << 20)
	chunks := ChunkBytes(data, 4*1024, 16*1024, 64*1024)
	require.NotEmpty(t, chunks)

	var offset uint64
	for _, c := range chunks {
		assert.Equal(t, offset, c.Offset)
		assert.GreaterOrEqual(t, c.Length, uint32(4*1024))
		assert.LessOrEqual(t, c.Length, uint32(64*1024))
		offset += uint64(c.Length)
	}
	assert.Equal(t, uint64(len(data)), offset)
}

func TestChunkBytesIsDeterministic(t *testing.T) {
	data := deterministicBytes(256 * 1024)
	a := ChunkBytes(data, 2*1024, 8*1024, 32*1024)
	b := ChunkBytes(data, 2*1024, 8*1024, 32*1024)
	assert.Equal(t, a, b)
}

func TestChunkBytesDropsShortFinalChunk(t *testing.T) {
	// Uniform bytes never satisfy a cut mask, so the first chunk runs to
	// max; the ten bytes past it are shorter than min and must be dropped,
	// not emitted as a tiny chunk.
	data := bytes.Repeat([]byte{0xAB}, 16*1024+10)
	chunks := ChunkBytes(data, 4*1024, 8*1024, 16*1024)
	for _, c := range chunks {
		assert.GreaterOrEqual(t, c.Length, uint32(4*1024))
	}
}

func TestChunkBytesEmptyInput(t *testing.T) {
	assert.Nil(t, ChunkBytes(nil, 1024, 4096, 16384))
}

func TestClampAvg(t *testing.T) {
	assert.Equal(t, uint32(8192), ClampAvg(4096, 8192, 16384))
	assert.Equal(t, uint32(4096), ClampAvg(4096, 1024, 16384))
	assert.Equal(t, uint32(16384), ClampAvg(4096, 100000, 16384))
}

// A local change to content should only perturb the chunk(s) touching it,
// the defining property of content-defined chunking vs fixed-size chunking.
func TestChunkingIsLocalToEdits(t *testing.T) {
	base := deterministicBytes(512 * 1024)
	edited := append([]byte(nil), base...)
	// Insert four bytes in the middle.
	mid := len(edited) / 2
	edited = append(edited[:mid], append([]byte{1, 2, 3, 4}, edited[mid:]...)...)

	before := ChunkBytes(base, 4*1024, 16*1024, 64*1024)
	after := ChunkBytes(edited, 4*1024, 16*1024, 64*1024)

	matchingPrefix := 0
	for matchingPrefix < len(before) && matchingPrefix < len(after) && before[matchingPrefix].Hash == after[matchingPrefix].Hash && before[matchingPrefix].Length == after[matchingPrefix].Length {
		matchingPrefix++
	}
	// Some prefix of chunks before the edit point should still match
	// exactly; a fixed-size chunker would fail this assertion entirely.
	assert.Greater(t, matchingPrefix, 0)
}

// Mean chunk length for a large random input should land near the
// configured average; this is what pins the mask bit-widths computeMasks
// derives from avg, catching any off-by-one in the bit-width math.
func TestChunkBytesMeanLengthNearConfiguredAverage(t *testing.T) {
	const avg = 16 * 1024
	data := deterministicBytes(8 * 1024 * 1024)
	chunks := ChunkBytes(data, avg/4, avg, avg*8)
	require.NotEmpty(t, chunks)

	var total uint64
	for _, c := range chunks {
		total += uint64(c.Length)
	}
	mean := float64(total) / float64(len(chunks))

	assert.Greater(t, mean, float64(avg)*0.5)
	assert.Less(t, mean, float64(avg)*2)
}

func deterministicBytes(n int) []byte {
	r := rand.New(rand.NewSource(42))
	buf := make([]byte, n)
	r.Read(buf)
	return buf
}
