package camera

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func jpegBytes(payload ...byte) []byte {
	out := []byte{0xFF, 0xD8}
	out = append(out, payload...)
	return append(out, 0xFF, 0xD9)
}

func TestExtractFrame_Single(t *testing.T) {
	data := jpegBytes(0x01, 0x02, 0x03)

	frame, rest, ok := extractFrame(data)
	require.True(t, ok)
	assert.Equal(t, data, frame)
	assert.Empty(t, rest)
}

func TestExtractFrame_SkipsLeadingGarbage(t *testing.T) {
	data := append([]byte{0x00, 0x11, 0x22}, jpegBytes(0xAA)...)

	frame, rest, ok := extractFrame(data)
	require.True(t, ok)
	assert.Equal(t, jpegBytes(0xAA), frame)
	assert.Empty(t, rest)
}

func TestExtractFrame_LeavesNextFrameInRest(t *testing.T) {
	first := jpegBytes(0x01)
	second := jpegBytes(0x02)
	data := append(append([]byte{}, first...), second...)

	frame, rest, ok := extractFrame(data)
	require.True(t, ok)
	assert.Equal(t, first, frame)

	frame, rest, ok = extractFrame(rest)
	require.True(t, ok)
	assert.Equal(t, second, frame)
	assert.Empty(t, rest)
}

func TestExtractFrame_Incomplete(t *testing.T) {
	data := []byte{0xFF, 0xD8, 0x01, 0x02}

	_, _, ok := extractFrame(data)
	assert.False(t, ok)
}

func TestExtractFrame_NoMarker(t *testing.T) {
	_, _, ok := extractFrame([]byte{0x00, 0x01, 0x02})
	assert.False(t, ok)
}

func TestExtractFrame_ReturnsCopy(t *testing.T) {
	data := jpegBytes(0x05)
	frame, _, ok := extractFrame(data)
	require.True(t, ok)

	data[2] = 0xEE
	assert.Equal(t, byte(0x05), frame[2])
}
