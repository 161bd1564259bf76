package qrcode

import (
	"bytes"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGenerator(t *testing.T) {
	gen := NewGenerator()
	assert.Equal(t, 256, gen.size)
	assert.Equal(t, High, gen.level)

	gen = NewGenerator(WithSize(128), WithRecoveryLevel(Low))
	assert.Equal(t, 128, gen.size)
	assert.Equal(t, Low, gen.level)
}

func TestPNG(t *testing.T) {
	gen := NewGenerator(WithSize(200))

	data, err := gen.PNG("TKT-000123")
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 200, img.Bounds().Dx())

	_, err = gen.PNG("")
	assert.ErrorIs(t, err, ErrEmptyContent)
}

func TestLabelURL(t *testing.T) {
	assert.Equal(t, "https://support.subcold.com/admin/tickets/TKT-000007",
		LabelURL("https://support.subcold.com/", "TKT-000007"))
}

func TestTicketLabel(t *testing.T) {
	gen := NewGenerator()

	data, err := gen.TicketLabel("https://support.subcold.com", "TKT-000007")
	require.NoError(t, err)
	_, err = png.Decode(bytes.NewReader(data))
	require.NoError(t, err)

	_, err = gen.TicketLabel("https://support.subcold.com", "")
	assert.ErrorIs(t, err, ErrEmptyContent)
}
