package qr

import (
	"bytes"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/makiuchi-d/gozxing"
	zxqrcode "github.com/makiuchi-d/gozxing/qrcode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "gatepass/pkg/domain"
)

func TestTokenFor(t *testing.T) {
	registrantID := id.RegistrantID(uuid.New())
	token := TokenFor(registrantID)
	assert.Equal(t, "USER_ID:"+registrantID.String(), token)
}

func TestNormalize(t *testing.T) {
	raw := uuid.NewString()

	t.Run("strips prefix", func(t *testing.T) {
		assert.Equal(t, raw, Normalize("USER_ID:"+raw))
	})

	t.Run("passes raw legacy IDs through", func(t *testing.T) {
		assert.Equal(t, raw, Normalize(raw))
	})

	t.Run("trims surrounding whitespace", func(t *testing.T) {
		assert.Equal(t, raw, Normalize("  USER_ID:"+raw+"\n"))
	})

	t.Run("prefixed and bare forms normalize identically", func(t *testing.T) {
		assert.Equal(t, Normalize(raw), Normalize("USER_ID:"+raw))
	})
}

func TestEncodeDeterministic(t *testing.T) {
	content := TokenFor(id.RegistrantID(uuid.New()))

	first, err := Encode(content)
	require.NoError(t, err)
	second, err := Encode(content)
	require.NoError(t, err)

	assert.Equal(t, first, second, "same content must produce identical bytes")
	assert.NotEmpty(t, first)
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	token := TokenFor(id.RegistrantID(uuid.New()))

	data, err := Encode(token)
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	require.NoError(t, err)

	decoded, err := zxqrcode.NewQRCodeReader().Decode(bmp, nil)
	require.NoError(t, err)
	assert.Equal(t, token, decoded.GetText(), "scanning the image must yield the exact token")
}

func TestWriteImage(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "qrcodes")
	registrantID := id.RegistrantID(uuid.New())

	path, err := WriteImage(dir, TokenFor(registrantID), registrantID)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, registrantID.String()+"-qrcode.png"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotEmpty(t, data)
}
