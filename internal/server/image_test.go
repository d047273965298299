package server

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumis-app/invoice-ocr/constants"
	"github.com/lumis-app/invoice-ocr/internal/common"
)

func TestSniffImage(t *testing.T) {
	cases := []struct {
		name     string
		data     []byte
		wantMime string
		wantErr  bool
	}{
		{name: "jpeg", data: []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00}, wantMime: "image/jpeg"},
		{name: "png", data: []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A}, wantMime: "image/png"},
		{name: "pdf", data: []byte("%PDF-1.4 rest"), wantMime: "application/pdf"},
		{name: "empty", data: nil, wantErr: true},
		{name: "plain text", data: []byte("hello world"), wantErr: true},
		{name: "html masquerading", data: []byte("<html><body>"), wantErr: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mime, err := sniffImage(tc.data)
			if tc.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, common.ErrValidation)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.wantMime, mime)
		})
	}
}

func TestSniffImage_SizeCap(t *testing.T) {
	big := append([]byte{0xFF, 0xD8, 0xFF}, bytes.Repeat([]byte{0}, constants.MaxImageBytes)...)
	_, err := sniffImage(big)
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrValidation)

	ok := append([]byte{0xFF, 0xD8, 0xFF}, bytes.Repeat([]byte{0}, 1024)...)
	mime, err := sniffImage(ok)
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", mime)
}
