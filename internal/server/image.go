package server

import (
	"bytes"
	"fmt"

	"github.com/lumis-app/invoice-ocr/constants"
	"github.com/lumis-app/invoice-ocr/internal/common"
)

// sniffImage validates an uploaded payload by magic bytes and size, returning
// its MIME type. Client-supplied content types are ignored.
func sniffImage(data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("%w: empty image", common.ErrValidation)
	}
	if len(data) > constants.MaxImageBytes {
		return "", fmt.Errorf("%w: image exceeds %d bytes", common.ErrValidation, constants.MaxImageBytes)
	}

	switch {
	case len(data) >= 3 && bytes.Equal(data[:3], []byte{0xFF, 0xD8, 0xFF}):
		return "image/jpeg", nil
	case len(data) >= 4 && bytes.Equal(data[:4], []byte{0x89, 0x50, 0x4E, 0x47}):
		return "image/png", nil
	case len(data) >= 4 && bytes.Equal(data[:4], []byte("%PDF")):
		return "application/pdf", nil
	}
	return "", fmt.Errorf("%w: unsupported file type, use JPEG, PNG or PDF", common.ErrValidation)
}
