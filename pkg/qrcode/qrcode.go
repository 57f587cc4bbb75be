package qrcode

import (
	"encoding/base64"
	"errors"
	"strings"

	skipqrcode "github.com/skip2/go-qrcode"
)

var (
	// ErrEmptyContent is returned when content string is empty or only whitespace
	ErrEmptyContent = errors.New("qrcode: content cannot be empty")
	// ErrFailedToGenerate is returned when the encoder rejects the content.
	ErrFailedToGenerate = errors.New("qrcode: failed to generate QR code")
)

// DefaultSize is the image size in pixels used when size <= 0.
const DefaultSize = 256

const dataURLPrefix = "data:image/png;base64,"

func encode(content string) (*skipqrcode.QRCode, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyContent
	}
	qr, err := skipqrcode.New(content, skipqrcode.Medium)
	if err != nil {
		return nil, errors.Join(ErrFailedToGenerate, err)
	}
	return qr, nil
}

// PNG renders content as a size x size PNG image.
func PNG(content string, size int) ([]byte, error) {
	qr, err := encode(content)
	if err != nil {
		return nil, err
	}
	if size <= 0 {
		size = DefaultSize
	}
	img, err := qr.PNG(size)
	if err != nil {
		return nil, errors.Join(ErrFailedToGenerate, err)
	}
	return img, nil
}

// DataURL renders content as a PNG data URL.
func DataURL(content string, size int) (string, error) {
	img, err := PNG(content, size)
	if err != nil {
		return "", err
	}
	return dataURLPrefix + base64.StdEncoding.EncodeToString(img), nil
}

// Terminal renders content for a text terminal, two modules per character row.
// It returns an empty string when content cannot be encoded.
func Terminal(content string) string {
	qr, err := encode(content)
	if err != nil {
		return ""
	}
	return qr.ToSmallString(false)
}
