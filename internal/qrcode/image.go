package qrcode

import (
	"fmt"

	goqrcode "github.com/skip2/go-qrcode"
)

const (
	DefaultImageSize = 512
	minImageSize     = 128
	maxImageSize     = 2048
)

// RenderPNG draws content as a PNG QR code. Size is clamped to a printable range.
func RenderPNG(content string, size int) ([]byte, error) {
	if content == "" {
		return nil, fmt.Errorf("qr content must not be empty")
	}
	if size <= 0 {
		size = DefaultImageSize
	}
	if size < minImageSize {
		size = minImageSize
	}
	if size > maxImageSize {
		size = maxImageSize
	}
	png, err := goqrcode.Encode(content, goqrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("render qr code: %w", err)
	}
	return png, nil
}
