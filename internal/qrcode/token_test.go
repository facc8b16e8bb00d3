package qrcode

import (
	"bytes"
	"encoding/base64"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTableParamRoundTrip(t *testing.T) {
	ref := TableRef{RestaurantID: 42, TableID: 7, Code: "3f2a9c1e-5b7d-4e0a-9f1c-2d3e4f5a6b7c"}
	param := EncodeTableParam(ref)

	assert.NotContains(t, param, "=")
	assert.NotContains(t, param, "+")
	assert.NotContains(t, param, "/")

	got, err := DecodeTableParam(param)
	require.NoError(t, err)
	assert.Equal(t, ref, got)
}

func TestDecodeTableParamRejectsMalformed(t *testing.T) {
	enc := func(s string) string { return base64.RawURLEncoding.EncodeToString([]byte(s)) }

	cases := map[string]string{
		"empty":            "",
		"not base64":       "%%%",
		"wrong version":    enc("v2:1:2:abc"),
		"too few parts":    enc("v1:1:2"),
		"zero restaurant":  enc("v1:0:2:abc"),
		"negative table":   enc("v1:1:-2:abc"),
		"non numeric":      enc("v1:x:2:abc"),
		"empty code":       enc("v1:1:2:"),
		"code with colon":  enc("v1:1:2:ab:c"),
		"oversized":        strings.Repeat("a", 300),
	}
	for name, param := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeTableParam(param)
			assert.ErrorIs(t, err, ErrInvalidTableParam)
		})
	}
}

func TestOrderURL(t *testing.T) {
	ref := TableRef{RestaurantID: 1, TableID: 2, Code: "abc"}
	link := OrderURL("https://order.example.com/", ref)

	u, err := url.Parse(link)
	require.NoError(t, err)
	assert.Equal(t, "/order", u.Path)
	got, err := DecodeTableParam(u.Query().Get("t"))
	require.NoError(t, err)
	assert.Equal(t, ref, got)
}

func TestRenderPNG(t *testing.T) {
	png, err := RenderPNG("https://order.example.com/order?t=abc", 64)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(png, []byte("\x89PNG\r\n\x1a\n")))

	_, err = RenderPNG("", 256)
	assert.Error(t, err)
}
