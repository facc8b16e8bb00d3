// Package qrcode encodes the table parameter carried by a table's QR code and
// renders the code itself.
package qrcode

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

const paramVersion = "v1"

// maxParamLen bounds untrusted input before it is decoded.
const maxParamLen = 256

// ErrInvalidTableParam covers every way a scanned parameter can be malformed.
var ErrInvalidTableParam = errors.New("invalid table parameter")

// TableRef is the decoded content of a table parameter.
type TableRef struct {
	RestaurantID int64
	TableID      int64
	Code         string
}

// EncodeTableParam renders ref as the URL-safe value of the "t" query parameter.
func EncodeTableParam(ref TableRef) string {
	raw := fmt.Sprintf("%s:%d:%d:%s", paramVersion, ref.RestaurantID, ref.TableID, ref.Code)
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

// DecodeTableParam reverses EncodeTableParam. It only checks shape; whether the
// code is real and active is decided against the database.
func DecodeTableParam(param string) (TableRef, error) {
	param = strings.TrimSpace(param)
	if param == "" || len(param) > maxParamLen {
		return TableRef{}, ErrInvalidTableParam
	}
	raw, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(param, "="))
	if err != nil {
		return TableRef{}, fmt.Errorf("%w: not base64url", ErrInvalidTableParam)
	}

	parts := strings.SplitN(string(raw), ":", 4)
	if len(parts) != 4 || parts[0] != paramVersion {
		return TableRef{}, fmt.Errorf("%w: unexpected layout", ErrInvalidTableParam)
	}
	restaurantID, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil || restaurantID <= 0 {
		return TableRef{}, fmt.Errorf("%w: restaurant id", ErrInvalidTableParam)
	}
	tableID, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil || tableID <= 0 {
		return TableRef{}, fmt.Errorf("%w: table id", ErrInvalidTableParam)
	}
	code := parts[3]
	if code == "" || strings.ContainsAny(code, ": \t\n") {
		return TableRef{}, fmt.Errorf("%w: code", ErrInvalidTableParam)
	}
	return TableRef{RestaurantID: restaurantID, TableID: tableID, Code: code}, nil
}

// OrderURL is the customer-facing link printed in the QR code.
func OrderURL(baseURL string, ref TableRef) string {
	return strings.TrimRight(baseURL, "/") + "/order?t=" + url.QueryEscape(EncodeTableParam(ref))
}
