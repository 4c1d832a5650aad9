package domain

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"strings"

	dErrors "docverify/pkg/domain-errors"
)

// MaxImageBytes caps decoded upload size.
const MaxImageBytes = 5 << 20

var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

// Image is an uploaded picture carried as a base64 data URI on the wire.
type Image struct {
	MIMEType string
	Data     []byte
}

// ParseImageDataURI accepts "data:image/<type>;base64,<payload>" for jpeg, png and webp
// payloads up to MaxImageBytes.
func ParseImageDataURI(s string) (Image, error) {
	rest, ok := strings.CutPrefix(strings.TrimSpace(s), "data:")
	if !ok {
		return Image{}, dErrors.New(dErrors.CodeValidation, "image must be a data URI")
	}
	header, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return Image{}, dErrors.New(dErrors.CodeValidation, "image data URI is malformed")
	}
	mimeType, ok := strings.CutSuffix(header, ";base64")
	if !ok {
		return Image{}, dErrors.New(dErrors.CodeValidation, "image data URI must be base64 encoded")
	}
	mimeType = strings.ToLower(mimeType)
	if !allowedImageTypes[mimeType] {
		return Image{}, dErrors.New(dErrors.CodeValidation, "image must be jpeg, png or webp")
	}
	if base64.StdEncoding.DecodedLen(len(payload)) > MaxImageBytes+3 {
		return Image{}, dErrors.New(dErrors.CodeValidation, "image exceeds 5MB limit")
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return Image{}, dErrors.Wrap(err, dErrors.CodeValidation, "image payload is not valid base64")
	}
	if len(data) == 0 {
		return Image{}, dErrors.New(dErrors.CodeValidation, "image is empty")
	}
	if len(data) > MaxImageBytes {
		return Image{}, dErrors.New(dErrors.CodeValidation, "image exceeds 5MB limit")
	}
	return Image{MIMEType: mimeType, Data: data}, nil
}

// DataURI renders the image back into its wire form.
func (i Image) DataURI() string {
	if len(i.Data) == 0 {
		return ""
	}
	return "data:" + i.MIMEType + ";base64," + base64.StdEncoding.EncodeToString(i.Data)
}

// Base64 returns the payload without the data URI header.
func (i Image) Base64() string {
	return base64.StdEncoding.EncodeToString(i.Data)
}

// Digest is a stable content hash used as a cache key component.
func (i Image) Digest() string {
	sum := sha256.Sum256(i.Data)
	return hex.EncodeToString(sum[:])
}

func (i Image) IsZero() bool {
	return len(i.Data) == 0
}
