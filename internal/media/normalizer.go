// Package media converts uploaded images into transport-ready payloads for
// the generative model.
package media

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"

	"medvise.ai/server/internal/apperr"
)

// EncodedImage is an image ready to be embedded in an upstream request.
type EncodedImage struct {
	MIMEType   string
	Base64Data string
}

// mimeByExtension maps the extensions we expect from the mobile picker.
// Anything else falls back to image/jpeg; the bytes are passed through
// without being decoded.
var mimeByExtension = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".webp": "image/webp",
	".heic": "image/heic",
	".bmp":  "image/bmp",
}

const fallbackMIMEType = "image/jpeg"

// InferMIMEType infers the MIME type from the declared filename's extension.
func InferMIMEType(declaredFilename string) string {
	ext := strings.ToLower(filepath.Ext(declaredFilename))
	if mime, ok := mimeByExtension[ext]; ok {
		return mime
	}
	return fallbackMIMEType
}

// Encode turns raw image bytes into a base64 payload with an inferred MIME
// type. An empty payload is the only rejected input.
func Encode(raw []byte, declaredFilename string) (*EncodedImage, error) {
	if len(raw) == 0 {
		return nil, apperr.UnsupportedMedia("image payload is empty")
	}
	return &EncodedImage{
		MIMEType:   InferMIMEType(declaredFilename),
		Base64Data: base64.StdEncoding.EncodeToString(raw),
	}, nil
}

// EncodeFile reads and encodes a spooled upload, then removes the file. The
// removal happens on success and on failure; the temp file never outlives the
// request.
func EncodeFile(path, declaredFilename string) (*EncodedImage, error) {
	defer os.Remove(path)

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, apperr.UnsupportedMedia("could not read uploaded image")
	}
	return Encode(raw, declaredFilename)
}
