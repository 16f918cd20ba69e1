// Package photo prepares uploaded plant photos for model consumption.
//
// An Attachment is valid for a single conversation turn: the caller passes
// it alongside the prompt and it is never stored. The MIME type is derived
// from the uploaded filename, mirroring the upload widget's accepted set
// (jpg, jpeg, png); the payload travels as a base64 data URL.
package photo

import (
	"encoding/base64"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

var (
	// ErrEmptyImage indicates the upload carried no bytes.
	ErrEmptyImage = errors.New("empty image data")

	// ErrUnsupportedType indicates the filename extension is not an
	// accepted image type.
	ErrUnsupportedType = errors.New("unsupported image type")
)

// mimeByExt maps accepted upload extensions to their MIME types.
var mimeByExt = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
}

// Attachment is a photo encoded for one turn of the conversation.
type Attachment struct {
	// MIMEType is the image media type, e.g. "image/jpeg".
	MIMEType string

	// Payload is the base64-encoded image bytes.
	Payload string
}

// Encode builds an Attachment from an uploaded file. The MIME type comes
// from the filename extension only; the bytes are never sniffed.
func Encode(filename string, data []byte) (*Attachment, error) {
	if len(data) == 0 {
		return nil, ErrEmptyImage
	}

	mime, err := MIMEType(filename)
	if err != nil {
		return nil, err
	}

	return &Attachment{
		MIMEType: mime,
		Payload:  base64.StdEncoding.EncodeToString(data),
	}, nil
}

// MIMEType resolves the media type for an uploaded filename. Only jpg,
// jpeg and png are accepted.
func MIMEType(filename string) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	mime, ok := mimeByExt[ext]
	if !ok {
		return "", fmt.Errorf("%w: %q (accepted: jpg, jpeg, png)", ErrUnsupportedType, filename)
	}
	return mime, nil
}

// DataURL renders the attachment as a data URL suitable for a media part.
func (a *Attachment) DataURL() string {
	return "data:" + a.MIMEType + ";base64," + a.Payload
}

// AcceptedExtensions lists the upload extensions the encoder accepts, in
// stable order for display.
func AcceptedExtensions() []string {
	return []string{".jpg", ".jpeg", ".png"}
}
