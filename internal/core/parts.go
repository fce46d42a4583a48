package core

import (
	"encoding/base64"

	"medvise.ai/server/internal/media"
)

// Part is one unit of the multi-part request sent to the generative model.
// It is a closed variant: TextPart or ImagePart.
type Part interface {
	isPart()
}

type TextPart string

func (TextPart) isPart() {}

type ImagePart struct {
	MIMEType string
	Data     []byte
}

func (ImagePart) isPart() {}

// DefaultImagePrompt is substituted when a message carries an image but no
// text.
const DefaultImagePrompt = "Analyze this image."

// assembleParts builds the ordered upstream payload. The image part, when
// present, precedes the text part; providers weight earlier parts more
// heavily when grounding. An undecodable image payload degrades to a
// text-only prompt rather than failing the request.
func assembleParts(text string, image *media.EncodedImage) []Part {
	parts := make([]Part, 0, 2)

	if image != nil {
		if data, err := base64.StdEncoding.DecodeString(image.Base64Data); err == nil && len(data) > 0 {
			parts = append(parts, ImagePart{MIMEType: image.MIMEType, Data: data})
		}
		if text == "" {
			text = DefaultImagePrompt
		}
	}

	parts = append(parts, TextPart(text))
	return parts
}
