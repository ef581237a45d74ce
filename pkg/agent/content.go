package agent

// Blob is inline binary content. Data marshals to base64 in JSON.
type Blob struct {
	MIMEType string `json:"mime_type"`
	Data     []byte `json:"data"`
}

// Part is one piece of a message: either text or inline data
type Part struct {
	Text       string `json:"text,omitempty"`
	InlineData *Blob  `json:"inline_data,omitempty"`
}

// Content is a single message in the engine's conversation format
type Content struct {
	Role  string `json:"role"`
	Parts []Part `json:"parts"`
}

// StoredImage is an uploaded image that has already been stored as an
// artifact: its content hash ID plus the decoded bytes
type StoredImage struct {
	ID       string
	Data     []byte
	MIMEType string
}

// BuildContent assembles the user turn for the engine. Every image
// contributes two parts: the inline blob and an "[IMAGE-ID <hash>]" text
// placeholder the model can refer back to. The user text goes last; a
// blank text becomes a single space so the turn is never empty.
func BuildContent(text string, images []StoredImage) Content {
	parts := make([]Part, 0, len(images)*2+1)

	for _, img := range images {
		parts = append(parts, Part{
			InlineData: &Blob{MIMEType: img.MIMEType, Data: img.Data},
		})
		parts = append(parts, Part{Text: "[IMAGE-ID " + img.ID + "]"})
	}

	if text == "" {
		text = " "
	}
	parts = append(parts, Part{Text: text})

	return Content{Role: "user", Parts: parts}
}
