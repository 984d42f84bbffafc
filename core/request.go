package core

// Field bounds enforced on a BurnRequest before submission. The ledger
// service applies the same bounds server-side.
const (
	MaxDisplayNameLen = 100
	MaxDescriptionLen = 500
	MaxAttachmentSize = 5 << 20 // 5 MiB
)

// AllowedAttachmentTypes lists the accepted attachment content types.
var AllowedAttachmentTypes = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/gif":  true,
	"image/webp": true,
}

// Attachment is the single binary image attached to a burn request.
type Attachment struct {
	Name        string
	ContentType string
	Data        []byte
}

// BurnRequest carries everything needed for one burn attempt. It is created
// fresh per attempt and discarded on success or user-abandoned failure.
type BurnRequest struct {
	Selection   BurnSelection
	DisplayName string
	Description string
	Attachment  Attachment
}
