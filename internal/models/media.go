package models

import "time"

// MediaKind classifies an attachment by file type.
type MediaKind string

const (
	MediaKindImage MediaKind = "image"
	MediaKindVideo MediaKind = "video"
	MediaKindAudio MediaKind = "audio"
	MediaKindFile  MediaKind = "file"
)

// MediaAttachment is one stored file belonging to a message. ConvertedKey is
// set only for images, pointing at the normalized derivative.
type MediaAttachment struct {
	ID           int64     `db:"id" json:"id"`
	MessageID    int64     `db:"message_id" json:"message_id"`
	StorageKey   string    `db:"storage_key" json:"storage_key"`
	ConvertedKey *string   `db:"converted_key" json:"converted_key,omitempty"`
	Kind         MediaKind `db:"kind" json:"kind"`
	Size         int64     `db:"size" json:"size"`
	Deleted      bool      `db:"deleted" json:"deleted"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}
