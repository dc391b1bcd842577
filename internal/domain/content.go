package domain

import "time"

type ContentKind string

const (
	KindWebinar   ContentKind = "webinar"
	KindLesson    ContentKind = "lesson"
	KindCaseStudy ContentKind = "case"
)

// ContentKinds lists every kind in menu order.
var ContentKinds = []ContentKind{KindWebinar, KindLesson, KindCaseStudy}

func (k ContentKind) Valid() bool {
	switch k {
	case KindWebinar, KindLesson, KindCaseStudy:
		return true
	}
	return false
}

type FileKind string

const (
	FileVideo     FileKind = "video"
	FileVoice     FileKind = "voice"
	FileAudio     FileKind = "audio"
	FileDocument  FileKind = "document"
	FilePhoto     FileKind = "photo"
	FileVideoNote FileKind = "video_note"
)

func (k FileKind) Valid() bool {
	switch k {
	case FileVideo, FileVoice, FileAudio, FileDocument, FilePhoto, FileVideoNote:
		return true
	}
	return false
}

// Media is an opaque reference to a file already stored by the messaging platform.
type Media struct {
	FileRef string
	Kind    FileKind
}

type ContentRecord struct {
	ID          int64
	Kind        ContentKind
	Title       string
	Description string
	CoverRef    *string
	CreatedAt   time.Time
}

type ContentItem struct {
	ID       int64
	ParentID int64
	FileRef  string
	FileKind FileKind
	Order    int
}

func (i ContentItem) Media() Media {
	return Media{FileRef: i.FileRef, Kind: i.FileKind}
}

// PendingItem is a content item captured by a draft before the record exists.
type PendingItem struct {
	Media Media
	Order int
}

// NewContent carries the fields of a record about to be created.
type NewContent struct {
	Title       string
	Description string
	CoverRef    *string
}

// Patch updates any subset of a record's fields. Nil fields are left untouched;
// ClearCover removes the cover and wins over CoverRef.
type Patch struct {
	Title       *string
	Description *string
	CoverRef    *string
	ClearCover  bool
}

func (p Patch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.CoverRef == nil && !p.ClearCover
}

// Apply returns a copy of rec with the patch applied.
func (p Patch) Apply(rec ContentRecord) ContentRecord {
	if p.Title != nil {
		rec.Title = *p.Title
	}
	if p.Description != nil {
		rec.Description = *p.Description
	}
	if p.CoverRef != nil {
		ref := *p.CoverRef
		rec.CoverRef = &ref
	}
	if p.ClearCover {
		rec.CoverRef = nil
	}
	return rec
}
