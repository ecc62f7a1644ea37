package models

// Item is a content-addressed record. The full hash is the true identity;
// the code is the user-facing unique prefix of it. Items are immutable
// after insert.
//
// Exactly one of Text, Picture, Link is non-nil, matching Kind.
type Item struct {
	Code       string     `json:"code"`
	HashFull   string     `json:"hash_full"`
	Kind       ItemKind   `json:"kind"`
	SizeBytes  int64      `json:"size_b"`
	OwnerID    int64      `json:"uid"`
	Visibility Visibility `json:"perm"`
	UploadedAt int64      `json:"upload_at"`
	// OriginAt is the original content creation time if known, 0 otherwise.
	OriginAt int64 `json:"origin_at,omitempty"`

	Text    *TextInfo    `json:"text,omitempty"`
	Picture *PictureInfo `json:"picture,omitempty"`
	Link    *LinkInfo    `json:"link,omitempty"`
}

// TextInfo carries the subtype fields of a text item.
type TextInfo struct {
	Format ContentFormat `json:"format"`
}

// PictureInfo carries the subtype fields of a picture item.
type PictureInfo struct {
	Format ContentFormat `json:"format"`
	Width  int           `json:"width"`
	Height int           `json:"height"`
}

// LinkInfo carries the target URL of a link item. Links store no payload
// bytes; the URL is the whole content.
type LinkInfo struct {
	URL string `json:"url"`
}

// PayloadFormat returns the format of the stored payload for kinds that
// have one. Link items have no payload and return false.
func (it *Item) PayloadFormat() (ContentFormat, bool) {
	switch {
	case it.Text != nil:
		return it.Text.Format, true
	case it.Picture != nil:
		return it.Picture.Format, true
	}
	return "", false
}
