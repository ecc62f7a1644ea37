// Package models defines the domain types for depo: items, write plans,
// and the enums persisted as short string values in the database.
package models

// ItemKind discriminates the Item subtypes. Values are the short strings
// stored in the items.kind column and in the X-Depo-Kind header.
type ItemKind string

const (
	KindText    ItemKind = "txt"
	KindLink    ItemKind = "url"
	KindPicture ItemKind = "pic"
)

// Visibility is the access-control level for an item.
type Visibility string

const (
	VisibilityUnlisted Visibility = "unl"
	VisibilityPrivate  Visibility = "prv"
	VisibilityPublic   Visibility = "pub"
)

// ContentFormat identifies a supported payload format. Values double as
// the canonical file extension used for storage paths, so they are part
// of the on-disk layout and must stay stable.
type ContentFormat string

const (
	FormatPlain    ContentFormat = "txt"
	FormatMarkdown ContentFormat = "md"
	FormatJSON     ContentFormat = "json"
	FormatYAML     ContentFormat = "yaml"
	FormatPNG      ContentFormat = "png"
	FormatJPEG     ContentFormat = "jpg"
	FormatWEBP     ContentFormat = "webp"
)

// Formats lists every supported format in a stable order.
func Formats() []ContentFormat {
	return []ContentFormat{
		FormatPlain, FormatMarkdown, FormatJSON, FormatYAML,
		FormatPNG, FormatJPEG, FormatWEBP,
	}
}

// ParseKind maps a stored kind value back to its enum.
func ParseKind(s string) (ItemKind, bool) {
	switch ItemKind(s) {
	case KindText, KindLink, KindPicture:
		return ItemKind(s), true
	}
	return "", false
}

// ParseVisibility maps a stored visibility value back to its enum.
func ParseVisibility(s string) (Visibility, bool) {
	switch Visibility(s) {
	case VisibilityUnlisted, VisibilityPrivate, VisibilityPublic:
		return Visibility(s), true
	}
	return "", false
}
