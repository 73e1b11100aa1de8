package model

import (
	"mime"
	"net/url"
	"path"
	"strings"
)

type QueryKind int

const (
	QueryAccount QueryKind = iota
	QuerySearch
)

type GalleryQuery struct {
	Kind QueryKind
	Text string
}

func AccountQuery() GalleryQuery {
	return GalleryQuery{Kind: QueryAccount}
}

func SearchQuery(text string) GalleryQuery {
	return GalleryQuery{Kind: QuerySearch, Text: text}
}

type ImageItem struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Link     string `json:"link"`
	Type     string `json:"type"`
	Animated bool   `json:"animated"`
	IsAlbum  bool   `json:"is_album"`
}

func (i ImageItem) ImageLink() string {
	return i.Link
}

func (i ImageItem) linkPath() string {
	u, err := url.Parse(i.Link)
	if err != nil || u.Path == "" {
		return i.Link
	}
	return u.Path
}

// ContentType derives the MIME type from the link's suffix and falls back to
// the type reported by the provider.
func (i ImageItem) ContentType() string {
	if ext := path.Ext(i.linkPath()); ext != "" {
		if t := mime.TypeByExtension(strings.ToLower(ext)); t != "" {
			if semi := strings.IndexByte(t, ';'); semi >= 0 {
				t = t[:semi]
			}
			return t
		}
	}
	return i.Type
}

func (i ImageItem) IsPNG() bool {
	return strings.HasSuffix(strings.ToLower(i.linkPath()), "png")
}

func (i ImageItem) IsGIF() bool {
	return i.ContentType() == "image/gif"
}
