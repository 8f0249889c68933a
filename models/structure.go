package models

// ManifestItem maps an EPUB manifest id to its resource.
type ManifestItem struct {
	Href      string `json:"href"`
	MediaType string `json:"mediaType"`
}

// NavPoint is one entry in a book's table of contents.
type NavPoint struct {
	Title    string     `json:"title"`
	Href     string     `json:"href,omitempty"`
	Children []NavPoint `json:"children,omitempty"`
}

// EpubStructure is the preserved layout of an EPUB archive: reading order,
// resource manifest and navigation tree, as recorded at ingestion time.
type EpubStructure struct {
	Title      string                  `json:"title,omitempty"`
	Creator    string                  `json:"creator,omitempty"`
	Spine      []string                `json:"spine"`
	Manifest   map[string]ManifestItem `json:"manifest"`
	Navigation []NavPoint              `json:"navigation,omitempty"`
}

// ChapterRef describes one chapter heading of an HTML book.
type ChapterRef struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Level int    `json:"level"`
}

// HTMLStructure is the preserved layout of an HTML book: ordered chapter
// headings plus the auxiliary resources the document references.
type HTMLStructure struct {
	Title      string       `json:"title,omitempty"`
	Author     string       `json:"author,omitempty"`
	Chapters   []ChapterRef `json:"chapters"`
	AssetFiles []string     `json:"assetFiles,omitempty"`
}

// BookStructure is a tagged union over the two structure shapes. Callers
// discriminate on Type; exactly one of Epub or HTML is set.
type BookStructure struct {
	Type FileFormat     `json:"type"`
	Epub *EpubStructure `json:"epub,omitempty"`
	HTML *HTMLStructure `json:"html,omitempty"`
}
