package models

// FileFormat defines the set of known e-book file formats.
type FileFormat string

const (
	FileFormatEPUB FileFormat = "epub"
	FileFormatHTML FileFormat = "html"
	FileFormatPDF  FileFormat = "pdf"
	FileFormatMOBI FileFormat = "mobi"
)

// Visibility controls who may see a book without an access grant.
type Visibility string

const (
	VisibilityPublic  Visibility = "public"
	VisibilityPrivate Visibility = "private"
)

type Book struct {
	ID         int64      `json:"id"`
	Title      string     `json:"title"`
	Author     string     `json:"author,omitempty"`
	Price      float64    `json:"price"`
	Visibility Visibility `json:"visibility"`
	Status     string     `json:"status"`
	Format     FileFormat `json:"format"`
	CreatedBy  *int64     `json:"-"`
}

// BookFileType distinguishes the rows in book_files. At most one 'ebook'
// file per book is structure-preserving at a time (enforced by the
// ingestion pipeline's upsert on (book_id, file_type)).
type BookFileType string

const (
	BookFileTypeEbook BookFileType = "ebook"
	BookFileTypeCover BookFileType = "cover"
)

// BookFile describes a stored file for a book, written by the ingestion
// pipeline and read-only here.
type BookFile struct {
	ID                int64        `json:"id"`
	BookID            int64        `json:"book_id"`
	FileType          BookFileType `json:"file_type"`
	StoredPath        string       `json:"-"`
	Format            FileFormat   `json:"format"`
	OriginalFormat    FileFormat   `json:"original_format,omitempty"`
	PreserveStructure bool         `json:"preserve_structure"`
	ExtractionPath    string       `json:"-"`
	AssetCount        int          `json:"asset_count"`
}
