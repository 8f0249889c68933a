package structure

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/net/html"

	"github.com/readnwin/bookaccess/models"
)

// ParseHTMLFile derives an HTMLStructure from a content document: title and
// author from the head, chapters from h1-h3 headings, asset files from the
// local resources the document references. Used as a fallback when the
// ingestion pipeline's row is absent.
func ParseHTMLFile(contentPath string) (*models.HTMLStructure, error) {
	f, err := os.Open(contentPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	doc, err := html.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("structure: failed to parse HTML %q: %w", contentPath, err)
	}

	structure := &models.HTMLStructure{}
	seenAssets := make(map[string]bool)
	headingIndex := 0

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "title":
				if structure.Title == "" {
					structure.Title = strings.TrimSpace(textContent(n))
				}
			case "meta":
				if strings.EqualFold(attrValue(n, "name"), "author") && structure.Author == "" {
					structure.Author = strings.TrimSpace(attrValue(n, "content"))
				}
			case "h1", "h2", "h3":
				chapter := models.ChapterRef{
					ID:    attrValue(n, "id"),
					Title: strings.TrimSpace(textContent(n)),
					Level: int(n.Data[1] - '0'),
				}
				if chapter.ID == "" {
					chapter.ID = fmt.Sprintf("chapter-%d", headingIndex)
				}
				headingIndex++
				if chapter.Title != "" {
					structure.Chapters = append(structure.Chapters, chapter)
				}
			case "img", "script":
				addAsset(structure, seenAssets, attrValue(n, "src"))
			case "link":
				if strings.EqualFold(attrValue(n, "rel"), "stylesheet") {
					addAsset(structure, seenAssets, attrValue(n, "href"))
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return structure, nil
}

// addAsset records a referenced resource, skipping remote and inline ones:
// only relative paths inside the extracted tree are serveable.
func addAsset(structure *models.HTMLStructure, seen map[string]bool, ref string) {
	ref = strings.TrimSpace(ref)
	if ref == "" || seen[ref] {
		return
	}
	lower := strings.ToLower(ref)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") ||
		strings.HasPrefix(lower, "data:") || strings.HasPrefix(ref, "//") || strings.HasPrefix(ref, "/") {
		return
	}
	seen[ref] = true
	structure.AssetFiles = append(structure.AssetFiles, ref)
}

func attrValue(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}

func textContent(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}
