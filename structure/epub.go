package structure

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"golang.org/x/net/html"

	"github.com/readnwin/bookaccess/models"
)

// EPUB parsing errors.
var (
	ErrNoContainer = errors.New("structure: missing META-INF/container.xml")
	ErrNoRootfile  = errors.New("structure: no rootfile found in container.xml")
	ErrInvalidOPF  = errors.New("structure: invalid package document")
)

// containerXML represents META-INF/container.xml.
type containerXML struct {
	XMLName   xml.Name `xml:"container"`
	Rootfiles struct {
		Rootfile []struct {
			FullPath  string `xml:"full-path,attr"`
			MediaType string `xml:"media-type,attr"`
		} `xml:"rootfile"`
	} `xml:"rootfiles"`
}

// opfPackage represents the OPF package document.
type opfPackage struct {
	XMLName  xml.Name `xml:"package"`
	Metadata struct {
		Title   []string `xml:"title"`
		Creator []string `xml:"creator"`
	} `xml:"metadata"`
	Manifest struct {
		Items []opfItem `xml:"item"`
	} `xml:"manifest"`
	Spine struct {
		ItemRefs []struct {
			IDRef string `xml:"idref,attr"`
		} `xml:"itemref"`
	} `xml:"spine"`
}

type opfItem struct {
	ID         string `xml:"id,attr"`
	Href       string `xml:"href,attr"`
	MediaType  string `xml:"media-type,attr"`
	Properties string `xml:"properties,attr"`
}

// ncxDocument represents an EPUB 2 NCX navigation document.
type ncxDocument struct {
	XMLName xml.Name      `xml:"ncx"`
	Points  []ncxNavPoint `xml:"navMap>navPoint"`
}

type ncxNavPoint struct {
	Label    string        `xml:"navLabel>text"`
	Content  ncxContent    `xml:"content"`
	Children []ncxNavPoint `xml:"navPoint"`
}

type ncxContent struct {
	Src string `xml:"src,attr"`
}

// ParseEpubTree derives an EpubStructure from an extracted EPUB directory:
// container.xml locates the OPF, the OPF yields metadata, manifest and
// spine, and the NCX or EPUB 3 nav document yields the navigation tree.
// Used as a fallback when the ingestion pipeline's row is absent.
func ParseEpubTree(root string) (*models.EpubStructure, error) {
	containerData, err := os.ReadFile(filepath.Join(root, "META-INF", "container.xml"))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNoContainer
		}
		return nil, fmt.Errorf("structure: failed to read container.xml: %w", err)
	}

	var container containerXML
	if err := xml.Unmarshal(containerData, &container); err != nil {
		return nil, fmt.Errorf("structure: invalid container.xml: %w", err)
	}

	opfPath := ""
	for _, rf := range container.Rootfiles.Rootfile {
		if rf.MediaType == "application/oebps-package+xml" || rf.MediaType == "" {
			opfPath = rf.FullPath
			break
		}
	}
	if opfPath == "" && len(container.Rootfiles.Rootfile) > 0 {
		opfPath = container.Rootfiles.Rootfile[0].FullPath
	}
	if opfPath == "" {
		return nil, ErrNoRootfile
	}

	opfData, err := readArchiveFile(root, opfPath)
	if err != nil {
		return nil, fmt.Errorf("structure: failed to read OPF %q: %w", opfPath, err)
	}

	var opf opfPackage
	if err := xml.Unmarshal(opfData, &opf); err != nil {
		return nil, ErrInvalidOPF
	}

	baseDir := path.Dir(opfPath)
	if baseDir == "." {
		baseDir = ""
	}

	structure := &models.EpubStructure{
		Manifest: make(map[string]models.ManifestItem, len(opf.Manifest.Items)),
	}
	if len(opf.Metadata.Title) > 0 {
		structure.Title = strings.TrimSpace(opf.Metadata.Title[0])
	}
	if len(opf.Metadata.Creator) > 0 {
		structure.Creator = strings.TrimSpace(opf.Metadata.Creator[0])
	}

	var ncxItem, navItem *opfItem
	for i, item := range opf.Manifest.Items {
		if item.ID == "" {
			continue
		}
		structure.Manifest[item.ID] = models.ManifestItem{
			Href:      resolveHref(baseDir, item.Href),
			MediaType: item.MediaType,
		}
		if item.MediaType == "application/x-dtbncx+xml" && ncxItem == nil {
			ncxItem = &opf.Manifest.Items[i]
		}
		for _, prop := range strings.Fields(item.Properties) {
			if prop == "nav" {
				navItem = &opf.Manifest.Items[i]
			}
		}
	}

	for _, ref := range opf.Spine.ItemRefs {
		if ref.IDRef != "" {
			structure.Spine = append(structure.Spine, ref.IDRef)
		}
	}

	structure.Navigation = parseNavigation(root, baseDir, ncxItem, navItem)
	return structure, nil
}

// parseNavigation prefers the EPUB 3 nav document and falls back to the
// EPUB 2 NCX. Books without navigation simply get none.
func parseNavigation(root, baseDir string, ncxItem, navItem *opfItem) []models.NavPoint {
	if navItem != nil {
		if data, err := readArchiveFile(root, resolveHref(baseDir, navItem.Href)); err == nil {
			if points := parseNavDocument(data); len(points) > 0 {
				return points
			}
		}
	}
	if ncxItem != nil {
		if data, err := readArchiveFile(root, resolveHref(baseDir, ncxItem.Href)); err == nil {
			var ncx ncxDocument
			if err := xml.Unmarshal(data, &ncx); err == nil {
				return convertNCXPoints(ncx.Points)
			}
		}
	}
	return nil
}

func convertNCXPoints(points []ncxNavPoint) []models.NavPoint {
	if len(points) == 0 {
		return nil
	}
	out := make([]models.NavPoint, 0, len(points))
	for _, p := range points {
		out = append(out, models.NavPoint{
			Title:    strings.TrimSpace(p.Label),
			Href:     p.Content.Src,
			Children: convertNCXPoints(p.Children),
		})
	}
	return out
}

// parseNavDocument extracts the toc <nav> element's list from an EPUB 3
// navigation document.
func parseNavDocument(data []byte) []models.NavPoint {
	doc, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return nil
	}

	var findNav func(*html.Node) *html.Node
	findNav = func(n *html.Node) *html.Node {
		if n.Type == html.ElementNode && n.Data == "nav" {
			for _, attr := range n.Attr {
				if (attr.Key == "epub:type" || attr.Key == "type") && strings.Contains(attr.Val, "toc") {
					return n
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if found := findNav(c); found != nil {
				return found
			}
		}
		return nil
	}

	nav := findNav(doc)
	if nav == nil {
		return nil
	}
	for c := nav.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && (c.Data == "ol" || c.Data == "ul") {
			return parseNavList(c)
		}
	}
	return nil
}

func parseNavList(list *html.Node) []models.NavPoint {
	var points []models.NavPoint
	for li := list.FirstChild; li != nil; li = li.NextSibling {
		if li.Type != html.ElementNode || li.Data != "li" {
			continue
		}
		var point models.NavPoint
		for c := li.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.ElementNode {
				continue
			}
			switch c.Data {
			case "a", "span":
				if point.Title == "" {
					point.Title = strings.TrimSpace(textContent(c))
				}
				if c.Data == "a" && point.Href == "" {
					for _, attr := range c.Attr {
						if attr.Key == "href" {
							point.Href = attr.Val
						}
					}
				}
			case "ol", "ul":
				point.Children = parseNavList(c)
			}
		}
		if point.Title != "" || len(point.Children) > 0 {
			points = append(points, point)
		}
	}
	return points
}

// resolveHref resolves an archive-relative href against the OPF directory.
func resolveHref(baseDir, href string) string {
	if baseDir == "" {
		return href
	}
	return path.Join(baseDir, href)
}

// readArchiveFile reads an archive-relative path from the extracted tree.
// Archive paths come from ingested data, so they get the same "no escape"
// treatment as request paths.
func readArchiveFile(root, archivePath string) ([]byte, error) {
	cleaned := path.Clean(archivePath)
	if cleaned == ".." || strings.HasPrefix(cleaned, "../") || path.IsAbs(cleaned) {
		return nil, fmt.Errorf("structure: archive path %q escapes tree", archivePath)
	}
	return os.ReadFile(filepath.Join(root, filepath.FromSlash(cleaned)))
}
