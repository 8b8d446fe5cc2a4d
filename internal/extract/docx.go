package extract

import (
	"archive/zip"
	"bytes"
	"io"
	"regexp"
	"strings"

	"github.com/cockroachdb/errors"
)

const (
	docxDefaultPart  = "word/document.xml"
	docxContentTypes = "[Content_Types].xml"
	docxMainType     = "application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"
)

var (
	docxParagraph = regexp.MustCompile(`(?s)<w:p[ >].*?</w:p>`)
	docxText      = regexp.MustCompile(`<w:t(?:\s[^>]*)?>([^<]*)</w:t>`)
	docxOverride  = regexp.MustCompile(`<Override\s[^>]*>`)
	docxPartName  = regexp.MustCompile(`PartName="/?([^"]+)"`)
)

// docxMainPart returns the main document part named in [Content_Types].xml, or the default.
func docxMainPart(zr *zip.Reader) string {
	data, err := readZipFile(zr, docxContentTypes)
	if err != nil {
		return docxDefaultPart
	}
	for _, o := range docxOverride.FindAllString(string(data), -1) {
		if !strings.Contains(o, `ContentType="`+docxMainType+`"`) {
			continue
		}
		if m := docxPartName.FindStringSubmatch(o); m != nil {
			return m[1]
		}
	}
	return docxDefaultPart
}

func readZipFile(zr *zip.Reader, name string) ([]byte, error) {
	f, err := zr.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

// extractDOCX returns one line per non-empty paragraph of a .docx file.
func extractDOCX(content []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", errors.Wrap(err, "open DOCX")
	}
	part := docxMainPart(zr)
	doc, err := readZipFile(zr, part)
	if err != nil {
		return "", errors.Wrapf(err, "read DOCX part %s", part)
	}

	var lines []string
	for _, para := range docxParagraph.FindAllString(string(doc), -1) {
		var runs []string
		for _, m := range docxText.FindAllStringSubmatch(para, -1) {
			runs = append(runs, m[1])
		}
		if line := strings.TrimSpace(strings.Join(runs, "")); line != "" {
			lines = append(lines, unescapeXML(line))
		}
	}
	return strings.Join(lines, "\n"), nil
}

var xmlEntities = strings.NewReplacer("&amp;", "&", "&lt;", "<", "&gt;", ">", "&quot;", `"`, "&apos;", "'")

func unescapeXML(s string) string { return xmlEntities.Replace(s) }
