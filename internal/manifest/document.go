// Package manifest builds, renders and parses Qt resource collection
// (.qrc) files.
package manifest

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"strings"

	"github.com/dl-alexandre/qrcgen/internal/utils"
)

const indent = "    "

// ErrEmptyManifest is returned when asked to render a manifest without entries.
var ErrEmptyManifest = errors.New("manifest has no entries")

// Document is the <RCC> root element.
type Document struct {
	XMLName   xml.Name   `xml:"RCC"`
	Resources []Resource `xml:"qresource"`
}

// Resource is a <qresource> group publishing files under Prefix.
type Resource struct {
	Prefix string   `xml:"prefix,attr"`
	Files  []string `xml:"file"`
}

// NewDocument returns a document with a single "/" group listing paths in
// the given order.
func NewDocument(paths []string) *Document {
	files := make([]string, len(paths))
	copy(files, paths)
	return &Document{
		Resources: []Resource{{Prefix: utils.ResourcePrefix, Files: files}},
	}
}

// Files returns the entries of every group, in document order.
func (d *Document) Files() []string {
	var files []string
	for _, r := range d.Resources {
		files = append(files, r.Files...)
	}
	return files
}

var (
	// Only the characters that would break the markup are escaped; quotes
	// and apostrophes in file names are written as-is.
	textEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	attrEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;",
		"\n", "&#10;", "\r", "&#13;", "\t", "&#09;")
)

// Render returns the exact file contents for paths: XML declaration, the
// tree indented by four spaces per level, and a trailing newline.
func Render(paths []string) ([]byte, error) {
	if len(paths) == 0 {
		return nil, ErrEmptyManifest
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	buf.WriteString("<RCC>\n")
	for _, r := range NewDocument(paths).Resources {
		fmt.Fprintf(&buf, "%s<qresource prefix=\"%s\">\n", indent, attrEscaper.Replace(r.Prefix))
		for _, f := range r.Files {
			fmt.Fprintf(&buf, "%s%s<file>%s</file>\n", indent, indent, textEscaper.Replace(f))
		}
		fmt.Fprintf(&buf, "%s</qresource>\n", indent)
	}
	buf.WriteString("</RCC>\n")
	return buf.Bytes(), nil
}

// Equivalent reports whether two manifest files differ only in trailing
// newlines.
func Equivalent(a, b []byte) bool {
	return bytes.Equal(bytes.TrimRight(a, "\r\n"), bytes.TrimRight(b, "\r\n"))
}

// Parse decodes manifest contents.
func Parse(data []byte) (*Document, error) {
	var doc Document
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	return &doc, nil
}
