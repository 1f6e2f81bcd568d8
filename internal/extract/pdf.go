package extract

import (
	"bytes"
	"fmt"
	"image"
	"strconv"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// document gives page-level access to an uploaded PDF held in memory. No
// temporary files are involved; both libraries read from the byte slice.
type document struct {
	data  []byte
	pages int
}

// openDocument validates the PDF structurally and determines its page count.
// Relaxed validation mode tolerates the slightly malformed output common to
// scanner firmware.
func openDocument(data []byte) (*document, error) {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	ctx, err := api.ReadContext(bytes.NewReader(data), conf)
	if err != nil {
		return nil, fmt.Errorf("read PDF: %w", err)
	}
	if err := ctx.EnsurePageCount(); err != nil {
		return nil, fmt.Errorf("resolve page count: %w", err)
	}

	return &document{data: data, pages: ctx.PageCount}, nil
}

func (d *document) pageCount() int { return d.pages }

// pageImages returns the embedded images of a single page, decoded. Scanned
// actas are full-page images, so this is the rasterized view of the page.
// Extraction runs one page at a time so buffers are released between pages.
func (d *document) pageImages(pageNum int) ([]image.Image, error) {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	selected := []string{strconv.Itoa(pageNum)}
	pageMaps, err := api.ExtractImagesRaw(bytes.NewReader(d.data), selected, conf)
	if err != nil {
		return nil, fmt.Errorf("extract images from page %d: %w", pageNum, err)
	}

	var images []image.Image
	for _, byObj := range pageMaps {
		for _, raw := range byObj {
			img, _, err := image.Decode(raw)
			if err != nil {
				// Unsupported encoding on this object; the page may still
				// carry a decodable image in another object.
				continue
			}
			images = append(images, img)
		}
	}
	return images, nil
}

// text extracts and concatenates plain text from the first maxPages pages.
func (d *document) text(maxPages int) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(d.data), int64(len(d.data)))
	if err != nil {
		return "", fmt.Errorf("open PDF for text extraction: %w", err)
	}

	limit := reader.NumPage()
	if maxPages > 0 && limit > maxPages {
		limit = maxPages
	}

	var builder strings.Builder
	for pageNum := 1; pageNum <= limit; pageNum++ {
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil {
			// A page that fails text extraction does not abort the others.
			continue
		}
		builder.WriteString(content)
		builder.WriteString("\n")
	}
	return builder.String(), nil
}
