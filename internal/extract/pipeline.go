package extract

import (
	"context"
	"errors"
	"fmt"
	"image"

	"github.com/rs/zerolog"

	"github.com/ofsdigital/acta-scanner/internal/acta"
)

// Method names the extraction stage that produced a PDF's records.
type Method string

const (
	MethodQR   Method = "qr"
	MethodText Method = "text"
	MethodNone Method = "none"
)

// Config bounds the work a single PDF may cost.
type Config struct {
	// MaxPages caps how many pages are scanned for QR codes and text.
	MaxPages int
	// RenderScale is the upscale factor applied when retrying QR detection
	// on low-resolution page images.
	RenderScale int
	// StopAtFirstQR stops the page scan at the first page yielding a QR
	// code. Off by default: multi-page documents carry one QR per acta.
	StopAtFirstQR bool
}

// Pipeline orchestrates the two-stage extraction fallback over uploaded PDFs.
type Pipeline struct {
	cfg     Config
	decoder QRDecoder
	log     zerolog.Logger
}

// NewPipeline creates a pipeline with the given bounds and QR capability.
func NewPipeline(cfg Config, decoder QRDecoder, log zerolog.Logger) *Pipeline {
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = 100
	}
	if decoder == nil {
		decoder = NewZXingDecoder(cfg.RenderScale)
	}
	return &Pipeline{cfg: cfg, decoder: decoder, log: log}
}

// ProcessPDF extracts acta records from a PDF.
//
// Stage one scans each page's embedded images for QR codes, bounded by
// MaxPages and cancellable between pages via ctx. If any payloads are found
// they are parsed into records and the method is MethodQR. Otherwise stage
// two extracts the document's plain text and runs the acta text parser;
// success yields a single record with MethodText. A valid but uninformative
// PDF returns no records and MethodNone with a nil error; only structural
// faults produce an error.
func (p *Pipeline) ProcessPDF(ctx context.Context, data []byte) ([]acta.Record, Method, error) {
	doc, err := openDocument(data)
	if err != nil {
		return nil, MethodNone, err
	}
	return p.process(ctx, doc)
}

// pageSource is the page-level view of a PDF the pipeline works against.
type pageSource interface {
	pageCount() int
	pageImages(pageNum int) ([]image.Image, error)
	text(maxPages int) (string, error)
}

func (p *Pipeline) process(ctx context.Context, doc pageSource) ([]acta.Record, Method, error) {
	pages := doc.pageCount()
	if pages > p.cfg.MaxPages {
		p.log.Warn().
			Int("pages", doc.pageCount()).
			Int("max_pages", p.cfg.MaxPages).
			Msg("PDF exceeds page cap, truncating scan")
		pages = p.cfg.MaxPages
	}

	payloads, err := p.scanForQR(ctx, doc, pages)
	if err != nil {
		return nil, MethodNone, err
	}

	if len(payloads) > 0 {
		records := make([]acta.Record, 0, len(payloads))
		for _, payload := range payloads {
			records = append(records, acta.ParseQR(payload))
		}
		p.log.Info().Int("codes", len(payloads)).Msg("PDF processed via QR")
		return records, MethodQR, nil
	}

	text, err := doc.text(pages)
	if err != nil {
		return nil, MethodNone, fmt.Errorf("text fallback: %w", err)
	}
	if rec, ok := acta.ParseActaText(text); ok {
		p.log.Info().Msg("PDF processed via text fallback")
		return []acta.Record{rec}, MethodText, nil
	}

	p.log.Warn().Int("pages", doc.pageCount()).Msg("no QR and no usable text in PDF")
	return nil, MethodNone, nil
}

// scanForQR walks the document page by page collecting decoded QR payloads.
// Rendered page images live only for the duration of one loop iteration.
func (p *Pipeline) scanForQR(ctx context.Context, doc pageSource, pages int) ([]string, error) {
	var payloads []string

	for pageNum := 1; pageNum <= pages; pageNum++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		images, err := doc.pageImages(pageNum)
		if err != nil {
			p.log.Debug().Err(err).Int("page", pageNum).Msg("page image extraction failed")
			continue
		}

		found := false
		for _, img := range images {
			text, err := p.decoder.Decode(img)
			if err != nil {
				if !errors.Is(err, ErrNoQR) {
					p.log.Debug().Err(err).Int("page", pageNum).Msg("QR decode failed")
				}
				continue
			}
			payloads = append(payloads, text)
			found = true
		}

		if found && p.cfg.StopAtFirstQR {
			break
		}
	}
	return payloads, nil
}
