// Package scan coordinates record ingestion from the supported input
// channels (raw QR payloads, QR images, scanned PDFs) and exposes the
// ledger operations the transports build on.
package scan

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ofsdigital/acta-scanner/internal/acta"
	"github.com/ofsdigital/acta-scanner/internal/export"
	"github.com/ofsdigital/acta-scanner/internal/extract"
	"github.com/ofsdigital/acta-scanner/internal/store"
)

var (
	// ErrEmptyInput indicates a submission with no usable content.
	ErrEmptyInput = errors.New("empty input")

	// ErrNotPDF indicates an upload that does not carry a PDF header.
	ErrNotPDF = errors.New("file is not a valid PDF")

	// ErrNoRecords indicates an export request against an empty ledger.
	ErrNoRecords = errors.New("no records to export")
)

// TooLargeError indicates an upload exceeding the configured size limit.
type TooLargeError struct {
	Size  int64
	Limit int64
}

func (e *TooLargeError) Error() string {
	return fmt.Sprintf("file size %d exceeds limit of %d bytes", e.Size, e.Limit)
}

// PDFProcessor extracts records from a PDF document.
type PDFProcessor interface {
	ProcessPDF(ctx context.Context, data []byte) ([]acta.Record, extract.Method, error)
}

// DuplicateInfo describes a record rejected because its identity value
// already exists in the ledger.
type DuplicateInfo struct {
	Field string
	Value string
}

// PDFResult aggregates the per-record outcomes of a PDF submission.
type PDFResult struct {
	Method     extract.Method
	Added      []acta.Record
	Duplicates []DuplicateInfo
	Skipped    int
}

// Service is the ingestion facade shared by the HTTP and stdio transports.
type Service struct {
	store     *store.Store
	processor PDFProcessor
	decoder   extract.QRDecoder
	maxUpload int64
	log       zerolog.Logger
}

// NewService creates a scan service backed by the given ledger and
// extraction components.
func NewService(st *store.Store, processor PDFProcessor, decoder extract.QRDecoder, maxUpload int64, log zerolog.Logger) *Service {
	return &Service{
		store:     st,
		processor: processor,
		decoder:   decoder,
		maxUpload: maxUpload,
		log:       log,
	}
}

// SubmitQRText parses a raw QR payload and inserts the resulting record.
// It returns the stored record and the identity field it was keyed on.
func (s *Service) SubmitQRText(ctx context.Context, qrData string) (acta.Record, string, error) {
	qrData = strings.TrimSpace(qrData)
	if qrData == "" {
		return acta.Record{}, "", ErrEmptyInput
	}

	rec := acta.ParseQR(qrData)
	field, err := s.store.Insert(rec)
	if err != nil {
		return rec, field, err
	}

	s.log.Info().
		Str("field", field).
		Str("curp", rec.CURP).
		Str("folio", rec.Folio).
		Msg("record added from QR payload")

	return rec, field, nil
}

// SubmitImage decodes a base64-encoded image, reads the QR code it
// carries and inserts the resulting record. Data URL prefixes of the
// form "data:image/...;base64," are accepted and stripped.
func (s *Service) SubmitImage(ctx context.Context, imageData string) (acta.Record, string, error) {
	imageData = strings.TrimSpace(imageData)
	if imageData == "" {
		return acta.Record{}, "", ErrEmptyInput
	}

	if strings.HasPrefix(imageData, "data:") {
		if idx := strings.Index(imageData, ","); idx >= 0 {
			imageData = imageData[idx+1:]
		}
	}

	raw, err := base64.StdEncoding.DecodeString(imageData)
	if err != nil {
		return acta.Record{}, "", fmt.Errorf("decoding image data: %w", err)
	}

	payload, err := extract.DecodeImageBytes(s.decoder, raw)
	if err != nil {
		return acta.Record{}, "", err
	}

	return s.SubmitQRText(ctx, payload)
}

// SubmitPDF runs the extraction pipeline over an uploaded PDF and
// inserts every record it yields, reporting per-record outcomes.
func (s *Service) SubmitPDF(ctx context.Context, data []byte) (*PDFResult, error) {
	if len(data) == 0 {
		return nil, ErrEmptyInput
	}
	if s.maxUpload > 0 && int64(len(data)) > s.maxUpload {
		return nil, &TooLargeError{Size: int64(len(data)), Limit: s.maxUpload}
	}
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		return nil, ErrNotPDF
	}

	records, method, err := s.processor.ProcessPDF(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("processing PDF: %w", err)
	}

	result := &PDFResult{Method: method}
	for _, rec := range records {
		_, err := s.store.Insert(rec)

		var dup *store.DuplicateError
		switch {
		case err == nil:
			result.Added = append(result.Added, rec)
		case errors.As(err, &dup):
			result.Duplicates = append(result.Duplicates, DuplicateInfo{Field: dup.Field, Value: dup.Value})
		case errors.Is(err, store.ErrNoIdentity):
			result.Skipped++
		default:
			// Capacity reached mid-batch, keep what was stored.
			return result, err
		}
	}

	s.log.Info().
		Str("method", string(result.Method)).
		Int("added", len(result.Added)).
		Int("duplicates", len(result.Duplicates)).
		Int("skipped", result.Skipped).
		Msg("PDF processed")

	return result, nil
}

// Snapshot returns the current ledger contents, newest first.
func (s *Service) Snapshot() []acta.Record {
	return s.store.List()
}

// Count returns the number of records in the ledger.
func (s *Service) Count() int {
	return s.store.Count()
}

// Export renders the ledger as an XLSX workbook and returns the
// suggested download filename alongside the file contents.
func (s *Service) Export() (string, []byte, error) {
	records := s.store.List()
	if len(records) == 0 {
		return "", nil, ErrNoRecords
	}

	data, err := export.Workbook(records)
	if err != nil {
		return "", nil, fmt.Errorf("building workbook: %w", err)
	}

	name := export.Filename(time.Now())
	s.log.Info().Int("records", len(records)).Str("filename", name).Msg("ledger exported")
	return name, data, nil
}

// Clear empties the ledger and returns the number of removed records.
func (s *Service) Clear() int {
	removed := s.store.Clear()
	s.log.Info().Int("removed", removed).Msg("ledger cleared")
	return removed
}
