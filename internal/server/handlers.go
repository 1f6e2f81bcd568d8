package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/ofsdigital/acta-scanner/internal/acta"
	"github.com/ofsdigital/acta-scanner/internal/extract"
	"github.com/ofsdigital/acta-scanner/internal/scan"
	"github.com/ofsdigital/acta-scanner/internal/store"
)

// handler carries the dependencies shared by all route handlers.
type handler struct {
	svc       *scan.Service
	maxUpload int64
	log       zerolog.Logger
}

type qrRequest struct {
	QRData string `json:"qr_data"`
}

type imageRequest struct {
	ImageData string `json:"image_data"`
}

type scanResponse struct {
	Success      bool         `json:"success"`
	Message      string       `json:"message"`
	Record       *acta.Record `json:"record,omitempty"`
	TotalRecords int          `json:"total_records"`
}

type pdfResponse struct {
	Success      bool          `json:"success"`
	Message      string        `json:"message"`
	Method       string        `json:"method"`
	Added        int           `json:"added"`
	Duplicates   []string      `json:"duplicates,omitempty"`
	Skipped      int           `json:"skipped,omitempty"`
	Records      []acta.Record `json:"records,omitempty"`
	TotalRecords int           `json:"total_records"`
}

type recordsResponse struct {
	Success bool          `json:"success"`
	Count   int           `json:"count"`
	Records []acta.Record `json:"records"`
}

type clearResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Removed int    `json:"removed"`
}

type errorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func (h *handler) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.log.Error().Err(err).Msg("writing response")
	}
}

func (h *handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, errorResponse{Success: false, Message: message})
}

// ingestFailureMessage maps a domain-level ingestion error to the
// operator-facing message. These land with HTTP 200 and success false,
// transport problems use writeError instead.
func ingestFailureMessage(err error) string {
	var dup *store.DuplicateError
	var capErr *store.CapacityError

	switch {
	case errors.As(err, &dup):
		return fmt.Sprintf("Registro duplicado (%s: %s)", dup.Field, dup.Value)
	case errors.As(err, &capErr):
		return fmt.Sprintf("Límite de registros alcanzado (%d)", capErr.Limit)
	case errors.Is(err, store.ErrNoIdentity):
		return "El registro no contiene Folio ni CURP"
	case errors.Is(err, scan.ErrEmptyInput):
		return "No se recibieron datos"
	case errors.Is(err, extract.ErrNoQR):
		return "No se detectó ningún código QR en la imagen"
	default:
		return fmt.Sprintf("Error al procesar: %v", err)
	}
}

func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprintf(w, `{"status":"ok","service":"acta-scanner","records":%d}`, h.svc.Count())
}

// scanQR handles POST /api/qr.
func (h *handler) scanQR(w http.ResponseWriter, r *http.Request) {
	var req qrRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "cuerpo de petición inválido")
		return
	}

	rec, _, err := h.svc.SubmitQRText(r.Context(), req.QRData)
	if err != nil {
		h.writeJSON(w, http.StatusOK, scanResponse{
			Success:      false,
			Message:      ingestFailureMessage(err),
			TotalRecords: h.svc.Count(),
		})
		return
	}

	h.writeJSON(w, http.StatusOK, scanResponse{
		Success:      true,
		Message:      "Registro agregado correctamente",
		Record:       &rec,
		TotalRecords: h.svc.Count(),
	})
}

// scanImage handles POST /api/image.
func (h *handler) scanImage(w http.ResponseWriter, r *http.Request) {
	var req imageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "cuerpo de petición inválido")
		return
	}

	rec, _, err := h.svc.SubmitImage(r.Context(), req.ImageData)
	if err != nil {
		h.writeJSON(w, http.StatusOK, scanResponse{
			Success:      false,
			Message:      ingestFailureMessage(err),
			TotalRecords: h.svc.Count(),
		})
		return
	}

	h.writeJSON(w, http.StatusOK, scanResponse{
		Success:      true,
		Message:      "Registro agregado correctamente",
		Record:       &rec,
		TotalRecords: h.svc.Count(),
	})
}

// scanPDF handles POST /api/pdf. The document arrives as a multipart
// form upload under the "pdf_file" field.
func (h *handler) scanPDF(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)

	file, header, err := r.FormFile("pdf_file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.writeError(w, http.StatusRequestEntityTooLarge, "el archivo excede el tamaño máximo permitido")
			return
		}
		h.writeError(w, http.StatusBadRequest, "falta el archivo 'pdf_file'")
		return
	}
	defer file.Close()

	if !strings.HasSuffix(strings.ToLower(header.Filename), ".pdf") {
		h.writeError(w, http.StatusBadRequest, "solo se aceptan archivos PDF")
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "no se pudo leer el archivo")
		return
	}

	result, err := h.svc.SubmitPDF(r.Context(), data)
	if err != nil {
		status := http.StatusOK
		var tooLarge *scan.TooLargeError
		if errors.As(err, &tooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		body := pdfResponse{
			Success:      false,
			Message:      ingestFailureMessage(err),
			TotalRecords: h.svc.Count(),
		}
		if result != nil {
			body.Method = string(result.Method)
			body.Added = len(result.Added)
			body.Records = result.Added
		}
		h.writeJSON(w, status, body)
		return
	}

	resp := pdfResponse{
		Success:      len(result.Added) > 0,
		Method:       string(result.Method),
		Added:        len(result.Added),
		Skipped:      result.Skipped,
		Records:      result.Added,
		TotalRecords: h.svc.Count(),
	}
	for _, dup := range result.Duplicates {
		resp.Duplicates = append(resp.Duplicates, fmt.Sprintf("%s: %s", dup.Field, dup.Value))
	}

	switch {
	case result.Method == extract.MethodNone:
		resp.Message = "No se encontraron códigos QR ni texto reconocible en el documento"
	case len(result.Added) == 0 && len(result.Duplicates) > 0:
		resp.Message = "Todos los registros del documento ya existen"
	default:
		resp.Message = fmt.Sprintf("Se agregaron %d registros", len(result.Added))
	}

	h.writeJSON(w, http.StatusOK, resp)
}

// listRecords handles GET /api/records.
func (h *handler) listRecords(w http.ResponseWriter, r *http.Request) {
	records := h.svc.Snapshot()
	h.writeJSON(w, http.StatusOK, recordsResponse{
		Success: true,
		Count:   len(records),
		Records: records,
	})
}

// exportRecords handles GET /api/export.
func (h *handler) exportRecords(w http.ResponseWriter, r *http.Request) {
	name, data, err := h.svc.Export()
	if err != nil {
		if errors.Is(err, scan.ErrNoRecords) {
			h.writeJSON(w, http.StatusOK, errorResponse{Success: false, Message: "No hay registros para exportar"})
			return
		}
		h.writeError(w, http.StatusInternalServerError, ingestFailureMessage(err))
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	if _, err := w.Write(data); err != nil {
		h.log.Error().Err(err).Msg("writing export")
	}
}

// clearRecords handles POST /api/clear.
func (h *handler) clearRecords(w http.ResponseWriter, r *http.Request) {
	removed := h.svc.Clear()
	h.writeJSON(w, http.StatusOK, clearResponse{
		Success: true,
		Message: fmt.Sprintf("Se eliminaron %d registros", removed),
		Removed: removed,
	})
}
