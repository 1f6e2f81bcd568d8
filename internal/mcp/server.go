// Package mcp exposes the scan service as a set of stdio tools for
// scripted ingestion workflows.
package mcp

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/ofsdigital/acta-scanner/internal/acta"
	"github.com/ofsdigital/acta-scanner/internal/config"
	"github.com/ofsdigital/acta-scanner/internal/scan"
)

// Server represents the stdio tool server instance
type Server struct {
	config    *config.Config
	scanner   *scan.Service
	mcpServer *server.MCPServer
}

// NewServer creates a new stdio tool server instance
func NewServer(cfg *config.Config, scanner *scan.Service) (*Server, error) {
	if scanner == nil {
		return nil, fmt.Errorf("scanner cannot be nil")
	}

	mcpServer := server.NewMCPServer(
		cfg.ServerName,
		cfg.Version,
		server.WithToolCapabilities(false), // We don't support dynamic tool capabilities
	)

	s := &Server{
		config:    cfg,
		scanner:   scanner,
		mcpServer: mcpServer,
	}

	// Register tools
	s.registerTools()

	return s, nil
}

// registerTools registers all available tools
func (s *Server) registerTools() {
	scanQRTool := mcp.NewTool(
		"acta_scan_qr_text",
		mcp.WithDescription("Parse a raw QR payload from a birth certificate and add the record to the ledger"),
		mcp.WithString("qr_data",
			mcp.Required(),
			mcp.Description("Raw text decoded from the certificate's QR code"),
		),
	)
	s.mcpServer.AddTool(scanQRTool, s.handleScanQRText)

	scanPDFTool := mcp.NewTool(
		"acta_scan_pdf_file",
		mcp.WithDescription("Extract birth certificate records from a scanned PDF file and add them to the ledger"),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Full path to the PDF file"),
		),
	)
	s.mcpServer.AddTool(scanPDFTool, s.handleScanPDFFile)

	snapshotTool := mcp.NewTool(
		"acta_records_snapshot",
		mcp.WithDescription("List the records currently held in the ledger, newest first"),
	)
	s.mcpServer.AddTool(snapshotTool, s.handleRecordsSnapshot)

	exportTool := mcp.NewTool(
		"acta_export_xlsx",
		mcp.WithDescription("Write the ledger to an XLSX workbook"),
		mcp.WithString("directory",
			mcp.Description("Output directory for the workbook (uses current directory if empty)"),
		),
	)
	s.mcpServer.AddTool(exportTool, s.handleExportXLSX)

	clearTool := mcp.NewTool(
		"acta_clear_records",
		mcp.WithDescription("Remove every record from the ledger"),
	)
	s.mcpServer.AddTool(clearTool, s.handleClearRecords)
}

// Handler functions
func (s *Server) handleScanQRText(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	qrData, err := request.RequireString("qr_data")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	rec, field, err := s.scanner.SubmitQRText(ctx, qrData)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	responseText := fmt.Sprintf("Record added (keyed on %s)\n", field)
	responseText += formatRecord(rec)
	responseText += fmt.Sprintf("\nLedger now holds %d record(s)\n", s.scanner.Count())

	return mcp.NewToolResultText(responseText), nil
}

func (s *Server) handleScanPDFFile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if !strings.EqualFold(filepath.Ext(path), ".pdf") {
		return mcp.NewToolResultError(fmt.Sprintf("not a PDF file: %s", path)), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("reading %s: %v", path, err)), nil
	}

	result, err := s.scanner.SubmitPDF(ctx, data)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	responseText := fmt.Sprintf("Processed PDF: %s\n", path)
	responseText += fmt.Sprintf("Extraction method: %s\n", result.Method)
	responseText += fmt.Sprintf("Added: %d\n", len(result.Added))
	if len(result.Duplicates) > 0 {
		responseText += fmt.Sprintf("Duplicates rejected: %d\n", len(result.Duplicates))
		for _, dup := range result.Duplicates {
			responseText += fmt.Sprintf("  %s: %s\n", dup.Field, dup.Value)
		}
	}
	if result.Skipped > 0 {
		responseText += fmt.Sprintf("Skipped (no Folio or CURP): %d\n", result.Skipped)
	}
	responseText += fmt.Sprintf("Ledger now holds %d record(s)\n", s.scanner.Count())

	return mcp.NewToolResultText(responseText), nil
}

func (s *Server) handleRecordsSnapshot(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	records := s.scanner.Snapshot()
	if len(records) == 0 {
		return mcp.NewToolResultText("The ledger is empty"), nil
	}

	responseText := fmt.Sprintf("%d record(s) in the ledger:\n", len(records))
	for i, rec := range records {
		responseText += fmt.Sprintf("\n%d. %s\n", i+1, rec.Registrado)
		responseText += formatRecord(rec)
	}

	return mcp.NewToolResultText(responseText), nil
}

func (s *Server) handleExportXLSX(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	directory := "."
	if dir, ok := args["directory"].(string); ok && dir != "" {
		directory = dir
	}

	name, data, err := s.scanner.Export()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	outPath := filepath.Join(directory, name)
	if err := os.WriteFile(outPath, data, 0o644); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("writing %s: %v", outPath, err)), nil
	}

	responseText := fmt.Sprintf("Exported %d record(s) to %s (%d bytes)", s.scanner.Count(), outPath, len(data))
	return mcp.NewToolResultText(responseText), nil
}

func (s *Server) handleClearRecords(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	removed := s.scanner.Clear()
	return mcp.NewToolResultText(fmt.Sprintf("Removed %d record(s) from the ledger", removed)), nil
}

// formatRecord renders the populated fields of a record, one per line.
func formatRecord(rec acta.Record) string {
	headers := acta.Headers()
	row := rec.Row()

	var b strings.Builder
	for i, header := range headers {
		if row[i] == "" {
			continue
		}
		fmt.Fprintf(&b, "  %s: %s\n", header, row[i])
	}
	return b.String()
}

// Run starts the stdio tool server
func (s *Server) Run(ctx context.Context) error {
	if err := server.ServeStdio(s.mcpServer); err != nil {
		return fmt.Errorf("failed to serve stdio: %w", err)
	}
	return nil
}
