package server

import (
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/bevscan/bevscan/constants"
	"github.com/bevscan/bevscan/internal/common"
	"github.com/bevscan/bevscan/internal/export"
	"github.com/bevscan/bevscan/internal/pipeline"
	"github.com/bevscan/bevscan/internal/repository"
)

// InvoiceHandler serves upload, parse and read endpoints for invoices.
type InvoiceHandler struct {
	invoices  *repository.InvoiceRepo
	vendors   *repository.VendorRepo
	alerts    *repository.AlertRepo
	pipeline    *pipeline.Pipeline
	exporter    *export.Service
	uploadDir   string
	maxFileSize int64
	logger      *slog.Logger
}

func NewInvoiceHandler(
	invoices *repository.InvoiceRepo,
	vendors *repository.VendorRepo,
	alerts *repository.AlertRepo,
	pl *pipeline.Pipeline,
	exporter *export.Service,
	uploadDir string,
	maxFileSize int64,
	logger *slog.Logger,
) *InvoiceHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &InvoiceHandler{
		invoices:    invoices,
		vendors:     vendors,
		alerts:      alerts,
		pipeline:    pl,
		exporter:    exporter,
		uploadDir:   uploadDir,
		maxFileSize: maxFileSize,
		logger:      logger,
	}
}

// Upload stores a document and creates the invoice shell row. Unsupported
// extensions are rejected before anything touches disk.
func (h *InvoiceHandler) Upload(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		respondError(c, fmt.Errorf("missing file field: %w", common.ErrInvalidInput))
		return
	}

	ext := constants.NormalizeExt(filepath.Ext(file.Filename))
	if !constants.IsSupportedExt(ext) {
		respondError(c, fmt.Errorf("unsupported file format %q: %w", ext, common.ErrInvalidInput))
		return
	}

	if h.maxFileSize > 0 && file.Size > h.maxFileSize {
		respondError(c, fmt.Errorf("file size %d exceeds limit %d: %w", file.Size, h.maxFileSize, common.ErrInvalidInput))
		return
	}

	dst := filepath.Join(h.uploadDir, uuid.NewString()+"."+ext)
	if err := c.SaveUploadedFile(file, dst); err != nil {
		respondError(c, fmt.Errorf("store upload: %w", err))
		return
	}

	inv, err := h.invoices.CreateUpload(c.Request.Context(), dst)
	if err != nil {
		respondError(c, err)
		return
	}

	h.logger.Info("upload.stored", "invoice_id", inv.ID, "filename", file.Filename, "path", dst)
	c.JSON(http.StatusCreated, inv)
}

type parseRequest struct {
	Provider string `json:"provider"`
	Model    string `json:"model"`
}

type parseResponse struct {
	InvoiceID uuid.UUID `json:"invoice_id"`
	*pipeline.Result
}

// Parse runs the extraction pipeline over an uploaded invoice and persists
// the outcome. The pipeline result is returned whether or not it succeeded;
// the HTTP status stays 200 for pipeline-level failures since the request
// itself was served.
func (h *InvoiceHandler) Parse(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, fmt.Errorf("invalid invoice id: %w", common.ErrInvalidInput))
		return
	}

	var req parseRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, fmt.Errorf("decode body: %w", common.ErrInvalidInput))
			return
		}
	}

	inv, err := h.invoices.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	ctx := c.Request.Context()
	result := h.pipeline.ParseInvoice(ctx, pipeline.Request{
		FilePath: inv.FilePath,
		Provider: req.Provider,
		Model:    req.Model,
	})

	if !result.Success {
		if err := h.invoices.MarkFailed(ctx, id); err != nil {
			h.logger.Error("parse.mark_failed", "invoice_id", id, "error", err)
		}
		c.JSON(http.StatusOK, parseResponse{InvoiceID: id, Result: result})
		return
	}

	vendor, err := h.vendors.GetOrCreate(ctx, result.ParsedData.VendorName)
	if err != nil {
		respondError(c, err)
		return
	}
	if err := h.invoices.SaveParseResult(ctx, id, &vendor.ID, result.ParsedData, result.RawText, result.ConfidenceScore); err != nil {
		respondError(c, err)
		return
	}
	if err := h.alerts.SaveAll(ctx, id, result.Alerts); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, parseResponse{InvoiceID: id, Result: result})
}

// Get returns one invoice with its line items.
func (h *InvoiceHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, fmt.Errorf("invalid invoice id: %w", common.ErrInvalidInput))
		return
	}

	inv, err := h.invoices.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, inv)
}

// List returns invoices newest-first with limit/offset paging.
func (h *InvoiceHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	invoices, err := h.invoices.List(c.Request.Context(), limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"invoices": invoices, "count": len(invoices)})
}

// Export streams an XLSX workbook of stored invoices.
func (h *InvoiceHandler) Export(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "200"))

	data, err := h.exporter.ExportInvoicesXLSX(c.Request.Context(), limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="invoices.xlsx"`)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}
