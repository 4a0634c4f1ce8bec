// Package handlers exposes the order use cases over HTTP.
package handlers

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Apurer/pallet-labels/internal/domains/orders/adapters/export"
	"github.com/Apurer/pallet-labels/internal/domains/orders/adapters/http/mapper"
	types "github.com/Apurer/pallet-labels/internal/domains/orders/application/types"
	"github.com/Apurer/pallet-labels/internal/domains/orders/domain"
	"github.com/Apurer/pallet-labels/internal/domains/orders/ports"
	"github.com/Apurer/pallet-labels/internal/platform/spreadsheet"
	apierrors "github.com/Apurer/pallet-labels/internal/shared/errors"
)

// DefaultMaxUploadBytes bounds the size of an uploaded order sheet.
const DefaultMaxUploadBytes int64 = 16 << 20

// OrderAPI serves the order endpoints.
type OrderAPI struct {
	service        ports.Service
	workflows      ports.WorkflowOrchestrator
	responder      *apierrors.Responder
	logger         *slog.Logger
	encoding       string
	maxUploadBytes int64
	now            func() time.Time
}

// Option configures an OrderAPI.
type Option func(*OrderAPI)

// WithLogger sets the logger used for failed requests.
func WithLogger(logger *slog.Logger) Option {
	return func(api *OrderAPI) {
		if logger != nil {
			api.logger = logger
		}
	}
}

// WithImportEncoding sets the default text encoding of uploaded CSV files.
func WithImportEncoding(encoding string) Option {
	return func(api *OrderAPI) { api.encoding = encoding }
}

// WithMaxUploadBytes overrides DefaultMaxUploadBytes.
func WithMaxUploadBytes(n int64) Option {
	return func(api *OrderAPI) {
		if n > 0 {
			api.maxUploadBytes = n
		}
	}
}

// WithClock overrides the clock used to name export files.
func WithClock(now func() time.Time) Option {
	return func(api *OrderAPI) {
		if now != nil {
			api.now = now
		}
	}
}

func NewOrderAPI(service ports.Service, workflows ports.WorkflowOrchestrator, opts ...Option) *OrderAPI {
	api := &OrderAPI{
		service:        service,
		workflows:      workflows,
		responder:      apierrors.NewResponder("", orderErrorMapper),
		logger:         slog.Default(),
		encoding:       spreadsheet.EncodingUTF8,
		maxUploadBytes: DefaultMaxUploadBytes,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(api)
	}
	return api
}

// ListQueues - GET /api/v1/queues
func (api *OrderAPI) ListQueues(c *gin.Context) {
	summary, err := api.service.Summary(c.Request.Context())
	if err != nil {
		api.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, mapper.FromQueueSummaries(summary.Queues))
}

// ListQueueOrders - GET /api/v1/queues/:queueId/orders
func (api *OrderAPI) ListQueueOrders(c *gin.Context) {
	orders, err := api.service.ByQueue(c.Request.Context(), c.Param("queueId"))
	if err != nil {
		api.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, mapper.FromDomainOrders(orders))
}

// GetSummary - GET /api/v1/summary
func (api *OrderAPI) GetSummary(c *gin.Context) {
	summary, err := api.service.Summary(c.Request.Context())
	if err != nil {
		api.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, mapper.FromSummary(summary))
}

// ListOrders - GET /api/v1/orders?status=
func (api *OrderAPI) ListOrders(c *gin.Context) {
	status, err := domain.ParseStatusFilter(c.Query("status"))
	if err != nil {
		api.respondProblem(c, apierrors.ErrBadRequest.WithDetail(err.Error()))
		return
	}
	orders, err := api.service.ByStatus(c.Request.Context(), status)
	if err != nil {
		api.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, mapper.FromDomainOrders(orders))
}

// GetOrder - GET /api/v1/orders/:orderId
func (api *OrderAPI) GetOrder(c *gin.Context) {
	order, err := api.service.Get(c.Request.Context(), c.Param("orderId"))
	if err != nil {
		api.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, mapper.FromDomainOrder(order))
}

// PreviewLabels - POST /api/v1/orders/:orderId/labels
func (api *OrderAPI) PreviewLabels(c *gin.Context) {
	input, ok := api.bindProcess(c)
	if !ok {
		return
	}
	labels, err := api.service.PreviewLabels(c.Request.Context(), input)
	if err != nil {
		api.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, mapper.FromDomainLabels(labels))
}

// ProcessOrder - POST /api/v1/orders/:orderId/process
func (api *OrderAPI) ProcessOrder(c *gin.Context) {
	input, ok := api.bindProcess(c)
	if !ok {
		return
	}
	result, err := api.service.Process(c.Request.Context(), input)
	if err != nil {
		api.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, mapper.FromProcessResult(result))
}

// DeleteOrder - DELETE /api/v1/orders/:orderId
func (api *OrderAPI) DeleteOrder(c *gin.Context) {
	order, err := api.service.SoftDelete(c.Request.Context(), c.Param("orderId"))
	if err != nil {
		api.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, mapper.FromDomainOrder(order))
}

// RestoreOrder - POST /api/v1/orders/:orderId/restore
func (api *OrderAPI) RestoreOrder(c *gin.Context) {
	order, err := api.service.Restore(c.Request.Context(), c.Param("orderId"))
	if err != nil {
		api.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, mapper.FromDomainOrder(order))
}

// PurgeOrder - DELETE /api/v1/orders/:orderId/purge
func (api *OrderAPI) PurgeOrder(c *gin.Context) {
	if err := api.service.Purge(c.Request.Context(), c.Param("orderId")); err != nil {
		api.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ClearOrders - DELETE /api/v1/orders
func (api *OrderAPI) ClearOrders(c *gin.Context) {
	if err := api.service.Clear(c.Request.Context()); err != nil {
		api.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ImportOrders - POST /api/v1/orders/import
//
// Expects a multipart "file" field. Optional form fields "format" and "encoding" override the
// format guessed from the file name and the configured CSV encoding.
func (api *OrderAPI) ImportOrders(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, api.maxUploadBytes)
	header, err := c.FormFile("file")
	if err != nil {
		api.respondProblem(c, apierrors.ErrBadRequest.WithDetail("multipart field \"file\" is required: "+err.Error()))
		return
	}
	format, err := spreadsheet.FormatFromFilename(header.Filename)
	if name := strings.TrimSpace(c.PostForm("format")); name != "" {
		format, err = spreadsheet.ParseFormat(name)
	}
	if err != nil {
		api.respondError(c, err)
		return
	}
	encoding := api.encoding
	if v := strings.TrimSpace(c.PostForm("encoding")); v != "" {
		encoding = v
	}

	file, err := header.Open()
	if err != nil {
		api.respondProblem(c, apierrors.ErrBadRequest.WithDetail(err.Error()))
		return
	}
	defer file.Close()
	records, err := spreadsheet.Read(file, format, spreadsheet.ReadOptions{
		Encoding:    encoding,
		DateColumns: []int{types.ColumnDeliveryDate},
	})
	if err != nil {
		api.respondProblem(c, apierrors.ErrUnprocessable.WithDetail("unreadable order sheet: "+err.Error()))
		return
	}

	result, err := api.workflows.ImportOrders(c.Request.Context(), types.ImportInput{
		Source: header.Filename,
		Rows:   types.RowsFromSheet(records),
	})
	if err != nil {
		api.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, mapper.ImportResponse{Source: header.Filename, ImportResult: *result})
}

// ExportOrders - GET /api/v1/orders/export?status=&format=
func (api *OrderAPI) ExportOrders(c *gin.Context) {
	status, err := domain.ParseStatusFilter(c.Query("status"))
	if err != nil {
		api.respondProblem(c, apierrors.ErrBadRequest.WithDetail(err.Error()))
		return
	}
	format, err := spreadsheet.ParseFormat(c.Query("format"))
	if err != nil {
		api.respondError(c, err)
		return
	}
	orders, err := api.service.ByStatus(c.Request.Context(), status)
	if err != nil {
		api.respondError(c, err)
		return
	}
	filename := export.Filename(status, format, api.now())
	c.Header("Content-Type", format.ContentType())
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Status(http.StatusOK)
	if err := spreadsheet.Write(c.Writer, format, export.Table(orders)); err != nil {
		api.logger.ErrorContext(c.Request.Context(), "failed to write export", "file", filename, "error", err.Error())
		_ = c.Error(err)
	}
}

// Healthz - GET /healthz
func Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (api *OrderAPI) bindProcess(c *gin.Context) (types.ProcessInput, bool) {
	var req mapper.ProcessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		if fields, ok := mapper.FieldErrors(err); ok {
			api.respondProblem(c, apierrors.NewValidationProblem(fields))
			return types.ProcessInput{}, false
		}
		api.respondProblem(c, apierrors.ErrBadRequest.WithDetail(err.Error()))
		return types.ProcessInput{}, false
	}
	return mapper.ToProcessInput(c.Param("orderId"), req), true
}
