package api

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/insightdelivered/statement-reconciler/internal/models"
	"github.com/insightdelivered/statement-reconciler/internal/reconcile"
	"github.com/insightdelivered/statement-reconciler/internal/repository"
)

// ReportSaver stores uploaded reports.
type ReportSaver interface {
	Save(name string, content io.Reader) (models.ReportID, error)
}

// ReportLister lists reports in either state.
type ReportLister interface {
	FindAll() ([]models.ReportID, error)
}

// ReportResponse describes one stored report.
type ReportResponse struct {
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	Processed bool      `json:"processed"`
}

// ReportListResponse is the JSON response from GET /api/reports.
type ReportListResponse struct {
	Reports []ReportResponse `json:"reports"`
	Count   int              `json:"count"`
}

// ErrorResponse is returned with every non-2xx status.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// Handler holds the HTTP handlers for the report intake.
type Handler struct {
	Reports ReportSaver
	Catalog ReportLister
	Version string
	Logger  *slog.Logger
}

// NewApp builds the fiber app with all routes registered.
func NewApp(h *Handler, bodyLimit int) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "statement-reconciler",
		BodyLimit:             bodyLimit,
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler,
	})
	app.Use(recover.New())
	h.RegisterRoutes(app)
	return app
}

// RegisterRoutes sets up the HTTP routes.
func (h *Handler) RegisterRoutes(app *fiber.App) {
	api := app.Group("/api")
	api.Get("/health", h.HandleHealth)
	api.Get("/reports", h.HandleListReports)
	api.Post("/reports", h.HandleUpload)
}

func (h *Handler) HandleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "ok",
		"version": h.Version,
	})
}

// HandleUpload stores a report sent either as multipart field "file" or as
// the raw request body with the name in ?name=.
func (h *Handler) HandleUpload(c *fiber.Ctx) error {
	name, content, err := uploadedReport(c)
	if err != nil {
		return writeError(c, fiber.StatusBadRequest, err.Error())
	}
	if closer, ok := content.(io.Closer); ok {
		defer closer.Close()
	}

	id, err := h.Reports.Save(name, content)
	if err != nil {
		var nameErr *repository.InvalidNameError
		switch {
		case errors.As(err, &nameErr), errors.Is(err, reconcile.ErrNoContent):
			return writeError(c, fiber.StatusBadRequest, err.Error())
		case errors.Is(err, models.ErrReportConflict):
			return writeError(c, fiber.StatusConflict, err.Error())
		default:
			h.logger().Error("saving uploaded report failed", "report", name, "error", err)
			return writeError(c, fiber.StatusInternalServerError, "failed to store report")
		}
	}

	return c.Status(fiber.StatusCreated).JSON(ReportResponse{
		Name:      id.Name,
		CreatedAt: id.CreatedAt.UTC(),
	})
}

func (h *Handler) HandleListReports(c *fiber.Ctx) error {
	ids, err := h.Catalog.FindAll()
	if err != nil {
		h.logger().Error("listing reports failed", "error", err)
		return writeError(c, fiber.StatusInternalServerError, "failed to list reports")
	}

	reports := make([]ReportResponse, 0, len(ids))
	for _, id := range ids {
		reports = append(reports, ReportResponse{
			Name:      id.Name,
			CreatedAt: id.CreatedAt.UTC(),
			Processed: repository.IsProcessedName(id.Name),
		})
	}
	sort.Slice(reports, func(i, j int) bool { return reports[i].Name < reports[j].Name })

	return c.JSON(ReportListResponse{Reports: reports, Count: len(reports)})
}

func uploadedReport(c *fiber.Ctx) (string, io.Reader, error) {
	if strings.HasPrefix(strings.ToLower(c.Get(fiber.HeaderContentType)), fiber.MIMEMultipartForm) {
		header, err := c.FormFile("file")
		if err != nil {
			return "", nil, errors.New("no file uploaded, use form field 'file'")
		}
		if header.Size == 0 {
			return "", nil, errors.New("uploaded file is empty")
		}
		f, err := header.Open()
		if err != nil {
			return "", nil, err
		}
		return header.Filename, f, nil
	}

	name := c.Query("name")
	if name == "" {
		return "", nil, errors.New("query parameter 'name' is required for raw uploads")
	}
	body := c.Body()
	if len(body) == 0 {
		return "", nil, errors.New("request body is empty")
	}
	return name, bytes.NewReader(body), nil
}

func (h *Handler) logger() *slog.Logger {
	if h.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return h.Logger
}

func writeError(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(ErrorResponse{
		Success: false,
		Error:   msg,
	})
}

func errorHandler(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		status = fe.Code
	}
	return writeError(c, status, err.Error())
}
