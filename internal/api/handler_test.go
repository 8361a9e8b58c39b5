package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/insightdelivered/statement-reconciler/internal/ledger"
	"github.com/insightdelivered/statement-reconciler/internal/models"
	"github.com/insightdelivered/statement-reconciler/internal/parser"
	"github.com/insightdelivered/statement-reconciler/internal/reconcile"
	"github.com/insightdelivered/statement-reconciler/internal/repository"
)

func setupTestApp(t *testing.T) (*fiber.App, *repository.FileRepository) {
	t.Helper()
	repo, err := repository.New(t.TempDir(), parser.New())
	if err != nil {
		t.Fatal(err)
	}
	engine := reconcile.NewEngine(repo, ledger.NewMemory(), nil)
	app := NewApp(&Handler{Reports: engine, Catalog: repo, Version: "test"}, 1<<20)
	return app, repo
}

func multipartRequest(t *testing.T, field, filename string, content []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile(field, filename)
	if err != nil {
		t.Fatal(err)
	}
	part.Write(content)
	mw.Close()

	req := httptest.NewRequest("POST", "/api/reports", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	body, _ := io.ReadAll(resp.Body)
	var v T
	if err := json.Unmarshal(body, &v); err != nil {
		t.Fatalf("failed to decode response %q: %v", body, err)
	}
	return v
}

func TestHealthEndpoint(t *testing.T) {
	app, _ := setupTestApp(t)

	req := httptest.NewRequest("GET", "/api/health", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}

	if resp.StatusCode != fiber.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}

	result := decode[map[string]string](t, resp)
	if result["status"] != "ok" {
		t.Errorf("expected status=ok, got %q", result["status"])
	}
	if result["version"] != "test" {
		t.Errorf("expected version=test, got %q", result["version"])
	}
}

func TestUploadMultipart(t *testing.T) {
	app, repo := setupTestApp(t)

	resp, err := app.Test(multipartRequest(t, "file", "july.csv", []byte("header;\r\n")))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	created := decode[ReportResponse](t, resp)
	if created.Name != "july.csv" || created.CreatedAt.IsZero() || created.Processed {
		t.Errorf("unexpected response: %+v", created)
	}

	got, err := os.ReadFile(filepath.Join(repo.Dir(), "july.csv"))
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "header;\r\n" {
		t.Errorf("stored content: got %q", got)
	}
}

func TestUploadRawBody(t *testing.T) {
	app, repo := setupTestApp(t)

	req := httptest.NewRequest("POST", "/api/reports?name=august.csv", bytes.NewReader([]byte("data")))
	req.Header.Set("Content-Type", "text/csv")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}

	ids, err := repo.FindUnprocessed()
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 1 || ids[0].Name != "august.csv" {
		t.Errorf("unprocessed: got %v", ids)
	}
}

func TestUploadErrors(t *testing.T) {
	tests := []struct {
		name   string
		req    func(t *testing.T) *http.Request
		status int
	}{
		{
			name: "missing file field",
			req: func(t *testing.T) *http.Request {
				return multipartRequest(t, "document", "july.csv", []byte("x"))
			},
			status: fiber.StatusBadRequest,
		},
		{
			name: "empty file",
			req: func(t *testing.T) *http.Request {
				return multipartRequest(t, "file", "july.csv", nil)
			},
			status: fiber.StatusBadRequest,
		},
		{
			name: "wrong extension",
			req: func(t *testing.T) *http.Request {
				return multipartRequest(t, "file", "july.pdf", []byte("x"))
			},
			status: fiber.StatusBadRequest,
		},
		{
			name: "processed name",
			req: func(t *testing.T) *http.Request {
				return multipartRequest(t, "file", "july_processed.csv", []byte("x"))
			},
			status: fiber.StatusConflict,
		},
		{
			name: "raw without name",
			req: func(t *testing.T) *http.Request {
				return httptest.NewRequest("POST", "/api/reports", bytes.NewReader([]byte("x")))
			},
			status: fiber.StatusBadRequest,
		},
		{
			name: "raw empty body",
			req: func(t *testing.T) *http.Request {
				return httptest.NewRequest("POST", "/api/reports?name=x.csv", nil)
			},
			status: fiber.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app, _ := setupTestApp(t)
			resp, err := app.Test(tt.req(t))
			if err != nil {
				t.Fatalf("request failed: %v", err)
			}
			if resp.StatusCode != tt.status {
				t.Errorf("expected %d, got %d", tt.status, resp.StatusCode)
			}
			result := decode[ErrorResponse](t, resp)
			if result.Success || result.Error == "" {
				t.Errorf("unexpected error body: %+v", result)
			}
		})
	}
}

func TestUploadConflict(t *testing.T) {
	app, _ := setupTestApp(t)

	for i, want := range []int{fiber.StatusCreated, fiber.StatusConflict} {
		resp, err := app.Test(multipartRequest(t, "file", "dup.csv", []byte("x")))
		if err != nil {
			t.Fatalf("request %d failed: %v", i, err)
		}
		if resp.StatusCode != want {
			t.Errorf("request %d: expected %d, got %d", i, want, resp.StatusCode)
		}
	}
}

func TestListReports(t *testing.T) {
	app, repo := setupTestApp(t)

	for _, name := range []string{"b.csv", "a.csv"} {
		if _, err := repo.Save(name, bytes.NewReader([]byte("x"))); err != nil {
			t.Fatal(err)
		}
	}
	if err := repo.MarkProcessed(models.ReportID{Name: "b.csv"}); err != nil {
		t.Fatal(err)
	}

	resp, err := app.Test(httptest.NewRequest("GET", "/api/reports", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	list := decode[ReportListResponse](t, resp)
	if list.Count != 2 || len(list.Reports) != 2 {
		t.Fatalf("unexpected list: %+v", list)
	}
	if list.Reports[0].Name != "a.csv" || list.Reports[0].Processed {
		t.Errorf("first report: %+v", list.Reports[0])
	}
	if list.Reports[1].Name != "b_processed.csv" || !list.Reports[1].Processed {
		t.Errorf("second report: %+v", list.Reports[1])
	}
}

type failingStore struct{}

func (failingStore) Save(string, io.Reader) (models.ReportID, error) {
	return models.ReportID{}, errors.New("disk full")
}

func (failingStore) FindAll() ([]models.ReportID, error) {
	return nil, errors.New("permission denied")
}

func TestInternalErrorsAreHidden(t *testing.T) {
	app := NewApp(&Handler{Reports: failingStore{}, Catalog: failingStore{}}, 1<<20)

	resp, err := app.Test(multipartRequest(t, "file", "x.csv", []byte("x")))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusInternalServerError {
		t.Errorf("upload: expected 500, got %d", resp.StatusCode)
	}
	if body := decode[ErrorResponse](t, resp); body.Error != "failed to store report" {
		t.Errorf("upload: leaked error %q", body.Error)
	}

	resp, err = app.Test(httptest.NewRequest("GET", "/api/reports", nil))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusInternalServerError {
		t.Errorf("list: expected 500, got %d", resp.StatusCode)
	}
}

func TestUnknownRoute(t *testing.T) {
	app, _ := setupTestApp(t)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/convert", nil))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusNotFound {
		t.Errorf("expected 404, got %d", resp.StatusCode)
	}
}
