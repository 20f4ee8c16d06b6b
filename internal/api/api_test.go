package api

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/opensource-finance/kestrel/internal/domain"
	"github.com/opensource-finance/kestrel/internal/ingest"
	"github.com/opensource-finance/kestrel/internal/rules"
)

// createTestServer creates a server with a fresh engine for testing.
func createTestServer(t *testing.T) *Server {
	t.Helper()

	cfg := domain.ServerConfig{
		Host:         "localhost",
		Port:         8080,
		ReadTimeout:  30,
		WriteTimeout: 30,
	}

	engine, err := rules.NewEngine()
	if err != nil {
		t.Fatalf("failed to create engine: %v", err)
	}

	return NewServer(cfg, engine, "test-v1")
}

func TestValidateEndpoint(t *testing.T) {
	server := createTestServer(t)

	t.Run("CanonicalSample", func(t *testing.T) {
		body, _ := json.Marshal(ingest.SampleRecord())
		req := httptest.NewRequest(http.MethodPost, "/v1/validate", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")

		rr := httptest.NewRecorder()
		server.Router().ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
		}

		var resp ValidateResponse
		if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if resp.ValidationID == "" {
			t.Error("expected a validation ID")
		}
		if resp.Report == nil {
			t.Fatal("expected a report")
		}
		if resp.Report.Score != 88 {
			t.Errorf("expected score 88, got %d", resp.Report.Score)
		}
		if resp.Report.Level != domain.LevelGreen {
			t.Errorf("expected GREEN, got %s", resp.Report.Level)
		}
		if len(resp.Report.Issues) != 1 || resp.Report.Issues[0].Code != domain.CodeVATMismatch {
			t.Errorf("expected exactly one VAT_MISMATCH issue, got %+v", resp.Report.Issues)
		}
		if resp.Report.Meta.SupplierVAT != "512345679" {
			t.Errorf("expected normalized metadata, got %+v", resp.Report.Meta)
		}
	})

	t.Run("EmptyRecord", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/v1/validate", bytes.NewBufferString(`{}`))
		rr := httptest.NewRecorder()
		server.Router().ServeHTTP(rr, req)

		var resp ValidateResponse
		json.Unmarshal(rr.Body.Bytes(), &resp)

		if resp.Report.Score != 14 {
			t.Errorf("expected score 14, got %d", resp.Report.Score)
		}
		if resp.Report.Level != domain.LevelRed {
			t.Errorf("expected RED, got %s", resp.Report.Level)
		}
		if len(resp.Report.Issues) != 5 {
			t.Errorf("expected 5 issues, got %d", len(resp.Report.Issues))
		}
		if resp.Report.Meta.Currency != domain.DefaultCurrency {
			t.Errorf("expected fallback currency, got %q", resp.Report.Meta.Currency)
		}
	})

	t.Run("MalformedBodyYieldsParserReport", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/v1/validate", bytes.NewBufferString(`{"total":`))
		rr := httptest.NewRecorder()
		server.Router().ServeHTTP(rr, req)

		// Still 200: decode failure is a degraded report, not an HTTP error.
		if rr.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", rr.Code)
		}

		var resp ValidateResponse
		json.Unmarshal(rr.Body.Bytes(), &resp)

		if resp.Report.Level != domain.LevelRed || resp.Report.Score != 0 {
			t.Errorf("expected RED/0, got %s/%d", resp.Report.Level, resp.Report.Score)
		}
		if len(resp.Report.Issues) != 1 || resp.Report.Issues[0].Code != domain.CodeParser {
			t.Errorf("expected single PARSER issue, got %+v", resp.Report.Issues)
		}
	})
}

func TestValidateFileEndpoint(t *testing.T) {
	server := createTestServer(t)

	upload := func(t *testing.T, filename string, content []byte) *httptest.ResponseRecorder {
		t.Helper()

		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		fw, err := mw.CreateFormFile("file", filename)
		if err != nil {
			t.Fatalf("failed to create form file: %v", err)
		}
		fw.Write(content)
		mw.Close()

		req := httptest.NewRequest(http.MethodPost, "/v1/validate/file", &buf)
		req.Header.Set("Content-Type", mw.FormDataContentType())

		rr := httptest.NewRecorder()
		server.Router().ServeHTTP(rr, req)
		return rr
	}

	t.Run("SampleCSV", func(t *testing.T) {
		rr := upload(t, "invoice.csv", []byte(ingest.SampleCSV))

		if rr.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
		}

		var resp ValidateResponse
		json.Unmarshal(rr.Body.Bytes(), &resp)

		if resp.Report.Score != 88 || resp.Report.Level != domain.LevelGreen {
			t.Errorf("expected 88/GREEN for the sample CSV, got %d/%s", resp.Report.Score, resp.Report.Level)
		}
	})

	t.Run("UnsupportedType", func(t *testing.T) {
		rr := upload(t, "invoice.xml", []byte(`<invoice/>`))

		if rr.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", rr.Code)
		}

		var resp ValidateResponse
		json.Unmarshal(rr.Body.Bytes(), &resp)

		if len(resp.Report.Issues) != 1 || resp.Report.Issues[0].Code != domain.CodeParser {
			t.Errorf("expected single PARSER issue, got %+v", resp.Report.Issues)
		}
	})

	t.Run("MissingFilePart", func(t *testing.T) {
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		mw.WriteField("other", "value")
		mw.Close()

		req := httptest.NewRequest(http.MethodPost, "/v1/validate/file", &buf)
		req.Header.Set("Content-Type", mw.FormDataContentType())

		rr := httptest.NewRecorder()
		server.Router().ServeHTTP(rr, req)

		if rr.Code != http.StatusBadRequest {
			t.Errorf("expected status 400, got %d", rr.Code)
		}
	})
}

func TestListRulesEndpoint(t *testing.T) {
	server := createTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/rules", nil)
	rr := httptest.NewRecorder()
	server.Router().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}

	var resp struct {
		Rules []rules.CheckInfo `json:"rules"`
		Count int               `json:"count"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Count == 0 || len(resp.Rules) != resp.Count {
		t.Errorf("expected a consistent rule listing, got count=%d len=%d", resp.Count, len(resp.Rules))
	}
	if resp.Rules[0].Code != domain.CodeSupplierVAT {
		t.Errorf("expected battery order, first rule %s", resp.Rules[0].Code)
	}
}

func TestSampleEndpoint(t *testing.T) {
	server := createTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/sample", nil)
	rr := httptest.NewRecorder()
	server.Router().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}

	var rec domain.Record
	if err := json.Unmarshal(rr.Body.Bytes(), &rec); err != nil {
		t.Fatalf("failed to decode sample: %v", err)
	}
	if s, _ := rec.Str(domain.FieldSupplierVAT); s != "512345679" {
		t.Errorf("unexpected sample supplierVat: %v", rec[domain.FieldSupplierVAT])
	}
}

func TestHealthEndpoints(t *testing.T) {
	server := createTestServer(t)

	for _, path := range []string{"/health", "/ready"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rr := httptest.NewRecorder()
		server.Router().ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Errorf("%s: expected status 200, got %d", path, rr.Code)
		}
	}
}

func TestRequestIDHeader(t *testing.T) {
	server := createTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()
	server.Router().ServeHTTP(rr, req)

	if rr.Header().Get(RequestIDHeader) == "" {
		t.Error("expected a generated request ID header")
	}

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(RequestIDHeader, "req-123")
	rr = httptest.NewRecorder()
	server.Router().ServeHTTP(rr, req)

	if got := rr.Header().Get(RequestIDHeader); got != "req-123" {
		t.Errorf("expected request ID to be echoed, got %q", got)
	}
}
