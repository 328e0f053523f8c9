package httpapi_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/goliatone/go-jsonform"
	"github.com/goliatone/go-jsonform/internal/httpapi"
	"github.com/goliatone/go-jsonform/internal/metrics"
	"github.com/goliatone/go-jsonform/pkg/codec"
	"github.com/goliatone/go-jsonform/pkg/form"
	"github.com/goliatone/go-jsonform/pkg/formcache"
)

var ticketForm = form.Define("ticket").
	Title("Ticket").
	Field("subject", form.String("Subject", form.Rules("min=3"))).
	Field("priority", form.Integer("Priority", form.Choices(
		form.Choice{Value: 1, Label: "Low"},
		form.Choice{Value: 2, Label: "High"},
	), form.Default(1))).
	Field("open", form.Button("Open", form.Cmd("open"))).
	MustBuild()

func newRouter(t *testing.T) (*gin.Engine, *formcache.MemoryStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	reg := prometheus.NewRegistry()
	collector := metrics.NewCollector("jsonform", reg)
	store := formcache.NewMemoryStore()
	forms, err := jsonform.New(store,
		jsonform.WithDefinitions(ticketForm),
		jsonform.WithCacheOptions(formcache.WithObserver(collector)),
		jsonform.WithCodecOptions(codec.WithObserver(collector)),
	)
	if err != nil {
		t.Fatalf("new forms: %v", err)
	}
	return httpapi.NewRouter(forms, httpapi.WithMetrics(reg)), store
}

func do(t *testing.T, router *gin.Engine, method, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(httpapi.DefaultActorHeader, "u-1")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var decoded map[string]any
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(w.Body.Bytes(), &decoded); err != nil {
			t.Fatalf("decode response: %v\n%s", err, w.Body.String())
		}
	}
	return w, decoded
}

// renderModel fetches the rendered document and returns its model.
func renderModel(t *testing.T, router *gin.Engine) map[string]any {
	t.Helper()
	w, doc := do(t, router, http.MethodGet, "/forms/ticket", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("render status = %d: %s", w.Code, w.Body.String())
	}
	forms, ok := doc["forms"].(map[string]any)
	if !ok {
		t.Fatalf("document not wrapped in forms: %#v", doc)
	}
	for _, key := range []string{"schema", "form", "model"} {
		if _, ok := forms[key]; !ok {
			t.Fatalf("document missing %q", key)
		}
	}
	return forms["model"].(map[string]any)
}

func TestRouter_RenderSubmit(t *testing.T) {
	router, store := newRouter(t)
	model := renderModel(t, router)
	if store.Len() != 1 {
		t.Fatalf("expected one snapshot, got %d", store.Len())
	}

	model["subject"] = "Printer on fire"
	model["priority"] = 2
	model["open"] = true
	w, body := do(t, router, http.MethodPost, "/forms/ticket", model)
	if w.Code != http.StatusOK {
		t.Fatalf("submit status = %d: %s", w.Code, w.Body.String())
	}
	want := map[string]any{
		"values":  map[string]any{"subject": "Printer on fire", "priority": float64(2)},
		"actions": []any{"open"},
	}
	if diff := cmp.Diff(want, body); diff != "" {
		t.Fatalf("response mismatch (-want +got):\n%s", diff)
	}
}

func TestRouter_SubmitErrors(t *testing.T) {
	router, _ := newRouter(t)

	cases := []struct {
		name   string
		body   func(t *testing.T) any
		status int
	}{
		{
			name:   "malformed body",
			body:   func(t *testing.T) any { return "{" },
			status: http.StatusBadRequest,
		},
		{
			name:   "missing form key",
			body:   func(t *testing.T) any { return map[string]any{"subject": "Hello"} },
			status: http.StatusGone,
		},
		{
			name:   "unknown form key",
			body:   func(t *testing.T) any { return map[string]any{"form_key": "FRMCACHE:nope", "subject": "Hello"} },
			status: http.StatusGone,
		},
		{
			name: "injected field",
			body: func(t *testing.T) any {
				model := renderModel(t, router)
				model["subject"] = "Hello"
				model["owner"] = "root"
				return model
			},
			status: http.StatusUnprocessableEntity,
		},
		{
			name: "binding failure",
			body: func(t *testing.T) any {
				model := renderModel(t, router)
				model["subject"] = "Hi"
				return model
			},
			status: http.StatusUnprocessableEntity,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w, _ := do(t, router, http.MethodPost, "/forms/ticket", tc.body(t))
			if w.Code != tc.status {
				t.Fatalf("status = %d, want %d: %s", w.Code, tc.status, w.Body.String())
			}
		})
	}
}

func TestRouter_BindingErrorsByField(t *testing.T) {
	router, _ := newRouter(t)
	model := renderModel(t, router)
	model["subject"] = "Hi"

	w, body := do(t, router, http.MethodPost, "/forms/ticket", model)
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	fields, ok := body["errors"].(map[string]any)
	if !ok || fields["subject"] == nil {
		t.Fatalf("expected errors for subject, got %#v", body)
	}
}

func TestRouter_UnknownForm(t *testing.T) {
	router, _ := newRouter(t)
	if w, _ := do(t, router, http.MethodGet, "/forms/missing", nil); w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}

func TestRouter_ListHealthMetrics(t *testing.T) {
	router, _ := newRouter(t)

	_, body := do(t, router, http.MethodGet, "/forms", nil)
	if diff := cmp.Diff(map[string]any{"forms": []any{"ticket"}}, body); diff != "" {
		t.Fatalf("list mismatch (-want +got):\n%s", diff)
	}
	if w, _ := do(t, router, http.MethodGet, "/healthz", nil); w.Code != http.StatusOK {
		t.Fatalf("healthz status = %d", w.Code)
	}

	renderModel(t, router)
	w, _ := do(t, router, http.MethodGet, "/metrics", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("metrics status = %d", w.Code)
	}
	for _, name := range []string{"jsonform_render_total", "jsonform_cache_put_total"} {
		if !strings.Contains(w.Body.String(), name) {
			t.Fatalf("metrics output missing %s", name)
		}
	}
}
