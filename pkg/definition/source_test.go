package definition_test

import (
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"testing/fstest"
	"time"

	"github.com/goliatone/go-jsonform/pkg/definition"
	"github.com/goliatone/go-jsonform/pkg/testsupport"
)

func TestParseSource(t *testing.T) {
	cases := []struct {
		raw  string
		kind definition.SourceKind
		err  bool
	}{
		{raw: "forms/a.yaml", kind: definition.SourceKindFile},
		{raw: "https://example.com/openapi.yaml", kind: definition.SourceKindURL},
		{raw: "  ", err: true},
		{raw: "http://", err: true},
	}
	for _, tc := range cases {
		src, err := definition.ParseSource(tc.raw)
		if tc.err {
			if err == nil {
				t.Fatalf("%q: expected error", tc.raw)
			}
			continue
		}
		if err != nil {
			t.Fatalf("%q: %v", tc.raw, err)
		}
		if src.Kind() != tc.kind {
			t.Fatalf("%q: kind = %s, want %s", tc.raw, src.Kind(), tc.kind)
		}
	}
}

func TestReader_Declarations(t *testing.T) {
	data, err := os.ReadFile("testdata/forms.yaml")
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}
	reader := definition.NewReader(definition.WithFS(fstest.MapFS{
		"forms.yaml": {Data: data},
	}))

	fromFS, err := reader.Declarations(testsupport.Context(), definition.SourceFromFS("forms.yaml"))
	if err != nil {
		t.Fatalf("fs declarations: %v", err)
	}
	fromFile, err := reader.Declarations(testsupport.Context(), definition.SourceFromFile("testdata/forms.yaml"))
	if err != nil {
		t.Fatalf("file declarations: %v", err)
	}
	if len(fromFS) != 2 || len(fromFile) != 2 {
		t.Fatalf("expected two forms from each source, got %d and %d", len(fromFS), len(fromFile))
	}
}

func TestReader_OpenAPIOverHTTP(t *testing.T) {
	data, err := os.ReadFile("testdata/team.openapi.yaml")
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/openapi.yaml" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write(data)
	}))
	defer srv.Close()

	reader := definition.NewReader(
		definition.WithHTTPClient(srv.Client()),
		definition.WithTimeout(5*time.Second),
	)
	src, err := definition.SourceFromURL(srv.URL + "/openapi.yaml")
	if err != nil {
		t.Fatalf("source: %v", err)
	}
	def, err := reader.OpenAPI(testsupport.Context(), src, "Team")
	if err != nil {
		t.Fatalf("openapi: %v", err)
	}
	if def.Name() != "Team" {
		t.Fatalf("name = %q, want Team", def.Name())
	}

	missing, _ := definition.SourceFromURL(srv.URL + "/missing.yaml")
	if _, err := reader.Read(testsupport.Context(), missing); err == nil {
		t.Fatalf("expected error for 404")
	}
}

func TestReader_Disabled(t *testing.T) {
	reader := definition.NewReader()
	src, _ := definition.SourceFromURL("https://example.com/openapi.yaml")
	if _, err := reader.Read(testsupport.Context(), src); err == nil {
		t.Fatalf("expected error without http client")
	}
	if _, err := reader.Read(testsupport.Context(), definition.SourceFromFS("x.yaml")); err == nil {
		t.Fatalf("expected error without filesystem")
	}
}
