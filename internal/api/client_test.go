package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"quibo-cli/internal/logger"
)

func newTestClient(t *testing.T, h http.Handler, tokens TokenSource) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := New(Options{
		BaseURL:    srv.URL,
		APIKey:     "k-123",
		Tokens:     tokens,
		Logger:     logger.Discard(),
		RetryDelay: time.Millisecond,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func TestNew_RejectsBadBaseURL(t *testing.T) {
	for _, raw := range []string{"", "   ", "ftp://x", "::"} {
		if _, err := New(Options{BaseURL: raw}); err == nil {
			t.Fatalf("expected error for %q", raw)
		}
	}
}

func TestHeadersAndSnakeCaseBody(t *testing.T) {
	var got map[string]any
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get(HeaderAPIKey) != "k-123" {
			t.Errorf("missing api key header")
		}
		if r.Header.Get("Authorization") != "Bearer tok" {
			t.Errorf("missing bearer header, got %q", r.Header.Get("Authorization"))
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("unexpected content type %q", ct)
		}
		if r.URL.Path != "/generate_section/my post" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"project_id":"p1","section_title":"Intro","section_content":"Body","section_index":2,"was_cached":true}`)
	}), StaticToken("tok"))

	threshold := 0.9
	resp, err := c.GenerateSection(context.Background(), SectionRequest{
		ProjectName:      "my post",
		ProjectID:        "p1",
		SectionIndex:     2,
		MaxIterations:    3,
		QualityThreshold: &threshold,
	})
	if err != nil {
		t.Fatalf("GenerateSection: %v", err)
	}
	want := map[string]any{"project_id": "p1", "section_index": float64(2), "max_iterations": float64(3), "quality_threshold": 0.9}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected request body %#v", got)
	}
	if resp.SectionTitle != "Intro" || resp.SectionContent != "Body" || resp.SectionIndex != 2 || !resp.WasCached {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestNoBearerWhenSignedOut(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := r.Header["Authorization"]; ok {
			t.Errorf("unexpected Authorization header")
		}
		_, _ = io.WriteString(w, `{"status":"ok"}`)
	}), StaticToken(""))
	h, err := c.Health(context.Background())
	if err != nil || !h.OK() {
		t.Fatalf("Health: %+v %v", h, err)
	}
}

func TestNotFoundCarriesDetails(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"error":"not found"}`)
	}), nil)

	_, err := c.Resume(context.Background(), "missing")
	var ae *Error
	if !errors.As(err, &ae) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if ae.Status != 404 || ae.Category != CategoryNotFound || ae.Retryable() {
		t.Fatalf("unexpected error %+v", ae)
	}
	if !reflect.DeepEqual(ae.Details, map[string]any{"error": "not found"}) {
		t.Fatalf("unexpected details %#v", ae.Details)
	}
	if ae.Detail() != "not found" {
		t.Fatalf("unexpected detail %q", ae.Detail())
	}
}

func TestRawTextErrorBody(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = io.WriteString(w, "upstream exploded")
	}), nil)
	err := c.DeleteProject(context.Background(), "p1", false)
	var ae *Error
	if !errors.As(err, &ae) || ae.Details != "upstream exploded" || ae.Category != CategoryServer {
		t.Fatalf("unexpected error %#v", err)
	}
}

func TestCategorize(t *testing.T) {
	cases := map[int]Category{
		400: CategoryValidation,
		401: CategoryAuth,
		403: CategoryPermission,
		404: CategoryNotFound,
		409: CategoryClient,
		422: CategoryValidation,
		500: CategoryServer,
		503: CategoryServer,
	}
	for status, want := range cases {
		if got := categorize(status); got != want {
			t.Fatalf("categorize(%d) = %s, want %s", status, got, want)
		}
	}
}

func TestNoContentResolvesEmpty(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete || r.URL.Query().Get("permanent") != "true" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL)
		}
		w.WriteHeader(http.StatusNoContent)
	}), nil)
	if err := c.DeleteProject(context.Background(), "p1", true); err != nil {
		t.Fatalf("DeleteProject: %v", err)
	}
}

func TestReadsRetryServerErrors(t *testing.T) {
	var calls int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = io.WriteString(w, `{"project_id":"p1","total_sections":3,"completed_sections":1,"missing_sections":[1,2],"has_outline":true}`)
	}), nil)

	st, err := c.ProjectStatus(context.Background(), "p1")
	if err != nil {
		t.Fatalf("ProjectStatus: %v", err)
	}
	if atomic.LoadInt32(&calls) != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls)
	}
	if st.TotalSections != 3 || !reflect.DeepEqual(st.MissingSections, []int{1, 2}) || !st.HasOutline {
		t.Fatalf("unexpected status %+v", st)
	}
}

func TestReadsDoNotRetryClientErrors(t *testing.T) {
	var calls int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusUnauthorized)
	}), nil)
	_, err := c.ListProjects(context.Background(), "")
	if !IsStatus(err, 401) {
		t.Fatalf("expected 401, got %v", err)
	}
	if atomic.LoadInt32(&calls) != 1 {
		t.Fatalf("expected a single attempt, got %d", calls)
	}
}

func TestMutationsNeverRetry(t *testing.T) {
	var calls int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}), nil)
	_, err := c.CompileDraft(context.Background(), CompileRequest{ProjectName: "p", JobID: "j"})
	if !IsStatus(err, 500) {
		t.Fatalf("expected 500, got %v", err)
	}
	if atomic.LoadInt32(&calls) != 1 {
		t.Fatalf("expected one attempt, got %d", calls)
	}
}

func TestValidationNeverHitsNetwork(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request %s", r.URL)
	}), nil)
	neg := -1
	cases := []struct {
		name  string
		call  func() error
		field string
	}{
		{"custom length required", func() error {
			_, err := c.GenerateOutline(context.Background(), OutlineRequest{ProjectName: "p", ModelName: "m", MarkdownHash: "h", LengthPreference: LengthCustom})
			return err
		}, "customLength"},
		{"unknown style", func() error {
			_, err := c.GenerateOutline(context.Background(), OutlineRequest{ProjectName: "p", ModelName: "m", MarkdownHash: "h", WritingStyle: "flowery"})
			return err
		}, "writingStyle"},
		{"hash required", func() error {
			_, err := c.GenerateOutline(context.Background(), OutlineRequest{ProjectName: "p", ModelName: "m"})
			return err
		}, "notebookHash"},
		{"negative section", func() error {
			_, err := c.GenerateSection(context.Background(), SectionRequest{ProjectName: "p", SectionIndex: -1})
			return err
		}, "sectionIndex"},
		{"threshold range", func() error {
			q := 1.5
			_, err := c.GenerateSection(context.Background(), SectionRequest{ProjectName: "p", QualityThreshold: &q})
			return err
		}, "qualityThreshold"},
		{"title exclusive", func() error {
			zero := 0
			_, err := c.RefineBlog(context.Background(), RefineRequest{ProjectName: "p", JobID: "j", CompiledDraft: "d", SelectedTitleIndex: &zero, CustomTitle: "Mine"})
			return err
		}, "customTitle"},
		{"title index", func() error {
			_, err := c.RefineBlog(context.Background(), RefineRequest{ProjectName: "p", JobID: "j", CompiledDraft: "d", SelectedTitleIndex: &neg})
			return err
		}, "selectedTitleIndex"},
		{"blank feedback", func() error {
			_, err := c.RegenerateOutline(context.Background(), RegenerateOutlineRequest{ProjectName: "p", FeedbackContent: "   "})
			return err
		}, "feedbackContent"},
		{"upload type", func() error {
			_, err := c.Upload(context.Background(), UploadRequest{ProjectName: "p", Files: []UploadFile{{Name: "a.exe"}}})
			return err
		}, "Files"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.call()
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if _, ok := ve.Fields[tc.field]; !ok {
				t.Fatalf("expected field %s in %v", tc.field, ve.Fields)
			}
		})
	}
}

func TestUploadMultipart(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
			t.Errorf("unexpected content type %q", r.Header.Get("Content-Type"))
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
			return
		}
		if r.FormValue("model_name") != "gemini" {
			t.Errorf("missing model_name")
		}
		if _, ok := r.MultipartForm.Value["persona"]; ok {
			t.Errorf("empty persona should be omitted")
		}
		files := r.MultipartForm.File["files"]
		if len(files) != 2 || files[0].Filename != "intro.md" {
			t.Errorf("unexpected files %+v", files)
		}
		_, _ = io.WriteString(w, `{"message":"Files uploaded successfully","project_name":"post","project_id":"p1","files":["uploads/post/intro.md","uploads/post/nb.ipynb"]}`)
	}), nil)

	resp, err := c.Upload(context.Background(), UploadRequest{
		ProjectName: "post",
		ModelName:   "gemini",
		Files: []UploadFile{
			{Name: "intro.md", ContentType: "text/markdown", Content: []byte("# hi")},
			{Name: "nb.ipynb", Content: []byte("{}")},
		},
	})
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if resp.ProjectID != "p1" || len(resp.Files) != 2 {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestProcessKeepsPathKeys(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"message":"ok","project":"post","file_hashes":{"uploads/post/my_notes.md":"h1"}}`)
	}), nil)
	resp, err := c.ProcessFiles(context.Background(), ProcessRequest{ProjectName: "post", ModelName: "m", FilePaths: []string{"uploads/post/my_notes.md"}})
	if err != nil {
		t.Fatalf("ProcessFiles: %v", err)
	}
	if resp.FileHashes["uploads/post/my_notes.md"] != "h1" {
		t.Fatalf("unexpected hashes %v", resp.FileHashes)
	}
}

func TestPersonasKeepKeys(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"student_sharing":{"name":"Student","description":"casual"}}`)
	}), nil)
	ps, err := c.Personas(context.Background())
	if err != nil {
		t.Fatalf("Personas: %v", err)
	}
	if ps["student_sharing"].Name != "Student" {
		t.Fatalf("unexpected personas %+v", ps)
	}
}

func TestNetworkErrorAndCancellation(t *testing.T) {
	c, err := New(Options{BaseURL: "http://127.0.0.1:1", Logger: logger.Discard(), MaxAttempts: 1})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_, err = c.CompileDraft(context.Background(), CompileRequest{ProjectName: "p", JobID: "j"})
	if !IsNetwork(err) {
		t.Fatalf("expected network error, got %v", err)
	}

	block := make(chan struct{})
	slow := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-block:
		case <-r.Context().Done():
		}
	}), nil)
	defer close(block)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := slow.GenerateOutline(ctx, OutlineRequest{ProjectName: "p", ModelName: "m", MarkdownHash: "h"})
		done <- err
	}()
	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled in chain, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("request did not abort")
	}
}
