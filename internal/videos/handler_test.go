package videos_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/warden/internal/indexing"
	"github.com/JaimeStill/warden/internal/videos"
	"github.com/JaimeStill/warden/pkg/pagination"
)

type mockSystem struct {
	listFn   func(ctx context.Context, page pagination.PageRequest, filters videos.Filters) (*pagination.PageResult[videos.Video], error)
	findFn   func(ctx context.Context, id uuid.UUID) (*videos.Video, error)
	latestFn func(ctx context.Context) (*videos.Video, error)
	uploadFn func(ctx context.Context, cmd videos.UploadCommand) (*videos.Video, error)
	batchFn  func(ctx context.Context, cmds []videos.UploadCommand) []videos.BatchResult
	deleteFn func(ctx context.Context, id uuid.UUID) error
}

func (m *mockSystem) Handler(maxUploadSize int64) *videos.Handler {
	return videos.NewHandler(m, discard(), pagination.Config{DefaultPageSize: 20, MaxPageSize: 100}, maxUploadSize)
}

func (m *mockSystem) List(ctx context.Context, page pagination.PageRequest, filters videos.Filters) (*pagination.PageResult[videos.Video], error) {
	return m.listFn(ctx, page, filters)
}

func (m *mockSystem) Find(ctx context.Context, id uuid.UUID) (*videos.Video, error) {
	return m.findFn(ctx, id)
}

func (m *mockSystem) Latest(ctx context.Context) (*videos.Video, error) {
	return m.latestFn(ctx)
}

func (m *mockSystem) Upload(ctx context.Context, cmd videos.UploadCommand) (*videos.Video, error) {
	return m.uploadFn(ctx, cmd)
}

func (m *mockSystem) UploadBatch(ctx context.Context, cmds []videos.UploadCommand) []videos.BatchResult {
	return m.batchFn(ctx, cmds)
}

func (m *mockSystem) Delete(ctx context.Context, id uuid.UUID) error {
	return m.deleteFn(ctx, id)
}

func setupMux(h *videos.Handler) *http.ServeMux {
	mux := http.NewServeMux()
	group := h.Routes()
	for _, route := range group.Routes {
		pattern := route.Method + " " + group.Prefix + route.Pattern
		mux.HandleFunc(pattern, route.Handler)
	}
	return mux
}

func sampleVideo() videos.Video {
	return videos.Video{
		ID:          uuid.MustParse("550e8400-e29b-41d4-a716-446655440000"),
		IndexID:     "idx-1",
		VideoID:     "vid-1",
		TaskID:      "task-1",
		Filename:    "clip.mp4",
		ContentType: "video/mp4",
		SizeBytes:   1024,
		IndexedAt:   time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC),
	}
}

type formFile struct {
	name        string
	contentType string
	body        string
}

func multipartBody(t *testing.T, indexID string, files ...formFile) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	if indexID != "" {
		if err := mw.WriteField("index_id", indexID); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}

	for _, f := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="video"; filename="`+f.name+`"`)
		if f.contentType != "" {
			h.Set("Content-Type", f.contentType)
		}
		part, err := mw.CreatePart(h)
		if err != nil {
			t.Fatalf("create part: %v", err)
		}
		io.WriteString(part, f.body)
	}

	if err := mw.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return &buf, mw.FormDataContentType()
}

func TestHandlerList(t *testing.T) {
	v := sampleVideo()
	var captured videos.Filters
	sys := &mockSystem{
		listFn: func(_ context.Context, _ pagination.PageRequest, f videos.Filters) (*pagination.PageResult[videos.Video], error) {
			captured = f
			result := pagination.NewPageResult([]videos.Video{v}, 1, 1, 20)
			return &result, nil
		},
	}

	mux := setupMux(sys.Handler(1 << 20))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/videos?index_id=idx-1", nil)
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var result pagination.PageResult[videos.Video]
	if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(result.Data) != 1 || result.Data[0].VideoID != "vid-1" {
		t.Errorf("data = %+v", result.Data)
	}
	if len(captured.IndexIDs) != 1 || captured.IndexIDs[0] != "idx-1" {
		t.Errorf("index filter = %v, want [idx-1]", captured.IndexIDs)
	}
}

func TestHandlerFind(t *testing.T) {
	v := sampleVideo()

	tests := []struct {
		name string
		path string
		err  error
		want int
	}{
		{"found", "/videos/" + v.ID.String(), nil, http.StatusOK},
		{"invalid uuid", "/videos/not-a-uuid", nil, http.StatusBadRequest},
		{"not found", "/videos/" + uuid.New().String(), videos.ErrNotFound, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sys := &mockSystem{
				findFn: func(_ context.Context, _ uuid.UUID) (*videos.Video, error) {
					if tt.err != nil {
						return nil, tt.err
					}
					return &v, nil
				},
			}
			mux := setupMux(sys.Handler(1 << 20))

			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest("GET", tt.path, nil))

			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestHandlerLatest(t *testing.T) {
	sys := &mockSystem{
		latestFn: func(context.Context) (*videos.Video, error) {
			return nil, videos.ErrNotFound
		},
	}
	mux := setupMux(sys.Handler(1 << 20))

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest("GET", "/videos/latest", nil))

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestHandlerUpload(t *testing.T) {
	t.Run("single file returns 201", func(t *testing.T) {
		v := sampleVideo()
		var got videos.UploadCommand
		var body string
		sys := &mockSystem{
			uploadFn: func(_ context.Context, cmd videos.UploadCommand) (*videos.Video, error) {
				got = cmd
				b, _ := io.ReadAll(cmd.Body)
				body = string(b)
				return &v, nil
			},
		}
		mux := setupMux(sys.Handler(1 << 20))

		buf, ct := multipartBody(t, "idx-9", formFile{name: "clip.mp4", body: "frames"})
		req := httptest.NewRequest("POST", "/videos", buf)
		req.Header.Set("Content-Type", ct)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusCreated {
			t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
		}
		if got.Filename != "clip.mp4" {
			t.Errorf("filename = %q", got.Filename)
		}
		if got.ContentType != "video/mp4" {
			t.Errorf("content type = %q, want video/mp4", got.ContentType)
		}
		if got.IndexID != "idx-9" {
			t.Errorf("index id = %q, want idx-9", got.IndexID)
		}
		if got.SizeBytes != int64(len("frames")) {
			t.Errorf("size = %d", got.SizeBytes)
		}
		if body != "frames" {
			t.Errorf("body = %q", body)
		}
	})

	t.Run("several files return batch results", func(t *testing.T) {
		var count int
		sys := &mockSystem{
			batchFn: func(_ context.Context, cmds []videos.UploadCommand) []videos.BatchResult {
				count = len(cmds)
				results := make([]videos.BatchResult, len(cmds))
				for i, c := range cmds {
					results[i] = videos.BatchResult{Filename: c.Filename, Error: "indexing failed"}
				}
				return results
			},
		}
		mux := setupMux(sys.Handler(1 << 20))

		buf, ct := multipartBody(t, "",
			formFile{name: "a.mp4", contentType: "video/mp4", body: "a"},
			formFile{name: "b.mov", contentType: "video/quicktime", body: "b"},
		)
		req := httptest.NewRequest("POST", "/videos", buf)
		req.Header.Set("Content-Type", ct)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		if count != 2 {
			t.Errorf("batch size = %d, want 2", count)
		}

		var results []videos.BatchResult
		if err := json.NewDecoder(rec.Body).Decode(&results); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if len(results) != 2 || results[1].Filename != "b.mov" {
			t.Errorf("results = %+v", results)
		}
	})

	t.Run("missing file returns 400", func(t *testing.T) {
		sys := &mockSystem{}
		mux := setupMux(sys.Handler(1 << 20))

		buf, ct := multipartBody(t, "idx-1")
		req := httptest.NewRequest("POST", "/videos", buf)
		req.Header.Set("Content-Type", ct)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("non-video file returns 400", func(t *testing.T) {
		sys := &mockSystem{}
		mux := setupMux(sys.Handler(1 << 20))

		buf, ct := multipartBody(t, "", formFile{name: "notes.txt", contentType: "text/plain", body: "hi"})
		req := httptest.NewRequest("POST", "/videos", buf)
		req.Header.Set("Content-Type", ct)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("oversized body returns 413", func(t *testing.T) {
		sys := &mockSystem{}
		mux := setupMux(sys.Handler(64))

		buf, ct := multipartBody(t, "", formFile{name: "big.mp4", body: string(bytes.Repeat([]byte("x"), 1024))})
		req := httptest.NewRequest("POST", "/videos", buf)
		req.Header.Set("Content-Type", ct)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusRequestEntityTooLarge {
			t.Errorf("status = %d, want 413", rec.Code)
		}
	})

	t.Run("indexing timeout maps to 504", func(t *testing.T) {
		sys := &mockSystem{
			uploadFn: func(context.Context, videos.UploadCommand) (*videos.Video, error) {
				return nil, indexing.ErrIndexingTimeout
			},
		}
		mux := setupMux(sys.Handler(1 << 20))

		buf, ct := multipartBody(t, "", formFile{name: "clip.mp4", body: "x"})
		req := httptest.NewRequest("POST", "/videos", buf)
		req.Header.Set("Content-Type", ct)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusGatewayTimeout {
			t.Errorf("status = %d, want 504", rec.Code)
		}
	})
}

func TestHandlerDelete(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"deleted", nil, http.StatusNoContent},
		{"not found", videos.ErrNotFound, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sys := &mockSystem{
				deleteFn: func(context.Context, uuid.UUID) error { return tt.err },
			}
			mux := setupMux(sys.Handler(1 << 20))

			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest("DELETE", "/videos/"+uuid.New().String(), nil))

			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}
