package moderation_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"

	"github.com/JaimeStill/warden/internal/analysis"
	"github.com/JaimeStill/warden/internal/gateway"
	"github.com/JaimeStill/warden/internal/indexing"
	"github.com/JaimeStill/warden/internal/moderation"
	"github.com/JaimeStill/warden/internal/taxonomy"
	"github.com/JaimeStill/warden/internal/videos"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type mockGateway struct {
	calls atomic.Int32

	classifyFn func(ctx context.Context, indexID string, classes []taxonomy.PolicyClass) ([]gateway.VideoScores, error)
	generateFn func(ctx context.Context, videoID, prompt string) (string, error)
	playbackFn func(ctx context.Context, indexID, videoID string) (string, error)
}

func (m *mockGateway) CreateIndex(context.Context, string) (string, error) {
	m.calls.Add(1)
	return "", errors.New("unexpected CreateIndex")
}

func (m *mockGateway) SubmitIndexingTask(context.Context, string, gateway.Upload) (string, error) {
	m.calls.Add(1)
	return "", errors.New("unexpected SubmitIndexingTask")
}

func (m *mockGateway) PollTask(context.Context, string) (gateway.TaskStatus, error) {
	m.calls.Add(1)
	return gateway.TaskStatus{}, errors.New("unexpected PollTask")
}

func (m *mockGateway) ResolvePlaybackURL(ctx context.Context, indexID, videoID string) (string, error) {
	m.calls.Add(1)
	if m.playbackFn == nil {
		return "", nil
	}
	return m.playbackFn(ctx, indexID, videoID)
}

func (m *mockGateway) Classify(ctx context.Context, indexID string, classes []taxonomy.PolicyClass) ([]gateway.VideoScores, error) {
	m.calls.Add(1)
	return m.classifyFn(ctx, indexID, classes)
}

func (m *mockGateway) GenerateAnalysis(ctx context.Context, videoID, prompt string) (string, error) {
	m.calls.Add(1)
	return m.generateFn(ctx, videoID, prompt)
}

type mockVideos struct {
	findFn   func(ctx context.Context, id uuid.UUID) (*videos.Video, error)
	latestFn func(ctx context.Context) (*videos.Video, error)
}

func (m *mockVideos) Find(ctx context.Context, id uuid.UUID) (*videos.Video, error) {
	return m.findFn(ctx, id)
}

func (m *mockVideos) Latest(ctx context.Context) (*videos.Video, error) {
	if m.latestFn == nil {
		return nil, videos.ErrNotFound
	}
	return m.latestFn(ctx)
}

func latestVideo(indexID, videoID string) *mockVideos {
	return &mockVideos{
		latestFn: func(context.Context) (*videos.Video, error) {
			return &videos.Video{ID: uuid.New(), IndexID: indexID, VideoID: videoID}, nil
		},
	}
}

func newSystem(gw *mockGateway, src moderation.VideoSource, defaultIndex string) moderation.System {
	return moderation.New(gw, taxonomy.Default(), src, defaultIndex, discard())
}

func TestClasses(t *testing.T) {
	sys := newSystem(&mockGateway{}, &mockVideos{}, "")
	views := sys.Classes()

	classes := taxonomy.Default().Classes()
	if len(views) != len(classes) {
		t.Fatalf("classes = %d, want %d", len(views), len(classes))
	}
	for i, v := range views {
		if v.Name != classes[i].Name {
			t.Errorf("views[%d].Name = %q, want %q", i, v.Name, classes[i].Name)
		}
		if v.Tag == "" {
			t.Errorf("views[%d].Tag is empty", i)
		}
	}
}

func TestClassifyRejectsBeforeRemoteCall(t *testing.T) {
	tests := []struct {
		name    string
		classes []string
	}{
		{"empty selection", nil},
		{"only unknown names", []string{"Jaywalking", "Littering"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw := &mockGateway{}
			sys := newSystem(gw, latestVideo("idx-1", "vid-1"), "idx-default")

			_, err := sys.Classify(context.Background(), moderation.ClassifyCommand{Classes: tt.classes})
			if !errors.Is(err, moderation.ErrNoClassesSelected) {
				t.Fatalf("err = %v, want ErrNoClassesSelected", err)
			}
			if n := gw.calls.Load(); n != 0 {
				t.Errorf("gateway calls = %d, want 0", n)
			}
		})
	}
}

func TestClassify(t *testing.T) {
	var gotIndex string
	var gotClasses []string
	gw := &mockGateway{
		classifyFn: func(_ context.Context, indexID string, classes []taxonomy.PolicyClass) ([]gateway.VideoScores, error) {
			gotIndex = indexID
			for _, c := range classes {
				gotClasses = append(gotClasses, c.Name)
			}
			return []gateway.VideoScores{
				{VideoID: "vid-1", Classes: []gateway.ClassScore{{Name: "Violence", Score: json.Number("87")}}},
				{VideoID: "vid-2", Classes: []gateway.ClassScore{{Name: "Violence", Score: json.Number("0.1")}}},
				{VideoID: "vid-1", Classes: []gateway.ClassScore{{Name: "Harassment", Score: json.Number("0.2")}}},
			}, nil
		},
		playbackFn: func(_ context.Context, _, videoID string) (string, error) {
			if videoID == "vid-2" {
				return "", nil
			}
			return "https://cdn.example/" + videoID + ".m3u8", nil
		},
	}

	sys := newSystem(gw, latestVideo("idx-latest", "vid-1"), "idx-default")

	resp, err := sys.Classify(context.Background(), moderation.ClassifyCommand{
		Classes: []string{"Harassment", "Unknown", "Violence"},
	})
	if err != nil {
		t.Fatalf("Classify error: %v", err)
	}

	if gotIndex != "idx-latest" {
		t.Errorf("index = %q, want idx-latest", gotIndex)
	}
	if strings.Join(gotClasses, ",") != "Harassment,Violence" {
		t.Errorf("classes = %v, want [Harassment Violence]", gotClasses)
	}
	if !resp.Success || resp.IndexID != "idx-latest" {
		t.Errorf("envelope = %+v", resp)
	}
	if len(resp.Results) != 3 {
		t.Fatalf("results = %d, want 3", len(resp.Results))
	}
	if s := resp.Results[0].Scores[0].Score; s != 0.87 {
		t.Errorf("score = %v, want 0.87", s)
	}
	if u := resp.Results[0].VideoURL; u == nil || *u != "https://cdn.example/vid-1.m3u8" {
		t.Errorf("video url = %v", u)
	}
	if resp.Results[1].VideoURL != nil {
		t.Errorf("vid-2 url = %v, want nil", *resp.Results[1].VideoURL)
	}

	// one classify call plus one playback lookup per distinct video
	if n := gw.calls.Load(); n != 3 {
		t.Errorf("gateway calls = %d, want 3", n)
	}
}

func TestClassifyIndexResolution(t *testing.T) {
	tests := []struct {
		name         string
		requested    string
		source       *mockVideos
		defaultIndex string
		want         string
		wantErr      error
	}{
		{"request wins", "idx-req", latestVideo("idx-latest", "v"), "idx-default", "idx-req", nil},
		{"latest video", "", latestVideo("idx-latest", "v"), "idx-default", "idx-latest", nil},
		{"configured default", "", &mockVideos{}, "idx-default", "idx-default", nil},
		{"nothing indexed", "", &mockVideos{}, "", "", moderation.ErrNoVideoIndexed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			gw := &mockGateway{
				classifyFn: func(_ context.Context, indexID string, _ []taxonomy.PolicyClass) ([]gateway.VideoScores, error) {
					got = indexID
					return nil, nil
				},
			}
			sys := newSystem(gw, tt.source, tt.defaultIndex)

			_, err := sys.Classify(context.Background(), moderation.ClassifyCommand{
				Classes: []string{"Violence"},
				IndexID: tt.requested,
			})
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("index = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestClassifyGatewayError(t *testing.T) {
	gw := &mockGateway{
		classifyFn: func(context.Context, string, []taxonomy.PolicyClass) ([]gateway.VideoScores, error) {
			return nil, fmt.Errorf("classify: %w", gateway.ErrRejected)
		},
	}
	sys := newSystem(gw, &mockVideos{}, "idx-default")

	_, err := sys.Classify(context.Background(), moderation.ClassifyCommand{Classes: []string{"Violence"}})
	if !errors.Is(err, gateway.ErrRejected) {
		t.Fatalf("err = %v, want ErrRejected", err)
	}
	if moderation.MapHTTPStatus(err) != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", moderation.MapHTTPStatus(err))
	}
}

func TestAnalyze(t *testing.T) {
	t.Run("structured report", func(t *testing.T) {
		var gotVideo, gotPrompt string
		gw := &mockGateway{
			generateFn: func(_ context.Context, videoID, prompt string) (string, error) {
				gotVideo, gotPrompt = videoID, prompt
				return "```json\n{\"summary\":\"fight\",\"risk_level\":\"high\",\"violations\":[{\"type\":\"violence\",\"severity\":\"high\",\"timestamp\":12}]}\n```", nil
			},
			playbackFn: func(context.Context, string, string) (string, error) {
				return "https://cdn.example/v.m3u8", nil
			},
		}
		sys := newSystem(gw, &mockVideos{}, "")

		resp, err := sys.Analyze(context.Background(), moderation.AnalyzeCommand{IndexID: "idx-1", VideoID: "vid-1"})
		if err != nil {
			t.Fatalf("Analyze error: %v", err)
		}

		if gotVideo != "vid-1" {
			t.Errorf("video = %q, want vid-1", gotVideo)
		}
		if gotPrompt != analysis.Prompt() {
			t.Error("prompt does not match analysis.Prompt()")
		}
		if !resp.Success || resp.Timestamp.IsZero() {
			t.Errorf("envelope = %+v", resp)
		}
		if resp.VideoURL == nil || *resp.VideoURL != "https://cdn.example/v.m3u8" {
			t.Errorf("video url = %v", resp.VideoURL)
		}
		if !resp.Analysis.Parsed || resp.Analysis.RiskLevel != analysis.RiskHigh || resp.Analysis.ViolationCount != 1 {
			t.Errorf("analysis = %+v", resp.Analysis)
		}
	})

	t.Run("unreadable text falls back", func(t *testing.T) {
		gw := &mockGateway{
			generateFn: func(context.Context, string, string) (string, error) {
				return "I could not watch this video.", nil
			},
		}
		sys := newSystem(gw, &mockVideos{}, "")

		resp, err := sys.Analyze(context.Background(), moderation.AnalyzeCommand{VideoID: "vid-1"})
		if err != nil {
			t.Fatalf("Analyze error: %v", err)
		}
		if resp.Analysis.Parsed {
			t.Error("fallback report marked as parsed")
		}
		if resp.Analysis.Summary != "I could not watch this video." {
			t.Errorf("summary = %q", resp.Analysis.Summary)
		}
		if resp.VideoURL != nil {
			t.Errorf("video url = %v, want nil without an index", *resp.VideoURL)
		}
	})

	t.Run("defaults to latest video", func(t *testing.T) {
		var gotVideo, gotIndex string
		gw := &mockGateway{
			generateFn: func(_ context.Context, videoID, _ string) (string, error) {
				gotVideo = videoID
				return `{"summary":"clean"}`, nil
			},
			playbackFn: func(_ context.Context, indexID, _ string) (string, error) {
				gotIndex = indexID
				return "", nil
			},
		}
		sys := newSystem(gw, latestVideo("idx-latest", "vid-latest"), "")

		if _, err := sys.Analyze(context.Background(), moderation.AnalyzeCommand{}); err != nil {
			t.Fatalf("Analyze error: %v", err)
		}
		if gotVideo != "vid-latest" || gotIndex != "idx-latest" {
			t.Errorf("target = %s/%s, want idx-latest/vid-latest", gotIndex, gotVideo)
		}
	})

	t.Run("nothing indexed", func(t *testing.T) {
		gw := &mockGateway{}
		sys := newSystem(gw, &mockVideos{}, "idx-default")

		_, err := sys.Analyze(context.Background(), moderation.AnalyzeCommand{})
		if !errors.Is(err, moderation.ErrNoVideoIndexed) {
			t.Fatalf("err = %v, want ErrNoVideoIndexed", err)
		}
		if n := gw.calls.Load(); n != 0 {
			t.Errorf("gateway calls = %d, want 0", n)
		}
	})

	t.Run("playback failure degrades to no url", func(t *testing.T) {
		gw := &mockGateway{
			generateFn: func(context.Context, string, string) (string, error) {
				return `{"summary":"clean"}`, nil
			},
			playbackFn: func(context.Context, string, string) (string, error) {
				return "", gateway.ErrUnavailable
			},
		}
		sys := newSystem(gw, &mockVideos{}, "")

		resp, err := sys.Analyze(context.Background(), moderation.AnalyzeCommand{IndexID: "idx", VideoID: "vid"})
		if err != nil {
			t.Fatalf("Analyze error: %v", err)
		}
		if resp.VideoURL != nil {
			t.Errorf("video url = %v, want nil", *resp.VideoURL)
		}
	})

	t.Run("generate failure propagates", func(t *testing.T) {
		gw := &mockGateway{
			generateFn: func(context.Context, string, string) (string, error) {
				return "", gateway.ErrUnavailable
			},
		}
		sys := newSystem(gw, &mockVideos{}, "")

		_, err := sys.Analyze(context.Background(), moderation.AnalyzeCommand{VideoID: "vid"})
		if !errors.Is(err, gateway.ErrUnavailable) {
			t.Errorf("err = %v, want ErrUnavailable", err)
		}
	})
}

func TestAnalyzeVideo(t *testing.T) {
	id := uuid.New()
	src := &mockVideos{
		findFn: func(_ context.Context, got uuid.UUID) (*videos.Video, error) {
			if got != id {
				return nil, videos.ErrNotFound
			}
			return &videos.Video{ID: id, IndexID: "idx-9", VideoID: "vid-9"}, nil
		},
	}

	var gotVideo string
	gw := &mockGateway{
		generateFn: func(_ context.Context, videoID, _ string) (string, error) {
			gotVideo = videoID
			return `{"summary":"ok"}`, nil
		},
	}
	sys := newSystem(gw, src, "")

	resp, err := sys.AnalyzeVideo(context.Background(), id)
	if err != nil {
		t.Fatalf("AnalyzeVideo error: %v", err)
	}
	if gotVideo != "vid-9" || resp.IndexID != "idx-9" {
		t.Errorf("target = %s/%s", resp.IndexID, gotVideo)
	}

	_, err = sys.AnalyzeVideo(context.Background(), uuid.New())
	if moderation.MapHTTPStatus(err) != http.StatusNotFound {
		t.Errorf("status = %d, want 404", moderation.MapHTTPStatus(err))
	}
}

func TestMapHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"no classes", moderation.ErrNoClassesSelected, http.StatusBadRequest},
		{"no video", moderation.ErrNoVideoIndexed, http.StatusBadRequest},
		{"video not found", videos.ErrNotFound, http.StatusNotFound},
		{"indexing failed", indexing.ErrIndexingFailed, http.StatusUnprocessableEntity},
		{"indexing timeout", indexing.ErrIndexingTimeout, http.StatusGatewayTimeout},
		{"unavailable", gateway.ErrUnavailable, http.StatusServiceUnavailable},
		{"rejected", gateway.ErrRejected, http.StatusBadGateway},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := moderation.MapHTTPStatus(tt.err); got != tt.want {
				t.Errorf("MapHTTPStatus(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}
