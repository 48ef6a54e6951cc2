// Package moderation is the caller-facing surface of the pipeline. It resolves
// class selections against the taxonomy, runs classification and generative
// analysis through the gateway, and shapes the results into response envelopes.
package moderation

import (
	"time"

	"github.com/JaimeStill/warden/internal/analysis"
)

// ClassView is a catalogue entry as presented to callers.
type ClassView struct {
	Name    string   `json:"name"`
	Tag     string   `json:"tag"`
	Prompts []string `json:"prompts"`
}

// ClassifyCommand selects the classes to score. IndexID is optional; when
// empty the index of the most recently indexed video is used, then the
// configured default index.
type ClassifyCommand struct {
	Classes []string `json:"classes"`
	IndexID string   `json:"index_id,omitempty"`
}

// AnalyzeCommand targets one video. When VideoID is empty the most recently
// indexed video is analyzed.
type AnalyzeCommand struct {
	IndexID string `json:"index_id,omitempty"`
	VideoID string `json:"video_id,omitempty"`
}

// ClassifyResponse is the success envelope for classification.
type ClassifyResponse struct {
	Success bool                            `json:"success"`
	IndexID string                          `json:"index_id"`
	Results []analysis.ClassificationResult `json:"results"`
}

// AnalyzeResponse is the success envelope for generative analysis.
type AnalyzeResponse struct {
	Success   bool                     `json:"success"`
	Timestamp time.Time                `json:"timestamp"`
	IndexID   string                   `json:"index_id,omitempty"`
	VideoID   string                   `json:"video_id"`
	VideoURL  *string                  `json:"video_url"`
	Analysis  analysis.ViolationReport `json:"analysis"`
}
