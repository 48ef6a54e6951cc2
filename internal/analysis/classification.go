// Package analysis converts loosely typed provider output into strict result
// shapes. Every function is a pure transform; no remote calls are made here.
package analysis

import (
	"encoding/json"
	"math"

	"github.com/JaimeStill/warden/internal/gateway"
	"github.com/JaimeStill/warden/internal/taxonomy"
)

// Score is one normalized class score. DurationRatio is nil when the provider
// did not report a usable value.
type Score struct {
	ClassName     string   `json:"name"`
	Tag           string   `json:"tag"`
	Score         float64  `json:"score"`
	DurationRatio *float64 `json:"duration_ratio"`
}

// ClassificationResult holds the normalized scores for one video. VideoURL is
// nil until the caller resolves a playback URL for the video.
type ClassificationResult struct {
	VideoID  string  `json:"video_id"`
	VideoURL *string `json:"video_url"`
	Scores   []Score `json:"classes"`
}

// NormalizeClassification maps provider scores into ClassificationResults,
// preserving provider order for both videos and classes. Scores are coerced to
// floats and clamped to [0,1].
func NormalizeClassification(raw []gateway.VideoScores, registry *taxonomy.Registry) []ClassificationResult {
	results := make([]ClassificationResult, 0, len(raw))

	for _, v := range raw {
		scores := make([]Score, 0, len(v.Classes))
		for _, c := range v.Classes {
			scores = append(scores, Score{
				ClassName:     c.Name,
				Tag:           registry.Tag(c.Name),
				Score:         coerceScore(c.Score),
				DurationRatio: coerceRatio(c.DurationRatio),
			})
		}

		results = append(results, ClassificationResult{
			VideoID: v.VideoID,
			Scores:  scores,
		})
	}

	return results
}

func coerceScore(n json.Number) float64 {
	f, err := n.Float64()
	if err != nil {
		return 0
	}
	return clamp(f)
}

func coerceRatio(n json.Number) *float64 {
	if n == "" {
		return nil
	}
	f, err := n.Float64()
	if err != nil {
		return nil
	}
	f = clamp(f)
	return &f
}

func clamp(f float64) float64 {
	switch {
	case math.IsNaN(f):
		return 0
	case f < 0:
		return 0
	case f > 1:
		return 1
	default:
		return f
	}
}
