package videos

import (
	"net/url"
	"strings"

	"github.com/JaimeStill/warden/pkg/query"
	"github.com/JaimeStill/warden/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "videos", "v").
	Project("id", "ID").
	Project("index_id", "IndexID").
	Project("video_id", "VideoID").
	Project("task_id", "TaskID").
	Project("filename", "Filename").
	Project("content_type", "ContentType").
	Project("size_bytes", "SizeBytes").
	Project("indexed_at", "IndexedAt")

var defaultSort = query.SortField{
	Field:      "IndexedAt",
	Descending: true,
}

// Filters contains optional filtering criteria for video queries.
// Nil fields are ignored. Filename uses case-insensitive contains matching,
// IndexIDs matches any listed index, and the rest match exactly.
type Filters struct {
	Filename    *string  `json:"filename,omitempty"`
	IndexIDs    []string `json:"index_ids,omitempty"`
	VideoID     *string `json:"video_id,omitempty"`
	ContentType *string `json:"content_type,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	return b.
		WhereContains("Filename", f.Filename).
		WhereIn("IndexID", anySlice(f.IndexIDs)).
		WhereEquals("VideoID", f.VideoID).
		WhereEquals("ContentType", f.ContentType)
}

// FiltersFromQuery extracts filter values from URL query parameters.
// index_id may be repeated or comma-separated.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if v := values.Get("filename"); v != "" {
		f.Filename = &v
	}
	for _, v := range values["index_id"] {
		for id := range strings.SplitSeq(v, ",") {
			if id = strings.TrimSpace(id); id != "" {
				f.IndexIDs = append(f.IndexIDs, id)
			}
		}
	}
	if v := values.Get("video_id"); v != "" {
		f.VideoID = &v
	}
	if v := values.Get("content_type"); v != "" {
		f.ContentType = &v
	}

	return f
}

func anySlice(ids []string) []any {
	out := make([]any, len(ids))
	for i, id := range ids {
		out[i] = id
	}
	return out
}

func scanVideo(s repository.Scanner) (Video, error) {
	var v Video
	err := s.Scan(
		&v.ID,
		&v.IndexID,
		&v.VideoID,
		&v.TaskID,
		&v.Filename,
		&v.ContentType,
		&v.SizeBytes,
		&v.IndexedAt,
	)
	return v, err
}
