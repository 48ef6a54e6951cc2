package videos

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/JaimeStill/warden/internal/indexing"
	"github.com/JaimeStill/warden/pkg/formatting"
	"github.com/JaimeStill/warden/pkg/pagination"
	"github.com/JaimeStill/warden/pkg/query"
	"github.com/JaimeStill/warden/pkg/repository"
)

type repo struct {
	db            *sql.DB
	indexer       Indexer
	logger        *slog.Logger
	pagination    pagination.Config
	maxConcurrent int
}

// New creates a video repository implementing the System interface.
func New(
	db *sql.DB,
	indexer Indexer,
	logger *slog.Logger,
	pagination pagination.Config,
	maxConcurrent int,
) System {
	return &repo{
		db:            db,
		indexer:       indexer,
		logger:        logger.With("system", "videos"),
		pagination:    pagination,
		maxConcurrent: max(maxConcurrent, 1),
	}
}

func (r *repo) Handler(maxUploadSize int64) *Handler {
	return NewHandler(r, r.logger, r.pagination, maxUploadSize)
}

func (r *repo) List(
	ctx context.Context,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Video], error) {
	page.Normalize(r.pagination)

	qb := query.
		NewBuilder(projection, defaultSort).
		WhereSearch(page.Search, "Filename", "VideoID")

	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	total, err := repository.QueryCount(ctx, r.db, countSQL, countArgs)
	if err != nil {
		return nil, fmt.Errorf("count videos: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	videos, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanVideo)
	if err != nil {
		return nil, fmt.Errorf("query videos: %w", err)
	}

	result := pagination.NewPageResult(videos, total, page.Page, page.PageSize)
	return &result, nil
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Video, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ID", id)

	v, err := repository.QueryOne(ctx, r.db, q, args, scanVideo)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &v, nil
}

func (r *repo) Latest(ctx context.Context) (*Video, error) {
	q, args := query.NewBuilder(projection, defaultSort).BuildFirst()

	v, err := repository.QueryOne(ctx, r.db, q, args, scanVideo)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &v, nil
}

func (r *repo) Upload(ctx context.Context, cmd UploadCommand) (*Video, error) {
	job, err := r.indexer.Run(ctx, indexing.Request{
		IndexID:     cmd.IndexID,
		Filename:    cmd.Filename,
		ContentType: cmd.ContentType,
		Body:        cmd.Body,
	})
	if err != nil {
		return nil, fmt.Errorf("index %s: %w", cmd.Filename, err)
	}

	q := `
		INSERT INTO videos(id, index_id, video_id, task_id, filename, content_type, size_bytes)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, index_id, video_id, task_id, filename, content_type, size_bytes, indexed_at`

	args := []any{
		uuid.New(),
		job.IndexID,
		job.VideoID,
		job.TaskID,
		cmd.Filename,
		cmd.ContentType,
		cmd.SizeBytes,
	}

	v, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Video, error) {
		return repository.QueryOne(ctx, tx, q, args, scanVideo)
	})
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("video recorded",
		"id", v.ID,
		"index_id", v.IndexID,
		"video_id", v.VideoID,
		"filename", v.Filename,
		"size", formatting.FormatBytes(v.SizeBytes, 1))
	return &v, nil
}

func (r *repo) UploadBatch(ctx context.Context, cmds []UploadCommand) []BatchResult {
	results := make([]BatchResult, len(cmds))

	var g errgroup.Group
	g.SetLimit(r.maxConcurrent)

	for i, cmd := range cmds {
		g.Go(func() error {
			results[i].Filename = cmd.Filename

			v, err := r.Upload(ctx, cmd)
			if err != nil {
				r.logger.Warn("batch item failed", "filename", cmd.Filename, "error", err)
				results[i].Error = err.Error()
				return nil
			}

			results[i].Video = v
			return nil
		})
	}

	g.Wait()
	return results
}

func (r *repo) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (struct{}, error) {
		return struct{}{}, repository.ExecExpectOne(
			ctx, tx,
			"DELETE FROM videos WHERE id = $1",
			id,
		)
	})
	if err != nil {
		return repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("video deleted", "id", id)
	return nil
}
