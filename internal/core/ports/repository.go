package ports

import (
	"context"

	"github.com/ewilliams-labs/decades/internal/core/domain"
)

// MasterSource loads the full, unpartitioned table.
type MasterSource interface {
	LoadMaster(ctx context.Context) (domain.Table, error)
}

// TableSource loads the master table and its decade shards.
type TableSource interface {
	MasterSource
	// LoadShard returns domain.ErrNotFound when no shard exists for decade.
	LoadShard(ctx context.Context, decade domain.Decade) (domain.Table, error)
	// Decades lists the stored shards in chronological order.
	Decades(ctx context.Context) ([]domain.Decade, error)
}

// ShardSink persists the output of a partitioning run.
type ShardSink interface {
	WriteShards(ctx context.Context, source string, shards []domain.Shard) (domain.Manifest, error)
}

// ShardStore is a storage backend that can both read and write shards.
type ShardStore interface {
	TableSource
	ShardSink
}
