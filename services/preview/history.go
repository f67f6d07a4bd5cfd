package preview

import (
	"context"
	"encoding/json"
	"time"

	"smplat-platform/pkg/config"
	"smplat-platform/pkg/rediskey"
	"smplat-platform/pkg/repository"

	"github.com/bwmarrin/snowflake"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// History persists compact delta records after each broadcast. Writes are
// best-effort: the caller logs a failure and moves on, the publish response
// never waits on or reflects the outcome.
type History struct {
	deltas repository.Repository[Delta]
	redis  *redis.Client
	node   *snowflake.Node
	limit  int
}

type HistoryParams struct {
	fx.In
	Config *config.Config
	DB     *gorm.DB
	Redis  *redis.Client `optional:"true"`
	Node   *snowflake.Node
}

func NewHistory(p HistoryParams) *History {
	return &History{
		deltas: repository.ProvideStore[Delta](p.DB),
		redis:  p.Redis,
		node:   p.Node,
		limit:  p.Config.Preview.HistoryLimit,
	}
}

// Record writes the delta row and pushes a trimmed copy onto the variant's
// recent-delta list.
func (h *History) Record(ctx context.Context, broadcast *Broadcast, env *Envelope) error {
	kinds, err := json.Marshal(broadcast.BlockKinds)
	if err != nil {
		return err
	}

	delta := &Delta{
		ID:         h.node.Generate().String(),
		Variant:    broadcast.Variant,
		Route:      broadcast.Route,
		Collection: env.Collection,
		Slug:       env.Slug,
		BlockKinds: datatypes.JSON(kinds),
		Rendered:   broadcast.Validation.Rendered,
		Skipped:    broadcast.Validation.Skipped,
		CreatedAt:  time.Now().UTC(),
	}

	if err := h.deltas.Create(ctx, delta); err != nil {
		return err
	}

	if h.redis == nil {
		return nil
	}

	entry, err := json.Marshal(map[string]any{
		"id":         delta.ID,
		"route":      delta.Route,
		"blockKinds": broadcast.BlockKinds,
		"createdAt":  delta.CreatedAt,
	})
	if err != nil {
		return err
	}

	key := rediskey.BuildPreviewDeltaKey(broadcast.Variant)
	pipe := h.redis.Pipeline()
	pipe.LPush(ctx, key, entry)
	pipe.LTrim(ctx, key, 0, int64(h.limit-1))
	_, err = pipe.Exec(ctx)
	return err
}
