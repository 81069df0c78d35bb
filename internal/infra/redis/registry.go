package redis

import (
	"context"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"
)

// Registry records live client instances so a controller can find them.
// Notes:
//   - Each instance owns a liveness key set with SETNX, so registering the
//     same instance twice is detected rather than duplicated.
//   - The per-participant set may briefly list an instance whose liveness key
//     expired; Instances filters those out.
type Registry struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRegistry(client *redis.Client, ttl time.Duration) *Registry {
	return &Registry{client: client, ttl: ttl}
}

func (r *Registry) Register(ctx context.Context, participantID, instanceID string) (bool, error) {
	key := r.instanceKey(participantID, instanceID)
	pipe := r.client.TxPipeline()
	setNX := pipe.SetNX(ctx, key, "1", r.ttl)
	pipe.SAdd(ctx, r.setKey(participantID), instanceID)
	if _, err := pipe.Exec(ctx); err != nil {
		// MULTI does not roll back; drop a liveness key nobody will list.
		if setNX.Err() == nil && setNX.Val() {
			_ = r.client.Del(ctx, key).Err()
		}
		return false, err
	}
	return !setNX.Val(), nil
}

// Refresh extends the liveness key of a registered instance.
func (r *Registry) Refresh(ctx context.Context, participantID, instanceID string) error {
	if r.ttl <= 0 {
		return nil
	}
	return r.client.Expire(ctx, r.instanceKey(participantID, instanceID), r.ttl).Err()
}

func (r *Registry) Unregister(ctx context.Context, participantID, instanceID string) error {
	pipe := r.client.TxPipeline()
	pipe.Del(ctx, r.instanceKey(participantID, instanceID))
	pipe.SRem(ctx, r.setKey(participantID), instanceID)
	_, err := pipe.Exec(ctx)
	return err
}

// Instances lists live instance ids for a participant, sorted.
func (r *Registry) Instances(ctx context.Context, participantID string) ([]string, error) {
	ids, err := r.client.SMembers(ctx, r.setKey(participantID)).Result()
	if err != nil {
		return nil, err
	}
	live := make([]string, 0, len(ids))
	for _, id := range ids {
		n, err := r.client.Exists(ctx, r.instanceKey(participantID, id)).Result()
		if err != nil {
			return nil, err
		}
		if n > 0 {
			live = append(live, id)
		}
	}
	sort.Strings(live)
	return live, nil
}

func (r *Registry) instanceKey(participantID, instanceID string) string {
	return "trivia:instance:" + participantID + ":" + instanceID
}

func (r *Registry) setKey(participantID string) string {
	return "trivia:instances:" + participantID
}
