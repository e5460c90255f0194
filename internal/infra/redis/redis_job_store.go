package redis

import (
	"context"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/oklog/ulid/v2"

	"tenant-fanout-pipeline/internal/domain/model"
	"tenant-fanout-pipeline/internal/domain/ports/repository"
)

var _ repository.JobStore = (*jobStore)(nil)

// jobStore is the Redis queue driver. Layout per queue name:
//
//	pipeline:q:<name>        ZSET  message id scored by visible_at (unix ms)
//	pipeline:q:<name>:age    ZSET  message id scored by enqueued_at (unix ms)
//	pipeline:q:<name>:msg:<id>  HASH  message payload + delivery_count
//
// The claim runs as a Lua script so that selecting due messages and bumping
// their visibility is one atomic step; two concurrent readers can never claim
// the same message inside its visibility window.
type jobStore struct {
	cli   *redis.Client
	queue string
}

var claimScript = redis.NewScript(`
local ids = redis.call('ZRANGEBYSCORE', KEYS[1], '-inf', ARGV[1], 'LIMIT', 0, tonumber(ARGV[3]))
local out = {}
for i, id in ipairs(ids) do
  redis.call('ZADD', KEYS[1], ARGV[2], id)
  local key = KEYS[1] .. ':msg:' .. id
  local dc = redis.call('HINCRBY', key, 'delivery_count', 1)
  local m = redis.call('HMGET', key, 'tenant_id', 'job_key', 'enqueued_at', 'original_message_id', 'original_delivery_count')
  out[#out+1] = {id, m[1], m[2], dc, m[3], m[4], m[5]}
end
return out
`)

var ackScript = redis.NewScript(`
redis.call('ZREM', KEYS[1], ARGV[1])
redis.call('ZREM', KEYS[2], ARGV[1])
redis.call('DEL', KEYS[1] .. ':msg:' .. ARGV[1])
return 1
`)

func NewJobStore(cli *redis.Client, queue string) *jobStore {
	return &jobStore{cli: cli, queue: queue}
}

func (s *jobStore) key() string    { return "pipeline:q:" + s.queue }
func (s *jobStore) ageKey() string { return s.key() + ":age" }
func (s *jobStore) msgKey(id string) string {
	return s.key() + ":msg:" + id
}

func (s *jobStore) Enqueue(ctx context.Context, msg *model.Message) (string, error) {
	id := ulid.Make().String()
	nowMs := time.Now().UnixMilli()

	pipe := s.cli.TxPipeline()
	pipe.HSet(ctx, s.msgKey(id),
		"tenant_id", msg.TenantID,
		"job_key", msg.JobKey,
		"delivery_count", 0,
		"enqueued_at", nowMs,
		"original_message_id", msg.OriginalMessageID,
		"original_delivery_count", msg.OriginalDeliveryCount,
	)
	pipe.ZAdd(ctx, s.key(), &redis.Z{Score: float64(nowMs), Member: id})
	pipe.ZAdd(ctx, s.ageKey(), &redis.Z{Score: float64(nowMs), Member: id})
	if _, err := pipe.Exec(ctx); err != nil {
		return "", err
	}
	return id, nil
}

func (s *jobStore) ReadBatch(ctx context.Context, maxCount int, visibilityTimeout time.Duration) ([]*model.Message, error) {
	if maxCount <= 0 {
		return nil, nil
	}
	now := time.Now()
	res, err := claimScript.Run(ctx, s.cli,
		[]string{s.key()},
		now.UnixMilli(),
		now.Add(visibilityTimeout).UnixMilli(),
		maxCount,
	).Result()
	if err != nil {
		return nil, err
	}

	rows, _ := res.([]interface{})
	out := make([]*model.Message, 0, len(rows))
	for _, raw := range rows {
		fields, ok := raw.([]interface{})
		if !ok || len(fields) < 7 {
			continue
		}
		m := &model.Message{
			ID:            asString(fields[0]),
			TenantID:      asString(fields[1]),
			JobKey:        asString(fields[2]),
			DeliveryCount: int(asInt64(fields[3])),
			EnqueuedAt:    time.UnixMilli(asInt64(fields[4])),
			VisibleAt:     now.Add(visibilityTimeout),
		}
		m.OriginalMessageID = asString(fields[5])
		m.OriginalDeliveryCount = int(asInt64(fields[6]))
		out = append(out, m)
	}
	return out, nil
}

func (s *jobStore) Ack(ctx context.Context, messageID string) error {
	return ackScript.Run(ctx, s.cli, []string{s.key(), s.ageKey()}, messageID).Err()
}

func (s *jobStore) Metrics(ctx context.Context) (*model.QueueMetrics, error) {
	count, err := s.cli.ZCard(ctx, s.key()).Result()
	if err != nil {
		return nil, err
	}
	m := &model.QueueMetrics{PendingCount: int(count)}
	if count == 0 {
		return m, nil
	}

	oldest, err := s.cli.ZRangeWithScores(ctx, s.ageKey(), 0, 0).Result()
	if err != nil {
		return nil, err
	}
	if len(oldest) > 0 {
		m.OldestAge = time.Since(time.UnixMilli(int64(oldest[0].Score)))
	}
	return m, nil
}

func asString(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case []byte:
		return string(t)
	default:
		return ""
	}
}

func asInt64(v interface{}) int64 {
	switch t := v.(type) {
	case int64:
		return t
	case string:
		n, _ := strconv.ParseInt(t, 10, 64)
		return n
	default:
		return 0
	}
}
