package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"SentiMatch/pkg/logger"

	"github.com/redis/go-redis/v9"
)

// Consumer runs a pool of BRPOP workers plus a promoter that moves due
// retries back to the pending list. It satisfies server.Service.
type Consumer struct {
	rdb      *redis.Client
	cfg      Config
	keys     keys
	log      *logger.Logger
	jobs     map[string]Job
	observer Observer

	mu     sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewConsumer(rdb *redis.Client, cfg Config, log *logger.Logger) *Consumer {
	cfg.applyDefaults()
	if log == nil {
		log = logger.Nop()
	}
	return &Consumer{
		rdb:  rdb,
		cfg:  cfg,
		keys: keysFor(cfg.Prefix),
		log:  log.With(logger.String("component", "queue")),
		jobs: make(map[string]Job),
	}
}

// Register adds jobs; a second job for the same type is ignored.
func (c *Consumer) Register(jobs ...Job) *Consumer {
	for _, j := range jobs {
		if _, dup := c.jobs[j.Type()]; dup {
			c.log.Warn("duplicate job type", logger.String("type", j.Type()), logger.String("job", j.Name()))
			continue
		}
		c.jobs[j.Type()] = j
	}
	return c
}

func (c *Consumer) Observe(fn Observer) *Consumer {
	c.observer = fn
	return c
}

func (c *Consumer) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		return errors.New("queue consumer already started")
	}

	pingCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
	defer done()
	if err := c.rdb.Ping(pingCtx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}

	c.ctx, c.cancel = context.WithCancel(context.Background())
	for i := 0; i < c.cfg.Workers; i++ {
		c.wg.Add(1)
		go c.work(i)
	}
	c.wg.Add(1)
	go c.promoteLoop()

	c.log.Info("queue consumer started",
		logger.Int("workers", c.cfg.Workers),
		logger.String("list", c.keys.pending))
	return nil
}

// Stop cancels in-flight handlers and waits for the workers to requeue them.
func (c *Consumer) Stop(ctx context.Context) error {
	c.mu.Lock()
	cancel := c.cancel
	c.mu.Unlock()
	if cancel == nil {
		return nil
	}
	cancel()

	finished := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(finished)
	}()
	select {
	case <-finished:
		c.log.Info("queue consumer stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("queue workers still busy: %w", ctx.Err())
	}
}

func (c *Consumer) work(id int) {
	defer c.wg.Done()
	for c.ctx.Err() == nil {
		raw, err := c.pop()
		if err != nil {
			c.log.Error("brpop", logger.Int("worker", id), logger.Error(err))
			sleepCtx(c.ctx, c.cfg.Poll)
			continue
		}
		if raw == "" {
			continue
		}
		var env envelope
		if err := json.Unmarshal([]byte(raw), &env); err != nil {
			c.log.Error("undecodable message dropped", logger.Error(err))
			continue
		}
		c.dispatch(c.ctx, env)
	}
}

// pop returns "" when nothing arrived within the poll interval.
func (c *Consumer) pop() (string, error) {
	res, err := c.rdb.BRPop(c.ctx, c.cfg.Poll, c.keys.pending).Result()
	switch {
	case err == nil && len(res) == 2:
		return res[1], nil
	case err == nil, errors.Is(err, redis.Nil), c.ctx.Err() != nil:
		return "", nil
	}
	return "", err
}

func (c *Consumer) dispatch(ctx context.Context, env envelope) {
	job, ok := c.jobs[env.Type]
	if !ok {
		c.log.Error("no job for message type", logger.String("type", env.Type), logger.String("id", env.ID))
		return
	}

	err := job.Handle(ctx, env.Payload)
	if c.observer != nil {
		c.observer(env.Type, env.Attempts+1, err)
	}
	switch {
	case err == nil:
	case ctx.Err() != nil && errors.Is(err, context.Canceled):
		// interrupted by shutdown: due immediately, attempt not counted
		c.log.Warn("requeueing interrupted message", logger.String("id", env.ID))
		c.delay(env, time.Now())
	case env.Attempts < c.cfg.RetryLimit:
		env.Attempts++
		at := time.Now().Add(c.cfg.RetryDelay)
		c.log.Warn("job failed, retrying",
			logger.String("id", env.ID),
			logger.String("job", job.Name()),
			logger.Int("attempt", env.Attempts),
			logger.Time("retry_at", at),
			logger.Error(err))
		c.delay(env, at)
	default:
		c.log.Error("job failed permanently",
			logger.String("id", env.ID),
			logger.String("job", job.Name()),
			logger.Error(err))
		c.bury(env)
	}
}

// delay and bury run on a fresh context so they still land during shutdown.
func (c *Consumer) delay(env envelope, at time.Time) {
	b, err := json.Marshal(env)
	if err != nil {
		c.log.Error("encode retry", logger.Error(err))
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := c.rdb.ZAdd(ctx, c.keys.delayed, redis.Z{Score: float64(at.Unix()), Member: b}).Err(); err != nil {
		c.log.Error("zadd retry", logger.Error(err))
	}
}

func (c *Consumer) bury(env envelope) {
	b, err := json.Marshal(env)
	if err != nil {
		c.log.Error("encode dead letter", logger.Error(err))
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := c.rdb.LPush(ctx, c.keys.dead, b).Err(); err != nil {
		c.log.Error("lpush dead letter", logger.Error(err))
	}
}

func (c *Consumer) promoteLoop() {
	defer c.wg.Done()
	t := time.NewTicker(c.cfg.Promote)
	defer t.Stop()
	for {
		select {
		case <-c.ctx.Done():
			return
		case <-t.C:
			if _, err := c.promote(c.ctx, time.Now()); err != nil && c.ctx.Err() == nil {
				c.log.Error("promote retries", logger.Error(err))
			}
		}
	}
}

// promoteLua pushes ARGV[1] only if this caller removed it from the retry set,
// so concurrent consumers never promote the same envelope twice.
const promoteLua = `if redis.call("ZREM", KEYS[1], ARGV[1]) == 1 then
	redis.call("LPUSH", KEYS[2], ARGV[1])
	return 1
end
return 0`

// promote moves every retry due at now back onto the pending list and
// reports how many this consumer moved.
func (c *Consumer) promote(ctx context.Context, now time.Time) (int, error) {
	due, err := c.rdb.ZRangeByScore(ctx, c.keys.delayed, &redis.ZRangeBy{
		Min: "-inf",
		Max: strconv.FormatInt(now.Unix(), 10),
	}).Result()
	if err != nil {
		return 0, err
	}
	moved := 0
	for _, member := range due {
		n, err := c.rdb.Eval(ctx, promoteLua, []string{c.keys.delayed, c.keys.pending}, member).Int()
		if err != nil {
			return moved, err
		}
		moved += n
	}
	return moved, nil
}

func sleepCtx(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
