// Package events publishes round events and balance updates to Redis
// pub/sub so dashboards can follow a table without polling it.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/emanna1/blackjack-game/internal/round"
)

const (
	publishTimeout = 2 * time.Second
	connectRetries = 10
	connectBackoff = 2 * time.Second
)

// publisher is the slice of *redis.Client the Publisher needs.
type publisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// BalanceUpdate is the payload on the balance channel.
type BalanceUpdate struct {
	TableID string `json:"tableId"`
	Balance int    `json:"balance"`
}

// Publisher implements round.Recorder on top of Redis.
type Publisher struct {
	rdb            publisher
	channel        string
	balanceChannel string

	published atomic.Int64
	dropped   atomic.Int64
}

// NewPublisher wraps an existing client.
func NewPublisher(rdb publisher, channel, balanceChannel string) *Publisher {
	return &Publisher{rdb: rdb, channel: channel, balanceChannel: balanceChannel}
}

// Connect dials Redis, retrying while it starts up.
func Connect(ctx context.Context, addr string) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	var err error
	for i := 0; i < connectRetries; i++ {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err = rdb.Ping(pingCtx).Err()
		cancel()
		if err == nil {
			log.Printf("[events] Redis connected at %s", addr)
			return rdb, nil
		}
		log.Printf("[events] Redis not ready, retrying (%d/%d): %v", i+1, connectRetries, err)
		select {
		case <-ctx.Done():
			rdb.Close()
			return nil, ctx.Err()
		case <-time.After(connectBackoff):
		}
	}
	rdb.Close()
	return nil, fmt.Errorf("redis %s unavailable: %w", addr, err)
}

// Record publishes the event, then the new balance. Errors are counted
// and logged, never returned.
func (p *Publisher) Record(ev round.Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		log.Printf("[events] marshal error: %v", err)
		p.dropped.Add(1)
		return
	}
	p.publish(p.channel, data)

	if p.balanceChannel == "" {
		return
	}
	bal, _ := json.Marshal(BalanceUpdate{TableID: ev.TableID, Balance: ev.Balance})
	p.publish(p.balanceChannel, bal)
}

func (p *Publisher) publish(channel string, payload []byte) {
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	if err := p.rdb.Publish(ctx, channel, payload).Err(); err != nil {
		log.Printf("[events] redis publish to %s failed (non-fatal): %v", channel, err)
		p.dropped.Add(1)
		return
	}
	p.published.Add(1)
}

// Counts reports messages published and dropped so far.
func (p *Publisher) Counts() (published, dropped int64) {
	return p.published.Load(), p.dropped.Load()
}
