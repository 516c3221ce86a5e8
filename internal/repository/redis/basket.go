package redis

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sefaaycicek/fakestore/internal/domain"
	"github.com/sefaaycicek/fakestore/pkg/database"
	apperrors "github.com/sefaaycicek/fakestore/pkg/errors"
)

const (
	keyPrefix = "basket:"
	dbSystem  = "redis"
)

// BasketRepository implements repository.BasketRepository using one Redis
// hash per owner: field = product ID, value = quantity. Every write refreshes
// the key's TTL.
type BasketRepository struct {
	client *redis.Client
	ttl    time.Duration
}

// NewBasketRepository creates a new Redis-backed basket repository.
func NewBasketRepository(client *redis.Client, ttl time.Duration) *BasketRepository {
	return &BasketRepository{client: client, ttl: ttl}
}

func basketKey(ownerID string) string {
	return keyPrefix + ownerID
}

// Lines returns every line of the basket ordered by product ID.
func (r *BasketRepository) Lines(ctx context.Context, ownerID string) (_ []domain.BasketLine, err error) {
	ctx, end := database.TraceQuery(ctx, dbSystem, "BasketLines", "HGETALL")
	defer func() { end(err) }()

	fields, err := r.client.HGetAll(ctx, basketKey(ownerID)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis hgetall basket: %w", err)
	}

	lines := make([]domain.BasketLine, 0, len(fields))
	for field, value := range fields {
		id, qty, err := parseLine(field, value)
		if err != nil {
			return nil, err
		}
		lines = append(lines, domain.BasketLine{ProductID: id, Quantity: qty})
	}
	slices.SortFunc(lines, func(a, b domain.BasketLine) int {
		return a.ProductID - b.ProductID
	})
	return lines, nil
}

// Quantities returns the quantities of the requested products that are in
// the basket.
func (r *BasketRepository) Quantities(ctx context.Context, ownerID string, ids []int) (_ map[int]int, err error) {
	out := make(map[int]int, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	ctx, end := database.TraceQuery(ctx, dbSystem, "BasketQuantities", "HMGET")
	defer func() { end(err) }()

	fields := make([]string, len(ids))
	for i, id := range ids {
		fields[i] = strconv.Itoa(id)
	}
	values, err := r.client.HMGet(ctx, basketKey(ownerID), fields...).Result()
	if err != nil {
		return nil, fmt.Errorf("redis hmget basket: %w", err)
	}

	for i, v := range values {
		s, ok := v.(string)
		if !ok {
			continue
		}
		_, qty, err := parseLine(fields[i], s)
		if err != nil {
			return nil, err
		}
		out[ids[i]] = qty
	}
	return out, nil
}

// Increment adds by to a line's quantity, creating the line when missing.
func (r *BasketRepository) Increment(ctx context.Context, ownerID string, productID, by int) (_ int, err error) {
	ctx, end := database.TraceQuery(ctx, dbSystem, "BasketIncrement", "HINCRBY")
	defer func() { end(err) }()

	key := basketKey(ownerID)
	var incr *redis.IntCmd
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.HIncrBy(ctx, key, strconv.Itoa(productID), int64(by))
		pipe.Expire(ctx, key, r.ttl)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("redis hincrby basket: %w", err)
	}
	return int(incr.Val()), nil
}

// SetQuantity overwrites a line's quantity. A quantity of zero or less
// removes the line.
func (r *BasketRepository) SetQuantity(ctx context.Context, ownerID string, productID, quantity int) (err error) {
	ctx, end := database.TraceQuery(ctx, dbSystem, "BasketSetQuantity", "HSET")
	defer func() { end(err) }()

	key := basketKey(ownerID)
	field := strconv.Itoa(productID)
	if quantity <= 0 {
		if err := r.client.HDel(ctx, key, field).Err(); err != nil {
			return fmt.Errorf("redis hdel basket: %w", err)
		}
		return nil
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, field, quantity)
		pipe.Expire(ctx, key, r.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis hset basket: %w", err)
	}
	return nil
}

// Remove deletes a line.
func (r *BasketRepository) Remove(ctx context.Context, ownerID string, productID int) (err error) {
	ctx, end := database.TraceQuery(ctx, dbSystem, "BasketRemove", "HDEL")
	defer func() { end(err) }()

	n, err := r.client.HDel(ctx, basketKey(ownerID), strconv.Itoa(productID)).Result()
	if err != nil {
		return fmt.Errorf("redis hdel basket: %w", err)
	}
	if n == 0 {
		return apperrors.NotFound("basket item", strconv.Itoa(productID))
	}
	return nil
}

// Clear deletes the whole basket.
func (r *BasketRepository) Clear(ctx context.Context, ownerID string) (err error) {
	ctx, end := database.TraceQuery(ctx, dbSystem, "BasketClear", "DEL")
	defer func() { end(err) }()

	if err := r.client.Del(ctx, basketKey(ownerID)).Err(); err != nil {
		return fmt.Errorf("redis del basket: %w", err)
	}
	return nil
}

func parseLine(field, value string) (int, int, error) {
	id, err := strconv.Atoi(field)
	if err != nil {
		return 0, 0, fmt.Errorf("corrupt basket field %q: %w", field, err)
	}
	qty, err := strconv.Atoi(value)
	if err != nil {
		return 0, 0, fmt.Errorf("corrupt basket quantity for product %d: %w", id, err)
	}
	return id, qty, nil
}
