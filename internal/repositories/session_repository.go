package repositories

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

// TableSessionRepository tracks which non-paid orders are currently open on a
// physical table. Insertion and removal must be atomic per (tenant, table) key
// so concurrent order creation for the same table never loses an order.
type TableSessionRepository interface {
	AddOrder(ctx context.Context, tenantID int64, tableCode string, orderID int64) error
	RemoveOrder(ctx context.Context, tenantID int64, tableCode string, orderID int64) error
	ActiveOrders(ctx context.Context, tenantID int64, tableCode string) ([]int64, error)
}

// redisSessionRepository keeps each table session as a Redis set. SADD/SREM
// give the per-key atomicity the registry requires.
type redisSessionRepository struct {
	client *redis.Client
}

// NewTableSessionRepository creates a Redis-backed TableSessionRepository.
func NewTableSessionRepository(client *redis.Client) TableSessionRepository {
	return &redisSessionRepository{client: client}
}

func sessionKey(tenantID int64, tableCode string) string {
	return fmt.Sprintf("session:%d:%s", tenantID, tableCode)
}

func (r *redisSessionRepository) AddOrder(ctx context.Context, tenantID int64, tableCode string, orderID int64) error {
	if err := r.client.SAdd(ctx, sessionKey(tenantID, tableCode), orderID).Err(); err != nil {
		return fmt.Errorf("%w: adding order %d to session %d/%s: %v", ErrDatabaseError, orderID, tenantID, tableCode, err)
	}
	return nil
}

func (r *redisSessionRepository) RemoveOrder(ctx context.Context, tenantID int64, tableCode string, orderID int64) error {
	if err := r.client.SRem(ctx, sessionKey(tenantID, tableCode), orderID).Err(); err != nil {
		return fmt.Errorf("%w: removing order %d from session %d/%s: %v", ErrDatabaseError, orderID, tenantID, tableCode, err)
	}
	return nil
}

func (r *redisSessionRepository) ActiveOrders(ctx context.Context, tenantID int64, tableCode string) ([]int64, error) {
	members, err := r.client.SMembers(ctx, sessionKey(tenantID, tableCode)).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: reading session %d/%s: %v", ErrDatabaseError, tenantID, tableCode, err)
	}
	orderIDs := make([]int64, 0, len(members))
	for _, m := range members {
		id, convErr := strconv.ParseInt(m, 10, 64)
		if convErr != nil {
			continue // foreign value in the set, skip it
		}
		orderIDs = append(orderIDs, id)
	}
	return orderIDs, nil
}
