package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/redis/rueidis"
)

// ValkeyCache stores venue bundles as JSON strings with a TTL.
type ValkeyCache struct {
	client    rueidis.Client
	keyPrefix string
	ttl       time.Duration
}

func NewValkeyCache(addr, password, keyPrefix string, ttl time.Duration) (*ValkeyCache, error) {
	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:      []string{addr},
		Password:         password,
		DisableCache:     true,
		Dialer:           net.Dialer{Timeout: 5 * time.Second},
		ConnWriteTimeout: 2 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Valkey: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping Valkey: %w", err)
	}

	return &ValkeyCache{client: client, keyPrefix: keyPrefix, ttl: ttl}, nil
}

func (v *ValkeyCache) key(venueID int64) string {
	return v.keyPrefix + strconv.FormatInt(venueID, 10)
}

func (v *ValkeyCache) Get(ctx context.Context, venueID int64) (*VenueBundle, bool, error) {
	data, err := v.client.Do(ctx, v.client.B().Get().Key(v.key(venueID)).Build()).AsBytes()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("cache lookup error: %w", err)
	}

	var bundle VenueBundle
	if err := json.Unmarshal(data, &bundle); err != nil {
		return nil, false, fmt.Errorf("invalid venue bundle in cache: %w", err)
	}
	return &bundle, true, nil
}

func (v *ValkeyCache) Set(ctx context.Context, bundle *VenueBundle) error {
	data, err := json.Marshal(bundle)
	if err != nil {
		return fmt.Errorf("failed to marshal venue bundle: %w", err)
	}

	cmd := v.client.B().Set().Key(v.key(bundle.VenueID)).Value(rueidis.BinaryString(data)).Ex(v.ttl).Build()
	if err := v.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("failed to store venue bundle: %w", err)
	}
	return nil
}

func (v *ValkeyCache) Invalidate(ctx context.Context, venueID int64) error {
	if err := v.client.Do(ctx, v.client.B().Del().Key(v.key(venueID)).Build()).Error(); err != nil {
		return fmt.Errorf("failed to invalidate venue bundle: %w", err)
	}
	return nil
}

func (v *ValkeyCache) Close() error {
	v.client.Close()
	return nil
}
