// Package redis implements the Provider interface using Redis/Valkey.
package redis

import (
	"context"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"github.com/dwsmith1983/accredit/internal/provider"
	"github.com/dwsmith1983/accredit/pkg/types"
)

// DefaultKeyPrefix namespaces every key written by the provider.
const DefaultKeyPrefix = "accredit:"

// Compile-time interface satisfaction check.
var _ provider.Provider = (*RedisProvider)(nil)

// RedisProvider implements the Provider interface backed by Redis/Valkey.
type RedisProvider struct {
	client *goredis.Client
	prefix string

	process       *store[types.ProcessRecord]
	faculty       *store[types.FacultyMetric]
	program       *store[types.ProgramMetric]
	validity      *store[types.ValidityRecord]
	accreditation *store[types.AccreditationReportRow]
	annual        *store[types.AnnualReportRow]
}

// New creates a new RedisProvider.
func New(cfg *types.RedisConfig) *RedisProvider {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return NewFromClient(client, cfg.KeyPrefix)
}

// NewFromClient creates a RedisProvider from an existing client (useful for testing).
func NewFromClient(client *goredis.Client, prefix string) *RedisProvider {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	p := &RedisProvider{client: client, prefix: prefix}
	p.process = newStore[types.ProcessRecord](p, types.KindProcess)
	p.faculty = newStore[types.FacultyMetric](p, types.KindFaculty)
	p.program = newStore[types.ProgramMetric](p, types.KindProgram)
	p.validity = newStore[types.ValidityRecord](p, types.KindValidity)
	p.accreditation = newStore[types.AccreditationReportRow](p, types.KindAccreditation)
	p.annual = newStore[types.AnnualReportRow](p, types.KindAnnual)
	return p
}

func (p *RedisProvider) Process() provider.Store[types.ProcessRecord]   { return p.process }
func (p *RedisProvider) Faculty() provider.Store[types.FacultyMetric]   { return p.faculty }
func (p *RedisProvider) Program() provider.Store[types.ProgramMetric]   { return p.program }
func (p *RedisProvider) Validity() provider.Store[types.ValidityRecord] { return p.validity }
func (p *RedisProvider) Accreditation() provider.Store[types.AccreditationReportRow] {
	return p.accreditation
}
func (p *RedisProvider) Annual() provider.Store[types.AnnualReportRow] { return p.annual }

// Start initializes the provider connection.
func (p *RedisProvider) Start(ctx context.Context) error {
	return p.Ping(ctx)
}

// Stop closes the provider connection.
func (p *RedisProvider) Stop(_ context.Context) error {
	return p.client.Close()
}

// Ping checks connectivity to the Redis server.
func (p *RedisProvider) Ping(ctx context.Context) error {
	if err := p.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

// Client returns the underlying Redis client (for advanced usage/testing).
func (p *RedisProvider) Client() *goredis.Client {
	return p.client
}
