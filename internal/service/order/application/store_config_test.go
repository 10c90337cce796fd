package application

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/pkg/bizerr"
	"storefront/internal/service/order/domain"
)

type memConfigRepo struct {
	saved map[int64]*domain.StoreConfig
}

func (m *memConfigRepo) Load(_ context.Context, storeID int64) (*domain.StoreConfig, error) {
	if c, ok := m.saved[storeID]; ok {
		return c, nil
	}
	return &domain.StoreConfig{StoreID: storeID}, nil
}

func (m *memConfigRepo) Save(_ context.Context, cfg *domain.StoreConfig) error {
	m.saved[cfg.StoreID] = cfg
	return nil
}

type recordingCache struct {
	repo      *memConfigRepo
	refreshed []int64
}

func (c *recordingCache) Get(ctx context.Context, storeID int64) (*domain.StoreConfig, error) {
	return c.repo.Load(ctx, storeID)
}

func (c *recordingCache) Refresh(_ context.Context, storeID int64) error {
	c.refreshed = append(c.refreshed, storeID)
	return nil
}

type recordingPublisher struct {
	err       error
	published []int64
}

func (p *recordingPublisher) PublishInvalidation(_ context.Context, storeID int64) error {
	p.published = append(p.published, storeID)
	return p.err
}

func newConfigService() (*StoreConfigService, *memConfigRepo, *recordingCache, *recordingPublisher) {
	repo := &memConfigRepo{saved: map[int64]*domain.StoreConfig{}}
	cache := &recordingCache{repo: repo}
	pub := &recordingPublisher{}
	return NewStoreConfigService(repo, &memTx{}, cache, pub, testTracer), repo, cache, pub
}

func TestUpdateStoreConfig(t *testing.T) {
	svc, repo, cache, pub := newConfigService()
	req := &StoreConfigRequest{
		Taxes:    []TaxInput{{Name: "vat", Value: "8.5", Active: true}},
		ShipFees: []ShipFeeInput{{City: "hanoi", Fee: 20000}},
		Params:   map[string]string{domain.ParamPointRefundRate: "0.02"},
	}

	require.NoError(t, svc.UpdateStoreConfig(context.Background(), 3, req))

	saved := repo.saved[3]
	require.NotNil(t, saved)
	require.Len(t, saved.Taxes, 1)
	assert.Equal(t, "8.5", saved.Taxes[0].Value.String())
	assert.Equal(t, int64(20000), saved.ShipFeeFor("hanoi", "", 30000))
	assert.Equal(t, []int64{3}, cache.refreshed)
	assert.Equal(t, []int64{3}, pub.published)
}

func TestUpdateStoreConfigRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		req  *StoreConfigRequest
	}{
		{name: "tax over 100", req: &StoreConfigRequest{Taxes: []TaxInput{{Name: "vat", Value: "120"}}}},
		{name: "tax not a number", req: &StoreConfigRequest{Taxes: []TaxInput{{Name: "vat", Value: "ten"}}}},
		{name: "ship fee without city", req: &StoreConfigRequest{ShipFees: []ShipFeeInput{{Fee: 1}}}},
		{name: "bad point rate", req: &StoreConfigRequest{Params: map[string]string{domain.ParamPointRefundRate: "x"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo, cache, _ := newConfigService()

			err := svc.UpdateStoreConfig(context.Background(), 3, tt.req)

			assert.ErrorIs(t, err, bizerr.ErrValidation)
			assert.Empty(t, repo.saved)
			assert.Empty(t, cache.refreshed)
		})
	}
}

func TestUpdateStoreConfigIgnoresBroadcastFailure(t *testing.T) {
	svc, _, cache, pub := newConfigService()
	pub.err = errors.New("redis down")

	err := svc.UpdateStoreConfig(context.Background(), 3, &StoreConfigRequest{})

	require.NoError(t, err)
	assert.Equal(t, []int64{3}, cache.refreshed)
}
