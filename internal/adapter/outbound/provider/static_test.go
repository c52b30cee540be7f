package provider

import (
	"context"
	"testing"

	"entitysync/internal/domain/entity"
	domainerrors "entitysync/internal/domain/errors/domain"
	"entitysync/internal/port/outbound"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaticProvider_FetchPage(t *testing.T) {
	p := NewStaticProvider()
	p.Load("contacts", []entity.EntityRecord{
		{ID: "c-1", Name: "Ada"},
		{ID: "c-2", Name: "Grace"},
	})

	require.True(t, p.Supports("contacts"))
	require.False(t, p.Supports("deals"))

	records, err := p.FetchPage(context.Background(), "contacts", outbound.FetchFilter{})
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "c-1", records[0].ID)
}

func TestStaticProvider_UnknownType(t *testing.T) {
	p := NewStaticProvider()

	_, err := p.FetchPage(context.Background(), "deals", outbound.FetchFilter{})
	require.ErrorIs(t, err, domainerrors.ErrUnsupportedEntityType)

	err = p.Apply(context.Background(), "deals", entity.EntityRecord{ID: "d-1"})
	require.ErrorIs(t, err, domainerrors.ErrUnsupportedEntityType)
}

func TestStaticProvider_ApplyRecordsUpserts(t *testing.T) {
	p := NewStaticProvider()
	p.Load("contacts", nil)

	require.NoError(t, p.Apply(context.Background(), "contacts", entity.EntityRecord{ID: "c-1", Name: "Ada"}))
	require.NoError(t, p.Apply(context.Background(), "contacts", entity.EntityRecord{ID: "c-1", Name: "Ada Lovelace"}))

	applied := p.Applied("contacts")
	require.Len(t, applied, 1)
	assert.Equal(t, "Ada Lovelace", applied["c-1"].Name)
}
