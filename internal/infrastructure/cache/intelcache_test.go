package cache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/argus-sec/argus/internal/domain/intel"
	"github.com/argus-sec/argus/internal/shared/logger"
)

type stubIntelStore struct {
	cveCalls int
	kevCalls int
	rec      *intel.CVERecord
	kev      bool
}

func (s *stubIntelStore) LookupCVE(ctx context.Context, id string) (*intel.CVERecord, error) {
	s.cveCalls++
	return s.rec, nil
}

func (s *stubIntelStore) IsKnownExploited(ctx context.Context, id string) (bool, error) {
	s.kevCalls++
	return s.kev, nil
}

func TestIntelCacheNilClientPassesThrough(t *testing.T) {
	store := &stubIntelStore{
		rec: &intel.CVERecord{ID: "CVE-2026-0001", CVSSScore: 9.8, CVSSVersion: "3.1", Severity: 4},
		kev: true,
	}
	c := NewIntelCache(nil, store, logger.NewLogger())
	ctx := context.Background()

	rec, err := c.LookupCVE(ctx, "CVE-2026-0001")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, 9.8, rec.CVSSScore)

	kev, err := c.IsKnownExploited(ctx, "CVE-2026-0001")
	require.NoError(t, err)
	assert.True(t, kev)

	assert.Equal(t, 1, store.cveCalls)
	assert.Equal(t, 1, store.kevCalls)
}
