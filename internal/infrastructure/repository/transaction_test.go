package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	db "github.com/argus-sec/argus/internal/shared/db"
)

func TestTransactionManagerRollsBackOnError(t *testing.T) {
	gormDB := setupTestDB(t)
	repo := NewTicketRepository(gormDB)
	txMgr := db.NewTransactionManager(gormDB)
	ctx := context.Background()

	sentinel := errors.New("reconciliation failed midway")
	err := txMgr.RunInTransaction(ctx, func(txCtx context.Context) error {
		tk := createTestTicket(t, "10.0.0.1", 443)
		require.NoError(t, repo.Save(txCtx, tk))

		// The save is visible inside the transaction.
		found, err := repo.FindOpenByKey(txCtx, testTicketKey("10.0.0.1", 443))
		require.NoError(t, err)
		require.NotNil(t, found)

		return sentinel
	})
	require.ErrorIs(t, err, sentinel)

	found, err := repo.FindOpenByKey(ctx, testTicketKey("10.0.0.1", 443))
	require.NoError(t, err)
	assert.Nil(t, found, "rolled-back save must leave no ticket behind")
}

func TestTransactionManagerCommitsOnSuccess(t *testing.T) {
	gormDB := setupTestDB(t)
	repo := NewTicketRepository(gormDB)
	txMgr := db.NewTransactionManager(gormDB)
	ctx := context.Background()

	err := txMgr.RunInTransaction(ctx, func(txCtx context.Context) error {
		return repo.Save(txCtx, createTestTicket(t, "10.0.0.2", 443))
	})
	require.NoError(t, err)

	found, err := repo.FindOpenByKey(ctx, testTicketKey("10.0.0.2", 443))
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.True(t, found.Open())
}

func TestTransactionManagerNilRunsDirectly(t *testing.T) {
	gormDB := setupTestDB(t)
	repo := NewTicketRepository(gormDB)

	var txMgr *db.TransactionManager
	err := txMgr.RunInTransaction(context.Background(), func(txCtx context.Context) error {
		return repo.Save(txCtx, createTestTicket(t, "10.0.0.3", 443))
	})
	require.NoError(t, err)

	found, err := repo.FindOpenByKey(context.Background(), testTicketKey("10.0.0.3", 443))
	require.NoError(t, err)
	assert.NotNil(t, found)
}
