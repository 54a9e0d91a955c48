package database_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"edtech/internal/database"
	"edtech/internal/database/dbtest"
)

func TestCVStore_ExportLifecycle(t *testing.T) {
	ctx := context.Background()
	db := dbtest.Open(t)
	accounts := database.NewAccountStore(db)
	store := database.NewCVStore(db)

	owner := &database.Account{Username: "jane", Email: "jane@x.com", PasswordHash: "h"}
	require.NoError(t, accounts.CreateAccount(ctx, owner))

	cv := &database.CV{AccountID: owner.ID, FullName: "Jane Doe", Email: "jane@x.com", Phone: "555-1234"}
	require.NoError(t, store.CreateCV(ctx, cv))

	cvs, err := store.ListCVsByAccount(ctx, owner.ID)
	require.NoError(t, err)
	require.Len(t, cvs, 1)

	export := &database.CVExport{CVID: cv.ID, AccountID: owner.ID, Format: "txt"}
	require.NoError(t, store.CreateExport(ctx, export))
	assert.Equal(t, database.ExportStatusPending, export.Status)

	require.NoError(t, store.CompleteExport(ctx, export.ID, "cv-exports/1/a.txt"))
	found, err := store.FindExportByID(ctx, export.ID)
	require.NoError(t, err)
	assert.Equal(t, database.ExportStatusCompleted, found.Status)
	assert.Equal(t, "cv-exports/1/a.txt", found.ObjectKey)

	_, err = store.FindCVByID(ctx, cv.ID+100)
	assert.ErrorIs(t, err, database.ErrNotFound)
}
