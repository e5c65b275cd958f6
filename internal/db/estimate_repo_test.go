package db

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"carbonview/internal/types"
)

func TestEstimateCacheRepo_Get_KeyedByDay(t *testing.T) {
	db := new(mockDBTX)
	repo := NewEstimateCacheRepo(db)

	day1 := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	day2 := time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC)

	rows := newMockRows([][]any{
		{day1, "123", "prod", "AmazonEC2", "us-east-1", 1.5, 0.6, 10.0},
		{day1, "123", "prod", "AmazonRDS", "us-east-1", 2.0, 0.8, 20.0},
		{day2, "123", "prod", "AmazonEC2", "us-east-1", 1.4, 0.5, 9.0},
	})

	db.On("Query", mock.Anything, mock.AnythingOfType("string"), mock.Anything).
		Return(rows, nil)

	byDay, err := repo.Get(context.Background(), types.ProviderAWS, day1, day2)
	require.NoError(t, err)
	require.Len(t, byDay, 2)

	assert.Len(t, byDay[day1], 2)
	assert.Len(t, byDay[day2], 1)
	assert.Equal(t, types.ProviderAWS, byDay[day1][0].Provider)
	assert.Equal(t, 0.6, byDay[day1][0].Co2eKg)
}

func TestEstimateCacheRepo_Put_UpsertsEachEstimate(t *testing.T) {
	db := new(mockDBTX)
	repo := NewEstimateCacheRepo(db)

	db.On("Exec", mock.Anything, mock.AnythingOfType("string"), mock.Anything).
		Return(pgconn.NewCommandTag("INSERT 0 1"), nil).
		Twice()

	day := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	err := repo.Put(context.Background(), types.ProviderAWS, day, []types.ServiceEstimate{
		{AccountID: "123", Service: "AmazonEC2", Region: "us-east-1", Co2eKg: 0.6},
		{AccountID: "123", Service: "AmazonRDS", Region: "us-east-1", Co2eKg: 0.8},
	})
	require.NoError(t, err)
	db.AssertExpectations(t)
}

func TestEstimateCacheRepo_Put_DBError(t *testing.T) {
	db := new(mockDBTX)
	repo := NewEstimateCacheRepo(db)

	db.On("Exec", mock.Anything, mock.AnythingOfType("string"), mock.Anything).
		Return(pgconn.CommandTag{}, errors.New("deadlock detected"))

	day := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	err := repo.Put(context.Background(), types.ProviderAWS, day, []types.ServiceEstimate{
		{AccountID: "123", Service: "AmazonEC2", Region: "us-east-1"},
	})
	require.Error(t, err)

	var appErr *types.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, types.ErrCodeInternalDB, appErr.Code)
}

func TestInstanceRepo_ListByProvider(t *testing.T) {
	db := new(mockDBTX)
	repo := NewInstanceRepo(db)

	rows := newMockRows([][]any{
		{"AWS", "123", "prod", "i-0abc", "m5.xlarge", "us-east-1", 0.192},
	})

	db.On("Query", mock.Anything, mock.AnythingOfType("string"), mock.Anything).
		Return(rows, nil)

	instances, err := repo.ListByProvider(context.Background(), types.ProviderAWS)
	require.NoError(t, err)
	require.Len(t, instances, 1)

	inst := instances[0]
	assert.Equal(t, "i-0abc", inst.InstanceID)
	assert.Equal(t, "m5.xlarge", inst.InstanceType)
	assert.Equal(t, 0.192, inst.HourlyCost)
}
