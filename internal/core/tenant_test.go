package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/edvin/credgate/internal/model"
)

func TestTenantService_Create_Success(t *testing.T) {
	db := &mockDB{}
	svc := NewTenantService(db)
	ctx := context.Background()

	row := &mockRow{scanFunc: func(dest ...any) error {
		*(dest[0].(*time.Time)) = time.Now()
		*(dest[1].(*time.Time)) = time.Now()
		return nil
	}}
	db.On("QueryRow", ctx, sqlContaining("INSERT INTO tenants"), mock.Anything).Return(row)

	tenant, err := svc.Create(ctx, "acme")
	require.NoError(t, err)
	assert.Equal(t, "acme", tenant.Name)
	assert.Equal(t, model.TenantActive, tenant.Status)
	assert.NotEmpty(t, tenant.ID)
	db.AssertExpectations(t)
}

func TestTenantService_GetByID_NotFound(t *testing.T) {
	db := &mockDB{}
	svc := NewTenantService(db)
	ctx := context.Background()

	row := &mockRow{scanFunc: func(dest ...any) error { return pgx.ErrNoRows }}
	db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.Anything).Return(row)

	_, err := svc.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTenantService_GetByID_DBError(t *testing.T) {
	db := &mockDB{}
	svc := NewTenantService(db)
	ctx := context.Background()

	row := &mockRow{scanFunc: func(dest ...any) error { return errors.New("connection refused") }}
	db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.Anything).Return(row)

	_, err := svc.GetByID(ctx, "tenant-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "get tenant")
}

func TestTenantService_List_Pagination(t *testing.T) {
	db := &mockDB{}
	svc := NewTenantService(db)
	ctx := context.Background()

	scan := func(id string) func(dest ...any) error {
		return func(dest ...any) error {
			*(dest[0].(*string)) = id
			*(dest[1].(*string)) = "tenant " + id
			*(dest[2].(*string)) = model.TenantActive
			*(dest[3].(*time.Time)) = time.Now()
			*(dest[4].(*time.Time)) = time.Now()
			return nil
		}
	}
	rows := newMockRows(scan("a"), scan("b"))
	db.On("Query", ctx, mock.AnythingOfType("string"), mock.Anything).Return(rows, nil)

	tenants, hasMore, err := svc.List(ctx, 5, "")
	require.NoError(t, err)
	assert.Len(t, tenants, 2)
	assert.False(t, hasMore)
}

func TestTenantService_SetStatus_NotFound(t *testing.T) {
	db := &mockDB{}
	svc := NewTenantService(db)
	ctx := context.Background()

	db.On("Exec", ctx, mock.AnythingOfType("string"), mock.Anything).
		Return(pgconn.NewCommandTag("UPDATE 0"), nil)

	err := svc.SetStatus(ctx, "missing", model.TenantSuspended)
	assert.ErrorIs(t, err, ErrNotFound)
}
