package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgconn"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yuzvak/salesboard-service/internal/application/ports"
	"github.com/yuzvak/salesboard-service/internal/domain/cart"
	domainErrors "github.com/yuzvak/salesboard-service/internal/domain/errors"
	"github.com/yuzvak/salesboard-service/internal/domain/inventory"
	"github.com/yuzvak/salesboard-service/internal/domain/sale"
)

var testNow = time.Date(2026, 10, 14, 8, 0, 0, 0, time.UTC)

func newMock(t *testing.T) (*UnitOfWork, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewUnitOfWork(NewConnectionFromDB(db)), mock
}

func TestInventoryUpdateBumpsVersion(t *testing.T) {
	uow, mock := newMock(t)
	item := &inventory.Item{ID: 1, Name: "Lamp", Price: decimal.NewFromInt(5), Quantity: 7, Version: 3}

	mock.ExpectQuery(`UPDATE inventory_items`).
		WithArgs(int64(1), int64(3), "Lamp", "", sqlmock.AnyArg(), int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"updated_at"}).AddRow(testNow))

	require.NoError(t, uow.Inventory().Update(context.Background(), item))
	assert.Equal(t, int64(4), item.Version)
	assert.Equal(t, testNow, item.UpdatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInventoryUpdateStaleVersionConflicts(t *testing.T) {
	uow, mock := newMock(t)
	item := &inventory.Item{ID: 1, Name: "Lamp", Quantity: 7, Version: 3}

	mock.ExpectQuery(`UPDATE inventory_items`).
		WillReturnRows(sqlmock.NewRows([]string{"updated_at"}))

	err := uow.Inventory().Update(context.Background(), item)
	assert.ErrorIs(t, err, domainErrors.ErrConcurrencyConflict)
	assert.Equal(t, int64(3), item.Version, "version untouched on conflict")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInventoryCheckViolationIsInsufficientStock(t *testing.T) {
	uow, mock := newMock(t)

	mock.ExpectQuery(`UPDATE inventory_items`).
		WillReturnError(&pq.Error{Code: "23514", Message: "violates check constraint"})

	err := uow.Inventory().Update(context.Background(), &inventory.Item{ID: 1, Version: 1})
	assert.ErrorIs(t, err, domainErrors.ErrInsufficientStock)
}

func TestInventoryGetByIDMissing(t *testing.T) {
	uow, mock := newMock(t)

	mock.ExpectQuery(`SELECT .+ FROM inventory_items WHERE id`).
		WithArgs(int64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := uow.Inventory().GetByID(context.Background(), 42)
	assert.ErrorIs(t, err, domainErrors.ErrItemNotFound)
}

func TestCartListByCartScansRows(t *testing.T) {
	uow, mock := newMock(t)

	rows := sqlmock.NewRows([]string{"id", "cart_id", "item_id", "quantity", "seller_name", "item_name", "version", "created_at"}).
		AddRow(1, "cart-1", 9, 2, "alice", "Lamp", 1, testNow).
		AddRow(2, "cart-1", 4, 1, "dave", "Vase", 3, testNow)
	mock.ExpectQuery(`SELECT .+ FROM cart_lines WHERE cart_id`).WithArgs("cart-1").WillReturnRows(rows)

	lines, err := uow.Carts().ListByCart(context.Background(), "cart-1")
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.Equal(t, &cart.Line{ID: 1, CartID: "cart-1", ItemRef: 9, Quantity: 2, SellerName: "alice", ItemName: "Lamp", Version: 1, CreatedAt: testNow}, lines[0])
	assert.Equal(t, int64(3), lines[1].Version)
}

func TestCartCreateReturnsIdentity(t *testing.T) {
	uow, mock := newMock(t)
	line := &cart.Line{CartID: "cart-1", ItemRef: 9, Quantity: 2, SellerName: "alice", ItemName: "Lamp", CreatedAt: testNow}

	mock.ExpectQuery(`INSERT INTO cart_lines`).
		WithArgs("cart-1", int64(9), int64(2), "alice", "Lamp", testNow).
		WillReturnRows(sqlmock.NewRows([]string{"id", "version"}).AddRow(11, 1))

	require.NoError(t, uow.Carts().Create(context.Background(), line))
	assert.Equal(t, int64(11), line.ID)
	assert.Equal(t, int64(1), line.Version)
}

func TestCartUpdateAndDeleteMiss(t *testing.T) {
	uow, mock := newMock(t)

	mock.ExpectExec(`UPDATE cart_lines`).WithArgs(int64(5), int64(2), int64(3)).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`DELETE FROM cart_lines WHERE id`).WithArgs(int64(5)).WillReturnResult(sqlmock.NewResult(0, 0))

	err := uow.Carts().Update(context.Background(), &cart.Line{ID: 5, Version: 2, Quantity: 3})
	assert.ErrorIs(t, err, domainErrors.ErrConcurrencyConflict)

	err = uow.Carts().Delete(context.Background(), 5)
	assert.ErrorIs(t, err, domainErrors.ErrCartLineNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaleCreateAndList(t *testing.T) {
	uow, mock := newMock(t)
	rec := &sale.Record{Buyer: "carol", Seller: "alice", Name: "Lamp", ItemRef: 9, Quantity: 2, CreatedAt: testNow}

	mock.ExpectQuery(`INSERT INTO sales`).WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(77))
	mock.ExpectQuery(`SELECT .+ FROM sales WHERE buyer`).
		WithArgs("carol", int64(10), int64(0)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "buyer", "seller", "name", "item_id", "quantity", "created_at"}).
			AddRow(77, "carol", "alice", "Lamp", 9, 2, testNow))

	require.NoError(t, uow.Sales().Create(context.Background(), rec))
	assert.Equal(t, int64(77), rec.ID)

	got, err := uow.Sales().ListByBuyer(context.Background(), "carol", 10, 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, rec, got[0])
}

func TestCommitSerializationFailureIsConflict(t *testing.T) {
	uow, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM cart_lines WHERE id`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit().WillReturnError(&pq.Error{Code: "40001", Message: "could not serialize access"})

	err := ports.RunInTx(context.Background(), uow, func(tx ports.Tx) error {
		return tx.Carts().Delete(context.Background(), 1)
	})
	assert.ErrorIs(t, err, domainErrors.ErrConcurrencyConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunInTxRollsBackOnFailure(t *testing.T) {
	uow, mock := newMock(t)
	boom := errors.New("connection reset")

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .+ FROM cart_lines`).WillReturnError(boom)
	mock.ExpectRollback()

	err := ports.RunInTx(context.Background(), uow, func(tx ports.Tx) error {
		_, err := tx.Carts().ListByCart(context.Background(), "cart-1")
		return err
	})
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMapErrorRecognisesBothDrivers(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"pq serialization", &pq.Error{Code: "40001"}, domainErrors.ErrConcurrencyConflict},
		{"pgconn deadlock", &pgconn.PgError{Code: "40P01"}, domainErrors.ErrConcurrencyConflict},
		{"pgconn check", &pgconn.PgError{Code: "23514"}, domainErrors.ErrInsufficientStock},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, mapError("op", tt.err), tt.want)
		})
	}

	plain := errors.New("plain")
	assert.ErrorIs(t, mapError("op", plain), plain)
	assert.NoError(t, mapError("op", nil))
}

func TestDriverName(t *testing.T) {
	name, err := driverName("pgx")
	require.NoError(t, err)
	assert.Equal(t, "pgx", name)

	name, err = driverName("")
	require.NoError(t, err)
	assert.Equal(t, "postgres", name)

	_, err = driverName("mysql")
	assert.Error(t, err)
}

func TestCartDeleteByCartReportsCount(t *testing.T) {
	uow, mock := newMock(t)

	mock.ExpectExec(`DELETE FROM cart_lines WHERE cart_id`).WithArgs("cart-1").WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := uow.Carts().DeleteByCart(context.Background(), "cart-1")
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}
