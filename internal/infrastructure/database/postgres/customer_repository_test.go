package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"

	"github.com/ubdirahman/loan-management-app/internal/domain/ledger"
	"github.com/ubdirahman/loan-management-app/internal/pkg/apperrors"
)

const testUserKey = "owner@example.com"

func setupCustomerRepo(t *testing.T) (context.Context, *CustomerRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mockPool := newMockPool(t)
	return context.Background(), NewCustomerRepository(mockPool, logger), mockPool
}

func TestCustomerRepositorySaveInsertsWhenIDZero(t *testing.T) {
	ctx, repo, mockPool := setupCustomerRepo(t)
	defer mockPool.Close()

	cust := &ledger.Customer{Name: "Ahmed", Phone: "252-61-1234567", Address: "Hodan", TotalAmount: 5000}

	mockPool.ExpectQuery("INSERT INTO customers").
		WithArgs(testUserKey, cust.Name, cust.Phone, cust.Address, cust.TotalAmount).
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at"}).AddRow(int64(7), time.Now()))

	err := repo.Save(ctx, testUserKey, cust)
	assert.NoError(t, err)
	assert.Equal(t, int64(7), cust.ID)
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestCustomerRepositorySaveUpdatesWhenIDSet(t *testing.T) {
	ctx, repo, mockPool := setupCustomerRepo(t)
	defer mockPool.Close()

	cust := &ledger.Customer{ID: 7, Name: "Ahmed", Phone: "252-61-1234567", Address: "Hodan", TotalAmount: 2500}

	mockPool.ExpectExec("UPDATE customers").
		WithArgs(cust.Name, cust.Phone, cust.Address, cust.TotalAmount, cust.ID, testUserKey).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	assert.NoError(t, repo.Save(ctx, testUserKey, cust))
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestCustomerRepositoryUpdateReturnsNotFoundOnZeroRows(t *testing.T) {
	ctx, repo, mockPool := setupCustomerRepo(t)
	defer mockPool.Close()

	cust := &ledger.Customer{ID: 99, Name: "Ghost", Phone: "1"}

	mockPool.ExpectExec("UPDATE customers").
		WithArgs(cust.Name, cust.Phone, cust.Address, cust.TotalAmount, cust.ID, testUserKey).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	assert.ErrorIs(t, repo.Save(ctx, testUserKey, cust), apperrors.ErrNotFound)
}

func TestCustomerRepositoryFindByIDNotFound(t *testing.T) {
	ctx, repo, mockPool := setupCustomerRepo(t)
	defer mockPool.Close()

	mockPool.ExpectQuery("SELECT id, name, phone, address, total_amount, created_at").
		WithArgs(int64(99), testUserKey).
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "phone", "address", "total_amount", "created_at"}))

	_, err := repo.FindByID(ctx, testUserKey, 99)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestCustomerRepositoryFindAll(t *testing.T) {
	ctx, repo, mockPool := setupCustomerRepo(t)
	defer mockPool.Close()

	now := time.Now()
	mockPool.ExpectQuery("SELECT id, name, phone, address, total_amount, created_at").
		WithArgs(testUserKey).
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "phone", "address", "total_amount", "created_at"}).
			AddRow(int64(1), "Ahmed", "111", "Hodan", 5000.0, now).
			AddRow(int64(2), "Fatima", "222", "Wadajir", 0.0, now))

	customers, err := repo.FindAll(ctx, testUserKey)
	assert.NoError(t, err)
	assert.Len(t, customers, 2)
	assert.Equal(t, "Fatima", customers[1].Name)
	assert.Equal(t, 5000.0, customers[0].TotalAmount)
}

func TestCustomerRepositoryDeleteCascades(t *testing.T) {
	ctx, repo, mockPool := setupCustomerRepo(t)
	defer mockPool.Close()

	mockPool.ExpectBegin()
	mockPool.ExpectExec("DELETE FROM payments").
		WithArgs(testUserKey, int64(7)).
		WillReturnResult(pgxmock.NewResult("DELETE", 3))
	mockPool.ExpectExec("DELETE FROM loans").
		WithArgs(int64(7), testUserKey).
		WillReturnResult(pgxmock.NewResult("DELETE", 2))
	mockPool.ExpectExec("DELETE FROM customers").
		WithArgs(int64(7), testUserKey).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mockPool.ExpectCommit()
	mockPool.ExpectRollback()

	assert.NoError(t, repo.Delete(ctx, testUserKey, 7))
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestCustomerRepositoryDeleteNotFoundRollsBack(t *testing.T) {
	ctx, repo, mockPool := setupCustomerRepo(t)
	defer mockPool.Close()

	mockPool.ExpectBegin()
	mockPool.ExpectExec("DELETE FROM payments").
		WithArgs(testUserKey, int64(99)).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mockPool.ExpectExec("DELETE FROM loans").
		WithArgs(int64(99), testUserKey).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mockPool.ExpectExec("DELETE FROM customers").
		WithArgs(int64(99), testUserKey).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mockPool.ExpectRollback()

	assert.ErrorIs(t, repo.Delete(ctx, testUserKey, 99), apperrors.ErrNotFound)
}
