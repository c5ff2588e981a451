package employee_test

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"go-bizops/internal/balance"
	"go-bizops/internal/employee"
	employeeerrors "go-bizops/internal/employee/errors"
	"go-bizops/internal/messaging/kafka"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

type fakeEmployeeRepository struct {
	withTxFn          func(tx *sql.Tx) employee.Repository
	createFn          func(ctx context.Context, e *employee.Employee) error
	findAllFn         func(ctx context.Context) ([]employee.Employee, error)
	findByIDFn        func(ctx context.Context, id string) (*employee.Employee, error)
	updateFn          func(ctx context.Context, e *employee.Employee) error
	deleteFn          func(ctx context.Context, id string) error
	replaceBalancesFn func(ctx context.Context, employeeID string, balances []employee.LeaveBalance) error
}

func (f *fakeEmployeeRepository) WithTx(tx *sql.Tx) employee.Repository {
	if f.withTxFn != nil {
		return f.withTxFn(tx)
	}
	return f
}

func (f *fakeEmployeeRepository) Create(ctx context.Context, e *employee.Employee) error {
	if f.createFn != nil {
		return f.createFn(ctx, e)
	}
	return nil
}

func (f *fakeEmployeeRepository) FindAll(ctx context.Context) ([]employee.Employee, error) {
	if f.findAllFn != nil {
		return f.findAllFn(ctx)
	}
	return nil, nil
}

func (f *fakeEmployeeRepository) FindByID(ctx context.Context, id string) (*employee.Employee, error) {
	if f.findByIDFn != nil {
		return f.findByIDFn(ctx, id)
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeEmployeeRepository) Update(ctx context.Context, e *employee.Employee) error {
	if f.updateFn != nil {
		return f.updateFn(ctx, e)
	}
	return nil
}

func (f *fakeEmployeeRepository) Delete(ctx context.Context, id string) error {
	if f.deleteFn != nil {
		return f.deleteFn(ctx, id)
	}
	return nil
}

func (f *fakeEmployeeRepository) ReplaceBalances(ctx context.Context, employeeID string, balances []employee.LeaveBalance) error {
	if f.replaceBalancesFn != nil {
		return f.replaceBalancesFn(ctx, employeeID, balances)
	}
	return nil
}

type fakeOutboxRepository struct {
	created []kafka.OutboxEvent
}

func (f *fakeOutboxRepository) WithTx(tx *sql.Tx) kafka.OutboxRepository { return f }
func (f *fakeOutboxRepository) Create(ctx context.Context, event kafka.OutboxEvent) error {
	f.created = append(f.created, event)
	return nil
}
func (f *fakeOutboxRepository) ListPending(ctx context.Context, limit int) ([]kafka.OutboxEvent, error) {
	return nil, nil
}
func (f *fakeOutboxRepository) MarkSent(ctx context.Context, id string) error { return nil }
func (f *fakeOutboxRepository) MarkFailed(ctx context.Context, id string, reason string) error {
	return nil
}

type employeeServiceDeps struct {
	db      *sql.DB
	sqlMock sqlmock.Sqlmock
	service employee.Service
	repo    *fakeEmployeeRepository
	outbox  *fakeOutboxRepository
}

func setupEmployeeServiceTest(t *testing.T) *employeeServiceDeps {
	t.Helper()

	db, sqlMock, err := sqlmock.New()
	assert.NoError(t, err)

	repo := &fakeEmployeeRepository{}
	outbox := &fakeOutboxRepository{}
	svc := employee.NewService(db, repo, outbox)

	return &employeeServiceDeps{
		db:      db,
		sqlMock: sqlMock,
		service: svc,
		repo:    repo,
		outbox:  outbox,
	}
}

func mustDate(t *testing.T, value string) time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", value)
	assert.NoError(t, err)
	return d
}

func expectTx(t *testing.T, mock sqlmock.Sqlmock, commit bool) {
	t.Helper()
	mock.ExpectBegin()
	if commit {
		mock.ExpectCommit()
	} else {
		mock.ExpectRollback()
	}
}

func TestEmployeeService_Create_SeedsAllocationAndOutbox(t *testing.T) {
	deps := setupEmployeeServiceTest(t)
	defer deps.db.Close()

	var seeded []employee.LeaveBalance
	deps.repo.replaceBalancesFn = func(ctx context.Context, employeeID string, balances []employee.LeaveBalance) error {
		seeded = balances
		return nil
	}

	expectTx(t, deps.sqlMock, true)

	resp, err := deps.service.Create(context.Background(), uuid.New().String(), employee.CreateEmployeeRequest{
		FullName:   "Nadia Rahman",
		Department: "Store",
		Category:   employee.CategoryPermanent,
		JoinDate:   "2023-01-15",
		BaseSalary: 30000,
	})

	assert.NoError(t, err)
	assert.Len(t, seeded, 7, "one balance row per leave type")

	totals := make(map[string]int, len(seeded))
	for _, b := range seeded {
		assert.Equal(t, resp.ID, b.EmployeeID.String())
		totals[b.LeaveType] = b.Total
	}
	assert.Equal(t, 14, totals[balance.LeaveAnnual], "prior-year join gets the full quota")

	assert.Len(t, deps.outbox.created, 1)
	assert.Equal(t, "employee_created", deps.outbox.created[0].EventType)
	assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
}

func TestEmployeeService_Create_RejectsBadJoinDate(t *testing.T) {
	deps := setupEmployeeServiceTest(t)
	defer deps.db.Close()

	_, err := deps.service.Create(context.Background(), uuid.New().String(), employee.CreateEmployeeRequest{
		FullName:   "Nadia Rahman",
		Department: "Store",
		Category:   employee.CategoryPermanent,
		JoinDate:   "15-01-2023",
	})

	assert.ErrorIs(t, err, employeeerrors.ErrInvalidJoinDate)
}

func TestEmployeeService_Update_CategoryChangeRebuildsAllocation(t *testing.T) {
	deps := setupEmployeeServiceTest(t)
	defer deps.db.Close()

	e := &employee.Employee{
		ID:       uuid.New(),
		FullName: "Nadia Rahman",
		Category: employee.CategoryProbation,
		JoinDate: mustDate(t, "2023-01-15"),
	}
	// No balance rows yet; the rebuilt rows must still carry the
	// employee's id.
	deps.repo.findByIDFn = func(ctx context.Context, id string) (*employee.Employee, error) {
		return e, nil
	}

	var replaced []employee.LeaveBalance
	deps.repo.replaceBalancesFn = func(ctx context.Context, employeeID string, balances []employee.LeaveBalance) error {
		replaced = balances
		return nil
	}

	expectTx(t, deps.sqlMock, true)

	_, err := deps.service.Update(context.Background(), uuid.New().String(), e.ID.String(), employee.UpdateEmployeeRequest{
		FullName:   "Nadia Rahman",
		Department: "Store",
		Category:   employee.CategoryPermanent,
		BaseSalary: 32000,
	})

	assert.NoError(t, err)
	assert.Len(t, replaced, 7)
	for _, b := range replaced {
		assert.Equal(t, e.ID, b.EmployeeID)
		assert.NotEqual(t, uuid.Nil, b.EmployeeID)
	}
	assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
}

func TestEmployeeService_Update_CategoryChangeKeepsUsedCounts(t *testing.T) {
	deps := setupEmployeeServiceTest(t)
	defer deps.db.Close()

	e := &employee.Employee{
		ID:       uuid.New(),
		FullName: "Nadia Rahman",
		Category: employee.CategoryProbation,
		JoinDate: mustDate(t, "2023-01-15"),
	}
	e.Balances = []employee.LeaveBalance{
		{ID: uuid.New(), EmployeeID: e.ID, LeaveType: balance.LeaveAnnual, Total: 14, Used: 5},
	}
	deps.repo.findByIDFn = func(ctx context.Context, id string) (*employee.Employee, error) {
		return e, nil
	}

	var replaced []employee.LeaveBalance
	deps.repo.replaceBalancesFn = func(ctx context.Context, employeeID string, balances []employee.LeaveBalance) error {
		replaced = balances
		return nil
	}

	expectTx(t, deps.sqlMock, true)

	_, err := deps.service.Update(context.Background(), uuid.New().String(), e.ID.String(), employee.UpdateEmployeeRequest{
		FullName:   "Nadia Rahman",
		Department: "Store",
		Category:   employee.CategoryPermanent,
	})

	assert.NoError(t, err)
	for _, b := range replaced {
		if b.LeaveType == balance.LeaveAnnual {
			assert.Equal(t, 5, b.Used, "used days survive the recompute")
		}
	}
	assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
}

func TestEmployeeService_GetAll_CollapsesConcurrentReads(t *testing.T) {
	deps := setupEmployeeServiceTest(t)
	defer deps.db.Close()

	var (
		entered = make(chan struct{})
		release = make(chan struct{})
		once    sync.Once
		mu      sync.Mutex
		calls   int
	)
	deps.repo.findAllFn = func(ctx context.Context) ([]employee.Employee, error) {
		mu.Lock()
		calls++
		mu.Unlock()
		once.Do(func() { close(entered) })
		<-release
		return []employee.Employee{{ID: uuid.New(), FullName: "Nadia Rahman"}}, nil
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := deps.service.GetAll(context.Background())
		assert.NoError(t, err)
	}()

	// Wait until the first call holds the flight, then join it.
	<-entered
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := deps.service.GetAll(context.Background())
		assert.NoError(t, err)
	}()
	time.Sleep(50 * time.Millisecond)

	close(release)
	wg.Wait()

	assert.Equal(t, 1, calls, "concurrent listings share one query")
}
