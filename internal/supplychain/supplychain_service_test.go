package supplychain_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"go-bizops/internal/domain"
	"go-bizops/internal/messaging/kafka"
	"go-bizops/internal/supplychain"
	supplychainerrors "go-bizops/internal/supplychain/errors"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

type fakeSupplyRepository struct {
	withTxFn           func(tx *sql.Tx) supplychain.Repository
	createFn           func(ctx context.Context, req *supplychain.SupplyRequest) error
	findAllFn          func(ctx context.Context, status string) ([]supplychain.SupplyRequest, error)
	findByIDFn         func(ctx context.Context, id string) (*supplychain.SupplyRequest, error)
	transitionStatusFn func(ctx context.Context, id, fromStatus, toStatus string, rejectionReason *string, approvedAt, issuedAt *time.Time) (bool, error)
	decrementStockFn   func(ctx context.Context, inventoryItemID string, quantity int) (int, error)
}

func (f *fakeSupplyRepository) WithTx(tx *sql.Tx) supplychain.Repository {
	if f.withTxFn != nil {
		return f.withTxFn(tx)
	}
	return f
}

func (f *fakeSupplyRepository) Create(ctx context.Context, req *supplychain.SupplyRequest) error {
	if f.createFn != nil {
		return f.createFn(ctx, req)
	}
	return nil
}

func (f *fakeSupplyRepository) FindAll(ctx context.Context, status string) ([]supplychain.SupplyRequest, error) {
	if f.findAllFn != nil {
		return f.findAllFn(ctx, status)
	}
	return nil, nil
}

func (f *fakeSupplyRepository) FindByID(ctx context.Context, id string) (*supplychain.SupplyRequest, error) {
	if f.findByIDFn != nil {
		return f.findByIDFn(ctx, id)
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeSupplyRepository) TransitionStatus(ctx context.Context, id, fromStatus, toStatus string, rejectionReason *string, approvedAt, issuedAt *time.Time) (bool, error) {
	if f.transitionStatusFn != nil {
		return f.transitionStatusFn(ctx, id, fromStatus, toStatus, rejectionReason, approvedAt, issuedAt)
	}
	return true, nil
}

func (f *fakeSupplyRepository) DecrementStock(ctx context.Context, inventoryItemID string, quantity int) (int, error) {
	if f.decrementStockFn != nil {
		return f.decrementStockFn(ctx, inventoryItemID, quantity)
	}
	return 0, nil
}

type fakeCounterRepository struct {
	next int64
}

func (f *fakeCounterRepository) GetNextValue(ctx context.Context, counterType string) (int64, error) {
	f.next++
	return f.next, nil
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

type supplyServiceDeps struct {
	db      *sql.DB
	sqlMock sqlmock.Sqlmock
	service supplychain.Service
	repo    *fakeSupplyRepository
	outbox  *fakeOutboxRepository
}

func setupSupplyServiceTest(t *testing.T) *supplyServiceDeps {
	t.Helper()

	db, sqlMock, err := sqlmock.New()
	assert.NoError(t, err)

	repo := &fakeSupplyRepository{}
	outbox := &fakeOutboxRepository{}
	svc := supplychain.NewService(db, repo, &fakeCounterRepository{}, outbox)

	return &supplyServiceDeps{
		db:      db,
		sqlMock: sqlMock,
		service: svc,
		repo:    repo,
		outbox:  outbox,
	}
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

func requestWithStatus(status, department string) *supplychain.SupplyRequest {
	return &supplychain.SupplyRequest{
		ID:            uuid.New(),
		RequestNumber: "SR-000042",
		Department:    department,
		Status:        status,
		CreatedBy:     uuid.New(),
	}
}

func TestSupplyService_Create(t *testing.T) {
	deps := setupSupplyServiceTest(t)
	defer deps.db.Close()

	invID := uuid.New().String()
	var created *supplychain.SupplyRequest
	deps.repo.createFn = func(ctx context.Context, req *supplychain.SupplyRequest) error {
		created = req
		return nil
	}

	resp, err := deps.service.Create(context.Background(), domain.Actor{ID: uuid.New().String(), Role: "EMPLOYEE"}, supplychain.CreateSupplyRequest{
		Department: "Engineering",
		Items: []supplychain.SupplyLineCreate{
			{InventoryItemID: &invID, Description: "A4 paper", Quantity: 5},
			{Description: "whiteboard stand", Quantity: 1},
		},
	})

	assert.NoError(t, err)
	assert.Equal(t, supplychain.StatusPendingAccountManager, resp.Status)
	assert.Equal(t, "SR-000001", resp.RequestNumber)
	assert.NotNil(t, created)
	assert.Len(t, created.Items, 2)
	assert.NotNil(t, created.Items[0].InventoryItemID)
	assert.Nil(t, created.Items[1].InventoryItemID)
}

func TestSupplyService_Act_ApproveRoutesByDepartment(t *testing.T) {
	cases := []struct {
		name       string
		department string
		wantStatus string
	}{
		{"store request forwards to purchase", supplychain.DepartmentStore, supplychain.StatusForwardedToPurchase},
		{"other department waits for store", "Engineering", supplychain.StatusPendingStore},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			deps := setupSupplyServiceTest(t)
			defer deps.db.Close()

			req := requestWithStatus(supplychain.StatusPendingAccountManager, tc.department)
			deps.repo.findByIDFn = func(ctx context.Context, id string) (*supplychain.SupplyRequest, error) {
				return req, nil
			}

			expectTx(t, deps.sqlMock, true)

			resp, err := deps.service.Act(context.Background(), domain.Actor{ID: uuid.New().String(), Role: "ACCOUNT_MANAGER"}, req.ID.String(), supplychain.ActSupplyRequest{Action: supplychain.ActionApprove})

			assert.NoError(t, err)
			assert.Equal(t, tc.wantStatus, resp.Status)
			assert.NotNil(t, resp.ApprovedAt)
			assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
		})
	}
}

func TestSupplyService_Act_RejectRequiresReason(t *testing.T) {
	deps := setupSupplyServiceTest(t)
	defer deps.db.Close()

	_, err := deps.service.Act(context.Background(), domain.Actor{ID: uuid.New().String(), Role: "ACCOUNT_MANAGER"}, uuid.New().String(), supplychain.ActSupplyRequest{Action: supplychain.ActionReject})

	assert.ErrorIs(t, err, supplychainerrors.ErrRejectionReasonRequired)
}

func TestSupplyService_Act_RejectFromPendingStore(t *testing.T) {
	deps := setupSupplyServiceTest(t)
	defer deps.db.Close()

	req := requestWithStatus(supplychain.StatusPendingStore, "Engineering")
	deps.repo.findByIDFn = func(ctx context.Context, id string) (*supplychain.SupplyRequest, error) {
		return req, nil
	}

	expectTx(t, deps.sqlMock, true)

	resp, err := deps.service.Act(context.Background(), domain.Actor{ID: uuid.New().String(), Role: "STORE"}, req.ID.String(), supplychain.ActSupplyRequest{Action: supplychain.ActionReject, Reason: "not budgeted"})

	assert.NoError(t, err)
	assert.Equal(t, supplychain.StatusRejected, resp.Status)
	assert.NotNil(t, resp.RejectionReason)
	assert.Equal(t, "not budgeted", *resp.RejectionReason)
	assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
}

func TestSupplyService_Act_ApproveFromTerminalStateFails(t *testing.T) {
	deps := setupSupplyServiceTest(t)
	defer deps.db.Close()

	req := requestWithStatus(supplychain.StatusRejected, "Engineering")
	deps.repo.findByIDFn = func(ctx context.Context, id string) (*supplychain.SupplyRequest, error) {
		return req, nil
	}

	expectTx(t, deps.sqlMock, false)

	_, err := deps.service.Act(context.Background(), domain.Actor{ID: uuid.New().String(), Role: "ACCOUNT_MANAGER"}, req.ID.String(), supplychain.ActSupplyRequest{Action: supplychain.ActionApprove})

	assert.ErrorIs(t, err, supplychainerrors.ErrInvalidStatusTransition)
	assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
}

func TestSupplyService_ForwardToPurchase(t *testing.T) {
	deps := setupSupplyServiceTest(t)
	defer deps.db.Close()

	req := requestWithStatus(supplychain.StatusPendingStore, "Engineering")
	deps.repo.findByIDFn = func(ctx context.Context, id string) (*supplychain.SupplyRequest, error) {
		return req, nil
	}

	expectTx(t, deps.sqlMock, true)

	resp, err := deps.service.ForwardToPurchase(context.Background(), domain.Actor{ID: uuid.New().String(), Role: "STORE"}, req.ID.String())

	assert.NoError(t, err)
	assert.Equal(t, supplychain.StatusForwardedToPurchase, resp.Status)
	assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
}

func TestSupplyService_ForwardToPurchase_AlreadyForwarded(t *testing.T) {
	deps := setupSupplyServiceTest(t)
	defer deps.db.Close()

	req := requestWithStatus(supplychain.StatusForwardedToPurchase, "Engineering")
	deps.repo.findByIDFn = func(ctx context.Context, id string) (*supplychain.SupplyRequest, error) {
		return req, nil
	}

	expectTx(t, deps.sqlMock, false)

	_, err := deps.service.ForwardToPurchase(context.Background(), domain.Actor{ID: uuid.New().String(), Role: "STORE"}, req.ID.String())

	assert.ErrorIs(t, err, supplychainerrors.ErrInvalidStatusTransition)
	assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
}

func TestSupplyService_Issue_DecrementsOnlyResolvedLines(t *testing.T) {
	deps := setupSupplyServiceTest(t)
	defer deps.db.Close()

	invID := uuid.New()
	req := requestWithStatus(supplychain.StatusPendingStore, "Engineering")
	req.Items = []supplychain.SupplyRequestItem{
		{ID: uuid.New(), RequestID: req.ID, InventoryItemID: &invID, Description: "A4 paper", Quantity: 5},
		{ID: uuid.New(), RequestID: req.ID, Description: "custom banner", Quantity: 10},
	}
	deps.repo.findByIDFn = func(ctx context.Context, id string) (*supplychain.SupplyRequest, error) {
		return req, nil
	}

	type debit struct {
		itemID   string
		quantity int
	}
	var debits []debit
	deps.repo.decrementStockFn = func(ctx context.Context, inventoryItemID string, quantity int) (int, error) {
		debits = append(debits, debit{inventoryItemID, quantity})
		return 7, nil
	}

	expectTx(t, deps.sqlMock, true)

	resp, err := deps.service.Issue(context.Background(), domain.Actor{ID: uuid.New().String(), Role: "STORE"}, req.ID.String())

	assert.NoError(t, err)
	assert.Equal(t, supplychain.StatusIssued, resp.Status)
	assert.NotNil(t, resp.IssuedAt)
	assert.Len(t, debits, 1, "only the line with an inventory reference is debited")
	assert.Equal(t, invID.String(), debits[0].itemID)
	assert.Equal(t, 5, debits[0].quantity)
	assert.Len(t, deps.outbox.created, 1, "one stock event per debited line")
	assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
}

func TestSupplyService_Issue_FromPendingAccountManagerFails(t *testing.T) {
	deps := setupSupplyServiceTest(t)
	defer deps.db.Close()

	req := requestWithStatus(supplychain.StatusPendingAccountManager, "Engineering")
	deps.repo.findByIDFn = func(ctx context.Context, id string) (*supplychain.SupplyRequest, error) {
		return req, nil
	}

	debitCalled := false
	deps.repo.decrementStockFn = func(ctx context.Context, inventoryItemID string, quantity int) (int, error) {
		debitCalled = true
		return 0, nil
	}

	expectTx(t, deps.sqlMock, false)

	_, err := deps.service.Issue(context.Background(), domain.Actor{ID: uuid.New().String(), Role: "STORE"}, req.ID.String())

	assert.ErrorIs(t, err, supplychainerrors.ErrInvalidStatusTransition)
	assert.False(t, debitCalled)
	assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
}

func TestSupplyService_Issue_ConcurrentTransitionConflicts(t *testing.T) {
	deps := setupSupplyServiceTest(t)
	defer deps.db.Close()

	req := requestWithStatus(supplychain.StatusPendingStore, "Engineering")
	deps.repo.findByIDFn = func(ctx context.Context, id string) (*supplychain.SupplyRequest, error) {
		return req, nil
	}
	deps.repo.transitionStatusFn = func(ctx context.Context, id, fromStatus, toStatus string, rejectionReason *string, approvedAt, issuedAt *time.Time) (bool, error) {
		return false, nil
	}

	expectTx(t, deps.sqlMock, false)

	_, err := deps.service.Issue(context.Background(), domain.Actor{ID: uuid.New().String(), Role: "STORE"}, req.ID.String())

	assert.ErrorIs(t, err, supplychainerrors.ErrConcurrentUpdate)
	assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
}

func TestSupplyService_Issue_FailedCommitSurfacesError(t *testing.T) {
	deps := setupSupplyServiceTest(t)
	defer deps.db.Close()

	invID := uuid.New()
	req := requestWithStatus(supplychain.StatusForwardedToPurchase, "Engineering")
	req.Items = []supplychain.SupplyRequestItem{
		{ID: uuid.New(), RequestID: req.ID, InventoryItemID: &invID, Description: "toner", Quantity: 2},
	}
	deps.repo.findByIDFn = func(ctx context.Context, id string) (*supplychain.SupplyRequest, error) {
		return req, nil
	}

	commitErr := errors.New("connection reset")
	deps.sqlMock.ExpectBegin()
	deps.sqlMock.ExpectCommit().WillReturnError(commitErr)

	_, err := deps.service.Issue(context.Background(), domain.Actor{ID: uuid.New().String(), Role: "STORE"}, req.ID.String())

	assert.ErrorIs(t, err, commitErr)
	assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
}

func TestSupplyService_GetByID_NotFound(t *testing.T) {
	deps := setupSupplyServiceTest(t)
	defer deps.db.Close()

	_, err := deps.service.GetByID(context.Background(), uuid.New().String())

	assert.ErrorIs(t, err, supplychainerrors.ErrRequestNotFound)
}
