package task_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"go-bizops/internal/domain"
	"go-bizops/internal/task"
	taskerrors "go-bizops/internal/task/errors"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

type fakeTaskRepository struct {
	withTxFn           func(tx *sql.Tx) task.Repository
	insertFn           func(ctx context.Context, t *task.Task) error
	findAllFn          func(ctx context.Context, status, assignee string) ([]task.Task, error)
	findByIDFn         func(ctx context.Context, id string) (*task.Task, error)
	transitionStatusFn func(ctx context.Context, id, fromStatus, toStatus string, completionRemarks, rejectionRemarks *string, completedDate *time.Time) (bool, error)
	appendHistoryFn    func(ctx context.Context, entry *task.TaskHistory) error
	nextHistorySeqFn   func(ctx context.Context, taskID string) (int, error)
}

func (f *fakeTaskRepository) WithTx(tx *sql.Tx) task.Repository {
	if f.withTxFn != nil {
		return f.withTxFn(tx)
	}
	return f
}

func (f *fakeTaskRepository) Insert(ctx context.Context, t *task.Task) error {
	if f.insertFn != nil {
		return f.insertFn(ctx, t)
	}
	return nil
}

func (f *fakeTaskRepository) FindAll(ctx context.Context, status, assignee string) ([]task.Task, error) {
	if f.findAllFn != nil {
		return f.findAllFn(ctx, status, assignee)
	}
	return nil, nil
}

func (f *fakeTaskRepository) FindByID(ctx context.Context, id string) (*task.Task, error) {
	if f.findByIDFn != nil {
		return f.findByIDFn(ctx, id)
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeTaskRepository) TransitionStatus(ctx context.Context, id, fromStatus, toStatus string, completionRemarks, rejectionRemarks *string, completedDate *time.Time) (bool, error) {
	if f.transitionStatusFn != nil {
		return f.transitionStatusFn(ctx, id, fromStatus, toStatus, completionRemarks, rejectionRemarks, completedDate)
	}
	return true, nil
}

func (f *fakeTaskRepository) AppendHistory(ctx context.Context, entry *task.TaskHistory) error {
	if f.appendHistoryFn != nil {
		return f.appendHistoryFn(ctx, entry)
	}
	return nil
}

func (f *fakeTaskRepository) NextHistorySeq(ctx context.Context, taskID string) (int, error) {
	if f.nextHistorySeqFn != nil {
		return f.nextHistorySeqFn(ctx, taskID)
	}
	return 2, nil
}

type taskServiceDeps struct {
	db      *sql.DB
	sqlMock sqlmock.Sqlmock
	service task.Service
	repo    *fakeTaskRepository
}

func setupTaskServiceTest(t *testing.T) *taskServiceDeps {
	t.Helper()

	db, sqlMock, err := sqlmock.New()
	assert.NoError(t, err)

	repo := &fakeTaskRepository{}
	svc := task.NewService(db, repo)

	return &taskServiceDeps{
		db:      db,
		sqlMock: sqlMock,
		service: svc,
		repo:    repo,
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

func taskWithStatus(status string) *task.Task {
	return &task.Task{
		ID:        uuid.New(),
		Title:     "wire the loading dock cameras",
		Assignee:  uuid.New(),
		Status:    status,
		CreatedBy: uuid.New(),
		History: []task.TaskHistory{
			{ID: uuid.New(), Seq: 1, Action: "Created", Actor: uuid.New()},
		},
	}
}

func TestTaskService_Create_WritesInitialHistory(t *testing.T) {
	deps := setupTaskServiceTest(t)
	defer deps.db.Close()

	var inserted *task.Task
	var history *task.TaskHistory
	deps.repo.insertFn = func(ctx context.Context, tk *task.Task) error {
		inserted = tk
		return nil
	}
	deps.repo.appendHistoryFn = func(ctx context.Context, entry *task.TaskHistory) error {
		history = entry
		return nil
	}

	expectTx(t, deps.sqlMock, true)

	resp, err := deps.service.Create(context.Background(), domain.Actor{ID: uuid.New().String(), Role: "HOD"}, task.CreateTaskRequest{
		Title:    "wire the loading dock cameras",
		Assignee: uuid.New().String(),
	})

	assert.NoError(t, err)
	assert.Equal(t, task.StatusOpen, resp.Status)
	assert.NotNil(t, inserted)
	assert.NotNil(t, history)
	assert.Equal(t, 1, history.Seq)
	assert.Equal(t, "Created", history.Action)
	assert.Len(t, resp.History, 1)
	assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
}

func TestTaskService_Act_AppendsExactlyOneEntryPerCall(t *testing.T) {
	deps := setupTaskServiceTest(t)
	defer deps.db.Close()

	tk := taskWithStatus(task.StatusOpen)
	deps.repo.findByIDFn = func(ctx context.Context, id string) (*task.Task, error) {
		copied := *tk
		return &copied, nil
	}

	var appended []task.TaskHistory
	deps.repo.appendHistoryFn = func(ctx context.Context, entry *task.TaskHistory) error {
		appended = append(appended, *entry)
		return nil
	}
	seq := 1
	deps.repo.nextHistorySeqFn = func(ctx context.Context, taskID string) (int, error) {
		seq++
		return seq, nil
	}

	actor := domain.Actor{ID: uuid.New().String(), Role: "EMPLOYEE"}

	steps := []struct {
		newStatus string
		label     string
	}{
		{task.StatusInProgress, "Started"},
		{task.StatusPendingReview, "Submitted for review"},
		{task.StatusClosed, "Closed"},
	}
	for _, step := range steps {
		expectTx(t, deps.sqlMock, true)
		resp, err := deps.service.Act(context.Background(), actor, tk.ID.String(), task.ActTaskRequest{
			NewStatus:   step.newStatus,
			ActionLabel: step.label,
		})
		assert.NoError(t, err)
		assert.Equal(t, step.newStatus, resp.Status)
		tk.Status = step.newStatus
	}

	assert.Len(t, appended, len(steps), "one history entry per act call")
	for i, entry := range appended {
		assert.Equal(t, i+2, entry.Seq)
		assert.Equal(t, steps[i].label, entry.Action)
	}
	assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
}

func TestTaskService_Act_PendingReviewStoresCompletionRemarks(t *testing.T) {
	deps := setupTaskServiceTest(t)
	defer deps.db.Close()

	tk := taskWithStatus(task.StatusInProgress)
	deps.repo.findByIDFn = func(ctx context.Context, id string) (*task.Task, error) {
		return tk, nil
	}

	var gotCompletion *string
	var gotCompleted *time.Time
	deps.repo.transitionStatusFn = func(ctx context.Context, id, fromStatus, toStatus string, completionRemarks, rejectionRemarks *string, completedDate *time.Time) (bool, error) {
		gotCompletion = completionRemarks
		gotCompleted = completedDate
		return true, nil
	}

	expectTx(t, deps.sqlMock, true)

	resp, err := deps.service.Act(context.Background(), domain.Actor{ID: uuid.New().String(), Role: "EMPLOYEE"}, tk.ID.String(), task.ActTaskRequest{
		NewStatus:   task.StatusPendingReview,
		ActionLabel: "Submitted for review",
		Remarks:     "all cameras online",
	})

	assert.NoError(t, err)
	assert.Equal(t, task.StatusPendingReview, resp.Status)
	assert.NotNil(t, gotCompletion)
	assert.Equal(t, "all cameras online", *gotCompletion)
	assert.NotNil(t, gotCompleted, "pending review stamps the completed date")
	assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
}

func TestTaskService_Act_ReopenStoresRejectionRemarks(t *testing.T) {
	deps := setupTaskServiceTest(t)
	defer deps.db.Close()

	tk := taskWithStatus(task.StatusPendingReview)
	deps.repo.findByIDFn = func(ctx context.Context, id string) (*task.Task, error) {
		return tk, nil
	}

	var gotRejection *string
	deps.repo.transitionStatusFn = func(ctx context.Context, id, fromStatus, toStatus string, completionRemarks, rejectionRemarks *string, completedDate *time.Time) (bool, error) {
		gotRejection = rejectionRemarks
		return true, nil
	}

	expectTx(t, deps.sqlMock, true)

	resp, err := deps.service.Act(context.Background(), domain.Actor{ID: uuid.New().String(), Role: "HOD"}, tk.ID.String(), task.ActTaskRequest{
		NewStatus:   task.StatusReopened,
		ActionLabel: "Reopened",
		Remarks:     "camera four still offline",
	})

	assert.NoError(t, err)
	assert.Equal(t, task.StatusReopened, resp.Status)
	assert.NotNil(t, gotRejection)
	assert.Equal(t, "camera four still offline", *gotRejection)
	assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
}

func TestTaskService_Act_CloseStampsCompletedDateWhenUnset(t *testing.T) {
	deps := setupTaskServiceTest(t)
	defer deps.db.Close()

	tk := taskWithStatus(task.StatusPendingReview)
	deps.repo.findByIDFn = func(ctx context.Context, id string) (*task.Task, error) {
		return tk, nil
	}

	var gotCompleted *time.Time
	deps.repo.transitionStatusFn = func(ctx context.Context, id, fromStatus, toStatus string, completionRemarks, rejectionRemarks *string, completedDate *time.Time) (bool, error) {
		gotCompleted = completedDate
		return true, nil
	}

	expectTx(t, deps.sqlMock, true)

	_, err := deps.service.Act(context.Background(), domain.Actor{ID: uuid.New().String(), Role: "HOD"}, tk.ID.String(), task.ActTaskRequest{
		NewStatus:   task.StatusClosed,
		ActionLabel: "Closed",
	})

	assert.NoError(t, err)
	assert.NotNil(t, gotCompleted)
	assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
}

func TestTaskService_Act_CloseKeepsExistingCompletedDate(t *testing.T) {
	deps := setupTaskServiceTest(t)
	defer deps.db.Close()

	completed := time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)
	tk := taskWithStatus(task.StatusPendingReview)
	tk.CompletedDate = &completed
	deps.repo.findByIDFn = func(ctx context.Context, id string) (*task.Task, error) {
		return tk, nil
	}

	var gotCompleted *time.Time
	deps.repo.transitionStatusFn = func(ctx context.Context, id, fromStatus, toStatus string, completionRemarks, rejectionRemarks *string, completedDate *time.Time) (bool, error) {
		gotCompleted = completedDate
		return true, nil
	}

	expectTx(t, deps.sqlMock, true)

	_, err := deps.service.Act(context.Background(), domain.Actor{ID: uuid.New().String(), Role: "HOD"}, tk.ID.String(), task.ActTaskRequest{
		NewStatus:   task.StatusClosed,
		ActionLabel: "Closed",
	})

	assert.NoError(t, err)
	assert.Nil(t, gotCompleted, "an already stamped completed date is left alone")
	assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
}

func TestTaskService_Act_InvalidTransition(t *testing.T) {
	deps := setupTaskServiceTest(t)
	defer deps.db.Close()

	tk := taskWithStatus(task.StatusOpen)
	deps.repo.findByIDFn = func(ctx context.Context, id string) (*task.Task, error) {
		return tk, nil
	}

	expectTx(t, deps.sqlMock, false)

	_, err := deps.service.Act(context.Background(), domain.Actor{ID: uuid.New().String(), Role: "HOD"}, tk.ID.String(), task.ActTaskRequest{
		NewStatus:   task.StatusClosed,
		ActionLabel: "Closed",
	})

	assert.ErrorIs(t, err, taskerrors.ErrInvalidStatusTransition)
	assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
}

func TestTaskService_Act_ClosedIsTerminal(t *testing.T) {
	deps := setupTaskServiceTest(t)
	defer deps.db.Close()

	tk := taskWithStatus(task.StatusClosed)
	deps.repo.findByIDFn = func(ctx context.Context, id string) (*task.Task, error) {
		return tk, nil
	}

	expectTx(t, deps.sqlMock, false)

	_, err := deps.service.Act(context.Background(), domain.Actor{ID: uuid.New().String(), Role: "HOD"}, tk.ID.String(), task.ActTaskRequest{
		NewStatus:   task.StatusInProgress,
		ActionLabel: "Restarted",
	})

	assert.ErrorIs(t, err, taskerrors.ErrInvalidStatusTransition)
	assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
}

func TestTaskService_Act_ConcurrentTransitionConflicts(t *testing.T) {
	deps := setupTaskServiceTest(t)
	defer deps.db.Close()

	tk := taskWithStatus(task.StatusOpen)
	deps.repo.findByIDFn = func(ctx context.Context, id string) (*task.Task, error) {
		return tk, nil
	}
	deps.repo.transitionStatusFn = func(ctx context.Context, id, fromStatus, toStatus string, completionRemarks, rejectionRemarks *string, completedDate *time.Time) (bool, error) {
		return false, nil
	}

	expectTx(t, deps.sqlMock, false)

	_, err := deps.service.Act(context.Background(), domain.Actor{ID: uuid.New().String(), Role: "HOD"}, tk.ID.String(), task.ActTaskRequest{
		NewStatus:   task.StatusInProgress,
		ActionLabel: "Started",
	})

	assert.ErrorIs(t, err, taskerrors.ErrConcurrentUpdate)
	assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
}

func TestTaskService_Act_FailedCommitSurfacesError(t *testing.T) {
	deps := setupTaskServiceTest(t)
	defer deps.db.Close()

	tk := taskWithStatus(task.StatusOpen)
	deps.repo.findByIDFn = func(ctx context.Context, id string) (*task.Task, error) {
		return tk, nil
	}

	commitErr := errors.New("connection reset")
	deps.sqlMock.ExpectBegin()
	deps.sqlMock.ExpectCommit().WillReturnError(commitErr)

	_, err := deps.service.Act(context.Background(), domain.Actor{ID: uuid.New().String(), Role: "HOD"}, tk.ID.String(), task.ActTaskRequest{
		NewStatus:   task.StatusInProgress,
		ActionLabel: "Started",
	})

	assert.ErrorIs(t, err, commitErr)
	assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
}

func TestTaskService_GetByID_NotFound(t *testing.T) {
	deps := setupTaskServiceTest(t)
	defer deps.db.Close()

	_, err := deps.service.GetByID(context.Background(), uuid.New().String())

	assert.ErrorIs(t, err, taskerrors.ErrTaskNotFound)
}
