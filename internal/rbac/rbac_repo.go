package rbac

import (
	"context"

	"gorm.io/gorm"
)

//go:generate mockgen -source=rbac_repo.go -destination=mock/rbac_repo_mock.go -package=mock
type Repository interface {
	GetEmployeeRoles(ctx context.Context) ([]EmployeeRoleRow, error)
	GetRolePermissions(ctx context.Context) ([]RolePermissionRow, error)
	GetPermissionsByRole(ctx context.Context, role string) ([]RolePermissionRow, error)
	AssignRole(ctx context.Context, employeeID, role string) error
	GrantPermission(ctx context.Context, role, resource, action string) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

type EmployeeRoleRow struct {
	EmployeeID string
	Role       string
}

type RolePermissionRow struct {
	Role     string
	Resource string
	Action   string
}

func (r *repository) GetEmployeeRoles(ctx context.Context) ([]EmployeeRoleRow, error) {
	var rows []EmployeeRoleRow
	err := r.db.WithContext(ctx).
		Table("employee_roles").
		Select("employee_id", "role").
		Scan(&rows).Error
	return rows, err
}

func (r *repository) GetRolePermissions(ctx context.Context) ([]RolePermissionRow, error) {
	var rows []RolePermissionRow
	err := r.db.WithContext(ctx).
		Table("role_permissions").
		Select("role", "resource", "action").
		Scan(&rows).Error
	return rows, err
}

func (r *repository) GetPermissionsByRole(ctx context.Context, role string) ([]RolePermissionRow, error) {
	var rows []RolePermissionRow
	err := r.db.WithContext(ctx).
		Table("role_permissions").
		Select("role", "resource", "action").
		Where("role = ?", role).
		Order("resource, action").
		Scan(&rows).Error
	return rows, err
}

func (r *repository) AssignRole(ctx context.Context, employeeID, role string) error {
	return r.db.WithContext(ctx).Exec(`
		INSERT INTO employee_roles (employee_id, role)
		VALUES (?, ?)
		ON CONFLICT (employee_id, role) DO NOTHING
	`, employeeID, role).Error
}

func (r *repository) GrantPermission(ctx context.Context, role, resource, action string) error {
	return r.db.WithContext(ctx).Exec(`
		INSERT INTO role_permissions (role, resource, action)
		VALUES (?, ?, ?)
		ON CONFLICT (role, resource, action) DO NOTHING
	`, role, resource, action).Error
}
