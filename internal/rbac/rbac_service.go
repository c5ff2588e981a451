package rbac

import (
	"context"
	_ "embed"
	"sync"

	"go-bizops/internal/domain"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	"go.uber.org/zap"
)

//go:embed model.conf
var modelText string

// NewEnforcer builds an enforcer over the embedded model with no file
// adapter; policy rows are loaded from the database on each check.
func NewEnforcer() (*casbin.Enforcer, error) {
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, err
	}
	return casbin.NewEnforcer(m)
}

//go:generate mockgen -source=rbac_service.go -destination=mock/rbac_service_mock.go -package=mock
type Service interface {
	Enforce(ctx context.Context, req domain.EnforceRequest) (bool, error)
	// AccessibleModules is the derived read-only view of what a role
	// may touch, grouped by resource.
	AccessibleModules(ctx context.Context, role string) ([]domain.ModuleAccess, error)
}

type service struct {
	repo     Repository
	enforcer *casbin.Enforcer
	mu       sync.Mutex
	logger   *zap.Logger
}

func NewService(repo Repository, enforcer *casbin.Enforcer, logger ...*zap.Logger) Service {
	l := zap.L().Named("rbac.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("rbac.service")
	}
	return &service{repo: repo, enforcer: enforcer, logger: l}
}

func (s *service) loadPolicyUnlocked(ctx context.Context) error {
	s.enforcer.ClearPolicy()

	employeeRoles, err := s.repo.GetEmployeeRoles(ctx)
	if err != nil {
		return err
	}
	for _, er := range employeeRoles {
		if _, err := s.enforcer.AddGroupingPolicy(er.EmployeeID, er.Role); err != nil {
			return err
		}
	}

	rolePerms, err := s.repo.GetRolePermissions(ctx)
	if err != nil {
		return err
	}
	for _, rp := range rolePerms {
		if _, err := s.enforcer.AddPolicy(rp.Role, rp.Resource, rp.Action); err != nil {
			return err
		}
	}

	return nil
}

// Enforce checks the caller against the current policy rows. The role
// claim carried by the request also counts as a role binding, so a
// freshly minted token works before its employee_roles row lands.
func (s *service) Enforce(ctx context.Context, req domain.EnforceRequest) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.loadPolicyUnlocked(ctx); err != nil {
		return false, err
	}

	if req.Role != "" {
		if _, err := s.enforcer.AddGroupingPolicy(req.EmployeeID, req.Role); err != nil {
			return false, err
		}
	}

	allowed, err := s.enforcer.Enforce(req.EmployeeID, req.Resource, req.Action)
	if err != nil {
		return false, err
	}

	s.logger.Debug("enforce",
		zap.String("employee_id", req.EmployeeID),
		zap.String("role", req.Role),
		zap.String("resource", req.Resource),
		zap.String("action", req.Action),
		zap.Bool("allowed", allowed),
	)

	return allowed, nil
}

func (s *service) AccessibleModules(ctx context.Context, role string) ([]domain.ModuleAccess, error) {
	perms, err := s.repo.GetPermissionsByRole(ctx, role)
	if err != nil {
		return nil, err
	}

	byModule := make(map[string][]string)
	var order []string
	for _, p := range perms {
		if _, seen := byModule[p.Resource]; !seen {
			order = append(order, p.Resource)
		}
		byModule[p.Resource] = append(byModule[p.Resource], p.Action)
	}

	out := make([]domain.ModuleAccess, 0, len(order))
	for _, module := range order {
		out = append(out, domain.ModuleAccess{Module: module, Actions: byModule[module]})
	}
	return out, nil
}
