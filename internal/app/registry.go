package app

import (
	"database/sql"

	"go-bizops/internal/attendance"
	"go-bizops/internal/department"
	"go-bizops/internal/employee"
	"go-bizops/internal/inventory"
	"go-bizops/internal/leave"
	"go-bizops/internal/messaging/kafka"
	"go-bizops/internal/middleware"
	"go-bizops/internal/payroll"
	"go-bizops/internal/procurement"
	"go-bizops/internal/rbac"
	"go-bizops/internal/shared/config"
	"go-bizops/internal/shared/counter"
	"go-bizops/internal/supplychain"
	"go-bizops/internal/task"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"gorm.io/gorm"
)

func registerModules(
	router *gin.Engine,
	sqlDB *sql.DB,
	gormDB *gorm.DB,
	rdb *redis.Client,
	cfg *config.Config,
) error {
	// --- Repositories ---
	attendanceRepo := attendance.NewRepository(gormDB)
	counterRepo := counter.NewRepository(gormDB)
	departmentRepo := department.NewRepository(gormDB)
	employeeRepo := employee.NewRepository(gormDB)
	inventoryRepo := inventory.NewRepository(gormDB)
	leaveRepo := leave.NewRepository(gormDB)
	outboxRepo := kafka.NewOutboxRepository(sqlDB)
	payrollRepo := payroll.NewRepository(gormDB)
	procurementRepo := procurement.NewRepository(gormDB)
	rbacRepo := rbac.NewRepository(gormDB)
	supplyRepo := supplychain.NewRepository(gormDB)
	taskRepo := task.NewRepository(gormDB)

	// --- RBAC Core ---
	enforcer, err := rbac.NewEnforcer()
	if err != nil {
		return err
	}
	rbacService := rbac.NewService(rbacRepo, enforcer)

	// --- Services ---
	attendanceService := attendance.NewService(sqlDB, attendanceRepo)
	departmentService := department.NewService(sqlDB, departmentRepo)
	employeeService := employee.NewService(sqlDB, employeeRepo, outboxRepo)
	inventoryService := inventory.NewService(sqlDB, inventoryRepo, outboxRepo)
	leaveService := leave.NewService(sqlDB, leaveRepo, outboxRepo)
	payrollService := payroll.NewService(sqlDB, payrollRepo, attendanceRepo, counterRepo)
	procurementService := procurement.NewService(sqlDB, procurementRepo, counterRepo, outboxRepo)
	supplyService := supplychain.NewService(sqlDB, supplyRepo, counterRepo, outboxRepo)
	taskService := task.NewService(sqlDB, taskRepo)

	// --- Handlers ---
	attendanceHandler := attendance.NewHandler(attendanceService)
	departmentHandler := department.NewHandler(departmentService)
	employeeHandler := employee.NewHandler(employeeService)
	inventoryHandler := inventory.NewHandler(inventoryService)
	leaveHandler := leave.NewHandler(leaveService)
	payrollHandler := payroll.NewHandler(payrollService)
	procurementHandler := procurement.NewHandler(procurementService)
	rbacHandler := rbac.NewHandler(rbacService)
	supplyHandler := supplychain.NewHandler(supplyService)
	taskHandler := task.NewHandler(taskService)

	// --- Routes Registration ---
	router.Use(
		middleware.RequestID(),
		middleware.RateLimitByIP(rate.Limit(50), 100),
	)

	api := router.Group("/api/v1")
	api.Use(
		middleware.AuthMiddleware(cfg.JWTSecret),
		middleware.RateLimitByActor(rate.Limit(20), 40),
		middleware.ContextLogger(zap.L()),
		middleware.Idempotency(rdb),
	)
	{
		attendance.RegisterRoutes(api, attendanceHandler, rbacService)
		department.RegisterRoutes(api, departmentHandler, rbacService)
		employee.RegisterRoutes(api, employeeHandler, rbacService)
		inventory.RegisterRoutes(api, inventoryHandler, rbacService)
		leave.RegisterRoutes(api, leaveHandler, rbacService)
		payroll.RegisterRoutes(api, payrollHandler, rbacService)
		procurement.RegisterRoutes(api, procurementHandler, rbacService)
		rbac.RegisterRoutes(api, rbacHandler)
		supplychain.RegisterRoutes(api, supplyHandler, rbacService)
		task.RegisterRoutes(api, taskHandler, rbacService)
	}

	return nil
}
