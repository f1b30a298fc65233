package testutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/notofall/finaltalabt-sub001/internal/middleware"
	"github.com/notofall/finaltalabt-sub001/internal/procurement/entity"
)

const JWTSecret = "procurement-jwt-secret-key-2026"

// SetupTestDB 基于内存sqlite的测试数据库,每个测试各自独立。
// TranslateError 必须开启,编号冲突重试依赖 gorm.ErrDuplicatedKey。
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	err = db.AutoMigrate(
		&entity.Project{},
		&entity.Supplier{},
		&entity.CatalogItem{},
		&entity.BudgetCategory{},
		&entity.MaterialRequest{},
		&entity.RequestItem{},
		&entity.PurchaseOrder{},
		&entity.OrderItem{},
		&entity.RFQ{},
		&entity.Quotation{},
		&entity.QuotationItem{},
		&entity.SupplyTracking{},
		&entity.Setting{},
		&entity.AuditLog{},
	)
	if err != nil {
		t.Fatalf("Failed to migrate test tables: %v", err)
	}

	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		if sqlDB != nil {
			sqlDB.Close()
		}
	})

	return db
}

// SetupRouter 创建测试路由
func SetupRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(gin.Recovery())
	return r
}

// AuthGroup 创建带JWT认证的测试路由组
func AuthGroup(r *gin.Engine, path string) *gin.RouterGroup {
	return r.Group(path, middleware.JWTAuth(JWTSecret))
}

// GenerateTestToken 生成测试用JWT
func GenerateTestToken(userID, name, role string) string {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":  userID,
		"uid":  userID,
		"name": name,
		"role": role,
		"iat":  now.Unix(),
		"exp":  now.Add(24 * time.Hour).Unix(),
		"jti":  fmt.Sprintf("test-jti-%d", now.UnixNano()),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, _ := token.SignedString([]byte(JWTSecret))
	return tokenString
}

// DefaultTestToken 默认管理员测试token
func DefaultTestToken() string {
	return GenerateTestToken("test-user-001", "Test Admin", "admin")
}

// DoRequest 对测试路由发起HTTP请求
func DoRequest(r *gin.Engine, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer
	if body != nil {
		jsonBytes, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(jsonBytes)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req, _ := http.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// ParseResponse 解析JSON响应体
func ParseResponse(w *httptest.ResponseRecorder) map[string]interface{} {
	var result map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &result)
	return result
}

// SeedProject 创建测试项目
func SeedProject(t *testing.T, db *gorm.DB, id, code, name string) *entity.Project {
	t.Helper()
	project := &entity.Project{
		ID:     id,
		Code:   code,
		Name:   name,
		Status: "active",
	}
	if err := db.Create(project).Error; err != nil {
		t.Fatalf("Failed to seed test project: %v", err)
	}
	return project
}

// SeedSupplier 创建测试供应商
func SeedSupplier(t *testing.T, db *gorm.DB, id, name string) *entity.Supplier {
	t.Helper()
	supplier := &entity.Supplier{
		ID:     id,
		Name:   name,
		Status: "active",
	}
	if err := db.Create(supplier).Error; err != nil {
		t.Fatalf("Failed to seed test supplier: %v", err)
	}
	return supplier
}

// SeedCatalogItem 创建测试物料目录条目
func SeedCatalogItem(t *testing.T, db *gorm.DB, id, code, name string) *entity.CatalogItem {
	t.Helper()
	item := &entity.CatalogItem{
		ID:   id,
		Code: code,
		Name: name,
		Unit: "pcs",
	}
	if err := db.Create(item).Error; err != nil {
		t.Fatalf("Failed to seed test catalog item: %v", err)
	}
	return item
}
