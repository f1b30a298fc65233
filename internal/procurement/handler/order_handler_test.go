package handler

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/notofall/finaltalabt-sub001/internal/procurement/entity"
	"github.com/notofall/finaltalabt-sub001/internal/procurement/repository"
	"github.com/notofall/finaltalabt-sub001/internal/procurement/service"
	"github.com/notofall/finaltalabt-sub001/internal/procurement/testutil"
)

func setupOrderTest(t *testing.T) (*gorm.DB, *gin.Engine) {
	t.Helper()
	db := testutil.SetupTestDB(t)

	repos := repository.NewRepositories(db, nil, zap.NewNop())
	services := service.NewServices(db, repos, zap.NewNop())
	handlers := NewHandlers(services)

	router := testutil.SetupRouter()
	api := testutil.AuthGroup(router, "/api/v1")

	requests := api.Group("/requests")
	requests.POST("", handlers.Request.Create)
	requests.POST("/:id/approve", handlers.Request.Approve)

	orders := api.Group("/orders")
	orders.GET("", handlers.Order.List)
	orders.GET("/:id", handlers.Order.Get)
	orders.POST("", handlers.Order.Create)
	orders.POST("/:id/approve", handlers.Order.Approve)
	orders.POST("/:id/ship", handlers.Order.Ship)
	orders.POST("/:id/deliveries", handlers.Order.ConfirmDelivery)

	testutil.SeedProject(t, db, "prj-001", "PRJ001", "一号工地")
	testutil.SeedSupplier(t, db, "sup-001", "宏远建材")
	testutil.SeedCatalogItem(t, db, "cat-001", "MAT-001", "水泥")

	return db, router
}

func dataOf(t *testing.T, result map[string]interface{}) map[string]interface{} {
	t.Helper()
	data, ok := result["data"].(map[string]interface{})
	if !ok {
		t.Fatalf("response data missing: %v", result)
	}
	return data
}

// TestOrderLifecycleHTTP 走完整HTTP链路:申请→审核→下单→审批→发货→到货
func TestOrderLifecycleHTTP(t *testing.T) {
	_, router := setupOrderTest(t)

	supervisorToken := testutil.GenerateTestToken("user-sup-001", "现场主管", "supervisor")
	engineerToken := testutil.GenerateTestToken("user-eng-001", "审核工程师", "engineer")
	managerToken := testutil.GenerateTestToken("user-mgr-001", "采购经理", "manager")

	// 创建物料申请
	w := testutil.DoRequest(router, "POST", "/api/v1/requests", map[string]interface{}{
		"project_id":        "prj-001",
		"supervisor_prefix": "a1",
		"items": []map[string]interface{}{
			{"name": "水泥", "quantity": 10, "unit": "袋"},
		},
	}, supervisorToken)
	if w.Code != http.StatusCreated {
		t.Fatalf("create request: status = %d, body = %s", w.Code, w.Body.String())
	}
	reqData := dataOf(t, testutil.ParseResponse(w))
	requestID := reqData["id"].(string)
	if reqData["request_number"] != "a1-PRJ001-0001" {
		t.Errorf("request number = %v", reqData["request_number"])
	}

	// 工程师审核
	w = testutil.DoRequest(router, "POST", "/api/v1/requests/"+requestID+"/approve", nil, engineerToken)
	if w.Code != http.StatusOK {
		t.Fatalf("approve request: status = %d, body = %s", w.Code, w.Body.String())
	}

	// 经理下单
	w = testutil.DoRequest(router, "POST", "/api/v1/orders", map[string]interface{}{
		"request_id":  requestID,
		"supplier_id": "sup-001",
		"items": []map[string]interface{}{
			{"name": "水泥", "quantity": 10, "unit_price": 100, "catalog_item_id": "cat-001"},
		},
	}, managerToken)
	if w.Code != http.StatusCreated {
		t.Fatalf("create order: status = %d, body = %s", w.Code, w.Body.String())
	}
	orderData := dataOf(t, testutil.ParseResponse(w))
	orderID := orderData["id"].(string)

	year := time.Now().Format("06")
	if orderData["order_number"] != fmt.Sprintf("PO-%s-0001", year) {
		t.Errorf("order number = %v", orderData["order_number"])
	}
	if orderData["status"] != entity.OrderStatusPending {
		t.Errorf("status = %v, want pending (1000 below threshold)", orderData["status"])
	}

	// 审批、发货
	w = testutil.DoRequest(router, "POST", "/api/v1/orders/"+orderID+"/approve", nil, managerToken)
	if w.Code != http.StatusOK {
		t.Fatalf("approve order: status = %d, body = %s", w.Code, w.Body.String())
	}
	w = testutil.DoRequest(router, "POST", "/api/v1/orders/"+orderID+"/ship", map[string]interface{}{
		"tracking_number": "SF123456",
	}, managerToken)
	if w.Code != http.StatusOK {
		t.Fatalf("ship order: status = %d, body = %s", w.Code, w.Body.String())
	}

	// 到货确认
	w = testutil.DoRequest(router, "POST", "/api/v1/orders/"+orderID+"/deliveries", map[string]interface{}{
		"lines": []map[string]interface{}{
			{"name": "水泥", "quantity": 10},
		},
	}, managerToken)
	if w.Code != http.StatusOK {
		t.Fatalf("confirm delivery: status = %d, body = %s", w.Code, w.Body.String())
	}
	delivered := dataOf(t, testutil.ParseResponse(w))
	if delivered["status"] != entity.OrderStatusDelivered {
		t.Errorf("status = %v, want delivered", delivered["status"])
	}

	// 列表可见
	w = testutil.DoRequest(router, "GET", "/api/v1/orders?status=delivered", nil, managerToken)
	if w.Code != http.StatusOK {
		t.Fatalf("list orders: status = %d", w.Code)
	}
	listData := dataOf(t, testutil.ParseResponse(w))
	items := listData["items"].([]interface{})
	if len(items) != 1 {
		t.Errorf("delivered orders = %d, want 1", len(items))
	}
}

func TestOrderHTTPAuthorization(t *testing.T) {
	_, router := setupOrderTest(t)

	supervisorToken := testutil.GenerateTestToken("user-sup-001", "现场主管", "supervisor")

	// 未认证
	w := testutil.DoRequest(router, "GET", "/api/v1/orders", nil, "")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("no token: status = %d, want 401", w.Code)
	}

	// 主管无下单权限
	w = testutil.DoRequest(router, "POST", "/api/v1/orders", map[string]interface{}{
		"supplier_id": "sup-001",
		"project_id":  "prj-001",
		"items": []map[string]interface{}{
			{"name": "水泥", "quantity": 1, "unit_price": 10},
		},
	}, supervisorToken)
	if w.Code != http.StatusForbidden {
		t.Errorf("supervisor create order: status = %d, want 403, body = %s", w.Code, w.Body.String())
	}

	// 请求体缺字段
	managerToken := testutil.GenerateTestToken("user-mgr-001", "采购经理", "manager")
	w = testutil.DoRequest(router, "POST", "/api/v1/orders", map[string]interface{}{
		"items": []map[string]interface{}{},
	}, managerToken)
	if w.Code != http.StatusBadRequest {
		t.Errorf("empty items: status = %d, want 400", w.Code)
	}

	// 不存在的订单
	w = testutil.DoRequest(router, "GET", "/api/v1/orders/does-not-exist", nil, managerToken)
	if w.Code != http.StatusNotFound {
		t.Errorf("missing order: status = %d, want 404", w.Code)
	}
}
