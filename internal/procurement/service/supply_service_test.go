package service

import (
	"context"
	"errors"
	"testing"

	"github.com/notofall/finaltalabt-sub001/internal/procurement/entity"
	"github.com/notofall/finaltalabt-sub001/internal/procurement/testutil"
)

func TestSupplySummaryBuckets(t *testing.T) {
	db, svc := setupServices(t)
	testutil.SeedProject(t, db, "prj-001", "PRJ001", "一号工地")
	testutil.SeedCatalogItem(t, db, "cat-001", "MAT-001", "水泥")
	testutil.SeedCatalogItem(t, db, "cat-002", "MAT-002", "钢筋")
	testutil.SeedCatalogItem(t, db, "cat-003", "MAT-003", "砂石")

	entries := []entity.SupplyTracking{
		{ID: "st-001", ProjectID: "prj-001", CatalogItemID: "cat-001", RequiredQuantity: 100, ReceivedQuantity: 100},
		{ID: "st-002", ProjectID: "prj-001", CatalogItemID: "cat-002", RequiredQuantity: 200, ReceivedQuantity: 50},
		{ID: "st-003", ProjectID: "prj-001", CatalogItemID: "cat-003", RequiredQuantity: 80, ReceivedQuantity: 0},
	}
	for i := range entries {
		if err := db.Create(&entries[i]).Error; err != nil {
			t.Fatalf("seed entry: %v", err)
		}
	}

	summary, err := svc.Supply.ProjectSummary(context.Background(), "prj-001")
	if err != nil {
		t.Fatalf("ProjectSummary failed: %v", err)
	}
	if summary.Completed != 1 || summary.InProgress != 1 || summary.NotStarted != 1 {
		t.Errorf("buckets = %d/%d/%d, want 1/1/1", summary.Completed, summary.InProgress, summary.NotStarted)
	}
	// 150/380
	wantOverall := 150.0 / 380.0 * 100
	if summary.OverallCompletion != wantOverall {
		t.Errorf("overall = %v, want %v", summary.OverallCompletion, wantOverall)
	}
	if len(summary.Entries) != 3 {
		t.Fatalf("entries = %d, want 3", len(summary.Entries))
	}
	if summary.Entries[1].Completion != 25 {
		t.Errorf("cat-002 completion = %v, want 25", summary.Entries[1].Completion)
	}
}

func TestSupplyZeroRequirement(t *testing.T) {
	db, svc := setupServices(t)
	testutil.SeedProject(t, db, "prj-001", "PRJ001", "一号工地")
	testutil.SeedCatalogItem(t, db, "cat-001", "MAT-001", "水泥")

	// 需求量为0但已有到货:完成率按0处理,不除零
	entry := entity.SupplyTracking{
		ID: "st-001", ProjectID: "prj-001", CatalogItemID: "cat-001",
		RequiredQuantity: 0, ReceivedQuantity: 5,
	}
	if err := db.Create(&entry).Error; err != nil {
		t.Fatalf("seed entry: %v", err)
	}

	summary, err := svc.Supply.ProjectSummary(context.Background(), "prj-001")
	if err != nil {
		t.Fatalf("ProjectSummary failed: %v", err)
	}
	if summary.Entries[0].Completion != 0 {
		t.Errorf("completion = %v, want 0 for zero requirement", summary.Entries[0].Completion)
	}
	if summary.OverallCompletion != 0 {
		t.Errorf("overall = %v, want 0", summary.OverallCompletion)
	}
	// 有到货但需求为0的条目计入进行中
	if summary.InProgress != 1 {
		t.Errorf("in_progress = %d, want 1", summary.InProgress)
	}
}

func TestSetRequirement(t *testing.T) {
	db, svc := setupServices(t)
	testutil.SeedProject(t, db, "prj-001", "PRJ001", "一号工地")
	testutil.SeedCatalogItem(t, db, "cat-001", "MAT-001", "水泥")
	ctx := context.Background()

	entry, err := svc.Supply.SetRequirement(ctx, managerActor, "prj-001", &SetRequirementInput{
		CatalogItemID: "cat-001",
		Required:      120,
	})
	if err != nil {
		t.Fatalf("SetRequirement failed: %v", err)
	}
	if entry.RequiredQuantity != 120 {
		t.Errorf("required = %v, want 120", entry.RequiredQuantity)
	}

	// 覆盖更新同一条目
	updated, err := svc.Supply.SetRequirement(ctx, managerActor, "prj-001", &SetRequirementInput{
		CatalogItemID: "cat-001",
		Required:      150,
	})
	if err != nil {
		t.Fatalf("SetRequirement update failed: %v", err)
	}
	if updated.ID != entry.ID {
		t.Error("update should reuse the existing entry")
	}
	if updated.RequiredQuantity != 150 {
		t.Errorf("required = %v, want 150", updated.RequiredQuantity)
	}

	// 负数需求量拒绝
	var validationErr *ValidationError
	_, err = svc.Supply.SetRequirement(ctx, managerActor, "prj-001", &SetRequirementInput{
		CatalogItemID: "cat-001",
		Required:      -1,
	})
	if !errors.As(err, &validationErr) {
		t.Errorf("negative required: err = %v, want ValidationError", err)
	}

	// 主管无台账管理权限
	_, err = svc.Supply.SetRequirement(ctx, supervisorActor, "prj-001", &SetRequirementInput{
		CatalogItemID: "cat-001",
		Required:      10,
	})
	if !errors.Is(err, ErrForbidden) {
		t.Errorf("supervisor set requirement: err = %v, want ErrForbidden", err)
	}
}

func TestOrderCreateDoesNotOverwriteRequirement(t *testing.T) {
	db, svc := setupServices(t)
	seedOrderRefs(t, db)
	ctx := context.Background()

	// 计划侧先设置需求量
	if _, err := svc.Supply.SetRequirement(ctx, managerActor, "prj-001", &SetRequirementInput{
		CatalogItemID: "cat-001",
		Required:      500,
	}); err != nil {
		t.Fatalf("SetRequirement failed: %v", err)
	}

	createOrder(t, svc, 10000) // 行项数量10

	var entry entity.SupplyTracking
	if err := db.Where("project_id = ? AND catalog_item_id = ?", "prj-001", "cat-001").First(&entry).Error; err != nil {
		t.Fatalf("ledger entry missing: %v", err)
	}
	if entry.RequiredQuantity != 500 {
		t.Errorf("required = %v, order create must not overwrite planner value", entry.RequiredQuantity)
	}
}
