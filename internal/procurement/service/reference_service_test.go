package service

import (
	"context"
	"errors"
	"testing"
)

func TestCreateReferenceDuplicateCode(t *testing.T) {
	_, svc := setupServices(t)
	ctx := context.Background()

	if _, err := svc.Reference.CreateProject(ctx, managerActor, &CreateProjectInput{
		Code: "PRJ001",
		Name: "一号工地",
	}); err != nil {
		t.Fatalf("CreateProject failed: %v", err)
	}

	// 编码重复按校验错误返回,不暴露存储层错误
	var validationErr *ValidationError
	_, err := svc.Reference.CreateProject(ctx, managerActor, &CreateProjectInput{
		Code: "PRJ001",
		Name: "二号工地",
	})
	if !errors.As(err, &validationErr) {
		t.Errorf("duplicate project code: err = %v, want ValidationError", err)
	}

	if _, err := svc.Reference.CreateCatalogItem(ctx, managerActor, &CreateCatalogItemInput{
		Code: "MAT-001",
		Name: "水泥",
	}); err != nil {
		t.Fatalf("CreateCatalogItem failed: %v", err)
	}
	_, err = svc.Reference.CreateCatalogItem(ctx, managerActor, &CreateCatalogItemInput{
		Code: "MAT-001",
		Name: "散装水泥",
	})
	if !errors.As(err, &validationErr) {
		t.Errorf("duplicate catalog code: err = %v, want ValidationError", err)
	}

	if _, err := svc.Reference.CreateBudgetCategory(ctx, managerActor, &CreateCategoryInput{
		Name: "建筑材料",
	}); err != nil {
		t.Fatalf("CreateBudgetCategory failed: %v", err)
	}
	_, err = svc.Reference.CreateBudgetCategory(ctx, managerActor, &CreateCategoryInput{
		Name: "建筑材料",
	})
	if !errors.As(err, &validationErr) {
		t.Errorf("duplicate category name: err = %v, want ValidationError", err)
	}
}
