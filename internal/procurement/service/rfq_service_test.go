package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/notofall/finaltalabt-sub001/internal/procurement/entity"
	"github.com/notofall/finaltalabt-sub001/internal/procurement/testutil"
)

func TestRFQLifecycle(t *testing.T) {
	db, svc := setupServices(t)
	testutil.SeedProject(t, db, "prj-001", "PRJ001", "一号工地")
	testutil.SeedSupplier(t, db, "sup-001", "宏远建材")
	testutil.SeedSupplier(t, db, "sup-002", "远大钢构")
	ctx := context.Background()

	year := time.Now().Format("06")

	rfq, err := svc.RFQ.Create(ctx, managerActor, &CreateRFQInput{
		ProjectID: "prj-001",
		Title:     "主体结构钢材询价",
	})
	if err != nil {
		t.Fatalf("Create RFQ failed: %v", err)
	}
	if rfq.RFQNumber != fmt.Sprintf("RFQ-%s-0001", year) {
		t.Errorf("rfq number = %s", rfq.RFQNumber)
	}
	if rfq.Status != entity.RFQStatusOpen {
		t.Errorf("status = %s, want open", rfq.Status)
	}

	quote1, err := svc.RFQ.AddQuote(ctx, managerActor, rfq.ID, &AddQuoteInput{
		SupplierID:   "sup-001",
		TotalAmount:  82000,
		LeadTimeDays: 15,
	})
	if err != nil {
		t.Fatalf("AddQuote failed: %v", err)
	}
	if quote1.QuoteNumber != fmt.Sprintf("SQ-%s-0001", year) {
		t.Errorf("quote number = %s", quote1.QuoteNumber)
	}

	quote2, err := svc.RFQ.AddQuote(ctx, managerActor, rfq.ID, &AddQuoteInput{
		SupplierID:   "sup-002",
		TotalAmount:  78500,
		LeadTimeDays: 20,
	})
	if err != nil {
		t.Fatalf("AddQuote failed: %v", err)
	}
	if quote2.QuoteNumber != fmt.Sprintf("SQ-%s-0002", year) {
		t.Errorf("quote number = %s", quote2.QuoteNumber)
	}

	// 收到报价后状态流转
	quoted, err := svc.RFQ.Get(ctx, rfq.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if quoted.Status != entity.RFQStatusQuoted {
		t.Errorf("status = %s, want quoted", quoted.Status)
	}
	if len(quoted.Quotes) != 2 {
		t.Fatalf("quotes = %d, want 2", len(quoted.Quotes))
	}

	closed, err := svc.RFQ.SelectQuote(ctx, managerActor, rfq.ID, quote2.ID)
	if err != nil {
		t.Fatalf("SelectQuote failed: %v", err)
	}
	if closed.Status != entity.RFQStatusClosed {
		t.Errorf("status = %s, want closed", closed.Status)
	}
	var selectedCount int
	for _, q := range closed.Quotes {
		if q.Selected {
			selectedCount++
			if q.ID != quote2.ID {
				t.Errorf("selected quote = %s, want %s", q.ID, quote2.ID)
			}
		}
	}
	if selectedCount != 1 {
		t.Errorf("selected count = %d, want 1", selectedCount)
	}

	// 已关闭询价单不再接收报价
	_, err = svc.RFQ.AddQuote(ctx, managerActor, rfq.ID, &AddQuoteInput{
		SupplierID:  "sup-001",
		TotalAmount: 70000,
	})
	if !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("quote after close: err = %v, want ErrInvalidTransition", err)
	}
}

func TestSelectQuoteGuards(t *testing.T) {
	db, svc := setupServices(t)
	testutil.SeedProject(t, db, "prj-001", "PRJ001", "一号工地")
	testutil.SeedSupplier(t, db, "sup-001", "宏远建材")
	ctx := context.Background()

	first, err := svc.RFQ.Create(ctx, managerActor, &CreateRFQInput{ProjectID: "prj-001", Title: "钢材询价"})
	if err != nil {
		t.Fatalf("Create RFQ failed: %v", err)
	}
	second, err := svc.RFQ.Create(ctx, managerActor, &CreateRFQInput{ProjectID: "prj-001", Title: "水泥询价"})
	if err != nil {
		t.Fatalf("Create RFQ failed: %v", err)
	}

	quote, err := svc.RFQ.AddQuote(ctx, managerActor, first.ID, &AddQuoteInput{
		SupplierID:  "sup-001",
		TotalAmount: 5000,
	})
	if err != nil {
		t.Fatalf("AddQuote failed: %v", err)
	}

	// 报价不属于该询价单
	var validationErr *ValidationError
	if _, err := svc.RFQ.SelectQuote(ctx, managerActor, second.ID, quote.ID); !errors.As(err, &validationErr) {
		t.Errorf("cross-rfq select: err = %v, want ValidationError", err)
	}

	// 主管无询价管理权限
	if _, err := svc.RFQ.SelectQuote(ctx, supervisorActor, first.ID, quote.ID); !errors.Is(err, ErrForbidden) {
		t.Errorf("supervisor select: err = %v, want ErrForbidden", err)
	}
}
