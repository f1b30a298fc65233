package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AllocateRetries 编号插入冲突的整体重试预算
const AllocateRetries = 5

// ErrEmptyPrefix 编号前缀为空且无兜底规则
var ErrEmptyPrefix = errors.New("sequence prefix is empty")

// SequenceAllocator 单据编号分配器。
// 序列的"当前值"不落独立计数行,而是从既有编号中按模式取最大值推导,
// 对空洞和并发插入都稳健;支持行锁的库上,取最大值的读取会先拿锁串行化。
type SequenceAllocator struct {
	db *gorm.DB
}

func NewSequenceAllocator(db *gorm.DB) *SequenceAllocator {
	return &SequenceAllocator{db: db}
}

// DocumentNumber 分配年度单据编号,如 PO-26-0007。
// 必须在承载单据插入的同一事务内调用。
func (a *SequenceAllocator) DocumentNumber(ctx context.Context, tx *gorm.DB, model interface{}, column, prefix string, digits int) (string, int, error) {
	if prefix == "" {
		return "", 0, ErrEmptyPrefix
	}
	yearSuffix := time.Now().Format("06")
	scope := fmt.Sprintf("%s-%s-", prefix, yearSuffix)

	seq, err := a.nextInScope(ctx, tx, model, column, scope)
	if err != nil {
		return "", 0, err
	}

	number := fmt.Sprintf("%s%0*d", scope, digits, seq)

	// 输掉竞争时的一次性顺延:候选已被占用则再取下一个
	taken, err := a.exists(ctx, tx, model, column, number)
	if err != nil {
		return "", 0, err
	}
	if taken {
		seq++
		number = fmt.Sprintf("%s%0*d", scope, digits, seq)
	}
	return number, seq, nil
}

// RequestNumber 分配物料申请编号。
// 格式依次回退: {prefix}-{projectCode}-0001 → {prefix}-0001 → REQ-00001。
func (a *SequenceAllocator) RequestNumber(ctx context.Context, tx *gorm.DB, model interface{}, column, supervisorPrefix, projectCode string) (string, int, error) {
	var scope string
	digits := 4
	switch {
	case supervisorPrefix != "" && projectCode != "":
		scope = fmt.Sprintf("%s-%s-", supervisorPrefix, projectCode)
	case supervisorPrefix != "":
		scope = supervisorPrefix + "-"
	default:
		scope = "REQ-"
		digits = 5
	}

	seq, err := a.nextInScope(ctx, tx, model, column, scope)
	if err != nil {
		return "", 0, err
	}

	number := fmt.Sprintf("%s%0*d", scope, digits, seq)
	taken, err := a.exists(ctx, tx, model, column, number)
	if err != nil {
		return "", 0, err
	}
	if taken {
		seq++
		number = fmt.Sprintf("%s%0*d", scope, digits, seq)
	}
	return number, seq, nil
}

// FallbackNumber 重试预算耗尽后的兜底编号:携带随机片段保证可前进,
// 放弃格式合规换取可用性。
func (a *SequenceAllocator) FallbackNumber(scope string) string {
	return fmt.Sprintf("%s-%s", strings.TrimSuffix(scope, "-"), uuid.New().String()[:8])
}

// YearScope 返回某前缀的本年度序列范围,如 "PO-26-"
func YearScope(prefix string) string {
	return fmt.Sprintf("%s-%s-", prefix, time.Now().Format("06"))
}

// nextInScope 取范围内现存最大编号,解析尾部数字序号并+1;范围为空从1起。
// 序号必须按尾部数字解析而非字符串比较,避免 "9" 排在 "10" 之后的陷阱。
// 范围尾段只允许数字:主管系列 "a1-%" 不得吸入项目系列 "a1-PRJ001-…" 的编号,
// 否则两个系列互相污染对方的最大值。
func (a *SequenceAllocator) nextInScope(ctx context.Context, tx *gorm.DB, model interface{}, column, scope string) (int, error) {
	query := tx.WithContext(ctx).Model(model).
		Where(column+" LIKE ?", scope+"%").
		Not(column+" LIKE ?", scope+"%-%")

	// 支持行锁的库上串行化并发分配;嵌入式单写库(sqlite)跳过,接受窄竞争窗口
	if tx.Dialector.Name() == "postgres" {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var numbers []string
	if err := query.Order(column+" DESC").Limit(1).Pluck(column, &numbers).Error; err != nil {
		return 0, err
	}
	if len(numbers) == 0 {
		return 1, nil
	}
	return trailingNumber(numbers[0]) + 1, nil
}

func (a *SequenceAllocator) exists(ctx context.Context, tx *gorm.DB, model interface{}, column, number string) (bool, error) {
	var count int64
	err := tx.WithContext(ctx).Model(model).
		Where(column+" = ?", number).
		Count(&count).Error
	return count > 0, err
}

// trailingNumber 提取字符串末尾的连续数字;无数字或不可解析返回0
func trailingNumber(s string) int {
	end := len(s)
	start := end
	for start > 0 && s[start-1] >= '0' && s[start-1] <= '9' {
		start--
	}
	if start == end {
		return 0
	}
	n := 0
	for _, c := range s[start:end] {
		n = n*10 + int(c-'0')
	}
	return n
}
