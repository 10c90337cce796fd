// Package rule 用 CEL 表达式判断客户是否有资格领取优惠券。
package rule

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/cel-go/cel"

	"storefront/internal/pkg/bizerr"
	"storefront/internal/service/campaign/domain"
)

// CELRuleEngine 实现 domain.RuleEngine，编译结果按表达式缓存。
//
// 可用变量：customer_id, tier, total_spent, order_count, birth_month, registered_days。
// 例如：tier == "gold" && total_spent >= 5000000
type CELRuleEngine struct {
	env      *cel.Env
	programs sync.Map // rule -> cel.Program
}

func NewCELRuleEngine() (*CELRuleEngine, error) {
	env, err := cel.NewEnv(
		cel.Variable("customer_id", cel.IntType),
		cel.Variable("tier", cel.StringType),
		cel.Variable("total_spent", cel.IntType),
		cel.Variable("order_count", cel.IntType),
		cel.Variable("birth_month", cel.IntType),
		cel.Variable("registered_days", cel.IntType),
	)
	if err != nil {
		return nil, err
	}
	return &CELRuleEngine{env: env}, nil
}

// Compile 校验表达式能编译且结果为 bool。
func (e *CELRuleEngine) Compile(rule string) error {
	_, err := e.program(rule)
	return err
}

func (e *CELRuleEngine) program(rule string) (cel.Program, error) {
	if p, ok := e.programs.Load(rule); ok {
		return p.(cel.Program), nil
	}
	ast, iss := e.env.Compile(rule)
	if iss != nil && iss.Err() != nil {
		return nil, bizerr.Validation("invalid eligibility rule: %v", iss.Err())
	}
	if !ast.OutputType().IsExactType(cel.BoolType) {
		return nil, bizerr.Validation("eligibility rule must evaluate to bool, got %s", ast.OutputType())
	}
	prg, err := e.env.Program(ast)
	if err != nil {
		return nil, bizerr.Validation("invalid eligibility rule: %v", err)
	}
	e.programs.Store(rule, prg)
	return prg, nil
}

func (e *CELRuleEngine) Eligible(ctx context.Context, rule string, fact domain.CustomerFact, now time.Time) (bool, error) {
	prg, err := e.program(rule)
	if err != nil {
		return false, err
	}
	vars := map[string]any{
		"customer_id":     fact.CustomerID,
		"tier":            fact.Tier,
		"total_spent":     fact.TotalSpent,
		"order_count":     fact.OrderCount,
		"birth_month":     int64(0),
		"registered_days": int64(0),
	}
	if !fact.BirthDate.IsZero() {
		vars["birth_month"] = int64(fact.BirthDate.Month())
	}
	if !fact.RegisteredAt.IsZero() {
		vars["registered_days"] = int64(now.Sub(fact.RegisteredAt) / (24 * time.Hour))
	}
	out, _, err := prg.ContextEval(ctx, vars)
	if err != nil {
		return false, fmt.Errorf("evaluate eligibility rule: %w", err)
	}
	ok, isBool := out.Value().(bool)
	if !isBool {
		return false, fmt.Errorf("eligibility rule returned %T", out.Value())
	}
	return ok, nil
}
