package filter

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/ljyh223/foodieconnect-recommend/core"
)

var (
	// celEnv 是全局的 CEL 环境，线程安全，可复用
	celEnv     *cel.Env
	celEnvOnce sync.Once
	celEnvErr  error
)

func getCELEnv() (*cel.Env, error) {
	celEnvOnce.Do(func() {
		celEnv, celEnvErr = cel.NewEnv(
			cel.Variable("candidate", cel.DynType),
			cel.Variable("label", cel.DynType),
			cel.Variable("user_id", cel.IntType),
		)
	})
	return celEnv, celEnvErr
}

// RuleFilter 是配置驱动的规则过滤器，使用 CEL (Common Expression Language)
// 表达式判断候选是否应被剔除。表达式返回 true 表示过滤掉该候选。
//
// 表达式语法（CEL 标准语法）：
//   - 数值：candidate.score < 0.2 / candidate.mutual_follow_count == 0
//   - 算法：candidate.algorithm_type == "popular_fallback"
//   - 标签：label.filtered != null
//   - 逻辑：candidate.social_distance == 2 && candidate.similarity < 0.1
//
// 表达式在构造时编译一次，之后可以并发复用。
type RuleFilter struct {
	expr string
	prg  cel.Program
}

// NewRuleFilter 编译表达式并创建规则过滤器。空表达式不过滤任何候选。
func NewRuleFilter(expr string) (*RuleFilter, error) {
	f := &RuleFilter{expr: expr}
	if expr == "" {
		return f, nil
	}

	env, err := getCELEnv()
	if err != nil {
		return nil, fmt.Errorf("cel env: %w", err)
	}
	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile rule %q: %w", expr, issues.Err())
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("program rule %q: %w", expr, err)
	}
	f.prg = prg
	return f, nil
}

func (f *RuleFilter) Name() string {
	return "filter.rule"
}

func (f *RuleFilter) ShouldFilter(
	_ context.Context,
	userID int64,
	score *core.RecommendationScore,
) (bool, error) {
	if score == nil {
		return true, nil
	}
	if f.prg == nil {
		return false, nil
	}

	out, _, err := f.prg.Eval(f.buildInput(userID, score))
	if err != nil {
		return false, fmt.Errorf("eval rule %q: %w", f.expr, err)
	}
	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("rule %q must return boolean, got %T", f.expr, out.Value())
	}
	return result, nil
}

func (f *RuleFilter) buildInput(userID int64, score *core.RecommendationScore) map[string]interface{} {
	labels := make(map[string]interface{}, len(score.Labels))
	for k, v := range score.Labels {
		labels[k] = v.Value
	}
	candidate := map[string]interface{}{
		"user_id":             score.UserID,
		"score":               score.Score,
		"algorithm_type":      score.AlgorithmType,
		"similarity":          score.Similarity,
		"social_distance":     score.SocialDistance,
		"mutual_follow_count": score.MutualFollowCount,
		"common_restaurants":  score.CommonRestaurants,
		"activity_score":      score.ActivityScore,
	}
	return map[string]interface{}{
		"candidate": candidate,
		"label":     labels,
		"user_id":   userID,
	}
}
