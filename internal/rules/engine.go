package rules

import (
	"go.uber.org/zap"

	"github.com/solatis/rulegate/internal/schema"
	"github.com/solatis/rulegate/internal/types"
)

// Engine is the public entry point for one execution worker: a plan cache
// plus a logger for trace mode. Not safe for concurrent use; create one
// Engine per worker, matching the cache ownership model.
type Engine struct {
	cache  *Cache
	logger *zap.Logger
}

// NewEngine creates a worker engine around an injected cache.
// A nil logger disables trace output.
func NewEngine(cache *Cache, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{cache: cache, logger: logger}
}

// Evaluate applies a rule to a record and returns the boolean outcome plus
// an outcome code. The boolean is only meaningful when the code is
// CodeAllClear. Trace mode logs compilation and per-group progress without
// affecting the result.
func (e *Engine) Evaluate(rule string, rec *schema.Record, trace bool) (bool, types.Code) {
	if rule == "" {
		return false, types.CodeEmptyExpression
	}
	sch := rec.Schema()
	if sch == nil {
		return false, types.CodeSchemaMismatch
	}

	plan, err := e.cache.GetOrCompile(rule, sch)
	if err != nil {
		code := types.CodeOf(err)
		if trace {
			e.logger.Debug("rule compilation failed",
				zap.String("rule", rule),
				zap.String("code", code.String()),
				zap.Error(err))
		}
		return false, code
	}
	if trace {
		e.logger.Debug("plan ready",
			zap.String("rule", rule),
			zap.Int("groups", len(plan.Groups)),
			zap.Uint64("compilations", e.cache.Compilations()))
	}

	result, err := Evaluate(plan, rec)
	if err != nil {
		code := types.CodeOf(err)
		evaluationErrors.WithLabelValues(code.String()).Inc()
		if trace {
			e.logger.Debug("evaluation failed",
				zap.String("rule", rule),
				zap.String("code", code.String()),
				zap.Error(err))
		}
		return false, code
	}
	if trace {
		e.logger.Debug("evaluation complete",
			zap.String("rule", rule),
			zap.Bool("matched", result))
	}
	return result, types.CodeAllClear
}
