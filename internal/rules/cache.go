package rules

import (
	"github.com/solatis/rulegate/internal/schema"
	"github.com/solatis/rulegate/internal/types"
)

/*
 * Plan cache.
 *
 * One cache per execution worker, keyed by raw rule text. Compilation is
 * expensive relative to evaluation, so a rule is compiled exactly once per
 * worker and replayed from then on. Entries are never evicted or updated
 * in place: a plan, once stored, is immutable for the worker's lifetime.
 *
 * Schema guard: a cached plan carries the fingerprint of the schema it was
 * validated against. A hit against a record from a differently-shaped
 * schema is a hard SCHEMA_MISMATCH, never a silent recompile; replaying a
 * stale plan against the wrong shape would type-confuse every clause.
 *
 * No locking: the worker model is single-threaded by design. Deployments
 * that fuse several logical workers onto one thread share that thread's
 * cache instance.
 */

// Cache stores compiled plans for one execution worker.
type Cache struct {
	plans    map[string]*Plan
	compiles uint64
}

// NewCache creates an empty per-worker plan cache.
func NewCache() *Cache {
	return &Cache{plans: make(map[string]*Plan)}
}

// GetOrCompile returns the cached plan for rule, compiling and storing it
// on first sight. A hit with a mismatched schema fingerprint fails; a
// compile failure caches nothing, so a corrected schema can succeed later.
func (c *Cache) GetOrCompile(rule string, sch *schema.Schema) (*Plan, error) {
	if c.plans == nil {
		return nil, types.E(types.CodePlanAllocFailed, "cache not initialized")
	}

	if plan, ok := c.plans[rule]; ok {
		if plan.SchemaFingerprint != sch.Fingerprint() {
			cacheMismatches.Inc()
			return nil, types.E(types.CodeSchemaMismatch,
				"cached plan compiled for fingerprint %.12s, record has %.12s",
				plan.SchemaFingerprint, sch.Fingerprint())
		}
		cacheHits.Inc()
		return plan, nil
	}
	cacheMisses.Inc()

	plan, err := Compile(rule, sch)
	if err != nil {
		return nil, err
	}
	if _, exists := c.plans[rule]; exists {
		// Single-threaded workers cannot race themselves.
		return nil, types.E(types.CodePlanConflict,
			"plan for rule already inserted during compilation")
	}
	c.plans[rule] = plan
	c.compiles++
	compilations.Inc()
	return plan, nil
}

// Compilations returns how many plans this cache has compiled.
// Instrumentation hook for verifying compile-once behavior.
func (c *Cache) Compilations() uint64 {
	return c.compiles
}

// Len returns the number of cached plans.
func (c *Cache) Len() int {
	return len(c.plans)
}
