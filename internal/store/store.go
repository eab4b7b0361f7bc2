// Package store persists named rules in the catalog database.
//
// Rules are stored as raw text and compiled lazily by the workers that run
// them. The store never compiles; callers that want to reject bad rules at
// write time compile against their schema before calling Create.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/solatis/rulegate/internal/core/db"
	"github.com/solatis/rulegate/internal/types"
)

// ErrNotFound reports a lookup for a rule that does not exist.
var ErrNotFound = errors.New("rule not found")

// Rule is one row of the rule catalog.
type Rule struct {
	ID         types.RuleID `db:"rule_id"`
	Name       string       `db:"name"`
	Dataset    string       `db:"dataset"`
	Expression string       `db:"expression"`
	CreatedAt  string       `db:"created_at"`
}

// Store wraps the named queries for the rules table.
type Store struct {
	q *db.Queries
}

// New creates a Store over an already-loaded query set.
func New(q *db.Queries) *Store {
	return &Store{q: q}
}

// Create inserts a rule and returns its generated ID.
// Expression length is capped here as well as in the schema so the limit
// holds even against a database bootstrapped by older migrations.
func (s *Store) Create(name, dataset, expression string) (types.RuleID, error) {
	if name == "" {
		return "", fmt.Errorf("rule name must not be empty")
	}
	if expression == "" {
		return "", fmt.Errorf("rule expression must not be empty")
	}
	if len(expression) > types.MaxRuleLength {
		return "", fmt.Errorf("rule expression exceeds %d bytes", types.MaxRuleLength)
	}

	id := types.NewRuleID()
	createdAt := time.Now().UTC().Format(time.RFC3339)

	if _, err := s.q.Exec("create-rule", string(id), name, dataset, expression, createdAt); err != nil {
		return "", fmt.Errorf("failed to create rule: %w", err)
	}
	return id, nil
}

// Get retrieves a rule by ID.
func (s *Store) Get(id types.RuleID) (*Rule, error) {
	var r Rule
	if err := s.q.Get("get-rule", &r, string(id)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get rule: %w", err)
	}
	return &r, nil
}

// GetByName retrieves a rule by its (dataset, name) pair.
func (s *Store) GetByName(dataset, name string) (*Rule, error) {
	var r Rule
	if err := s.q.Get("get-rule-by-name", &r, dataset, name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get rule: %w", err)
	}
	return &r, nil
}

// List returns the rules of one dataset, ordered by name.
func (s *Store) List(dataset string) ([]Rule, error) {
	var rules []Rule
	if err := s.q.Select("list-rules", &rules, dataset); err != nil {
		return nil, fmt.Errorf("failed to list rules: %w", err)
	}
	return rules, nil
}

// ListAll returns every rule across all datasets.
func (s *Store) ListAll() ([]Rule, error) {
	var rules []Rule
	if err := s.q.Select("list-all-rules", &rules); err != nil {
		return nil, fmt.Errorf("failed to list rules: %w", err)
	}
	return rules, nil
}

// Delete removes a rule by ID. Deleting an unknown ID returns ErrNotFound.
func (s *Store) Delete(id types.RuleID) error {
	res, err := s.q.Exec("delete-rule", string(id))
	if err != nil {
		return fmt.Errorf("failed to delete rule: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete rule: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
