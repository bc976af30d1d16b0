// Package filter selects listed objects with expr-lang expressions,
// e.g. `size > 1024 && key endsWith ".log"`.
package filter

import (
	"fmt"
	"github.com/cirruslabs/asyncoss/pkg/oss"
	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"time"
)

type Filter struct {
	program *vm.Program
}

type env struct {
	Key          string    `expr:"key"`
	Size         int64     `expr:"size"`
	LastModified time.Time `expr:"lastModified"`
	ETag         string    `expr:"etag"`
	StorageClass string    `expr:"storageClass"`
	Type         string    `expr:"type"`
}

func New(source string) (*Filter, error) {
	program, err := expr.Compile(source, expr.Env(env{}), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("failed to compile filter expression %q: %w", source, err)
	}

	return &Filter{
		program: program,
	}, nil
}

func (filter *Filter) Match(object oss.ObjectSummary) (bool, error) {
	result, err := expr.Run(filter.program, env{
		Key:          object.Key,
		Size:         object.Size,
		LastModified: object.LastModified,
		ETag:         object.ETag,
		StorageClass: object.StorageClass,
		Type:         object.Type,
	})
	if err != nil {
		return false, err
	}

	match, ok := result.(bool)
	if !ok {
		return false, fmt.Errorf("filter expression should've evaluated to bool, got %T instead", result)
	}

	return match, nil
}
