// Package engine executes compiled mutation plans: a registry of
// per-operation step executors and the plan executor that drives the
// revision check, mutation phase, assert phase and single commit.
package engine

import (
	"sync"

	"github.com/wasimrehman05/superdoc-sub008/internal/doc"
	"github.com/wasimrehman05/superdoc-sub008/internal/plan"
)

// StepExecutor handles one operation kind. It receives the working
// tree, the shared transaction, the step with its compiled targets,
// and the position mapping reflecting ops applied by earlier steps in
// the same plan. It returns the step's outcome or a plan error, which
// aborts the whole plan.
type StepExecutor func(
	tree *doc.Node,
	tx *doc.Transaction,
	step plan.Step,
	targets []plan.CompiledTarget,
	mapping *doc.Mapping,
) (plan.StepOutcome, error)

var registry = struct {
	sync.RWMutex
	executors map[string]StepExecutor
}{executors: make(map[string]StepExecutor)}

// RegisterStepExecutor binds an operation name to an executor.
// Re-registering an operation replaces the previous executor.
func RegisterStepExecutor(op string, fn StepExecutor) {
	registry.Lock()
	defer registry.Unlock()
	registry.executors[op] = fn
}

// GetStepExecutor looks up the executor for an operation name.
func GetStepExecutor(op string) (StepExecutor, bool) {
	registry.RLock()
	defer registry.RUnlock()
	fn, ok := registry.executors[op]
	return fn, ok
}

// HasStepExecutor reports whether an operation name is registered.
func HasStepExecutor(op string) bool {
	_, ok := GetStepExecutor(op)
	return ok
}

// ClearExecutorRegistry removes every registered executor, built-ins
// included. Call RestoreBuiltins to get the built-ins back.
func ClearExecutorRegistry() {
	registry.Lock()
	defer registry.Unlock()
	registry.executors = make(map[string]StepExecutor)
}

// RestoreBuiltins registers the built-in executors.
func RestoreBuiltins() {
	RegisterStepExecutor(plan.OpTextRewrite, executeTextRewrite)
	RegisterStepExecutor(plan.OpFormatApply, executeFormatApply)
	RegisterStepExecutor(plan.OpCreateParagraph, executeCreate)
	RegisterStepExecutor(plan.OpCreateHeading, executeCreate)
	RegisterStepExecutor(plan.OpAssert, executeAssert)
}

func init() {
	RestoreBuiltins()
}
