// Package engine executes compiled mutation plans against a document.
//
// Execution is transactional: every mutation step in a plan applies
// inside one shared document transaction, assert steps are evaluated
// against the post-mutation state, and the transaction commits only
// when every step succeeds. Any failure discards the transaction and
// leaves the document at its prior revision.
//
// Step execution flow:
//  1. Revision check: the plan must target the document's current
//     revision, otherwise execution stops before any step runs.
//  2. Mutation phase: steps run in plan order through the executor
//     registry, each recording a changed or noop outcome. Span steps
//     verify contiguity against the transaction's position mapping
//     before touching the tree.
//  3. Assert phase: selectors are re-resolved against the mutated tree
//     and expectations checked.
//  4. Commit: on success the transaction commits and the revision
//     advances. DryRun skips the commit but still reports outcomes.
//
// Custom step executors can be registered with RegisterStepExecutor;
// unknown operations fail with UNSUPPORTED_OPERATION.
package engine
