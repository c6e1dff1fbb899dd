// Package plan defines the IR of the mutation plan engine: steps and
// selectors as supplied by planners, compiled targets produced by the
// target compiler, execution receipts, and the typed PlanError that
// every failure surfaces as.
//
// Types here are plain data. Compilation lives in internal/compiler,
// execution in internal/engine; both exchange these types, so the
// package has no dependencies beyond the document model.
package plan
