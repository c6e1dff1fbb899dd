// Package harness runs end-to-end plan scenarios from YAML files:
// load a document fixture, compile and execute a plan, then check the
// receipt and the final tree against declared expectations. Golden
// receipt snapshots catch unintended behavior drift.
//
// A scenario file looks like:
//
//	name: rewrite-clause
//	description: rewrites the payment clause and checks the result
//	document: docs/contract.json
//	plan: plans/rewrite-clause.cue
//	expect:
//	  success: true
//	  effects: [changed, assert_passed]
//	assertions:
//	  - type: block_text
//	    block_id: clause-2
//	    text: "Payment is due within 45 days."
//
// Golden files live in testdata/golden/{name}.golden and regenerate
// with:
//
//	go test ./internal/harness -update
package harness
