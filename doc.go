// Package bpmx is the Composition Root for two extension points of a BPMN
// process-engine host.
//
// It wires the connector contract (pkg/core) to its adapters (pkg/adapters)
// and exposes the history levels of pkg/history, following the Hexagonal
// Architecture pattern.
//
// Connectors:
//
// A connector lets the engine's tooling browse, create, delete, read and
// write documents in some external store. Two adapters ship with bpmx:
//
//   - **memory**: every node lives in one map keyed by label; samples and tests.
//   - **fs**: a directory tree, with atomic writes and fsnotify-based watching.
//
// Per-process history:
//
// history.PerProcessLevel lets each BPMN process choose how much history its
// instances produce, through a "history" extension property on <process>:
//
//	<bpmn:extensionElements>
//	  <camunda:properties>
//	    <camunda:property name="history" value="audit" />
//	  </camunda:properties>
//	</bpmn:extensionElements>
//
// Usage:
//
//	svc, err := bpmx.New("./documents",
//		bpmx.WithLogger(logger),
//	)
//
//	level := bpmx.NewPerProcessLevel([]history.Level{
//		history.NewVariableFilterLevel(20, "custom-variable", "amount"),
//	})
package bpmx
