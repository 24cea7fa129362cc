// Package history decides which audit events a process engine records.
//
// A Level answers one question per event: should this event become history?
// The built-in levels (none, activity, audit, full) answer it by event type
// alone. PerProcessLevel lets every process instance pick its own level
// through the "history" extension property of its BPMN process:
//
//	<bpmn:process id="invoice">
//	  <bpmn:extensionElements>
//	    <camunda:properties>
//	      <camunda:property name="history" value="audit" />
//	    </camunda:properties>
//	  </bpmn:extensionElements>
//	  ...
//
// Recorded events end up as Records in a Store.
package history
