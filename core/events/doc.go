// Package events defines the planning events emitted on the event bus.
//
// Available event types:
//   - PlanCommitted: a plan was generated and persisted
//   - SessionChanged: a work session was started or completed
//   - ReportComputed: an adherence report was produced
package events
