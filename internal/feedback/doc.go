// Package feedback implements operator feedback collection and persistence
// for the task execution loop.
//
// After a task completes, the Collector asks the operator for an outcome
// signal (thumbs, star rating, or free text) and the Store persists the
// resulting record to Redis and, for free-text feedback, to Qdrant as an
// embedded vector. Stored feedback feeds the learning manager, which folds
// successful and failed task patterns back into long-term memory.
package feedback
