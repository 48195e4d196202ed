/*
Package reconciler drives implicit task reconciliation.

Explicit reconciliation happens on every (re)registration and is owned by
the scheduler engine: it opens the RECONCILING_TASKS window, declines
offers and purges stale node records when the window closes. Between
registrations the master only tells the scheduler about changes, and an
update that never arrives leaves a dead task counted as running.

The Reconciler closes that gap. Every mesos.reconcile_interval it calls
Trigger.RequestReconcile; the engine then asks the master for the
status of all tasks without changing phase. Terminal updates that come
back are handled like any other, so the node record is removed and the
phase corrected. Requests while a reconciliation window is open are
dropped by the engine.
*/
package reconciler
