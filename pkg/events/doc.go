/*
Package events provides an in-memory event broker for scheduler activity.

The scheduler engine publishes an event for each decision it makes:
registration, phase changes, launches, declined offers, status
transitions, reconciliation and config reload broadcasts. Subscribers
(the status API's event stream) receive them on buffered channels, and
the broker keeps a short history for clients that ask after the fact.

Publishing never blocks. When the broker queue or a subscriber buffer is
full the event is dropped for that reader; events are for observation
only and nothing in the scheduler depends on their delivery.

	broker := events.NewBroker()
	broker.Start()
	defer broker.Stop()

	sub := broker.Subscribe()
	defer broker.Unsubscribe(sub)

	broker.Emit(events.EventTaskLaunched, "launched", "task_id", id, "host", host)
	ev := <-sub
*/
package events
