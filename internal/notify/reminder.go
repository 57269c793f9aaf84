package notify

import (
	"context"

	"github.com/rkeeling/kith/pkg/types"
)

// ReminderNotifier satisfies the engine's notifier contract by emitting a
// reminder event file for topics carrying a confirmed event date. An outer
// process (or the push hub) turns these into user-visible reminders.
type ReminderNotifier struct {
	writer *EventWriter
}

// NewReminderNotifier creates a notifier emitting to the given events
// directory.
func NewReminderNotifier(dir string) *ReminderNotifier {
	return &ReminderNotifier{writer: NewEventWriter(dir)}
}

// ScheduleReminder writes a reminder event for the topic. The event date is
// free-form text; interpretation is left to the consumer.
func (n *ReminderNotifier) ScheduleReminder(_ context.Context, topic *types.Topic) error {
	return n.writer.Notify(EventReminder, topic.PersonID, topic.Title+" ("+topic.EventDate+")")
}
