package constant

const (
	OrderJournalStreamName        = "order_journal"
	OrderJournalStreamSubjectAll  = "order_journal.*"
	OrderJournalStreamSubjectSave = "order_journal.recorded"
	OrderJournalQueueName         = "order_journal_writer"
	OrderJournalQueueGroup        = "order_journal_writer_durable"

	OrderJournalDatabaseName = "order_journal"
	OrderThrottleRedisName   = "order_throttle"
	OrderThrottleKey         = "orders"
)
