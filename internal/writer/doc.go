// Package writer archives accepted notifications to PostgreSQL.
//
// The NotificationWriter subscribes to the notification store, buffers
// notifications in a bounded Queue and inserts them in batches with
// pgx.Batch. Inserts use ON CONFLICT (id) DO NOTHING, so a notification
// redelivered after a restart is counted as a conflict rather than stored twice.
package writer
