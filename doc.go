// Package mlkit is a client for submitting and monitoring compute tasks on
// the Volcengine ML platform.
//
// The client picks the resource queue with enough headroom for the requested
// flavor (falling back from the default queue to backups), validates the
// container image, wires shared vePFS directories into the task containers
// and tracks the task in the background until it reaches a terminal state.
// Optional integrations cover chat-bot notifications, an OpenTelemetry trace
// of every platform call and a local SQLite journal of submissions.
//
// End-users typically interact through the high-level Service façade exposed
// by the root package:
//
//	srv, _ := mlkit.New(
//		mlkit.WithCredentials(accessKeyID, secretAccessKey),
//		mlkit.WithIAMUserID(120001),
//	)
//	t, _ := srv.SubmitTask(ctx, &mlkit.SubmitRequest{
//		Name:           "llm-train",
//		ImageRepo:      "team/train",
//		ImageTag:       "v1",
//		Commands:       []string{"python train.py"},
//		DefaultQueueID: "q-default",
//		BackupQueueIDs: []string{"q-backup"},
//		FlavorID:       "ml.g1.large",
//	})
//	status, _ := t.Wait(ctx)
//
// For more details see the README and individual sub-packages.
package mlkit
