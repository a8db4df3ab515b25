// Package core ties the extraction client, response normalization and
// session state together.
//
// It holds no HTTP or CLI concerns and can be driven by web handlers,
// the tablecsv command, or tests with a fake [Uploader].
//
// # Upload Flow
//
// [Service.Process] runs one upload for a session:
//
//  1. The session's busy flag is set; a second upload while busy fails with
//     [ErrBusy] and leaves the session untouched.
//  2. The PDF is read up to the configured size limit.
//  3. A process-wide upload slot is taken.
//  4. The result cache is consulted by content hash; on a miss the PDF is
//     posted to the extraction service and the reply normalized.
//  5. The new table set replaces the old one in a single step.
//  6. The attempt is recorded in the extraction history.
//
// Any failure after step 1 clears the session's tables and stores the
// mapped [UserMessage] so no stale tables remain visible. The busy flag is
// always cleared on return.
//
// # Export
//
// [Service.Export] serializes one table of the current snapshot to CSV and
// hands it to an [extract.DownloadSink].
package core
