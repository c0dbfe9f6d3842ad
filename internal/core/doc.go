// Package core provides document storage and the operations behind the
// model file service.
//
// A document is one model data file: its [model.DataDefinition] and its
// [model.SampledDataSet]. [Service] parses uploaded files with the codec
// package, stores them through a [DocumentStore] and writes them back out as
// model files or Arrow IPC streams.
//
// # Import
//
// Imports are bounded by an [ImportLimiter]. Each import:
//
//  1. Waits for a free slot (ErrTooManyImports after the configured wait)
//  2. Reads at most MaxFileSize bytes into a table
//  3. Decodes the definition and data blocks
//  4. Stores header, elements and samples in one transaction
//
// # Storage
//
// [PgStore] keeps documents in three PostgreSQL tables. Samples are arrays
// of DOUBLE PRECISION written with COPY; an absent vector is a NULL array
// and an absent value is NaN.
//
// # Audit Log
//
// Imports, element edits and deletes are recorded as [AuditEntry] rows that
// outlive their document. [Service.StartAuditPruner] removes entries older
// than the retention period in batches.
//
// # Error Handling
//
// Technical errors are mapped to user-friendly messages using [MapError].
// Codec errors keep their row and column in [UserMessage.Detail].
package core
