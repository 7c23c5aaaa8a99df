// Package seed runs the two-stage bulk seeding pipeline.
//
// The media stage fetches images, stages them on disk, uploads them to the
// content store, and collects the created records into a MediaSet. Once the
// stage finishes the set is frozen and handed to the entity stage, which
// creates centres referencing media sampled uniformly with replacement.
// Both stages run through batch.Run behind their own gate.
//
// Per-item failures never abort a stage: a failed item is logged, counted,
// left out of the results, and never retried. The only run-level failure
// is a media stage that produced nothing, which stops the pipeline before
// any entity is attempted.
package seed
