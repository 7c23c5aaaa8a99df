// Package staging owns the temporary files that hold fetched images between
// download and upload.
//
// Each seeding run writes into its own run-<id> directory under the staging
// root. A Manager stages bytes, removes them again once the upload attempt
// finishes, and drops the run directory on Close. CleanStale reclaims run
// directories left behind by interrupted runs, and Lock keeps two seeders
// from sharing a staging root.
package staging
