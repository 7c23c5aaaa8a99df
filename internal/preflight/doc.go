// Package preflight provides readiness checks for the paths and services a
// seeding run depends on.
//
// These checks run in two contexts:
//   - The seed command calls RunAll before the pipeline starts and refuses
//     to seed when any check fails (unless --skip-preflight is given).
//   - The "payloadseed preflight" command renders every result as a table.
//
// Network checks use short timeouts and a single attempt.
package preflight
