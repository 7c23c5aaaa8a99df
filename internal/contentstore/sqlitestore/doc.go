// Package sqlitestore implements contentstore.Store on a local SQLite
// database.
//
// Media uploads are copied into an uploads directory next to the database
// and their rows record size, mime type, and SHA-256 digest. Centres store
// their featured image and logo as foreign keys into media, with gallery
// images in an ordered join table, so every reference is checked by SQLite
// itself. The schema is versioned; a mismatched database must be removed
// before reuse.
package sqlitestore
