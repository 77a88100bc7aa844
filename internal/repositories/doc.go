// Package repositories implements SQLite persistence.
//
// The only persisted state is the user's UI preferences, stored as key/value rows:
//   - [PreferenceRepository] : upserts and reads preferences, with typed accessors for the theme
//
// Tables are created by the embedded migrations in the shared package ([shared.RunMigrations]).
package repositories
