package db

// Repositories provides access to all database repositories
type Repositories struct {
	Entries  *EntryRepository
	Settings *SettingsRepository
}

// NewRepositories creates a new repository collection
func NewRepositories(db *DB) *Repositories {
	return &Repositories{
		Entries:  NewEntryRepository(db),
		Settings: NewSettingsRepository(db),
	}
}
