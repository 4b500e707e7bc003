package store

// Stores bundles the storage backends used by the application.
type Stores struct {
	Companies CompanyStore
	Users     UserStore
	Products  ProductStore
	Sessions  SessionStore
}
