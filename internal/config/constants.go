package config

const (
	// DefaultDatabasePath is the default path for the sqlite catalog database
	DefaultDatabasePath = "./bookcatalog.db"

	// DefaultTokenIssuer is the "iss" claim written into access tokens
	DefaultTokenIssuer = "bookcatalog"
)
