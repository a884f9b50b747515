// Package database provides the data access layer for the catalog.
//
// # Architecture
//
//	database/
//	├── database.go      # Connection setup (sqlite or postgres) and migrations
//	├── filters/         # Structured query filters compiled to one conjunction
//	├── users/           # Credential store
//	├── books/           # Books, popular/recommend lists, genre index
//	├── reviews/         # Reviews with referential checks
//	└── history/         # Append-only activity log
//
// # Using Sub-packages
//
//	db, err := database.NewDatabase(cfg.Database)
//
//	booksRepo := books.NewRepository(db.DB)
//	found, err := booksRepo.Find(ctx, filters.BookFilter{Title: "dune"})
//
// # Adding a New Domain
//
//  1. Add the model to internal/entities and to entities.All()
//  2. Create a sub-package with a Repository holding a *gorm.DB
//  3. Add a filter type to filters/ if the resource is searchable
//  4. Add a compile-time interface check next to the HTTP store interface
package database
