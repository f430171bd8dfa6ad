package port

import "github.com/jbravobr/Inventory-Analyzer-sub000/internal/domain"

// PageSource yields the pages of one document from some storage.
type PageSource interface {
	Pages() ([]domain.Page, error)
}
