package web

import (
	"html/template"

	"github.com/sidhant-sriv/home-catalog/catalog"
	"github.com/sidhant-sriv/home-catalog/models"
)

// Page holds what the shared header needs.
type Page struct {
	Title     string
	User      *models.User
	CSRFToken string
}

type ListPage struct {
	Page
	Group         *models.CatalogGroup
	State         catalog.QueryState
	Query         template.URL
	Entries       []models.CatalogEntry
	PickerGroups  []models.ItemGroup
	SelectedGroup *models.ItemGroup
}

type CreatePage struct {
	Page
	Name       string
	NewGroup   string
	ItemGroups []models.ItemGroup
	Selected   map[uint]bool
	Errors     catalog.ValidationErrors
}

type LoginPage struct {
	Page
	Next     string
	Username string
	Error    string
}

type ErrorPage struct {
	Page
	Status  int
	Message string
}
