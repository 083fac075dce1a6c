// Package models holds the grocery entities shared by the service and storage layers.
package models

import "time"

// GroceryItem is a single entry of the grocery list.
type GroceryItem struct {
	ID       string    `json:"id"`
	ItemName string    `json:"item_name"`
	Quantity int       `json:"quantity"`
	Date     time.Time `json:"date"`
}
