// Package domain contains the storefront's catalog, booking and wishlist records.
package domain

// WineType classifies a wine.
type WineType string

// Wine types.
const (
	WineTypeRed       WineType = "red"
	WineTypeWhite     WineType = "white"
	WineTypeRose      WineType = "rose"
	WineTypeSparkling WineType = "sparkling"
	WineTypeDessert   WineType = "dessert"
	WineTypeOrange    WineType = "orange"
)

// WineTypes lists every valid wine type in display order.
var WineTypes = []WineType{
	WineTypeRed, WineTypeWhite, WineTypeRose, WineTypeSparkling, WineTypeDessert, WineTypeOrange,
}

// Valid reports whether t is a known wine type.
func (t WineType) Valid() bool {
	for _, known := range WineTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Wine is a product in the catalog. It is read-only for the storefront.
type Wine struct {
	ID          string   `json:"id" validate:"required"`
	Name        string   `json:"name" validate:"required"`
	Slug        string   `json:"slug"`
	Price       float64  `json:"price" validate:"gt=0"`
	Description string   `json:"description"`
	Images      []string `json:"images" validate:"dive,required"`
	Category    string   `json:"category" validate:"required"`
	Type        WineType `json:"type" validate:"required,oneof=red white rose sparkling dessert orange"`
	Grape       string   `json:"grape,omitempty"`
	Vintage     int      `json:"vintage,omitempty" validate:"omitempty,gte=1900,lte=2100"` // 0 for non-vintage
	Alcohol     *float64 `json:"alcohol,omitempty" validate:"omitempty,gte=0,lte=100"`
	Acidity     *float64 `json:"acidity,omitempty" validate:"omitempty,gte=0"`
	Sugar       *float64 `json:"sugar,omitempty" validate:"omitempty,gte=0"`
	Tags        []string `json:"tags,omitempty"`
	Rating      *float64 `json:"rating,omitempty" validate:"omitempty,gte=0,lte=5"`
}

// HasTag reports whether the wine carries tag.
func (w *Wine) HasTag(tag string) bool {
	for _, t := range w.Tags {
		if t == tag {
			return true
		}
	}
	return false
}
