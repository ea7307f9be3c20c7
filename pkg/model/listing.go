package model

import (
	"time"
)

// Listing categories
const (
	CategoryVehicle   = "Vehicle"
	CategoryApartment = "Apartment"
	CategoryEquipment = "Equipment"
)

type Location struct {
	Barangay string `json:"barangay,omitempty" bson:"barangay,omitempty" validate:"omitempty,max=100"`
	City     string `json:"city" bson:"city" validate:"required,max=100"`
	Province string `json:"province" bson:"province" validate:"required,max=100"`
}

type Listing struct {
	ID          string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	ItemName    string    `json:"item_name" bson:"item_name" validate:"required,min=2,max=150"`
	Description string    `json:"description" bson:"description" validate:"required,min=2,max=2000"`
	Category    string    `json:"category" bson:"category" validate:"required,oneof=Vehicle Apartment Equipment"`
	Price       float64   `json:"price" bson:"price" validate:"required,gt=0"`
	Location    Location  `json:"location" bson:"location" validate:"required"`
	Rooms       int       `json:"rooms,omitempty" bson:"rooms,omitempty" validate:"omitempty,min=0,max=50"`
	Bed         int       `json:"bed,omitempty" bson:"bed,omitempty" validate:"omitempty,min=0,max=50"`
	Bathroom    int       `json:"bathroom,omitempty" bson:"bathroom,omitempty" validate:"omitempty,min=0,max=50"`
	Pictures    []string  `json:"pictures" bson:"pictures" validate:"required,min=1,dive,max=300"`
	Disable     bool      `json:"disable" bson:"disable"`
	UploadedBy  string    `json:"uploaded_by" bson:"uploaded_by" validate:"required,mongodb"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at" validate:"omitempty"`
	UpdatedAt   time.Time `json:"updated_at" bson:"updated_at" validate:"omitempty"`
}

type ListingUpdate struct {
	ItemName    string    `json:"item_name,omitempty" validate:"omitempty,min=2,max=150"`
	Description string    `json:"description,omitempty" validate:"omitempty,min=2,max=2000"`
	Category    string    `json:"category,omitempty" validate:"omitempty,oneof=Vehicle Apartment Equipment"`
	Price       *float64  `json:"price,omitempty" validate:"omitempty,gt=0"`
	Location    *Location `json:"location,omitempty"`
	Rooms       *int      `json:"rooms,omitempty" validate:"omitempty,min=0,max=50"`
	Bed         *int      `json:"bed,omitempty" validate:"omitempty,min=0,max=50"`
	Bathroom    *int      `json:"bathroom,omitempty" validate:"omitempty,min=0,max=50"`
	Disable     *bool     `json:"disable,omitempty"`

	// Image mutations. AddImages carries base64 payloads; RemoveImages
	// carries stored picture keys.
	AddImages    []ImageUpload `json:"add_images,omitempty" validate:"omitempty,dive"`
	RemoveImages []string      `json:"remove_images,omitempty" validate:"omitempty,dive,max=300"`
}

// ImageUpload is a base64-encoded image carried inside a JSON request.
type ImageUpload struct {
	FileName string `json:"file_name" validate:"required,max=150"`
	Data     string `json:"data" validate:"required"`
}

// ListingSummary is the projection embedded in booking and ledger reads.
type ListingSummary struct {
	ID       string   `json:"id" bson:"_id"`
	ItemName string   `json:"item_name" bson:"item_name"`
	Category string   `json:"category" bson:"category"`
	Price    float64  `json:"price" bson:"price"`
	Location Location `json:"location" bson:"location"`
}

// ListingStats aggregates listing counts by category.
type ListingStats struct {
	TotalListings    int64            `json:"total_listings" bson:"total_listings"`
	ActiveListings   int64            `json:"active_listings" bson:"active_listings"`
	DisabledListings int64            `json:"disabled_listings" bson:"disabled_listings"`
	ByCategory       map[string]int64 `json:"by_category" bson:"by_category"`
}
