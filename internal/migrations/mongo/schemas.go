package migrations

import "go.mongodb.org/mongo-driver/bson"

// Collection validators. MongoDB enforces these on insert and update, so a
// buggy writer cannot corrupt the core documents.

func userSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": []string{"full_name", "email", "password_hash", "user_type"},
			"properties": bson.M{
				"full_name":      bson.M{"bsonType": "string", "minLength": 1},
				"email":          bson.M{"bsonType": "string", "pattern": `^[^@\s]+@[^@\s]+\.[^@\s]+$`},
				"password_hash":  bson.M{"bsonType": "string"},
				"user_type":      bson.M{"enum": []string{"admin", "staff", "rentor"}},
				"valid_id":       bson.M{"bsonType": []string{"string", "null"}},
				"is_id_verified": bson.M{"bsonType": "bool"},
				"is_verified":    bson.M{"bsonType": "bool"},
				"is_active":      bson.M{"bsonType": "bool"},
			},
		},
	}
}

func listingSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": []string{"item_name", "category", "price", "uploaded_by"},
			"properties": bson.M{
				"item_name":   bson.M{"bsonType": "string", "minLength": 1},
				"category":    bson.M{"bsonType": "string"},
				"price":       bson.M{"bsonType": []string{"double", "int", "long", "decimal"}, "minimum": 0},
				"uploaded_by": bson.M{"bsonType": "string"},
				"disable":     bson.M{"bsonType": "bool"},
				"pictures": bson.M{
					"bsonType": "array",
					"items":    bson.M{"bsonType": "string"},
				},
				"location": bson.M{
					"bsonType": "object",
					"properties": bson.M{
						"barangay": bson.M{"bsonType": "string"},
						"city":     bson.M{"bsonType": "string"},
						"province": bson.M{"bsonType": "string"},
					},
				},
			},
		},
	}
}

func bookingSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": []string{"guest_id", "property_id", "check_in", "check_out", "status"},
			"properties": bson.M{
				"guest_id":    bson.M{"bsonType": "string"},
				"property_id": bson.M{"bsonType": "string"},
				"check_in":    bson.M{"bsonType": "date"},
				"check_out":   bson.M{"bsonType": "date"},
				"nights":      bson.M{"bsonType": []string{"int", "long"}, "minimum": 1},
				"amount":      bson.M{"bsonType": []string{"double", "int", "long", "decimal"}, "minimum": 0},
				"deduction":   bson.M{"bsonType": []string{"double", "int", "long", "decimal"}, "minimum": 0},
				"status":      bson.M{"enum": []string{"pending", "approved", "rejected", "cancelled"}},
			},
		},
	}
}

func rentalHistorySchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": []string{"booking_id", "guest_id", "property_id", "period", "nights", "gross", "net"},
			"properties": bson.M{
				"booking_id":  bson.M{"bsonType": "string"},
				"guest_id":    bson.M{"bsonType": "string"},
				"property_id": bson.M{"bsonType": "string"},
				"period": bson.M{
					"bsonType": "object",
					"required": []string{"check_in", "check_out"},
					"properties": bson.M{
						"check_in":  bson.M{"bsonType": "date"},
						"check_out": bson.M{"bsonType": "date"},
					},
				},
				"nights":    bson.M{"bsonType": []string{"int", "long"}, "minimum": 1},
				"gross":     bson.M{"bsonType": []string{"double", "int", "long", "decimal"}, "minimum": 0},
				"deduction": bson.M{"bsonType": []string{"double", "int", "long", "decimal"}, "minimum": 0},
				"net":       bson.M{"bsonType": []string{"double", "int", "long", "decimal"}},
			},
		},
	}
}
