package validators

import "go.mongodb.org/mongo-driver/bson"

var TokenValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"slot_id",
			"participants",
			"state",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType":  "string",
				"minLength": 8,
				"maxLength": 128,
			},

			"slot_id": bson.M{
				"bsonType": "string",
			},

			"participants": bson.M{
				"bsonType": "int",
				"minimum":  1,
			},

			"state": bson.M{
				"bsonType": "string",
				"enum": []string{
					"in_flight",
					"confirmed",
					"rejected",
				},
			},

			"reservation_id": bson.M{
				"bsonType": "string",
			},

			"reject_code": bson.M{
				"bsonType": "string",
			},

			"created_at": bson.M{
				"bsonType": "date",
			},

			"updated_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
