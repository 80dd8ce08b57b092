package validators

import "go.mongodb.org/mongo-driver/bson"

var SlotCounterValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"capacity",
			"reserved",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "string",
			},

			"capacity": bson.M{
				"bsonType": "int",
				"minimum":  0,
			},

			"reserved": bson.M{
				"bsonType": "int",
				"minimum":  0,
			},

			"updated_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
