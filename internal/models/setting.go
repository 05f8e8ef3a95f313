package models

import "time"

// Setting is a runtime-tunable key/value pair. Public settings are readable anonymously.
type Setting struct {
	Key       string      `bson:"key" json:"key"`
	Value     interface{} `bson:"value" json:"value"`
	Public    bool        `bson:"public" json:"public"`
	UpdatedAt time.Time   `bson:"updated_at" json:"updated_at"`
}
