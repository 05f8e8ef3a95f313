package services

import (
	"regexp"

	"go.mongodb.org/mongo-driver/mongo/options"
)

// regexpQuote escapes user input for use inside a MongoDB $regex.
func regexpQuote(s string) string {
	return regexp.QuoteMeta(s)
}

func returnAfter() *options.FindOneAndUpdateOptions {
	return options.FindOneAndUpdate().SetReturnDocument(options.After)
}
