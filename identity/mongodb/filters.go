package mongodb

import (
	"regexp"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// foldEq builds an anchored, case-insensitive equality match for a single
// field. Lookups compare case-insensitively regardless of whether the caller
// normalized the value first.
func foldEq(value string) primitive.Regex {
	return primitive.Regex{
		Pattern: "^" + regexp.QuoteMeta(value) + "$",
		Options: "i",
	}
}
