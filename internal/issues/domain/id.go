package domain

import "go.mongodb.org/mongo-driver/bson/primitive"

// NewIssueID returns a fresh 24-hex-character identifier. ObjectIDs embed a
// timestamp and a process-unique counter, so ids stay unique across stores.
func NewIssueID() string {
	return primitive.NewObjectID().Hex()
}
