package model

import "time"

// Request is a consumed authorization: the token, the user it was issued to and the payload it authorized.
type Request struct {
	Token      string    `bson:"token" json:"token"`
	UserID     string    `bson:"user" json:"user"`
	Payload    string    `bson:"payload" json:"payload"`
	DocumentID string    `bson:"document_id,omitempty" json:"document_id,omitempty"`
	CreatedAt  time.Time `bson:"created_at" json:"created_at"`
}
