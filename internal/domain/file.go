package domain

import "time"

// File is the metadata row for an object stored in S3 (product and slider
// images, mostly).
type File struct {
	FileID           string    `json:"id" dynamodbav:"file_id"`
	Object           string    `json:"object" dynamodbav:"object"`
	Size             int64     `json:"size" dynamodbav:"size"`
	Type             string    `json:"type" dynamodbav:"type"`
	Name             string    `json:"name" dynamodbav:"name"`
	Hash             string    `json:"hash" dynamodbav:"hash"`
	URL              *string   `json:"url" dynamodbav:"url"`
	UploadedByUserID string    `json:"uploaded_by" dynamodbav:"uploaded_by_user_id"`
	Enable           bool      `json:"enable" dynamodbav:"enable"`
	CreatedAt        time.Time `json:"created" dynamodbav:"created_at"`
	UpdatedAt        time.Time `json:"updated" dynamodbav:"updated_at"`
}
