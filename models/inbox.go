package models

// An InboxActivity is a federated activity which has been accepted by the
// inbox and is waiting to be processed.
type InboxActivity struct {
	Request
	// ObjectURI is the id of the activity's object, if it has one.
	ObjectURI string         `gorm:"size:255;not null;default:'';index"`
	Activity  map[string]any `gorm:"serializer:json;not null"`
}
