package models

// NotificationType classifies a notification for presentation purposes.
type NotificationType string

const (
	TypeInfo    NotificationType = "Info"
	TypeSuccess NotificationType = "Success"
	TypeWarning NotificationType = "Warning"
	TypeError   NotificationType = "Error"
)

// IsValid reports whether t is one of the four known notification types.
func (t NotificationType) IsValid() bool {
	switch t {
	case TypeInfo, TypeSuccess, TypeWarning, TypeError:
		return true
	}
	return false
}

// Notification is one user-facing alert. IDs and timestamps are assigned by
// the Borrowing Hub backend; the client never invents either.
type Notification struct {
	ID        string           `json:"id"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	Type      NotificationType `json:"type"`
	IsRead    bool             `json:"isRead"`
	CreatedAt string           `json:"createdAt"` // ISO 8601
}

// NotificationDraft is the creation payload; the server fills in the rest.
type NotificationDraft struct {
	Title   string           `json:"title"`
	Message string           `json:"message"`
	Type    NotificationType `json:"type"`
}

// ListResponse is the envelope of GET /notifications.
type ListResponse struct {
	Data        []Notification `json:"data"`
	UnreadCount int            `json:"unreadCount"`
}

// ItemResponse is the envelope of single-record endpoints.
type ItemResponse struct {
	Data    Notification `json:"data"`
	Message string       `json:"message,omitempty"`
}

// MessageResponse is the envelope of DELETE /notifications/{id}.
type MessageResponse struct {
	Message string `json:"message"`
}
