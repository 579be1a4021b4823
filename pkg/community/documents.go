package community

import (
	"fmt"

	"github.com/mcclellann/hoaportal/pkg/models"
	"github.com/mcclellann/hoaportal/pkg/validation"
)

// DocumentComment is a comment left on a shared community document.
type DocumentComment struct {
	DocumentID    string `json:"document_id" validate:"required"`
	DocumentTitle string `json:"document_title"`
	OwnerID       string `json:"owner_id" validate:"required"`
	CommenterID   string `json:"commenter_id" validate:"required"`
	CommenterName string `json:"commenter_name"`
	Body          string `json:"body" validate:"required"`
}

// CommentOnDocument notifies the document owner of a new comment. Owners
// commenting on their own document are not notified, and nil is returned.
func (s *Service) CommentOnDocument(c DocumentComment) (*models.Notification, error) {
	if err := validation.Struct(c); err != nil {
		return nil, err
	}
	if c.CommenterID == c.OwnerID {
		return nil, nil
	}

	who := c.CommenterName
	if who == "" {
		who = c.CommenterID
	}
	title := c.DocumentTitle
	if title == "" {
		title = c.DocumentID
	}
	n, err := s.notifier.Create(c.OwnerID, "New comment on "+title,
		fmt.Sprintf("%s commented: %s", who, c.Body),
		models.NotificationTypeDocumentComment, "/documents/"+c.DocumentID)
	if err != nil {
		return nil, fmt.Errorf("failed to notify document owner: %w", err)
	}
	return n, nil
}
