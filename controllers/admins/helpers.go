package admins

import (
	"encoding/json"
	"log"
	"net/http"

	"questa/models"

	"gorm.io/gorm"
)

// notify writes a best-effort notification row; failures are logged, never
// surfaced, and never part of the review transaction.
func notify(db *gorm.DB, userID uint, title, body string) {
	n := models.Notification{UserID: userID, Title: title, Body: body}
	if err := db.Create(&n).Error; err != nil {
		log.Printf("[notify] failed for user %d: %v", userID, err)
	}
}

// decodeOptionalJSON decodes a body that may legitimately be empty.
func decodeOptionalJSON(r *http.Request, dst interface{}) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	return json.NewDecoder(r.Body).Decode(dst)
}
