package middleware

import (
	"encoding/json"
	"net/http"

	"questa/utils"
)

// ValidateJSON decodes the request body into dst and runs struct validation,
// writing the 400 response itself on failure.
func ValidateJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Not valid JSON")
		return err
	}
	if err := utils.ValidateStruct(dst); err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return err
	}
	return nil
}
