package layout

import (
	"github.com/quijoterun/tracker/internal/model"
)

// CSRFFieldName is the form field carrying the CSRF token
const CSRFFieldName = "gorilla.csrf.Token"

// FlashMessage is a one-shot notice shown at the top of the next page
type FlashMessage struct {
	Type    string // "success", "error", "info"
	Message string
}

// PageData is the data every page layout needs
type PageData struct {
	Title    string
	Identity *model.Identity
	Flash    *FlashMessage
	// CSRFToken is empty when CSRF protection is off
	CSRFToken string
	// Refresh reloads the page after that many seconds when positive
	Refresh int
}
