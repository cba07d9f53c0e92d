package dto

import "github.com/noah-isme/swiaape-api/internal/models"

// LookupRequest is the national ID search form.
type LookupRequest struct {
	NationalID string `json:"national_id"`
}

// LookupResponse returns the student found by a lookup.
type LookupResponse struct {
	View    models.View     `json:"view"`
	Student *models.Student `json:"student"`
}

// LoginResponse returns the signed-in identity and the view it landed on.
type LoginResponse struct {
	View     models.View      `json:"view"`
	Identity *models.Identity `json:"identity"`
}

// ResetLinkQuery carries the token of an emailed reset link.
type ResetLinkQuery struct {
	Token string `form:"token"`
}
