package models

import (
	"strings"

	id "docverify/pkg/domain"
	"docverify/pkg/platform/validation"
)

type CreateCardRequest struct {
	Name          string `json:"name" validate:"required,notblank,min=2,max=120"`
	DateOfBirth   string `json:"dateOfBirth" validate:"required,isodate"`
	Gender        Gender `json:"gender" validate:"required,oneof=Male Female Other"`
	Address       string `json:"address" validate:"required,min=10,max=500"`
	AadhaarNumber string `json:"aadhaarNumber" validate:"omitempty,aadhaar"`
	Photo         string `json:"photo" validate:"required"`

	photo id.Image
}

func (r *CreateCardRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.DateOfBirth = strings.TrimSpace(r.DateOfBirth)
	r.Address = strings.TrimSpace(r.Address)
	r.AadhaarNumber = strings.Join(strings.Fields(r.AadhaarNumber), "")
}

// Validate checks field rules and decodes the photo data URI.
func (r *CreateCardRequest) Validate() error {
	if err := validation.Validate(r); err != nil {
		return err
	}
	photo, err := id.ParseImageDataURI(r.Photo)
	if err != nil {
		return err
	}
	r.photo = photo
	return nil
}

// PhotoImage is the decoded photo; valid only after Validate succeeded.
func (r *CreateCardRequest) PhotoImage() id.Image {
	return r.photo
}

type CardListResponse struct {
	Cards []*IDCard `json:"cards"`
}
