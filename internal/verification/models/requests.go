package models

import (
	"strings"

	id "docverify/pkg/domain"
	dErrors "docverify/pkg/domain-errors"
	"docverify/pkg/platform/validation"
)

// SubmitRequest starts a verification. LivePhoto is honoured only for id_card
// submissions, where it triggers face matching against the reference photo.
type SubmitRequest struct {
	Kind      Kind   `json:"kind" validate:"required,oneof=id_card aadhaar"`
	Image     string `json:"image" validate:"required"`
	LivePhoto string `json:"livePhoto,omitempty"`

	image     id.Image
	livePhoto id.Image
}

func (r *SubmitRequest) Normalize() {
	r.Kind = Kind(strings.ToLower(strings.TrimSpace(string(r.Kind))))
}

func (r *SubmitRequest) Validate() error {
	if err := validation.Validate(r); err != nil {
		return err
	}
	img, err := id.ParseImageDataURI(r.Image)
	if err != nil {
		return err
	}
	r.image = img
	if strings.TrimSpace(r.LivePhoto) == "" {
		return nil
	}
	if r.Kind != KindIDCard {
		return dErrors.New(dErrors.CodeValidation, "livePhoto is only supported for id_card verification")
	}
	live, err := id.ParseImageDataURI(r.LivePhoto)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeValidation, "livePhoto: "+err.Error())
	}
	r.livePhoto = live
	return nil
}

// DocumentImage is the decoded document; valid only after Validate succeeded.
func (r *SubmitRequest) DocumentImage() id.Image {
	return r.image
}

// LiveImage is zero when no live photo was submitted.
func (r *SubmitRequest) LiveImage() id.Image {
	return r.livePhoto
}

type ListResponse struct {
	Verifications []*Record `json:"verifications"`
}
