package models

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	id "docverify/pkg/domain"
)

type Gender string

const (
	GenderMale   Gender = "Male"
	GenderFemale Gender = "Female"
	GenderOther  Gender = "Other"
)

func (g Gender) IsValid() bool {
	switch g {
	case GenderMale, GenderFemale, GenderOther:
		return true
	}
	return false
}

// IdentifierKind names a secondary index over reference records.
type IdentifierKind string

const (
	KindIDNumber      IdentifierKind = "idNumber"
	KindAadhaarNumber IdentifierKind = "aadhaarNumber"
)

// IDCard is a reference record. It is immutable after creation; the only
// permitted change is deletion by its owner.
type IDCard struct {
	ID              id.CardID `json:"id"`
	OwnerID         id.UserID `json:"userId"`
	IDNumber        string    `json:"idNumber"`
	AadhaarNumber   string    `json:"aadhaarNumber,omitempty"`
	Name            string    `json:"name"`
	DateOfBirth     string    `json:"dateOfBirth"`
	Gender          Gender    `json:"gender"`
	Address         string    `json:"address"`
	PhotoReference  string    `json:"photoDataUri"`
	QRCodeReference string    `json:"qrCodeDataUri"`
	CreatedAt       time.Time `json:"createdAt"`
}

// IndexKey returns the value indexed under kind, or "" if the card has none.
func (c *IDCard) IndexKey(kind IdentifierKind) string {
	switch kind {
	case KindIDNumber:
		return c.IDNumber
	case KindAadhaarNumber:
		return c.AadhaarNumber
	}
	return ""
}

// CardLocator is what a secondary index entry points at.
type CardLocator struct {
	CardID  id.CardID
	OwnerID id.UserID
}

const idNumberDigits = 12

var idNumberSpace = new(big.Int).Exp(big.NewInt(10), big.NewInt(idNumberDigits), nil)

// NewIDNumber returns "IDC-" followed by 12 random decimal digits.
func NewIDNumber() (string, error) {
	n, err := rand.Int(rand.Reader, idNumberSpace)
	if err != nil {
		return "", fmt.Errorf("generate id number: %w", err)
	}
	return fmt.Sprintf("IDC-%0*d", idNumberDigits, n), nil
}
