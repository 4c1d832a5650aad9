package outcome

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docverify/internal/aiflow"
	"docverify/internal/idcard/lookup"
	"docverify/internal/reconcile"
	"docverify/internal/verification/models"
)

func strPtr(s string) *string { return &s }

func found() lookup.Result {
	return lookup.Result{Status: lookup.StatusFound, Key: "IDC-000000000001"}
}

func TestCleanSubmissionIsVerified(t *testing.T) {
	out := Classify(Input{
		IdentifierExtracted: true,
		Lookup:              found(),
		FraudIndicators:     strPtr("No fraud indicators found."),
	})

	assert.Equal(t, models.StatusVerified, out.Status)
	assert.Nil(t, out.IndicatorMessage)
	require.NotNil(t, out.ReferenceMatch)
	assert.Equal(t, models.MatchMatched, out.ReferenceMatch.Status)
	assert.Empty(t, out.Findings)
}

func TestSentinelVariantsAreClean(t *testing.T) {
	for _, text := range []string{
		"No fraud indicators found.",
		"no fraud indicators found.",
		"NO FRAUD INDICATORS FOUND.   ",
		"\tNo fraud indicators found.\n",
	} {
		t.Run(text, func(t *testing.T) {
			out := Classify(Input{IdentifierExtracted: true, Lookup: found(), FraudIndicators: strPtr(text)})
			assert.Equal(t, models.StatusVerified, out.Status)
		})
	}
}

func TestGenderMismatchFails(t *testing.T) {
	mismatches := reconcile.Reconcile(
		reconcile.Fields{Name: "Ramesh Kumar", DateOfBirth: "15/08/1985", Gender: "Female"},
		reconcile.Fields{Name: "Ramesh Kumar", DateOfBirth: "1985-08-15", Gender: "Male"},
	)

	out := Classify(Input{
		IdentifierExtracted: true,
		Lookup:              found(),
		Mismatches:          mismatches,
		FraudIndicators:     strPtr("No fraud indicators found."),
	})

	assert.Equal(t, models.StatusFailed, out.Status)
	require.NotNil(t, out.IndicatorMessage)
	assert.Contains(t, *out.IndicatorMessage, "Gender")
	assert.Contains(t, *out.IndicatorMessage, "Male")
	assert.Contains(t, *out.IndicatorMessage, "Female")
	assert.NotContains(t, *out.IndicatorMessage, "Name")
	require.NotNil(t, out.ReferenceMatch)
	assert.Equal(t, models.MatchMismatched, out.ReferenceMatch.Status)
	assert.Equal(t, []Finding{FindingFieldMismatch}, out.Findings)
}

func TestNotFoundAndIntegrityErrorAreDistinct(t *testing.T) {
	notFound := Classify(Input{IdentifierExtracted: true, Lookup: lookup.Result{Status: lookup.StatusNotFound}})
	integrity := Classify(Input{IdentifierExtracted: true, Lookup: lookup.Result{Status: lookup.StatusIntegrityError}})

	assert.Equal(t, models.StatusFailed, notFound.Status)
	assert.Equal(t, models.StatusFailed, integrity.Status)
	require.NotNil(t, notFound.IndicatorMessage)
	require.NotNil(t, integrity.IndicatorMessage)
	assert.NotEqual(t, *notFound.IndicatorMessage, *integrity.IndicatorMessage)
	assert.Contains(t, *notFound.IndicatorMessage, "Potential fraud")
	assert.Contains(t, *integrity.IndicatorMessage, "Data integrity failure")

	assert.Equal(t, models.MatchNotFound, notFound.ReferenceMatch.Status)
	assert.Equal(t, models.MatchNotFound, integrity.ReferenceMatch.Status)
	assert.Equal(t, []Finding{FindingLookupNotFound}, notFound.Findings)
	assert.Equal(t, []Finding{FindingLookupIntegrityError}, integrity.Findings)
}

func TestLookupTransportErrorIsSystemError(t *testing.T) {
	out := Classify(Input{
		IdentifierExtracted: true,
		Lookup:              lookup.Result{Status: lookup.StatusLookupError, Err: errors.New("permission denied")},
		FraudIndicators:     strPtr("No fraud indicators found."),
	})

	assert.Equal(t, models.StatusError, out.Status)
	require.NotNil(t, out.IndicatorMessage)
	assert.Contains(t, *out.IndicatorMessage, "System error, not a fraud signal")
	assert.Contains(t, *out.IndicatorMessage, "could not be completed")
	assert.NotContains(t, *out.IndicatorMessage, "Potential fraud")
	assert.Equal(t, models.MatchError, out.ReferenceMatch.Status)
	assert.True(t, out.Findings[0].IsSystemFault())
}

func TestOCRFailure(t *testing.T) {
	out := Classify(Input{IdentifierExtracted: false, FraudIndicators: strPtr("No fraud indicators found.")})

	assert.Equal(t, models.StatusFailed, out.Status)
	assert.Nil(t, out.ReferenceMatch)
	assert.Equal(t, MessageOCRFailure, *out.IndicatorMessage)
	assert.Equal(t, []Finding{FindingOcrFailure}, out.Findings)
}

func TestForgeryTextIsJoinedWithReferenceExplanation(t *testing.T) {
	out := Classify(Input{
		IdentifierExtracted: true,
		Lookup:              lookup.Result{Status: lookup.StatusNotFound},
		FraudIndicators:     strPtr("  Font around the date of birth differs from the rest of the card. "),
	})

	assert.Equal(t, models.StatusFailed, out.Status)
	assert.Equal(t,
		MessageNotFound+"\n\nFont around the date of birth differs from the rest of the card.",
		*out.IndicatorMessage)
	assert.Equal(t, []Finding{FindingLookupNotFound, FindingForgeryIndicators}, out.Findings)
}

func TestForgeryTextAloneFails(t *testing.T) {
	out := Classify(Input{
		IdentifierExtracted: true,
		Lookup:              found(),
		FraudIndicators:     strPtr("Screenshot borders visible."),
	})

	assert.Equal(t, models.StatusFailed, out.Status)
	assert.Equal(t, "Screenshot borders visible.", *out.IndicatorMessage)
}

func TestFaceMismatchFallsBackToFaceExplanation(t *testing.T) {
	out := Classify(Input{
		IdentifierExtracted: true,
		Lookup:              found(),
		FraudIndicators:     strPtr(aiflow.NoFraudIndicators),
		FaceMatch:           &models.FaceResult{IsMatch: false, Confidence: 0.31, Reasoning: "Different jawline."},
	})

	assert.Equal(t, models.StatusFailed, out.Status)
	assert.Contains(t, *out.IndicatorMessage, "Face match failed")
	assert.Contains(t, *out.IndicatorMessage, "0.31")
	assert.Contains(t, *out.IndicatorMessage, "Different jawline.")
	assert.Equal(t, []Finding{FindingFaceMismatch}, out.Findings)
}

func TestFaceMatchKeepsVerified(t *testing.T) {
	out := Classify(Input{
		IdentifierExtracted: true,
		Lookup:              found(),
		FaceMatch:           &models.FaceResult{IsMatch: true, Confidence: 0.95},
	})

	assert.Equal(t, models.StatusVerified, out.Status)
	assert.Nil(t, out.IndicatorMessage)
}

func TestAIFailureBeforeLookup(t *testing.T) {
	out := Classify(Input{AIFailure: aiflow.NewError(aiflow.CategoryTimeout, aiflow.FlowExtractIDDetails, "timeout", nil)})

	assert.Equal(t, models.StatusError, out.Status)
	assert.Nil(t, out.ReferenceMatch)
	assert.Equal(t, MessageAIFailure, *out.IndicatorMessage)
	assert.Contains(t, *out.IndicatorMessage, "An unexpected error occurred during AI analysis.")
	assert.Equal(t, []Finding{FindingAiServiceError}, out.Findings)
}

func TestAIFailureAfterLookupKeepsReferenceResult(t *testing.T) {
	out := Classify(Input{
		IdentifierExtracted: true,
		Lookup:              found(),
		AIFailure:           errors.New("face match unavailable"),
	})

	assert.Equal(t, models.StatusError, out.Status)
	assert.Equal(t, models.MatchMatched, out.ReferenceMatch.Status)
	assert.Equal(t, MessageAIFailure, *out.IndicatorMessage)
}

func TestClassifyIsDeterministic(t *testing.T) {
	in := Input{
		IdentifierExtracted: true,
		Lookup:              found(),
		Mismatches: []reconcile.Mismatch{
			{Field: reconcile.FieldName, ReferenceValue: "Asha Rao", ExtractedValue: "Asha R"},
			{Field: reconcile.FieldDateOfBirth, ReferenceValue: "1990-01-02", ExtractedValue: ""},
		},
	}

	first := Classify(in)
	for range 10 {
		assert.Equal(t, first, Classify(in))
	}
	assert.Contains(t, *first.IndicatorMessage, `Name (reference: "Asha Rao", document: "Asha R"); Date of Birth (reference: "1990-01-02", document: not present)`)
}
