// Package outcome turns the pieces of a verification (extraction, reference
// lookup, field comparison, forensic scan, face match) into one status and a
// reviewer-facing message.
package outcome

import (
	"fmt"
	"strings"

	"docverify/internal/aiflow"
	"docverify/internal/idcard/lookup"
	"docverify/internal/reconcile"
	"docverify/internal/verification/models"
)

// Finding is one entry of the verification failure taxonomy.
type Finding string

const (
	FindingOcrFailure           Finding = "ocr_failure"
	FindingLookupNotFound       Finding = "lookup_not_found"
	FindingLookupIntegrityError Finding = "lookup_integrity_error"
	FindingLookupTransportError Finding = "lookup_transport_error"
	FindingFieldMismatch        Finding = "field_mismatch"
	FindingForgeryIndicators    Finding = "forgery_indicators"
	FindingFaceMismatch         Finding = "face_mismatch"
	FindingAiServiceError       Finding = "ai_service_error"
)

// IsSystemFault reports whether the finding means verification could not be
// carried out, as opposed to a verification that ran and failed.
func (f Finding) IsSystemFault() bool {
	return f == FindingLookupTransportError || f == FindingAiServiceError
}

const (
	MessageOCRFailure = "OCR failure: the document number could not be read from the image."
	MessageNotFound   = "Potential fraud: no reference record exists for the document number on this card."
	MessageIntegrity  = "Data integrity failure: the reference index points to a record that could not be loaded. " +
		"The reference data must be repaired before this document can be checked."
	MessageLookupError = "System error, not a fraud signal: the reference records could not be queried, " +
		"so verification could not be completed. Please try again."
	MessageAIFailure = "An unexpected error occurred during AI analysis. " +
		"Verification could not be completed. Please try again."
	MessageUnverified = "The document could not be verified."
)

// Input gathers what one submission produced. Lookup.Status is empty when the
// lookup never ran, which is only legitimate together with an AIFailure.
type Input struct {
	IdentifierExtracted bool
	Lookup              lookup.Result
	Mismatches          []reconcile.Mismatch
	FraudIndicators     *string
	FaceMatch           *models.FaceResult
	AIFailure           error
}

type Outcome struct {
	Status           models.Status
	ReferenceMatch   *models.ReferenceMatch
	IndicatorMessage *string
	Findings         []Finding
}

// FindingNames renders the findings for persistence.
func (o Outcome) FindingNames() []string {
	names := make([]string, 0, len(o.Findings))
	for _, f := range o.Findings {
		names = append(names, string(f))
	}
	return names
}

type referenceStep struct {
	match       *models.ReferenceMatch
	finding     Finding
	explanation string
	failed      bool
}

// Classify is deterministic and never inspects error text.
func Classify(in Input) Outcome {
	var (
		out      Outcome
		findings []Finding
	)

	ref, ran := classifyReference(in)
	if ran {
		out.ReferenceMatch = ref.match
		if ref.failed {
			findings = append(findings, ref.finding)
		}
	}

	fraudText := ""
	if in.FraudIndicators != nil && !aiflow.IsClean(*in.FraudIndicators) {
		fraudText = strings.TrimSpace(*in.FraudIndicators)
		if fraudText != "" {
			findings = append(findings, FindingForgeryIndicators)
		}
	}

	faceFailed := in.FaceMatch != nil && !in.FaceMatch.IsMatch
	if faceFailed {
		findings = append(findings, FindingFaceMismatch)
	}
	if in.AIFailure != nil {
		findings = append(findings, FindingAiServiceError)
	}
	if findings == nil {
		findings = []Finding{}
	}
	out.Findings = findings

	switch {
	case in.AIFailure != nil || (ran && ref.finding == FindingLookupTransportError):
		out.Status = models.StatusError
	case ran && !ref.failed && fraudText == "" && !faceFailed:
		out.Status = models.StatusVerified
		return out
	default:
		out.Status = models.StatusFailed
	}

	var parts []string
	if ran && ref.failed {
		parts = append(parts, ref.explanation)
	}
	if in.AIFailure != nil {
		parts = append(parts, MessageAIFailure)
	} else if fraudText != "" {
		parts = append(parts, fraudText)
	}
	if len(parts) == 0 {
		if faceFailed {
			parts = append(parts, faceExplanation(in.FaceMatch))
		} else {
			parts = append(parts, MessageUnverified)
		}
	}
	msg := strings.Join(parts, "\n\n")
	out.IndicatorMessage = &msg
	return out
}

func classifyReference(in Input) (referenceStep, bool) {
	if in.AIFailure != nil && in.Lookup.Status == "" {
		return referenceStep{}, false
	}
	if !in.IdentifierExtracted {
		return referenceStep{
			finding:     FindingOcrFailure,
			explanation: MessageOCRFailure,
			failed:      true,
		}, true
	}

	switch in.Lookup.Status {
	case lookup.StatusNotFound:
		return referenceStep{
			match:       &models.ReferenceMatch{Status: models.MatchNotFound},
			finding:     FindingLookupNotFound,
			explanation: MessageNotFound,
			failed:      true,
		}, true
	case lookup.StatusIntegrityError:
		return referenceStep{
			match:       &models.ReferenceMatch{Status: models.MatchNotFound},
			finding:     FindingLookupIntegrityError,
			explanation: MessageIntegrity,
			failed:      true,
		}, true
	case lookup.StatusFound:
		if len(in.Mismatches) == 0 {
			return referenceStep{match: &models.ReferenceMatch{Status: models.MatchMatched}}, true
		}
		return referenceStep{
			match:       &models.ReferenceMatch{Status: models.MatchMismatched, Mismatches: in.Mismatches},
			finding:     FindingFieldMismatch,
			explanation: mismatchExplanation(in.Mismatches),
			failed:      true,
		}, true
	default:
		// lookup_error, and any status this switch does not know, is a system fault.
		return referenceStep{
			match:       &models.ReferenceMatch{Status: models.MatchError},
			finding:     FindingLookupTransportError,
			explanation: MessageLookupError,
			failed:      true,
		}, true
	}
}

func mismatchExplanation(mismatches []reconcile.Mismatch) string {
	details := make([]string, 0, len(mismatches))
	for _, m := range mismatches {
		details = append(details, fmt.Sprintf("%s (reference: %s, document: %s)",
			m.Field.Label(), displayValue(m.ReferenceValue), displayValue(m.ExtractedValue)))
	}
	return "Data mismatch with the reference record in: " + strings.Join(details, "; ")
}

func displayValue(v string) string {
	if v == "" {
		return "not present"
	}
	return fmt.Sprintf("%q", v)
}

func faceExplanation(f *models.FaceResult) string {
	msg := fmt.Sprintf("Face match failed: the live photo does not match the ID card photo (confidence %.2f).", f.Confidence)
	if r := strings.TrimSpace(f.Reasoning); r != "" {
		msg += " " + r
	}
	return msg
}
