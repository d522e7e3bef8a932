package service

import (
	"github.com/shopspring/decimal"

	"github.com/bibbank/guarantee-messaging/pkg/swift"
)

// fieldFormat selects the format validator applied to a field value.
type fieldFormat int

const (
	formatText fieldFormat = iota
	formatReference
	formatDate
	formatAmount
	formatCurrency
)

// fieldSpec is the format and length constraint of a content field. Field
// names carry the same meaning across every message type.
type fieldSpec struct {
	format   fieldFormat
	maxLen   int
	exactLen int
}

const (
	maxReferenceLen   = 16
	maxAmountLen      = 15
	maxPartyLen       = 140
	maxAmendTypeLen   = 35
	maxDispositionLen = 210
	maxFreeTextLen    = 9750
	currencyLen       = 3
	dateLen           = 10

	minClaimReasonLen = 10
	maxValidityYears  = 10
)

var highAmountThreshold = decimal.NewFromInt(10_000_000)

var fieldSpecs = map[string]fieldSpec{
	swift.FieldTransactionReference: {format: formatReference, maxLen: maxReferenceLen},
	swift.FieldRelatedReference:     {format: formatReference, maxLen: maxReferenceLen},
	swift.FieldAmendmentReference:   {format: formatReference, maxLen: maxReferenceLen},
	swift.FieldOriginalReference:    {format: formatReference, maxLen: maxReferenceLen},

	swift.FieldIssueDate:     {format: formatDate, maxLen: dateLen},
	swift.FieldExpiryDate:    {format: formatDate, maxLen: dateLen},
	swift.FieldNewExpiryDate: {format: formatDate, maxLen: dateLen},

	swift.FieldAmount:      {format: formatAmount, maxLen: maxAmountLen},
	swift.FieldNewAmount:   {format: formatAmount, maxLen: maxAmountLen},
	swift.FieldClaimAmount: {format: formatAmount, maxLen: maxAmountLen},
	swift.FieldCurrency:    {format: formatCurrency, exactLen: currencyLen},

	swift.FieldApplicant:          {maxLen: maxPartyLen},
	swift.FieldBeneficiary:        {maxLen: maxPartyLen},
	swift.FieldAmendmentType:      {maxLen: maxAmendTypeLen},
	swift.FieldConfirmationStatus: {maxLen: maxDispositionLen},
	swift.FieldAcknowledgment:     {maxLen: maxDispositionLen},
	swift.FieldNarrative:          {maxLen: maxFreeTextLen},
	swift.FieldClaimReason:        {maxLen: maxFreeTextLen},
}

// ruleSet is the static validation configuration of one message type. The
// canonical order comes from the codec layout.
type ruleSet struct {
	required []string
	optional []string
}

// rulesFor returns the rule set of t. The second result is false for types
// outside the guarantee set.
func rulesFor(t swift.MessageType) (ruleSet, bool) {
	switch t {
	case swift.IssueGuarantee:
		return ruleSet{
			required: []string{
				swift.FieldTransactionReference, swift.FieldIssueDate, swift.FieldExpiryDate,
				swift.FieldAmount, swift.FieldCurrency, swift.FieldApplicant, swift.FieldBeneficiary,
			},
			optional: []string{swift.FieldRelatedReference, swift.FieldNarrative},
		}, true
	case swift.AmendGuarantee:
		return ruleSet{
			required: []string{swift.FieldAmendmentReference, swift.FieldOriginalReference, swift.FieldAmendmentType},
			optional: []string{swift.FieldNewExpiryDate, swift.FieldNewAmount, swift.FieldCurrency, swift.FieldNarrative},
		}, true
	case swift.ConfirmAmendment:
		return ruleSet{
			required: []string{swift.FieldTransactionReference},
			optional: []string{
				swift.FieldAmendmentReference, swift.FieldOriginalReference,
				swift.FieldConfirmationStatus, swift.FieldNarrative,
			},
		}, true
	case swift.Acknowledge:
		return ruleSet{
			required: []string{swift.FieldTransactionReference, swift.FieldOriginalReference},
			optional: []string{swift.FieldAcknowledgment, swift.FieldNarrative},
		}, true
	case swift.DiscrepancyAdvice:
		return ruleSet{
			required: []string{swift.FieldTransactionReference, swift.FieldOriginalReference, swift.FieldClaimReason},
			optional: []string{swift.FieldClaimAmount, swift.FieldCurrency},
		}, true
	case swift.FreeFormat:
		return ruleSet{
			required: []string{swift.FieldTransactionReference, swift.FieldNarrative},
			optional: []string{swift.FieldRelatedReference},
		}, true
	default:
		return ruleSet{}, false
	}
}

// Amendment types accepted on an MT765.
const (
	AmendmentAmountIncrease  = "AMOUNT_INCREASE"
	AmendmentAmountDecrease  = "AMOUNT_DECREASE"
	AmendmentExpiryExtension = "EXPIRY_EXTENSION"
	AmendmentExpiryReduction = "EXPIRY_REDUCTION"
	AmendmentTermsChange     = "TERMS_CHANGE"
)

func amendmentNeedsAmount(kind string) bool {
	return kind == AmendmentAmountIncrease || kind == AmendmentAmountDecrease
}

func amendmentNeedsExpiry(kind string) bool {
	return kind == AmendmentExpiryExtension || kind == AmendmentExpiryReduction
}

func isAmendmentType(kind string) bool {
	switch kind {
	case AmendmentAmountIncrease, AmendmentAmountDecrease,
		AmendmentExpiryExtension, AmendmentExpiryReduction, AmendmentTermsChange:
		return true
	}
	return false
}

// Confirmation dispositions on an MT767.
const (
	ConfirmationAccepted = "ACCEPTED"
	ConfirmationRejected = "REJECTED"
	ConfirmationPending  = "PENDING"
)

func isConfirmationStatus(s string) bool {
	return s == ConfirmationAccepted || s == ConfirmationRejected || s == ConfirmationPending
}
