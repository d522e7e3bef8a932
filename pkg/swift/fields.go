package swift

// Semantic field names used in message content.
const (
	FieldTransactionReference = "transactionReference"
	FieldRelatedReference     = "relatedReference"
	FieldIssueDate            = "issueDate"
	FieldExpiryDate           = "expiryDate"
	FieldAmount               = "amount"
	FieldCurrency             = "currency"
	FieldApplicant            = "applicant"
	FieldBeneficiary          = "beneficiary"
	FieldNarrative            = "narrative"

	FieldAmendmentReference = "amendmentReference"
	FieldOriginalReference  = "originalReference"
	FieldAmendmentType      = "amendmentType"
	FieldNewAmount          = "newAmount"
	FieldNewExpiryDate      = "newExpiryDate"
	FieldConfirmationStatus = "confirmationStatus"
	FieldAcknowledgment     = "acknowledgment"
	FieldClaimAmount        = "claimAmount"
	FieldClaimReason        = "claimReason"
)

// Wire tags. The core tag scheme (20, 21, 31C, 31E, 32B, 50, 59, 77C) is fixed
// for interoperability.
const (
	TagReference        = "20"
	TagRelatedReference = "21"
	TagFurtherReference = "21A"
	TagAmendmentType    = "23"
	TagIssueDate        = "31C"
	TagExpiryDate       = "31E"
	TagAmount           = "32B"
	TagApplicant        = "50"
	TagBeneficiary      = "59"
	TagSenderToReceiver = "72"
	TagFreeText         = "77C"
)

// FieldKind describes how a field value is rendered on the wire.
type FieldKind int

const (
	KindText FieldKind = iota
	KindReference
	KindDate
	// KindAmount spans two content fields: the amount and its currency.
	KindAmount
)

// TagSpec maps one wire tag to the content field(s) it carries.
type TagSpec struct {
	Tag  string
	Kind FieldKind
	// Field is the content field name. For KindAmount it is the amount field.
	Field string
	// CurrencyField is set only for KindAmount.
	CurrencyField string
}

// Fields returns the content field names the tag carries, amount first.
func (s TagSpec) Fields() []string {
	if s.Kind == KindAmount {
		return []string{s.Field, s.CurrencyField}
	}
	return []string{s.Field}
}

var layouts = map[MessageType][]TagSpec{
	IssueGuarantee: {
		{Tag: TagReference, Kind: KindReference, Field: FieldTransactionReference},
		{Tag: TagRelatedReference, Kind: KindReference, Field: FieldRelatedReference},
		{Tag: TagIssueDate, Kind: KindDate, Field: FieldIssueDate},
		{Tag: TagExpiryDate, Kind: KindDate, Field: FieldExpiryDate},
		{Tag: TagAmount, Kind: KindAmount, Field: FieldAmount, CurrencyField: FieldCurrency},
		{Tag: TagApplicant, Kind: KindText, Field: FieldApplicant},
		{Tag: TagBeneficiary, Kind: KindText, Field: FieldBeneficiary},
		{Tag: TagFreeText, Kind: KindText, Field: FieldNarrative},
	},
	AmendGuarantee: {
		{Tag: TagReference, Kind: KindReference, Field: FieldAmendmentReference},
		{Tag: TagRelatedReference, Kind: KindReference, Field: FieldOriginalReference},
		{Tag: TagAmendmentType, Kind: KindText, Field: FieldAmendmentType},
		{Tag: TagExpiryDate, Kind: KindDate, Field: FieldNewExpiryDate},
		{Tag: TagAmount, Kind: KindAmount, Field: FieldNewAmount, CurrencyField: FieldCurrency},
		{Tag: TagFreeText, Kind: KindText, Field: FieldNarrative},
	},
	ConfirmAmendment: {
		{Tag: TagReference, Kind: KindReference, Field: FieldTransactionReference},
		{Tag: TagRelatedReference, Kind: KindReference, Field: FieldAmendmentReference},
		{Tag: TagFurtherReference, Kind: KindReference, Field: FieldOriginalReference},
		{Tag: TagSenderToReceiver, Kind: KindText, Field: FieldConfirmationStatus},
		{Tag: TagFreeText, Kind: KindText, Field: FieldNarrative},
	},
	Acknowledge: {
		{Tag: TagReference, Kind: KindReference, Field: FieldTransactionReference},
		{Tag: TagRelatedReference, Kind: KindReference, Field: FieldOriginalReference},
		{Tag: TagSenderToReceiver, Kind: KindText, Field: FieldAcknowledgment},
		{Tag: TagFreeText, Kind: KindText, Field: FieldNarrative},
	},
	DiscrepancyAdvice: {
		{Tag: TagReference, Kind: KindReference, Field: FieldTransactionReference},
		{Tag: TagRelatedReference, Kind: KindReference, Field: FieldOriginalReference},
		{Tag: TagAmount, Kind: KindAmount, Field: FieldClaimAmount, CurrencyField: FieldCurrency},
		{Tag: TagFreeText, Kind: KindText, Field: FieldClaimReason},
	},
	FreeFormat: {
		{Tag: TagReference, Kind: KindReference, Field: FieldTransactionReference},
		{Tag: TagRelatedReference, Kind: KindReference, Field: FieldRelatedReference},
		{Tag: TagFreeText, Kind: KindText, Field: FieldNarrative},
	},
}

// Layout returns the canonical tag layout for t. It is empty for unsupported types.
func Layout(t MessageType) []TagSpec {
	l := layouts[t]
	out := make([]TagSpec, len(l))
	copy(out, l)
	return out
}

// CanonicalFields returns the content field names of t in canonical order.
func CanonicalFields(t MessageType) []string {
	var names []string
	for _, spec := range layouts[t] {
		names = append(names, spec.Fields()...)
	}
	return names
}

// PrimaryReferenceField is the field holding the message's own reference.
func PrimaryReferenceField(t MessageType) string {
	if t == AmendGuarantee {
		return FieldAmendmentReference
	}
	return FieldTransactionReference
}

// ReferenceFields lists every field that may carry a business reference.
var ReferenceFields = []string{
	FieldTransactionReference,
	FieldAmendmentReference,
	FieldOriginalReference,
	FieldRelatedReference,
}
