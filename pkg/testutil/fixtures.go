package testutil

import (
	"github.com/bibbank/guarantee-messaging/pkg/swift"
)

// Correspondent BICs used across tests.
const (
	IssuingBankBIC  = "BANKUS33XXX"
	AdvisingBankBIC = "BANKGB22XXX"
)

// IssuanceContent returns a complete, valid MT760 payload for reference.
func IssuanceContent(reference string) swift.Content {
	return swift.NewContent(
		swift.Field{Name: swift.FieldTransactionReference, Value: reference},
		swift.Field{Name: swift.FieldIssueDate, Value: "2024-01-15"},
		swift.Field{Name: swift.FieldExpiryDate, Value: "2025-01-15"},
		swift.Field{Name: swift.FieldAmount, Value: "100000"},
		swift.Field{Name: swift.FieldCurrency, Value: "USD"},
		swift.Field{Name: swift.FieldApplicant, Value: "APPLICANT CORPORATION"},
		swift.Field{Name: swift.FieldBeneficiary, Value: "BENEFICIARY TRADING LTD"},
	)
}

// ClaimContent returns a valid MT769 payload demanding payment under original.
func ClaimContent(reference, original string) swift.Content {
	return swift.NewContent(
		swift.Field{Name: swift.FieldTransactionReference, Value: reference},
		swift.Field{Name: swift.FieldOriginalReference, Value: original},
		swift.Field{Name: swift.FieldClaimAmount, Value: "50000"},
		swift.Field{Name: swift.FieldCurrency, Value: "USD"},
		swift.Field{Name: swift.FieldClaimReason, Value: "BENEFICIARY DEMAND FOR PAYMENT"},
	)
}

// IssuanceWire is a well-formed MT760 as it arrives from the network.
const IssuanceWire = "{1:F01BANKUS33XXX0000000000}{2:I760BANKGB22XXXN}{4:\n" +
	":20:GTEE0001\n" +
	":31C:240115\n" +
	":31E:250115\n" +
	":32B:USD100000,\n" +
	":50:APPLICANT CORPORATION\n" +
	":59:BENEFICIARY TRADING LTD\n" +
	"-}{5:{CHK:000000000000}}"
