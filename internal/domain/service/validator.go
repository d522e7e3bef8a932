package service

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/bibbank/guarantee-messaging/internal/domain/valueobject"
	"github.com/bibbank/guarantee-messaging/pkg/money"
	"github.com/bibbank/guarantee-messaging/pkg/swift"
)

// ValidationResult is the outcome of a validation run. It is always returned
// as data; IsValid is true iff Errors is empty.
type ValidationResult struct {
	IsValid       bool
	Errors        []string
	Warnings      []string
	FieldsChecked int
}

type validation struct {
	result ValidationResult
}

func (v *validation) errorf(format string, args ...any) {
	v.result.Errors = append(v.result.Errors, fmt.Sprintf(format, args...))
}

func (v *validation) warnf(format string, args ...any) {
	v.result.Warnings = append(v.result.Warnings, fmt.Sprintf(format, args...))
}

// Validator checks message content against the per-type rule sets. It holds
// no mutable state and is safe for concurrent use.
type Validator struct{}

// NewValidator creates a new Validator instance.
func NewValidator() *Validator {
	return &Validator{}
}

// Validate runs, in order, the required-field, format, business-rule,
// length/charset and sequence checks. Every check runs regardless of earlier
// failures. Only an unsupported type short-circuits.
func (v *Validator) Validate(msgType swift.MessageType, senderID, receiverID string, content swift.Content) ValidationResult {
	rules, ok := rulesFor(msgType)
	if !ok {
		return ValidationResult{
			Errors: []string{fmt.Sprintf("Unsupported message type: %s", msgType)},
		}
	}

	run := &validation{}
	run.result.FieldsChecked = countChecked(rules, content)

	checkRequired(run, rules, content)
	checkFormats(run, content)
	checkBusinessRules(run, msgType, senderID, receiverID, content)
	checkLengths(run, content)
	checkSequence(run, msgType, rules, content)

	run.result.IsValid = len(run.result.Errors) == 0
	return run.result
}

func countChecked(rules ruleSet, content swift.Content) int {
	seen := make(map[string]bool)
	for _, name := range rules.required {
		seen[name] = true
	}
	for _, name := range content.Names() {
		seen[name] = true
	}
	return len(seen)
}

func checkRequired(run *validation, rules ruleSet, content swift.Content) {
	for _, name := range rules.required {
		if !content.Has(name) {
			run.errorf("Required field missing: %s", name)
		}
	}
}

func checkFormats(run *validation, content swift.Content) {
	for _, f := range content.Fields() {
		value := strings.TrimSpace(f.Value)
		spec, known := fieldSpecs[f.Name]
		if !known || value == "" {
			continue
		}
		switch spec.format {
		case formatText:
			checkText(run, f)
		case formatReference:
			if strings.HasPrefix(value, "/") || strings.HasSuffix(value, "/") || strings.Contains(value, "//") {
				run.warnf("Field %s should not start or end with '/' or contain '//'", f.Name)
			}
			checkText(run, f)
		case formatDate:
			d, err := parseDate(value)
			if err != nil {
				run.errorf("Field %s must be a valid date (YYYY-MM-DD)", f.Name)
			} else if swift.CheckWireDate(d) != nil {
				run.errorf("Field %s must be a date between years %d and %d", f.Name, swift.MinWireYear, swift.MaxWireYear)
			}
		case formatAmount:
			if _, err := money.ParseAmount(value); err != nil {
				run.errorf("Field %s must be a valid decimal amount", f.Name)
			}
		case formatCurrency:
			if !money.IsCurrencyCode(value) {
				run.errorf("Invalid currency code: %s", value)
			}
		}
	}
}

// checkText rejects values the text block cannot carry unchanged.
func checkText(run *validation, f swift.Field) {
	if err := swift.CheckText(f.Value); err != nil {
		run.errorf("Field %s cannot be transmitted: %s", f.Name, strings.TrimPrefix(err.Error(), swift.ErrUnencodable.Error()+": "))
	}
}

func checkBusinessRules(run *validation, msgType swift.MessageType, senderID, receiverID string, content swift.Content) {
	switch msgType {
	case swift.IssueGuarantee:
		checkIssuance(run, senderID, receiverID, content)
	case swift.AmendGuarantee:
		checkAmendment(run, content)
	case swift.ConfirmAmendment:
		checkConfirmation(run, content)
	case swift.DiscrepancyAdvice:
		checkClaim(run, content)
	}
}

func checkIssuance(run *validation, senderID, receiverID string, content swift.Content) {
	if amount, ok := amountOf(content, swift.FieldAmount); ok {
		if !amount.IsPositive() {
			run.errorf("Amount must be positive")
		} else if amount.GreaterThan(highAmountThreshold) {
			run.warnf("Amount %s exceeds %s and may require additional approval", amount.String(), highAmountThreshold.String())
		}
	}

	issue, issueOK := dateOf(content, swift.FieldIssueDate)
	expiry, expiryOK := dateOf(content, swift.FieldExpiryDate)
	if issueOK && expiryOK {
		if !expiry.After(issue) {
			run.errorf("Expiry date must be after issue date")
		} else if expiry.After(issue.AddDate(maxValidityYears, 0, 0)) {
			run.warnf("Guarantee validity exceeds %d years", maxValidityYears)
		}
	}

	if senderID != "" && !valueobject.IsValidBIC(senderID) {
		run.warnf("Sender %s does not match the BIC format", senderID)
	}
	if receiverID != "" && !valueobject.IsValidBIC(receiverID) {
		run.warnf("Receiver %s does not match the BIC format", receiverID)
	}
}

func checkAmendment(run *validation, content swift.Content) {
	kind := content.Value(swift.FieldAmendmentType)
	if kind != "" && !isAmendmentType(kind) {
		run.errorf("Invalid amendment type: %s", kind)
	}
	if amendmentNeedsAmount(kind) && !content.Has(swift.FieldNewAmount) {
		run.errorf("New amount is required for amendment type %s", kind)
	}
	if amendmentNeedsExpiry(kind) && !content.Has(swift.FieldNewExpiryDate) {
		run.errorf("New expiry date is required for amendment type %s", kind)
	}
	if amount, ok := amountOf(content, swift.FieldNewAmount); ok {
		if !amount.IsPositive() {
			run.errorf("New amount must be positive")
		}
		if !content.Has(swift.FieldCurrency) {
			run.errorf("Field currency is required with %s", swift.FieldNewAmount)
		}
	}
}

func checkConfirmation(run *validation, content swift.Content) {
	if !content.Has(swift.FieldAmendmentReference) && !content.Has(swift.FieldOriginalReference) {
		run.errorf("Either %s or %s is required", swift.FieldAmendmentReference, swift.FieldOriginalReference)
	}
	if s := content.Value(swift.FieldConfirmationStatus); s != "" && !isConfirmationStatus(s) {
		run.warnf("Unrecognized confirmation status: %s", s)
	}
}

func checkClaim(run *validation, content swift.Content) {
	if amount, ok := amountOf(content, swift.FieldClaimAmount); ok {
		if !amount.IsPositive() {
			run.errorf("Claim amount must be positive")
		}
		if !content.Has(swift.FieldCurrency) {
			run.errorf("Field currency is required with %s", swift.FieldClaimAmount)
		}
	}
	if reason := content.Value(swift.FieldClaimReason); reason != "" && utf8.RuneCountInString(reason) < minClaimReasonLen {
		run.errorf("Claim reason must be at least %d characters", minClaimReasonLen)
	}
}

func checkLengths(run *validation, content swift.Content) {
	for _, f := range content.Fields() {
		if spec, ok := fieldSpecs[f.Name]; ok && f.Value != "" {
			n := utf8.RuneCountInString(strings.TrimSpace(f.Value))
			switch {
			case spec.exactLen > 0 && n != spec.exactLen:
				run.errorf("Field %s must be exactly %d characters", f.Name, spec.exactLen)
			case spec.maxLen > 0 && n > spec.maxLen:
				run.errorf("Field %s exceeds maximum length of %d characters", f.Name, spec.maxLen)
			}
		}
		if !isSWIFTCharset(f.Value) {
			run.warnf("Field %s contains characters outside the SWIFT character set", f.Name)
		}
	}
}

// checkSequence warns once about the first field out of canonical order, and
// about fields the type does not define.
func checkSequence(run *validation, msgType swift.MessageType, rules ruleSet, content swift.Content) {
	position := make(map[string]int)
	for i, name := range swift.CanonicalFields(msgType) {
		position[name] = i
	}
	known := make(map[string]bool)
	for _, name := range rules.required {
		known[name] = true
	}
	for _, name := range rules.optional {
		known[name] = true
	}

	last := -1
	reported := false
	for _, name := range content.Names() {
		if !known[name] {
			run.warnf("Field %s is not defined for %s and will not be encoded", name, msgType)
			continue
		}
		pos, ok := position[name]
		if !ok {
			continue
		}
		if pos < last && !reported {
			run.warnf("Field %s appears out of canonical order", name)
			reported = true
		}
		if pos > last {
			last = pos
		}
	}
}

// isSWIFTCharset reports whether s uses only the SWIFT X character set.
func isSWIFTCharset(s string) bool {
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case strings.ContainsRune("/-?:().,'+ \r\n", r):
		default:
			return false
		}
	}
	return true
}

func parseDate(s string) (time.Time, error) {
	return time.Parse(swift.ContentDateLayout, s)
}

func amountOf(content swift.Content, field string) (decimal.Decimal, bool) {
	v := content.Value(field)
	if v == "" {
		return decimal.Decimal{}, false
	}
	d, err := money.ParseAmount(v)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return d, true
}

func dateOf(content swift.Content, field string) (time.Time, bool) {
	v := content.Value(field)
	if v == "" {
		return time.Time{}, false
	}
	d, err := parseDate(v)
	if err != nil {
		return time.Time{}, false
	}
	return d, true
}
