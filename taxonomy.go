package purchase

import "strings"

// ErrorKind is the stable, user-presentable failure taxonomy. Provider codes
// and free-text descriptions are folded into these kinds; callers never see
// raw provider codes.
type ErrorKind string

const (
	KindInsufficientProviderFunds ErrorKind = "insufficient_provider_funds"
	KindDuplicateTransaction      ErrorKind = "duplicate_transaction"
	KindInvalidPlanOrVariation    ErrorKind = "invalid_plan_or_variation"
	KindInvalidRecipientFormat    ErrorKind = "invalid_recipient_format"
	KindTransactionPending        ErrorKind = "transaction_pending"
	KindTransactionFailedGeneric  ErrorKind = "transaction_failed"
	KindVerificationFailed        ErrorKind = "verification_failed"
	KindProviderUnavailable       ErrorKind = "provider_unavailable"
	KindUnknown                   ErrorKind = "unknown"
)

// Retryable reports whether a plain retry can possibly succeed for this kind.
// Recipient and plan errors need changed input, not a retry.
func (k ErrorKind) Retryable() bool {
	switch k {
	case KindInvalidRecipientFormat, KindInvalidPlanOrVariation:
		return false
	}
	return true
}

// Aggregator response code constants
const (
	codeSuccess            = "000"
	codePending            = "099"
	codeFailed             = "016"
	codeNoProviderFunds    = "014"
	codeDuplicate          = "019"
	codeInvalidVariation   = "010"
	codeInvalidArguments   = "011"
	codeProductMissing     = "012"
	codeBelowMinimum       = "013"
	codeAboveMaximum       = "017"
	codeLowWallet          = "018"
	codeAccountLocked      = "021"
	codeAccountSuspended   = "022"
	codeNoProductAccess    = "023"
	codeAccountInactive    = "024"
	codeBankInvalid        = "025"
	codeVerifyFailed       = "026"
	codeBillerUnreachable  = "030"
	codeBelowMinQuantity   = "031"
	codeChannelNotAllowed  = "032"
	codeServiceSuspended   = "034"
	codeServiceInactive    = "035"
	codeReversed           = "040"
	codeSystemError        = "083"
)

// codeKinds maps machine-readable failure codes to kinds. Codes shared by
// multiple upstream providers must map to the same kind.
var codeKinds = map[string]ErrorKind{
	codeFailed:            KindTransactionFailedGeneric,
	codeNoProviderFunds:   KindInsufficientProviderFunds,
	codeDuplicate:         KindDuplicateTransaction,
	codeInvalidVariation:  KindInvalidPlanOrVariation,
	codeInvalidArguments:  KindInvalidRecipientFormat,
	codeProductMissing:    KindInvalidPlanOrVariation,
	codeBelowMinimum:      KindInvalidRecipientFormat,
	codeAboveMaximum:      KindInvalidRecipientFormat,
	codeLowWallet:         KindInsufficientProviderFunds,
	codeAccountLocked:     KindVerificationFailed,
	codeAccountSuspended:  KindVerificationFailed,
	codeNoProductAccess:   KindVerificationFailed,
	codeAccountInactive:   KindVerificationFailed,
	codeBankInvalid:       KindInvalidRecipientFormat,
	codeVerifyFailed:      KindVerificationFailed,
	codeBillerUnreachable: KindProviderUnavailable,
	codeBelowMinQuantity:  KindInvalidRecipientFormat,
	codeChannelNotAllowed: KindInvalidPlanOrVariation,
	codeServiceSuspended:  KindInvalidPlanOrVariation,
	codeServiceInactive:   KindInvalidPlanOrVariation,
	codeReversed:          KindTransactionFailedGeneric,
	codeSystemError:       KindProviderUnavailable,
	codePending:           KindTransactionPending,
}

// phraseKinds is the free-text fallback, checked in order when no code matched
var phraseKinds = []struct {
	phrase string
	kind   ErrorKind
}{
	{"insufficient", KindInsufficientProviderFunds},
	{"duplicate", KindDuplicateTransaction},
	{"does not exist", KindInvalidPlanOrVariation},
	{"invalid variation", KindInvalidPlanOrVariation},
	{"invalid service", KindInvalidPlanOrVariation},
	{"invalid phone", KindInvalidRecipientFormat},
	{"invalid meter", KindInvalidRecipientFormat},
	{"invalid smartcard", KindInvalidRecipientFormat},
	{"invalid recipient", KindInvalidRecipientFormat},
	{"pending", KindTransactionPending},
	{"processing", KindTransactionPending},
	{"timeout", KindProviderUnavailable},
	{"unavailable", KindProviderUnavailable},
	{"try again", KindProviderUnavailable},
}

// kindMessages are the fixed display messages per kind
var kindMessages = map[ErrorKind]string{
	KindInsufficientProviderFunds: "The provider could not fund this purchase. Please try again shortly.",
	KindDuplicateTransaction:      "This looks like a duplicate of a recent purchase. Check your transaction history before retrying.",
	KindInvalidPlanOrVariation:    "The selected plan is not available for this service. Pick a different plan.",
	KindInvalidRecipientFormat:    "The recipient number looks invalid for this service. Check it and try again.",
	KindTransactionPending:        "Your purchase is being processed. You will be credited once the provider confirms.",
	KindTransactionFailedGeneric:  "The purchase failed. You have not been charged for undelivered value.",
	KindVerificationFailed:        "We could not verify this purchase with the provider.",
	KindProviderUnavailable:       "The provider is not responding right now. Please try again.",
	KindUnknown:                   "Something went wrong with this purchase. Please try again or contact support.",
}

// Classification is the result of folding provider error signals into the taxonomy
type Classification struct {
	Kind    ErrorKind
	Message string
}

// Classify maps a provider code and/or free-text description to a stable kind
// and display message. Resolution order: code table, then description phrases,
// then Unknown carrying the raw description. A suggested action is appended to
// the message but never changes the kind. Never returns an empty message.
func Classify(code, description, suggestedAction string) Classification {
	kind := KindUnknown
	if k, ok := codeKinds[strings.TrimSpace(code)]; ok {
		kind = k
	} else if description != "" {
		lower := strings.ToLower(description)
		for _, p := range phraseKinds {
			if strings.Contains(lower, p.phrase) {
				kind = p.kind
				break
			}
		}
	}

	message := kindMessages[kind]
	if kind == KindUnknown && strings.TrimSpace(description) != "" {
		message = strings.TrimSpace(description)
	}
	if sa := strings.TrimSpace(suggestedAction); sa != "" {
		message = message + " " + sa
	}

	return Classification{Kind: kind, Message: message}
}
