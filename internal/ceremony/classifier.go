package ceremony

import (
	"errors"

	"github.com/pawskey/ceremony-manager/internal/broker"
)

const (
	msgInterrupted   = "The operation was interrupted, please try again."
	msgMisconfigured = "Your device is missing a credential provider dependency."
	msgThirdParty    = "The credential provider reported an error."
	msgUnknown       = "An unexpected error occurred during the credential operation."
)

// Classify maps a broker failure onto the closed ErrorKind set. The
// mapping is total: every error yields exactly one kind, with
// KindUnknownBroker as the designated fallback. Only interruptions are
// retryable.
func Classify(err error) Failure {
	var berr *broker.Error
	if !errors.As(err, &berr) {
		return Failure{Kind: KindUnknownBroker, Message: msgUnknown}
	}

	switch berr.Category {
	case broker.CategoryDom:
		return Failure{Kind: KindDomProtocol, Message: berr.Reason}
	case broker.CategoryCancelled:
		return Failure{Kind: KindUserCancelled}
	case broker.CategoryInterrupted:
		return Failure{Kind: KindProviderInterrupted, Message: msgInterrupted, Retryable: true}
	case broker.CategoryProviderConfiguration:
		return Failure{Kind: KindProviderMisconfigured, Message: msgMisconfigured}
	case broker.CategoryCustom:
		return Failure{Kind: KindThirdPartyCredential, Message: msgThirdParty}
	default:
		return Failure{Kind: KindUnknownBroker, Message: msgUnknown}
	}
}
