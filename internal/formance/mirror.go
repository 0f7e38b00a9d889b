package formance

import (
	"context"
	"fmt"
	"strings"

	"token-settlement-go/internal/models"

	"github.com/formancehq/formance-sdk-go/v3/pkg/models/operations"
	"github.com/formancehq/formance-sdk-go/v3/pkg/models/shared"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Ledger accounts used by the mirror.
const (
	accountFees       = "platform:fees"
	accountTreasury   = "platform:treasury"
	accountStaking    = "platform:staking"
	accountExternal   = "platform:external"
	userAccountPrefix = "users:"
)

const numscriptVars = `vars {
  asset $asset
  account $user
  string $transaction_id
  string $transaction_type
  string $gross_amount
  string $reference
%s}
`

const numscriptNetLeg = `
send [$asset $net] (
  source = $source allowing unbounded overdraft
  destination = $destination
)
`

const numscriptFeeLeg = `
send [$asset $fee] (
  source = $fee_source allowing unbounded overdraft
  destination = @platform:fees
)
`

const numscriptMeta = `
set_tx_meta("transaction_id", $transaction_id)
set_tx_meta("transaction_type", $transaction_type)
set_tx_meta("gross_amount", $gross_amount)
set_tx_meta("reference", $reference)
set_tx_meta("user", $user)
`

// posting is the Numscript and variables mirroring one settlement.
type posting struct {
	script string
	vars   map[string]string
}

// TransactionCommitted posts the settlement. Failures are logged, never
// propagated: the settlement already committed in the primary store.
func (s *Service) TransactionCommitted(ctx context.Context, txn models.Transaction) {
	if err := s.Post(ctx, txn); err != nil {
		zap.L().Error("Failed to mirror settlement to Formance",
			zap.String("transaction_id", txn.Id),
			zap.String("type", txn.Type),
			zap.Error(err))
	}
}

// Post records txn in the Formance ledger. Re-posting the same transaction is
// a no-op because its id is the Formance reference.
func (s *Service) Post(ctx context.Context, txn models.Transaction) error {
	p, err := buildPosting(txn)
	if err != nil {
		return err
	}

	_, err = s.client.Ledger.V2.CreateTransaction(ctx, operations.V2CreateTransactionRequest{
		Ledger: s.ledger,
		V2PostTransaction: shared.V2PostTransaction{
			Reference: strPtr(txn.Id),
			Timestamp: &txn.CreatedAt,
			Script: &shared.V2PostTransactionScript{
				Plain: p.script,
				Vars:  p.vars,
			},
		},
	})
	if err != nil {
		if isConflictError(err) {
			return nil // idempotent
		}
		return fmt.Errorf("error mirroring settlement: %w", err)
	}

	zap.L().Debug("Settlement mirrored in Formance",
		zap.String("transaction_id", txn.Id),
		zap.String("type", txn.Type))
	return nil
}

// buildPosting maps a settlement onto ledger accounts: the net leg moves
// between the user and the platform, the fee leg lands in platform:fees.
func buildPosting(txn models.Transaction) (*posting, error) {
	user := userAccountPrefix + txn.UserId

	var source, destination, feeSource string
	switch txn.Type {
	case models.TransactionTypeDeposit:
		source, destination, feeSource = accountExternal, user, user
	case models.TransactionTypeWithdraw:
		source, destination, feeSource = user, accountExternal, user
	case models.TransactionTypeBuy, models.TransactionTypeLimitBuy:
		source, destination, feeSource = user, accountTreasury, user
	case models.TransactionTypeSell, models.TransactionTypeLimitSell:
		source, destination, feeSource = accountTreasury, user, accountTreasury
	case models.TransactionTypeTransfer:
		if txn.Reference == "" {
			return nil, fmt.Errorf("transfer %s has no recipient", txn.Id)
		}
		source, destination, feeSource = user, userAccountPrefix+txn.Reference, user
	case models.TransactionTypeStake:
		source, destination, feeSource = user, accountStaking, user
	case models.TransactionTypeWalletActivation:
		feeSource = user
	default:
		return nil, fmt.Errorf("unsupported transaction type %q", txn.Type)
	}

	precision := int32(precisionFor(txn.Currency))
	vars := map[string]string{
		"asset":            formanceAsset(txn.Currency),
		"user":             user,
		"transaction_id":   txn.Id,
		"transaction_type": txn.Type,
		"gross_amount":     txn.GrossAmount.String(),
		"reference":        txn.Reference,
	}

	var decls, body strings.Builder
	if net := smallestUnits(txn.NetAmount, precision); net != "0" && source != "" {
		decls.WriteString("  number $net\n  account $source\n  account $destination\n")
		body.WriteString(numscriptNetLeg)
		vars["net"] = net
		vars["source"] = source
		vars["destination"] = destination
	}
	if fee := smallestUnits(txn.FeeAmount, precision); fee != "0" {
		decls.WriteString("  number $fee\n  account $fee_source\n")
		body.WriteString(numscriptFeeLeg)
		vars["fee"] = fee
		vars["fee_source"] = feeSource
	}
	if body.Len() == 0 {
		return nil, fmt.Errorf("transaction %s moves nothing at %s precision", txn.Id, formanceAsset(txn.Currency))
	}

	return &posting{
		script: fmt.Sprintf(numscriptVars, decls.String()) + body.String() + numscriptMeta,
		vars:   vars,
	}, nil
}

func smallestUnits(amount decimal.Decimal, precision int32) string {
	return amount.Shift(precision).BigInt().String()
}
