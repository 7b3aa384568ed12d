package ledger

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"bookkeeper/internal/logger"
	"bookkeeper/pkg/models"
	"bookkeeper/pkg/services"
)

// SubAccount is one (account, currency) pair of an expanded account
type SubAccount struct {
	Account  models.Account
	Currency string
	Primary  bool

	// Uninitialized is set when no opening balance exists for the pair.
	// Arithmetic still treats it as zero.
	Uninitialized bool
}

// Key returns the owning account identity
func (s SubAccount) Key() models.AccountKey {
	return s.Account.Key()
}

// Expander splits accounts into one logical sub-account per currency
type Expander struct {
	store services.LedgerReader
	log   zerolog.Logger
}

// NewExpander creates an expander reading opening balances from store
func NewExpander(store services.LedgerReader) *Expander {
	return &Expander{
		store: store,
		log:   logger.WithComponent("ledger-expander"),
	}
}

// DeclaredCurrencies parses the account's currency declaration: the primary
// currency first, then the wallet's comma-delimited list in order. Entries are
// trimmed and uppercased; blanks and duplicates are dropped. Bank accounts
// only ever declare their primary currency.
func DeclaredCurrencies(account *models.Account) []string {
	seen := make(map[string]struct{})
	var out []string
	add := func(code string) {
		code = NormalizeCurrency(code)
		if code == "" {
			return
		}
		if _, ok := seen[code]; ok {
			return
		}
		seen[code] = struct{}{}
		out = append(out, code)
	}

	add(account.Currency)
	if account.Type == models.AccountTypeWallet {
		for _, code := range strings.Split(account.Currencies, ",") {
			add(code)
		}
	}
	return out
}

// Expand returns one SubAccount per declared currency, flagging pairs without
// an opening balance. Nothing is written.
func (e *Expander) Expand(ctx context.Context, account *models.Account) ([]SubAccount, error) {
	const op = "Expand"
	log := logger.WithAccount(e.log, account.Key())

	if account.Type == models.AccountTypeBank && strings.TrimSpace(account.Currencies) != "" {
		log.Warn().
			Str("currencies", account.Currencies).
			Msg("Bank account declares a currency list, only the primary currency is used")
	}

	currencies := DeclaredCurrencies(account)
	if len(currencies) == 0 {
		log.Warn().Msg("Account declares no currency")
	}

	subs := make([]SubAccount, 0, len(currencies))
	for i, currency := range currencies {
		if !currencyPattern.MatchString(currency) {
			log.Warn().
				Err(ErrDataInconsistency).
				Str("currency", currency).
				Msg("Account declares a malformed currency code, keeping it")
		}

		ob, err := e.store.FindOpeningBalance(ctx, account.Key(), currency)
		if err != nil {
			return nil, storeError(op, err, "find opening balance for "+account.Key().String()+"/"+currency)
		}

		subs = append(subs, SubAccount{
			Account:       *account,
			Currency:      currency,
			Primary:       i == 0 && NormalizeCurrency(account.Currency) == currency,
			Uninitialized: ob == nil,
		})
	}

	log.Debug().Int("sub_accounts", len(subs)).Msg("Account expanded")
	return subs, nil
}

func declares(account *models.Account, currency string) bool {
	for _, c := range DeclaredCurrencies(account) {
		if c == currency {
			return true
		}
	}
	return false
}
