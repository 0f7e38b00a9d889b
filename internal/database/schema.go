package database

import "context"

// Amounts are stored as TEXT and handled as decimal.Decimal in Go so both
// drivers keep exact precision.
const schema = `
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	);

	CREATE TABLE IF NOT EXISTS wallets (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL UNIQUE REFERENCES users(id),
		usd_balance TEXT NOT NULL DEFAULT '0',
		token_balance TEXT NOT NULL DEFAULT '0',
		wallet_fee_due_at TIMESTAMP,
		wallet_fee_processed BOOLEAN NOT NULL DEFAULT FALSE,
		wallet_fee_waived BOOLEAN NOT NULL DEFAULT FALSE,
		wallet_fee_locked BOOLEAN NOT NULL DEFAULT FALSE,
		version INTEGER NOT NULL DEFAULT 1,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_wallets_fee_due ON wallets(wallet_fee_processed, wallet_fee_due_at);

	CREATE TABLE IF NOT EXISTS token_supply (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		total_supply TEXT NOT NULL,
		remaining_supply TEXT NOT NULL,
		user_supply_remaining TEXT NOT NULL,
		admin_reserve TEXT NOT NULL,
		version INTEGER NOT NULL DEFAULT 1,
		updated_at TIMESTAMP NOT NULL
	);

	CREATE TABLE IF NOT EXISTS orders (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL REFERENCES users(id),
		order_type TEXT NOT NULL,
		amount TEXT NOT NULL,
		limit_price TEXT NOT NULL,
		status TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL,
		filled_at TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_orders_status ON orders(status, created_at);
	CREATE INDEX IF NOT EXISTS idx_orders_user_id ON orders(user_id);

	CREATE TABLE IF NOT EXISTS transactions (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		transaction_type TEXT NOT NULL,
		currency TEXT NOT NULL,
		gross_amount TEXT NOT NULL,
		fee_amount TEXT NOT NULL,
		net_amount TEXT NOT NULL,
		counter_amount TEXT NOT NULL DEFAULT '0',
		price TEXT NOT NULL DEFAULT '0',
		reference TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_transactions_user_id ON transactions(user_id, created_at);
	CREATE INDEX IF NOT EXISTS idx_transactions_type ON transactions(transaction_type);

	CREATE TABLE IF NOT EXISTS referrals (
		id TEXT PRIMARY KEY,
		referrer_id TEXT NOT NULL REFERENCES users(id),
		referred_id TEXT NOT NULL UNIQUE REFERENCES users(id),
		created_at TIMESTAMP NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_referrals_referrer ON referrals(referrer_id);

	CREATE TABLE IF NOT EXISTS stakes (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL REFERENCES users(id),
		amount TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_stakes_user_id ON stakes(user_id);
`

func (s *Service) initSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, schema)
	return err
}
