/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package database

// Queries use ? placeholders and are rebound for the active driver.
const (
	// User queries
	queryCountUsersByIdOrEmail = `
		SELECT COUNT(*) FROM users WHERE id = ? OR email = ?`

	queryInsertUser = `
		INSERT INTO users (id, name, email, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`

	queryGetUserById = `
		SELECT id, name, email, created_at, updated_at
		FROM users
		WHERE id = ?`

	// Wallet queries
	walletColumns = `id, user_id, usd_balance, token_balance, wallet_fee_due_at, wallet_fee_processed,
		wallet_fee_waived, wallet_fee_locked, version, created_at, updated_at`

	queryInsertWallet = `
		INSERT INTO wallets (id, user_id, usd_balance, token_balance, wallet_fee_due_at,
			wallet_fee_processed, wallet_fee_waived, wallet_fee_locked, version, created_at, updated_at)
		VALUES (?, ?, '0', '0', ?, ?, ?, ?, 1, ?, ?)`

	queryGetWallet = `SELECT ` + walletColumns + ` FROM wallets WHERE user_id = ?`

	queryListWallets = `SELECT ` + walletColumns + ` FROM wallets ORDER BY created_at`

	queryListDueWalletFees = `SELECT ` + walletColumns + `
		FROM wallets
		WHERE wallet_fee_processed = ? AND wallet_fee_locked = ?
		  AND wallet_fee_due_at IS NOT NULL AND wallet_fee_due_at <= ?
		ORDER BY wallet_fee_due_at`

	queryUpdateWalletBalances = `
		UPDATE wallets
		SET usd_balance = ?, token_balance = ?, version = version + 1, updated_at = ?
		WHERE user_id = ? AND version = ?`

	// The fee latch: only the first writer observes wallet_fee_processed = false.
	queryResolveWalletFee = `
		UPDATE wallets
		SET wallet_fee_processed = ?, wallet_fee_waived = ?, wallet_fee_locked = ?,
		    version = version + 1, updated_at = ?
		WHERE user_id = ? AND wallet_fee_processed = ?`

	queryLockWalletFee = `
		UPDATE wallets
		SET wallet_fee_locked = ?, version = version + 1, updated_at = ?
		WHERE user_id = ? AND wallet_fee_processed = ?`

	// Supply queries
	queryGetTokenSupply = `
		SELECT total_supply, remaining_supply, user_supply_remaining, admin_reserve, version, updated_at
		FROM token_supply
		WHERE id = 1`

	queryInsertTokenSupply = `
		INSERT INTO token_supply (id, total_supply, remaining_supply, user_supply_remaining, admin_reserve, version, updated_at)
		VALUES (1, ?, ?, ?, ?, 1, ?)
		ON CONFLICT (id) DO NOTHING`

	queryUpdateTokenSupply = `
		UPDATE token_supply
		SET total_supply = ?, remaining_supply = ?, user_supply_remaining = ?, admin_reserve = ?,
		    version = version + 1, updated_at = ?
		WHERE id = 1 AND version = ?`

	// Order queries
	orderColumns = `id, user_id, order_type, amount, limit_price, status, created_at, filled_at`

	queryInsertOrder = `
		INSERT INTO orders (id, user_id, order_type, amount, limit_price, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	queryGetOrder = `SELECT ` + orderColumns + ` FROM orders WHERE id = ?`

	queryListOrdersByStatus = `SELECT ` + orderColumns + `
		FROM orders
		WHERE status = ?
		ORDER BY created_at, id`

	queryTransitionOrder = `
		UPDATE orders
		SET status = ?, filled_at = ?
		WHERE id = ? AND status = ?`

	// Transaction queries
	queryInsertTransaction = `
		INSERT INTO transactions (id, user_id, transaction_type, currency, gross_amount, fee_amount,
			net_amount, counter_amount, price, reference, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	queryGetTransactionHistory = `
		SELECT id, user_id, transaction_type, currency, gross_amount, fee_amount, net_amount,
		       counter_amount, price, reference, status, created_at
		FROM transactions
		WHERE user_id = ?
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?`

	queryListTransactionFees = `
		SELECT transaction_type, currency, fee_amount
		FROM transactions`

	// Referral and stake queries
	referralColumns = `id, referrer_id, referred_id, created_at`

	queryInsertReferral = `
		INSERT INTO referrals (id, referrer_id, referred_id, created_at) VALUES (?, ?, ?, ?)`

	queryGetReferralByReferred = `SELECT ` + referralColumns + ` FROM referrals WHERE referred_id = ?`

	queryListReferralsByReferrer = `SELECT ` + referralColumns + `
		FROM referrals
		WHERE referrer_id = ?
		ORDER BY created_at`

	queryInsertStake = `
		INSERT INTO stakes (id, user_id, amount, created_at) VALUES (?, ?, ?, ?)`

	queryListStakes = `
		SELECT id, user_id, amount, created_at
		FROM stakes
		WHERE user_id = ?
		ORDER BY created_at`
)
