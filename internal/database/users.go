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

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"token-settlement-go/internal/models"
	"token-settlement-go/internal/store"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// CreateUser inserts the user and its wallet together. The activation fee is
// scheduled FeeGracePeriod after creation unless the user is fee exempt.
func (s *Service) CreateUser(ctx context.Context, params store.CreateUserParams) (*models.User, *models.Wallet, error) {
	zap.L().Info("Creating user", zap.String("id", params.UserId), zap.String("email", params.Email))

	if params.UserId == "" || params.Email == "" {
		return nil, nil, fmt.Errorf("user id and email are required")
	}

	now := s.now()
	user := &models.User{
		Id:        params.UserId,
		Name:      params.Name,
		Email:     params.Email,
		CreatedAt: now,
		UpdatedAt: now,
	}
	wallet := &models.Wallet{
		Id:                 uuid.New().String(),
		UserId:             params.UserId,
		WalletFeeProcessed: params.FeeExempt,
		Version:            1,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if !params.FeeExempt && params.FeeGracePeriod > 0 {
		dueAt := now.Add(params.FeeGracePeriod)
		wallet.WalletFeeDueAt = &dueAt
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var existing int
	if err := tx.GetContext(ctx, &existing, tx.Rebind(queryCountUsersByIdOrEmail), params.UserId, params.Email); err != nil {
		return nil, nil, fmt.Errorf("unable to check existing users: %w", err)
	}
	if existing > 0 {
		return nil, nil, fmt.Errorf("%w: %s", store.ErrDuplicateUser, params.Email)
	}

	if _, err := tx.ExecContext(ctx, tx.Rebind(queryInsertUser),
		user.Id, user.Name, user.Email, user.CreatedAt, user.UpdatedAt); err != nil {
		if isUniqueViolation(err) {
			return nil, nil, fmt.Errorf("%w: %s", store.ErrDuplicateUser, params.Email)
		}
		zap.L().Error("Failed to insert user", zap.String("email", params.Email), zap.Error(err))
		return nil, nil, fmt.Errorf("unable to insert user: %w", err)
	}

	if _, err := tx.ExecContext(ctx, tx.Rebind(queryInsertWallet),
		wallet.Id, wallet.UserId, wallet.WalletFeeDueAt, wallet.WalletFeeProcessed,
		false, false, wallet.CreatedAt, wallet.UpdatedAt); err != nil {
		zap.L().Error("Failed to insert wallet", zap.String("user_id", params.UserId), zap.Error(err))
		return nil, nil, fmt.Errorf("unable to insert wallet: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	zap.L().Info("User created successfully", zap.String("id", user.Id), zap.String("name", user.Name))
	return user, wallet, nil
}

func (s *Service) GetUserById(ctx context.Context, userId string) (*models.User, error) {
	zap.L().Debug("Querying user by ID", zap.String("user_id", userId))

	var user models.User
	err := sqlx.GetContext(ctx, s.db, &user, s.db.Rebind(queryGetUserById), userId)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", store.ErrUserNotFound, userId)
		}
		zap.L().Error("Failed to query user by ID", zap.String("user_id", userId), zap.Error(err))
		return nil, fmt.Errorf("unable to query user by ID: %w", err)
	}

	return &user, nil
}
