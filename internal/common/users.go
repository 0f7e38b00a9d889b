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


package common

import (
	"context"
	"errors"
	"fmt"

	"token-settlement-go/internal/models"
	"token-settlement-go/internal/store"

	"go.uber.org/zap"
)

const (
	adminName  = "Treasury"
	adminEmail = "treasury@localhost"
)

// EnsureAdmin returns the admin user that collects every fee, creating it
// with a fee-exempt wallet on first use.
func EnsureAdmin(ctx context.Context, dbService store.LedgerStore, adminUserId string) (*models.User, error) {
	if adminUserId == "" {
		return nil, fmt.Errorf("admin user id is required")
	}

	user, err := dbService.GetUserById(ctx, adminUserId)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, store.ErrUserNotFound) {
		return nil, fmt.Errorf("failed to look up admin user: %w", err)
	}

	user, _, err = dbService.CreateUser(ctx, store.CreateUserParams{
		UserId:    adminUserId,
		Name:      adminName,
		Email:     adminEmail,
		FeeExempt: true,
	})
	if errors.Is(err, store.ErrDuplicateUser) {
		return dbService.GetUserById(ctx, adminUserId)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create admin user: %w", err)
	}

	zap.L().Info("Admin wallet created", zap.String("user_id", user.Id))
	return user, nil
}
