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

package api

import (
	"context"
	"errors"
	"fmt"

	"token-settlement-go/internal/billing"
	"token-settlement-go/internal/common"
	"token-settlement-go/internal/matcher"
	"token-settlement-go/internal/metrics"
	"token-settlement-go/internal/pricing"
	"token-settlement-go/internal/store"
	"token-settlement-go/internal/supply"
	"token-settlement-go/internal/trading"
)

// Handler serves the settlement HTTP API
type Handler struct {
	store   store.LedgerStore
	trading *trading.Service
	billing *billing.Service
	matcher *matcher.Matcher
	supply  *supply.Adjuster
	prices  *pricing.Feed
	metrics *metrics.Metrics
}

func NewHandler(services *common.Services) *Handler {
	return &Handler{
		store:   services.DbService,
		trading: services.Trading,
		billing: services.Billing,
		matcher: services.Matcher,
		supply:  services.Supply,
		prices:  services.Prices,
		metrics: services.Metrics,
	}
}

// HealthCheck verifies the store answers and the supply row exists.
func (h *Handler) HealthCheck(ctx context.Context) error {
	_, err := h.store.GetTokenSupply(ctx)
	if errors.Is(err, store.ErrSupplyNotInitialized) {
		return err
	}
	if err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}
	return nil
}
