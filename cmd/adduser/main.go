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


package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"regexp"

	"token-settlement-go/internal/common"
	"token-settlement-go/internal/config"
	"token-settlement-go/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

func validateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("email cannot be empty")
	}
	if !emailRegex.MatchString(email) {
		return fmt.Errorf("invalid email format: %s", email)
	}
	return nil
}

func validateName(name string) error {
	if name == "" {
		return fmt.Errorf("name cannot be empty")
	}
	if len(name) < 2 {
		return fmt.Errorf("name must be at least 2 characters")
	}
	return nil
}

func main() {
	ctx := context.Background()

	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	// Parse command line flags
	nameFlag := flag.String("name", "", "User's full name (required)")
	emailFlag := flag.String("email", "", "User's email address (required)")
	idFlag := flag.String("id", "", "User id (optional, generated when empty)")
	referrerFlag := flag.String("referrer", "", "Referrer user id (optional)")
	flag.Parse()

	if *nameFlag == "" || *emailFlag == "" {
		zap.L().Fatal("Both flags are required: --name and --email")
	}
	if err := validateName(*nameFlag); err != nil {
		zap.L().Fatal("Invalid name", zap.Error(err))
	}
	if err := validateEmail(*emailFlag); err != nil {
		zap.L().Fatal("Invalid email", zap.Error(err))
	}

	cfg, err := config.Load()
	if err != nil {
		zap.L().Fatal("Failed to load config", zap.Error(err))
	}

	services, err := common.InitializeServices(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to initialize services", zap.Error(err))
	}
	defer services.Close()

	userId := *idFlag
	if userId == "" {
		userId = uuid.New().String()
	}

	zap.L().Info("Creating user",
		zap.String("id", userId),
		zap.String("name", *nameFlag),
		zap.String("email", *emailFlag))

	user, wallet, err := services.Billing.RegisterUser(ctx, userId, *nameFlag, *emailFlag)
	if errors.Is(err, store.ErrDuplicateUser) {
		zap.L().Fatal("User already exists with this id or email",
			zap.String("id", userId),
			zap.String("email", *emailFlag))
	}
	if err != nil {
		zap.L().Fatal("Failed to create user", zap.Error(err))
	}

	fmt.Println()
	common.PrintHeader("USER CREATED", common.DefaultWidth)
	fmt.Printf("ID:         %s\n", user.Id)
	fmt.Printf("Name:       %s\n", user.Name)
	fmt.Printf("Email:      %s\n", user.Email)
	fmt.Printf("Wallet fee: %s\n", common.FormatDue(wallet.WalletFeeDueAt))

	if *referrerFlag != "" {
		referral, err := services.Billing.CreateReferral(ctx, *referrerFlag, user.Id)
		if err != nil {
			zap.L().Error("User created but referral was rejected",
				zap.String("referrer_id", *referrerFlag),
				zap.Error(err))
			fmt.Printf("Referral:   rejected (%v)\n", err)
		} else {
			fmt.Printf("Referral:   %s (referred by %s)\n", common.ShortId(referral.Id), referral.ReferrerId)
		}
	}
	common.PrintSeparator("=", common.DefaultWidth)
	fmt.Println()

	zap.L().Info("User created successfully", zap.String("id", user.Id))
}
