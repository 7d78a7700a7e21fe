// Copyright 2026 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package credential

import (
	"context"
	"fmt"
	"os"
	"time"

	"aml-pipeline/pkg/logging"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"golang.org/x/oauth2"
)

// Source names where an access token comes from.
type Source string

const (
	Default         Source = "default"
	CLI             Source = "cli"
	Environment     Source = "environment"
	ManagedIdentity Source = "managed-identity"
	StaticToken     Source = "token"
)

// TokenEnvVar holds a pre-issued bearer token for the StaticToken source.
const TokenEnvVar = "AZUREML_ACCESS_TOKEN"

// Sources lists every supported source, in the order they are documented.
func Sources() []string {
	return []string{string(Default), string(CLI), string(Environment), string(ManagedIdentity), string(StaticToken)}
}

// New returns a token credential for the given source.
func New(source Source) (azcore.TokenCredential, error) {
	logging.Debug("Acquiring credential from source %q", source)
	var (
		cred azcore.TokenCredential
		err  error
	)
	switch source {
	case Default, "":
		cred, err = azidentity.NewDefaultAzureCredential(nil)
	case CLI:
		cred, err = azidentity.NewAzureCLICredential(nil)
	case Environment:
		cred, err = azidentity.NewEnvironmentCredential(nil)
	case ManagedIdentity:
		cred, err = azidentity.NewManagedIdentityCredential(nil)
	case StaticToken:
		token := os.Getenv(TokenEnvVar)
		if token == "" {
			return nil, fmt.Errorf("credential source %q requires %s to be set", source, TokenEnvVar)
		}
		return FromTokenSource(oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"})), nil
	default:
		return nil, fmt.Errorf("unknown credential source %q", source)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create %s credential: %w", source, err)
	}
	return cred, nil
}

// FromTokenSource adapts an oauth2.TokenSource to azcore.TokenCredential.
// Requested scopes are ignored; the token source decides what it issues.
func FromTokenSource(ts oauth2.TokenSource) azcore.TokenCredential {
	return &tokenSourceCredential{ts: ts}
}

type tokenSourceCredential struct {
	ts oauth2.TokenSource
}

func (c *tokenSourceCredential) GetToken(_ context.Context, _ policy.TokenRequestOptions) (azcore.AccessToken, error) {
	tok, err := c.ts.Token()
	if err != nil {
		return azcore.AccessToken{}, fmt.Errorf("failed to obtain token: %w", err)
	}
	expiry := tok.Expiry
	if expiry.IsZero() {
		// static tokens carry no expiry; keep the bearer policy from refreshing on every request
		expiry = time.Now().Add(time.Hour)
	}
	return azcore.AccessToken{Token: tok.AccessToken, ExpiresOn: expiry}, nil
}
