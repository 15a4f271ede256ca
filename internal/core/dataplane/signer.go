// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package dataplane implements the metadata persistence layer the operators
// write their normalized results to. This file implements the URL signer: it
// produces V4 signed GCS URLs using the IAM Credentials API's SignBlob, which
// works on GCP infrastructure without distributing service account keys.
package dataplane

import (
	"context"
	"fmt"
	"time"

	credentials "cloud.google.com/go/iam/credentials/apiv1"
	"cloud.google.com/go/iam/credentials/apiv1/credentialspb"
	"cloud.google.com/go/storage"
)

// IAMURLSigner signs GCS URLs with the identity of a configured service
// account via the IAM Credentials API.
type IAMURLSigner struct {
	storageClient *storage.Client
	iamClient     *credentials.IamCredentialsClient
	signerEmail   string
}

// NewIAMURLSigner creates a signer that signs as the given service account.
func NewIAMURLSigner(storageClient *storage.Client, iamClient *credentials.IamCredentialsClient, signerEmail string) *IAMURLSigner {
	return &IAMURLSigner{
		storageClient: storageClient,
		iamClient:     iamClient,
		signerEmail:   signerEmail,
	}
}

// SignURL generates a time-limited V4 GET URL for the object.
func (s *IAMURLSigner) SignURL(ctx context.Context, bucket string, object string, expires time.Duration) (string, error) {
	opts := &storage.SignedURLOptions{
		Scheme:         storage.SigningSchemeV4,
		Method:         "GET",
		Expires:        time.Now().Add(expires),
		GoogleAccessID: s.signerEmail,
		// SignBytes delegates the signature to the IAM Credentials API, so no
		// private key material is needed locally.
		SignBytes: func(b []byte) ([]byte, error) {
			resp, err := s.iamClient.SignBlob(ctx, &credentialspb.SignBlobRequest{
				Name:    fmt.Sprintf("projects/-/serviceAccounts/%s", s.signerEmail),
				Payload: b,
			})
			if err != nil {
				return nil, fmt.Errorf("IAMClient.SignBlob: %w", err)
			}
			return resp.SignedBlob, nil
		},
	}

	u, err := s.storageClient.Bucket(bucket).SignedURL(object, opts)
	if err != nil {
		return "", fmt.Errorf("Bucket(%q).SignedURL(%q): %w", bucket, object, err)
	}
	return u, nil
}
