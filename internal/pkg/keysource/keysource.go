// Package keysource resolves the process-wide field encryption keys at boot.
package keysource

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"payportal/internal/pkg/fieldcrypt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/kms"
)

// Decrypter unwraps a KMS-encrypted data key. *kms.Client satisfies it.
type Decrypter interface {
	Decrypt(ctx context.Context, in *kms.DecryptInput, optFns ...func(*kms.Options)) (*kms.DecryptOutput, error)
}

// Source describes where the keys come from.
type Source struct {
	// DataKey is the base64 32-byte key (DATA_ENC_KEY).
	DataKey string
	// IndexKey is an optional base64 32-byte blind index key (DATA_INDEX_KEY).
	IndexKey string
	// KMSBlob is an optional base64 KMS ciphertext blob wrapping the data key.
	KMSBlob  string
	KMSKeyID string
}

// Keys are the resolved key bytes.
type Keys struct {
	Data  []byte
	Index []byte
}

// Resolve loads the data key (from KMS when a blob is configured, else from
// the plain base64 value) and the index key (configured, else derived).
func Resolve(ctx context.Context, src Source, kmsClient Decrypter) (*Keys, error) {
	var (
		data []byte
		err  error
	)

	if strings.TrimSpace(src.KMSBlob) != "" {
		if kmsClient == nil {
			return nil, fmt.Errorf("%w: KMS blob configured without a KMS client", fieldcrypt.ErrConfiguration)
		}
		data, err = unwrap(ctx, kmsClient, src)
	} else {
		data, err = fieldcrypt.ParseKey(src.DataKey)
	}
	if err != nil {
		return nil, err
	}

	var index []byte
	if strings.TrimSpace(src.IndexKey) != "" {
		index, err = fieldcrypt.ParseKey(src.IndexKey)
	} else {
		index, err = fieldcrypt.DeriveIndexKey(data)
	}
	if err != nil {
		return nil, err
	}

	return &Keys{Data: data, Index: index}, nil
}

// NewKMSClient builds a KMS client from the default AWS credential chain.
func NewKMSClient(ctx context.Context, region string) (*kms.Client, error) {
	opts := []func(*awsconfig.LoadOptions) error{}
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return kms.NewFromConfig(cfg), nil
}

func unwrap(ctx context.Context, client Decrypter, src Source) ([]byte, error) {
	blob, err := base64.StdEncoding.DecodeString(strings.TrimSpace(src.KMSBlob))
	if err != nil {
		return nil, fmt.Errorf("%w: KMS blob is not valid base64", fieldcrypt.ErrConfiguration)
	}

	in := &kms.DecryptInput{CiphertextBlob: blob}
	if src.KMSKeyID != "" {
		in.KeyId = aws.String(src.KMSKeyID)
	}

	out, err := client.Decrypt(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("%w: KMS decrypt: %v", fieldcrypt.ErrConfiguration, err)
	}
	if len(out.Plaintext) != fieldcrypt.KeySize {
		return nil, fmt.Errorf("%w: KMS data key must be %d bytes, got %d",
			fieldcrypt.ErrConfiguration, fieldcrypt.KeySize, len(out.Plaintext))
	}
	return out.Plaintext, nil
}
