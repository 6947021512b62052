package keysource

import (
	"context"
	"strings"

	"payportal/internal/config"
	"payportal/internal/pkg/fieldcrypt"
)

// Open resolves the configured keys and builds the field cipher and blind
// indexer. A KMS client is created only when a wrapped key blob is set.
func Open(ctx context.Context, cfg config.CryptoConfig) (*fieldcrypt.Cipher, *fieldcrypt.Indexer, error) {
	var client Decrypter
	if strings.TrimSpace(cfg.KMSBlob) != "" {
		c, err := NewKMSClient(ctx, cfg.AWSRegion)
		if err != nil {
			return nil, nil, err
		}
		client = c
	}

	keys, err := Resolve(ctx, Source{
		DataKey:  cfg.DataKey,
		IndexKey: cfg.IndexKey,
		KMSBlob:  cfg.KMSBlob,
		KMSKeyID: cfg.KMSKeyID,
	}, client)
	if err != nil {
		return nil, nil, err
	}

	cipher, err := fieldcrypt.New(keys.Data)
	if err != nil {
		return nil, nil, err
	}
	indexer, err := fieldcrypt.NewIndexer(keys.Index)
	if err != nil {
		return nil, nil, err
	}
	return cipher, indexer, nil
}
