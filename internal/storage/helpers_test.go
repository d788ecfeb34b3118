package storage

import "carparts/internal/config"

func configWith(bucket, accessKey, secretKey string) config.StorageConfig {
	return config.StorageConfig{
		Backend:      "s3",
		Bucket:       bucket,
		Endpoint:     "http://localhost:9000",
		AccessKey:    accessKey,
		SecretKey:    secretKey,
		UsePathStyle: true,
	}
}
