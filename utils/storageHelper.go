package utils

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

type SignedDownload struct {
	ObjectKey   string    `json:"objectKey"`
	DownloadURL string    `json:"downloadUrl"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

type serviceAccountJSON struct {
	ClientEmail string `json:"client_email"`
	PrivateKey  string `json:"private_key"`
}

func storageClient(ctx context.Context) (*storage.Client, error) {
	credJSON := strings.TrimSpace(os.Getenv("GCS_CREDENTIALS_JSON"))
	if credJSON != "" {
		return storage.NewClient(ctx, option.WithCredentialsJSON([]byte(credJSON)))
	}
	// Application Default Credentials (Cloud Run service account).
	return storage.NewClient(ctx)
}

// UploadObjectToGCS writes data to GCS_BUCKET under objectKey.
func UploadObjectToGCS(ctx context.Context, objectKey string, contentType string, data []byte) error {
	bucket := strings.TrimSpace(os.Getenv("GCS_BUCKET"))
	if bucket == "" {
		return errors.New("GCS_BUCKET is required")
	}

	client, err := storageClient(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	w := client.Bucket(bucket).Object(objectKey).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return err
	}
	return w.Close()
}

// SignDownload returns a V4 signed GET URL for an object previously uploaded
// with UploadObjectToGCS. Requires a signer identity in env:
// - GCS_CREDENTIALS_JSON (full service account JSON), or
// - GCS_SIGNER_EMAIL + GCS_SIGNER_PRIVATE_KEY
func SignDownload(objectKey string, expires time.Duration) (*SignedDownload, error) {
	bucket := strings.TrimSpace(os.Getenv("GCS_BUCKET"))
	if bucket == "" {
		return nil, errors.New("GCS_BUCKET is required")
	}

	accessID, privateKey, err := loadSignerFromEnv()
	if err != nil {
		return nil, err
	}

	opts := &storage.SignedURLOptions{
		Scheme:         storage.SigningSchemeV4,
		Method:         "GET",
		Expires:        time.Now().Add(expires),
		GoogleAccessID: accessID,
		PrivateKey:     privateKey,
	}

	signedURL, err := storage.SignedURL(bucket, objectKey, opts)
	if err != nil {
		return nil, err
	}

	return &SignedDownload{
		ObjectKey:   objectKey,
		DownloadURL: signedURL,
		ExpiresAt:   opts.Expires,
	}, nil
}

func loadSignerFromEnv() (string, []byte, error) {
	credJSON := strings.TrimSpace(os.Getenv("GCS_CREDENTIALS_JSON"))
	if credJSON != "" {
		var key serviceAccountJSON
		if err := json.Unmarshal([]byte(credJSON), &key); err != nil {
			return "", nil, fmt.Errorf("invalid GCS_CREDENTIALS_JSON: %w", err)
		}
		if key.ClientEmail == "" || key.PrivateKey == "" {
			return "", nil, errors.New("GCS_CREDENTIALS_JSON missing client_email or private_key")
		}
		return key.ClientEmail, normalizePrivateKey(key.PrivateKey), nil
	}

	email := strings.TrimSpace(os.Getenv("GCS_SIGNER_EMAIL"))
	privateKey := strings.TrimSpace(os.Getenv("GCS_SIGNER_PRIVATE_KEY"))
	if email == "" || privateKey == "" {
		return "", nil, errors.New("GCS signer credentials are required")
	}
	return email, normalizePrivateKey(privateKey), nil
}

func normalizePrivateKey(key string) []byte {
	key = strings.ReplaceAll(key, "\\n", "\n")
	return []byte(key)
}
