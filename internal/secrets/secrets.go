// Package secrets loads per-service credentials from a JSON file.
// Key names match the original `.secrets.json` layout so the same file keeps
// working across tooling.
package secrets

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Secrets holds every credential the connectors and stores need. Connector
// credentials are optional; an unconfigured connector fails its fetch and is
// skipped, it does not abort the run.
type Secrets struct {
	// Remote store. Required together when online mode is used.
	AWSAccessKeyID     string `json:"AWS_ACCESS_KEY_ID"`
	AWSSecretAccessKey string `json:"AWS_SECRET_ACCESS_KEY"`
	AWSS3BucketName    string `json:"AWS_S3_BUCKET_NAME"`
	EncryptionKey      string `json:"ENCRYPTION_KEY"`

	OuraAccessToken string `json:"OURA_ACCESS_TOKEN"`

	GarminAccessToken string `json:"GARMIN_ACCESS_TOKEN"`

	StravaClientID     string `json:"STRAVA_CLIENT_ID"`
	StravaClientSecret string `json:"STRAVA_CLIENT_SECRET"`

	CronometerSessionNonce string `json:"CRONOMETER_SESSION_NONCE"`

	GSheetCSVURL string `json:"GSHEET_CSV_URL" validate:"omitempty,url"`
}

// Load reads and validates the secrets file.
func Load(path string) (*Secrets, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read secrets file %s: %w", path, err)
	}

	var s Secrets
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode secrets file %s: %w", path, err)
	}
	if err := validate.Struct(s); err != nil {
		return nil, fmt.Errorf("invalid secrets file %s: %w", path, err)
	}
	return &s, nil
}

// ValidateOnline checks that everything online mode needs is present.
func (s *Secrets) ValidateOnline() error {
	type onlineFields struct {
		AccessKey string `validate:"required"`
		SecretKey string `validate:"required"`
		Bucket    string `validate:"required"`
		EncKey    string `validate:"required"`
	}
	err := validate.Struct(onlineFields{
		AccessKey: s.AWSAccessKeyID,
		SecretKey: s.AWSSecretAccessKey,
		Bucket:    s.AWSS3BucketName,
		EncKey:    s.EncryptionKey,
	})
	if err != nil {
		return fmt.Errorf("online mode needs AWS credentials, bucket and encryption key: %w", err)
	}
	return nil
}

// String redacts everything. Secrets must never end up in logs.
func (s *Secrets) String() string {
	return "secrets{redacted}"
}
