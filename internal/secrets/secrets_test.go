package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSecrets(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".secrets.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadFullFile(t *testing.T) {
	path := writeSecrets(t, `{
		"AWS_ACCESS_KEY_ID": "AKIA123",
		"AWS_SECRET_ACCESS_KEY": "shh",
		"AWS_S3_BUCKET_NAME": "my-bucket",
		"ENCRYPTION_KEY": "super-secret",
		"OURA_ACCESS_TOKEN": "oura-token",
		"GSHEET_CSV_URL": "https://docs.google.com/spreadsheets/d/abc/pub?output=csv"
	}`)

	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "AKIA123", s.AWSAccessKeyID)
	assert.Equal(t, "oura-token", s.OuraAccessToken)
	assert.Empty(t, s.GarminAccessToken, "absent keys stay empty")
}

func TestLoadPartialFileIsValid(t *testing.T) {
	path := writeSecrets(t, `{"OURA_ACCESS_TOKEN": "only-oura"}`)

	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "only-oura", s.OuraAccessToken)
}

func TestLoadRejectsBadSheetURL(t *testing.T) {
	path := writeSecrets(t, `{"GSHEET_CSV_URL": "not a url"}`)

	_, err := Load(path)
	require.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
}

func TestLoadCorruptFile(t *testing.T) {
	path := writeSecrets(t, `{"OURA_ACCESS_TOKEN":`)

	_, err := Load(path)
	require.Error(t, err)
}

func TestValidateOnline(t *testing.T) {
	full := &Secrets{
		AWSAccessKeyID:     "AKIA123",
		AWSSecretAccessKey: "shh",
		AWSS3BucketName:    "my-bucket",
		EncryptionKey:      "super-secret",
	}
	require.NoError(t, full.ValidateOnline())

	missingBucket := *full
	missingBucket.AWSS3BucketName = ""
	require.Error(t, missingBucket.ValidateOnline())

	require.Error(t, (&Secrets{}).ValidateOnline())
}

func TestStringRedacts(t *testing.T) {
	s := &Secrets{AWSSecretAccessKey: "do-not-print"}

	out := fmt.Sprintf("%v %s", s, s)
	assert.NotContains(t, out, "do-not-print")
}
