package config

import (
	"context"
	"errors"
	"testing"
	"time"

	"fithub/services"

	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envMap(m map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := m[key]
		return v, ok
	}
}

func TestFromEnvDefaults(t *testing.T) {
	cfg, err := FromEnv(envMap(nil))
	require.NoError(t, err)

	assert.Equal(t, ":5200", cfg.HTTPAddr)
	assert.Equal(t, StorageLocal, cfg.StorageMode)
	assert.Equal(t, "fithub.db", cfg.LocalDB)
	assert.Equal(t, time.Hour, cfg.MaintenanceInterval)
	assert.Equal(t, services.DefaultPolicy, cfg.Policy)
	assert.False(t, cfg.R2Enabled())
}

func TestFromEnvOverrides(t *testing.T) {
	cfg, err := FromEnv(envMap(map[string]string{
		"FITHUB_STORAGE_MODE":   "REMOTE",
		"DATABASE_URL":          "postgres://localhost/fithub",
		"FITHUB_POINTS_VIDEO":   "9",
		"FITHUB_SUSPENSION":     "48h",
		"FITHUB_MONTHLY_FEE":    "2.5",
		"R2_BUCKET_NAME":        "proofs",
		"R2_ACCESS_KEY_ID":      "id",
		"R2_ACCESS_KEY_SECRET":  "secret",
		"CLOUDFLARE_ACCOUNT_ID": "acct",
	}))
	require.NoError(t, err)

	assert.Equal(t, StorageRemote, cfg.StorageMode)
	assert.Equal(t, 9, cfg.Policy.VideoCheckInPoints)
	assert.Equal(t, 48*time.Hour, cfg.Policy.SuspensionLength)
	assert.Equal(t, 2.5, cfg.Policy.MonthlyFee)
	assert.True(t, cfg.R2Enabled())
}

func TestFromEnvCollectsErrors(t *testing.T) {
	_, err := FromEnv(envMap(map[string]string{
		"FITHUB_STORAGE_MODE": "cloud",
		"FITHUB_POINTS_JOIN":  "one",
		"FITHUB_ENTRY_CUTOFF": "ten minutes",
		"FITHUB_FUND_SHARE":   "1.5",
	}))
	require.Error(t, err)

	for _, key := range []string{"FITHUB_STORAGE_MODE", "FITHUB_POINTS_JOIN", "FITHUB_ENTRY_CUTOFF", "FITHUB_FUND_SHARE"} {
		assert.Contains(t, err.Error(), key)
	}
}

func TestFromEnvRejectsNonPositiveMinutesPerPoint(t *testing.T) {
	for _, v := range []string{"0", "-5"} {
		_, err := FromEnv(envMap(map[string]string{"FITHUB_MINUTES_PER_POINT": v}))
		require.Error(t, err, v)
		assert.Contains(t, err.Error(), "FITHUB_MINUTES_PER_POINT")
	}
}

func TestRemoteModeNeedsDatabase(t *testing.T) {
	_, err := FromEnv(envMap(map[string]string{"FITHUB_STORAGE_MODE": "remote"}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
}

type fakeSecrets struct {
	value *string
	err   error
	asked string
}

func (f *fakeSecrets) GetSecretValue(_ context.Context, in *secretsmanager.GetSecretValueInput, _ ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error) {
	f.asked = *in.SecretId
	if f.err != nil {
		return nil, f.err
	}
	return &secretsmanager.GetSecretValueOutput{SecretString: f.value}, nil
}

func TestDatabaseURLFromSecret(t *testing.T) {
	secret := `{"host":"db.internal","port":5432,"username":"fithub","password":"pw","dbname":"fithub"}`
	client := &fakeSecrets{value: &secret}

	dsn, err := databaseURLFromSecret(context.Background(), client, "arn:aws:secretsmanager:db")
	require.NoError(t, err)
	assert.Equal(t, "arn:aws:secretsmanager:db", client.asked)
	assert.Equal(t, "host='db.internal' port='5432' user='fithub' password='pw' dbname='fithub' sslmode='require'", dsn)

	_, err = databaseURLFromSecret(context.Background(), &fakeSecrets{err: errors.New("denied")}, "arn")
	assert.ErrorContains(t, err, "denied")

	bad := "not json"
	_, err = databaseURLFromSecret(context.Background(), &fakeSecrets{value: &bad}, "arn")
	assert.Error(t, err)
}

func TestDatabaseURLFromSecretQuotesValues(t *testing.T) {
	secret := `{"host":"db.internal","username":"fithub","password":"p w'd\\x sslmode=disable","dbname":"fithub"}`
	dsn, err := databaseURLFromSecret(context.Background(), &fakeSecrets{value: &secret}, "arn")
	require.NoError(t, err)

	parsed, err := pgconn.ParseConfig(dsn)
	require.NoError(t, err)
	assert.Equal(t, `p w'd\x sslmode=disable`, parsed.Password)
	assert.Equal(t, "fithub", parsed.User)
	assert.Equal(t, "db.internal", parsed.Host)
	assert.NotNil(t, parsed.TLSConfig)
}

func TestResolveDatabaseURLPrefersExplicitURL(t *testing.T) {
	cfg := &Config{DatabaseURL: "postgres://x", DatabaseSecretARN: "arn"}
	dsn, err := cfg.ResolveDatabaseURL(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "postgres://x", dsn)
}
