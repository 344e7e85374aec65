package config

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"fithub/services"
	"fithub/utils"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/joho/godotenv"
)

const (
	StorageLocal  = "local"
	StorageRemote = "remote"
)

type Config struct {
	HTTPAddr       string
	AllowedOrigins string

	StorageMode       string
	LocalDB           string
	DatabaseURL       string
	DatabaseSecretARN string

	AdminToken          string
	UploadDir           string
	UploadURL           string
	R2                  utils.R2Config
	MaintenanceInterval time.Duration
	BcryptCost          int

	Policy services.Policy
}

// Load reads .env (if present) and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️ No .env file found, using system env vars")
	}
	return FromEnv(os.LookupEnv)
}

// FromEnv builds the config from lookup. Every invalid value is reported in
// the returned error, not just the first.
func FromEnv(lookup func(string) (string, bool)) (*Config, error) {
	env := &envReader{lookup: lookup}
	p := services.DefaultPolicy

	cfg := &Config{
		HTTPAddr:          env.str("FITHUB_HTTP_ADDR", ":5200"),
		AllowedOrigins:    env.str("ALLOWED_ORIGINS", "*"),
		StorageMode:       strings.ToLower(env.str("FITHUB_STORAGE_MODE", StorageLocal)),
		LocalDB:           env.str("FITHUB_LOCAL_DB", "fithub.db"),
		DatabaseURL:       env.str("DATABASE_URL", ""),
		DatabaseSecretARN: env.str("DATABASE_SECRET_ARN", ""),
		AdminToken:        env.str("FITHUB_ADMIN_TOKEN", ""),
		UploadDir:         env.str("FITHUB_UPLOAD_DIR", "uploads"),
		UploadURL:         env.str("FITHUB_UPLOAD_URL", "/uploads"),
		R2: utils.R2Config{
			AccountID:       env.str("CLOUDFLARE_ACCOUNT_ID", ""),
			AccessKeyID:     env.str("R2_ACCESS_KEY_ID", ""),
			AccessKeySecret: env.str("R2_ACCESS_KEY_SECRET", ""),
			Bucket:          env.str("R2_BUCKET_NAME", ""),
			CDNBaseURL:      env.str("CDN_BASE_URL", ""),
			Endpoint:        env.str("R2_ENDPOINT", ""),
		},
		MaintenanceInterval: env.duration("FITHUB_MAINTENANCE_INTERVAL", time.Hour),
		BcryptCost:          env.int("FITHUB_BCRYPT_COST", 0),

		Policy: services.Policy{
			JoinPoints:         env.int("FITHUB_POINTS_JOIN", p.JoinPoints),
			PhotoCheckInPoints: env.int("FITHUB_POINTS_PHOTO", p.PhotoCheckInPoints),
			VideoCheckInPoints: env.int("FITHUB_POINTS_VIDEO", p.VideoCheckInPoints),
			CancelPenalty:      env.int("FITHUB_CANCEL_PENALTY", p.CancelPenalty),
			CancelThreshold:    env.int("FITHUB_CANCEL_THRESHOLD", p.CancelThreshold),
			SuspensionLength:   env.duration("FITHUB_SUSPENSION", p.SuspensionLength),
			EntryCutoff:        env.duration("FITHUB_ENTRY_CUTOFF", p.EntryCutoff),
			ReminderLead:       env.duration("FITHUB_REMINDER_LEAD", p.ReminderLead),
			MonthlyFee:         env.float("FITHUB_MONTHLY_FEE", p.MonthlyFee),
			FundShare:          env.float("FITHUB_FUND_SHARE", p.FundShare),
			MVPBonus:           env.int("FITHUB_MVP_BONUS", p.MVPBonus),
			MinutesPerPoint:    env.int("FITHUB_MINUTES_PER_POINT", p.MinutesPerPoint),
			HistoryCap:         p.HistoryCap,
			VideoCap:           p.VideoCap,
			NotificationCap:    p.NotificationCap,
			StoryCap:           p.StoryCap,
			ChatCap:            p.ChatCap,
		},
	}

	switch cfg.StorageMode {
	case StorageLocal:
	case StorageRemote:
		if cfg.DatabaseURL == "" && cfg.DatabaseSecretARN == "" {
			env.fail("FITHUB_STORAGE_MODE", "remote mode needs DATABASE_URL or DATABASE_SECRET_ARN")
		}
	default:
		env.fail("FITHUB_STORAGE_MODE", "must be local or remote")
	}
	if cfg.Policy.CancelThreshold <= 0 {
		env.fail("FITHUB_CANCEL_THRESHOLD", "must be positive")
	}
	if cfg.Policy.MinutesPerPoint <= 0 {
		env.fail("FITHUB_MINUTES_PER_POINT", "must be positive")
	}
	if cfg.Policy.FundShare < 0 || cfg.Policy.FundShare > 1 {
		env.fail("FITHUB_FUND_SHARE", "must be between 0 and 1")
	}
	if cfg.MaintenanceInterval <= 0 {
		env.fail("FITHUB_MAINTENANCE_INTERVAL", "must be positive")
	}

	if err := errors.Join(env.errs...); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// R2Enabled reports whether proofs go to R2 instead of the local upload dir.
func (c *Config) R2Enabled() bool {
	return c.R2.Bucket != "" && c.R2.AccessKeyID != "" && c.R2.AccessKeySecret != "" &&
		(c.R2.AccountID != "" || c.R2.Endpoint != "")
}

type secretGetter interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// ResolveDatabaseURL returns DATABASE_URL or builds a DSN from the
// credentials stored in Secrets Manager.
func (c *Config) ResolveDatabaseURL(ctx context.Context) (string, error) {
	if c.DatabaseURL != "" {
		return c.DatabaseURL, nil
	}
	if c.DatabaseSecretARN == "" {
		return "", errors.New("no database configured")
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return "", fmt.Errorf("load aws config: %w", err)
	}
	log.Println("🔑 Fetching database credentials from Secrets Manager")
	return databaseURLFromSecret(ctx, secretsmanager.NewFromConfig(awsCfg), c.DatabaseSecretARN)
}

func databaseURLFromSecret(ctx context.Context, client secretGetter, arn string) (string, error) {
	result, err := client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: &arn,
	})
	if err != nil {
		return "", fmt.Errorf("get secret: %w", err)
	}
	if result.SecretString == nil {
		return "", errors.New("secret has no string value")
	}

	var creds map[string]any
	if err := json.Unmarshal([]byte(*result.SecretString), &creds); err != nil {
		return "", fmt.Errorf("decode secret: %w", err)
	}
	field := func(key, def string) string {
		if v, ok := creds[key]; ok && v != nil {
			return fmt.Sprint(v)
		}
		return def
	}

	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		dsnValue(field("host", "localhost")),
		dsnValue(field("port", "5432")),
		dsnValue(field("username", "")),
		dsnValue(field("password", "")),
		dsnValue(field("dbname", "postgres")),
		dsnValue(field("sslmode", "require")),
	), nil
}

var dsnEscaper = strings.NewReplacer(`\`, `\\`, `'`, `\'`)

// dsnValue quotes a keyword/value connection string value.
func dsnValue(v string) string {
	return "'" + dsnEscaper.Replace(v) + "'"
}

type envReader struct {
	lookup func(string) (string, bool)
	errs   []error
}

func (r *envReader) fail(key, msg string) {
	r.errs = append(r.errs, fmt.Errorf("%s: %s", key, msg))
}

func (r *envReader) raw(key string) (string, bool) {
	v, ok := r.lookup(key)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}

func (r *envReader) str(key, def string) string {
	if v, ok := r.raw(key); ok {
		return v
	}
	return def
}

func (r *envReader) int(key string, def int) int {
	v, ok := r.raw(key)
	if !ok {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		r.fail(key, "must be an integer")
		return def
	}
	return n
}

func (r *envReader) float(key string, def float64) float64 {
	v, ok := r.raw(key)
	if !ok {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		r.fail(key, "must be a number")
		return def
	}
	return f
}

func (r *envReader) duration(key string, def time.Duration) time.Duration {
	v, ok := r.raw(key)
	if !ok {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		r.fail(key, "must be a duration like 30m or 168h")
		return def
	}
	return d
}
