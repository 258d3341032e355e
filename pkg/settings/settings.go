package settings

import (
	"os"
	"path/filepath"
	"time"

	"github.com/go-go-golems/docqa/pkg/security"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	DefaultLLMQAURL            = "http://127.0.0.1:8002"
	DefaultIngestorURL         = "http://127.0.0.1:8000"
	DefaultHTTPTimeout         = 5 * time.Minute
	DefaultNotificationTimeout = 3 * time.Second

	DriverMemory = "memory"
	DriverSQLite = "sqlite"
	DriverRedis  = "redis"
)

// Keys of the settings, shared by flags, config files and the environment.
const (
	KeyLLMQAURL            = "llm-qa-url"
	KeyIngestorURL         = "ingestor-url"
	KeyHTTPTimeout         = "http-timeout"
	KeyNotificationTimeout = "notification-timeout"
	KeyStrictURLs          = "strict-urls"
	KeyStoreDriver         = "store-driver"
	KeyStorePath           = "store-path"
	KeyRedisAddr           = "redis-addr"
	KeyRedisPassword       = "redis-password"
	KeyRedisDB             = "redis-db"
	KeyRedisPrefix         = "redis-prefix"
)

type StoreSettings struct {
	Driver        string `yaml:"driver"`
	Path          string `yaml:"path,omitempty"`
	RedisAddr     string `yaml:"redis-addr,omitempty"`
	RedisPassword string `yaml:"-"`
	RedisDB       int    `yaml:"redis-db,omitempty"`
	RedisPrefix   string `yaml:"redis-prefix,omitempty"`
}

type Settings struct {
	LLMQAURL            string        `yaml:"llm-qa-url"`
	IngestorURL         string        `yaml:"ingestor-url"`
	HTTPTimeout         time.Duration `yaml:"http-timeout"`
	NotificationTimeout time.Duration `yaml:"notification-timeout"`
	// StrictURLs requires https towards public hosts for both services.
	StrictURLs bool          `yaml:"strict-urls"`
	Store      StoreSettings `yaml:"store"`
}

func DefaultStorePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		// fallback to current directory if home dir cannot be determined
		homeDir = "."
	}
	return filepath.Join(homeDir, ".docqa", "conversations.db")
}

func NewSettings() *Settings {
	return &Settings{
		LLMQAURL:            DefaultLLMQAURL,
		IngestorURL:         DefaultIngestorURL,
		HTTPTimeout:         DefaultHTTPTimeout,
		NotificationTimeout: DefaultNotificationTimeout,
		Store: StoreSettings{
			Driver:      DriverSQLite,
			Path:        DefaultStorePath(),
			RedisAddr:   "127.0.0.1:6379",
			RedisPrefix: "docqa:",
		},
	}
}

// AddFlags registers the settings as persistent flags, with their defaults.
func AddFlags(fs *pflag.FlagSet) {
	d := NewSettings()
	fs.String(KeyLLMQAURL, d.LLMQAURL, "Base URL of the question-answering service")
	fs.String(KeyIngestorURL, d.IngestorURL, "Base URL of the document ingestion service")
	fs.Duration(KeyHTTPTimeout, d.HTTPTimeout, "Timeout of a single request to the remote services")
	fs.Duration(KeyNotificationTimeout, d.NotificationTimeout, "How long notifications stay visible")
	fs.Bool(KeyStrictURLs, false, "Require https and public hosts for the service URLs")
	fs.String(KeyStoreDriver, d.Store.Driver, "Conversation store driver (memory, sqlite, redis)")
	fs.String(KeyStorePath, d.Store.Path, "Path of the sqlite conversation database")
	fs.String(KeyRedisAddr, d.Store.RedisAddr, "Address of the redis server")
	fs.String(KeyRedisPassword, "", "Password of the redis server")
	fs.Int(KeyRedisDB, 0, "Redis database number")
	fs.String(KeyRedisPrefix, d.Store.RedisPrefix, "Prefix of the redis keys")
}

// BindEnv makes the service locations also readable from the unprefixed
// variables the QA deployment uses (LLM_QA_URL, INGESTOR_URL).
func BindEnv(v *viper.Viper, envPrefix string) error {
	bindings := map[string][]string{
		KeyLLMQAURL:    {envPrefix + "_LLM_QA_URL", "LLM_QA_URL"},
		KeyIngestorURL: {envPrefix + "_INGESTOR_URL", "INGESTOR_URL"},
	}
	for key, envs := range bindings {
		args := append([]string{key}, envs...)
		if err := v.BindEnv(args...); err != nil {
			return errors.Wrapf(err, "bind env for %s", key)
		}
	}
	return nil
}

func NewFromViper(v *viper.Viper) (*Settings, error) {
	s := NewSettings()

	if v.IsSet(KeyLLMQAURL) {
		s.LLMQAURL = v.GetString(KeyLLMQAURL)
	}
	if v.IsSet(KeyIngestorURL) {
		s.IngestorURL = v.GetString(KeyIngestorURL)
	}
	if v.IsSet(KeyHTTPTimeout) {
		s.HTTPTimeout = v.GetDuration(KeyHTTPTimeout)
	}
	if v.IsSet(KeyNotificationTimeout) {
		s.NotificationTimeout = v.GetDuration(KeyNotificationTimeout)
	}
	if v.IsSet(KeyStrictURLs) {
		s.StrictURLs = v.GetBool(KeyStrictURLs)
	}
	if v.IsSet(KeyStoreDriver) {
		s.Store.Driver = v.GetString(KeyStoreDriver)
	}
	if v.IsSet(KeyStorePath) {
		s.Store.Path = v.GetString(KeyStorePath)
	}
	if v.IsSet(KeyRedisAddr) {
		s.Store.RedisAddr = v.GetString(KeyRedisAddr)
	}
	if v.IsSet(KeyRedisPassword) {
		s.Store.RedisPassword = v.GetString(KeyRedisPassword)
	}
	if v.IsSet(KeyRedisDB) {
		s.Store.RedisDB = v.GetInt(KeyRedisDB)
	}
	if v.IsSet(KeyRedisPrefix) {
		s.Store.RedisPrefix = v.GetString(KeyRedisPrefix)
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Settings) Validate() error {
	urlOpts := security.LocalServices
	if s.StrictURLs {
		urlOpts = security.Strict
	}
	for key, raw := range map[string]string{KeyLLMQAURL: s.LLMQAURL, KeyIngestorURL: s.IngestorURL} {
		if err := security.ValidateServiceURL(raw, urlOpts); err != nil {
			return errors.Wrapf(err, "invalid %s", key)
		}
	}
	if s.HTTPTimeout < 0 {
		return errors.Errorf("invalid %s: must not be negative", KeyHTTPTimeout)
	}
	if s.NotificationTimeout <= 0 {
		return errors.Errorf("invalid %s: must be positive", KeyNotificationTimeout)
	}

	switch s.Store.Driver {
	case DriverMemory:
	case DriverSQLite:
		if s.Store.Path == "" {
			return errors.Errorf("%s must be set for the sqlite driver", KeyStorePath)
		}
	case DriverRedis:
		if s.Store.RedisAddr == "" {
			return errors.Errorf("%s must be set for the redis driver", KeyRedisAddr)
		}
	default:
		return errors.Errorf("unknown %s %q", KeyStoreDriver, s.Store.Driver)
	}
	return nil
}
