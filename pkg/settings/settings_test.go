package settings

import (
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFromViperDefaults(t *testing.T) {
	s, err := NewFromViper(viper.New())
	require.NoError(t, err)

	assert.Equal(t, DefaultLLMQAURL, s.LLMQAURL)
	assert.Equal(t, DefaultIngestorURL, s.IngestorURL)
	assert.Equal(t, 3*time.Second, s.NotificationTimeout)
	assert.Equal(t, DriverSQLite, s.Store.Driver)
	assert.NotEmpty(t, s.Store.Path)
}

func TestNewFromViperFlags(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	AddFlags(fs)
	require.NoError(t, fs.Parse([]string{
		"--llm-qa-url", "http://qa.internal:9000",
		"--store-driver", "redis",
		"--redis-db", "3",
		"--notification-timeout", "500ms",
	}))

	v := viper.New()
	require.NoError(t, v.BindPFlags(fs))

	s, err := NewFromViper(v)
	require.NoError(t, err)
	assert.Equal(t, "http://qa.internal:9000", s.LLMQAURL)
	assert.Equal(t, DefaultIngestorURL, s.IngestorURL)
	assert.Equal(t, DriverRedis, s.Store.Driver)
	assert.Equal(t, 3, s.Store.RedisDB)
	assert.Equal(t, 500*time.Millisecond, s.NotificationTimeout)
}

func TestBindEnvReadsUnprefixedVariables(t *testing.T) {
	t.Setenv("LLM_QA_URL", "http://qa.example:8002")
	t.Setenv("DOCQA_INGESTOR_URL", "http://ingest.example:8000")

	v := viper.New()
	require.NoError(t, BindEnv(v, "DOCQA"))

	s, err := NewFromViper(v)
	require.NoError(t, err)
	assert.Equal(t, "http://qa.example:8002", s.LLMQAURL)
	assert.Equal(t, "http://ingest.example:8000", s.IngestorURL)
}

func TestValidate(t *testing.T) {
	s := NewSettings()
	s.LLMQAURL = "ftp://nope"
	assert.Error(t, s.Validate())

	s = NewSettings()
	s.Store.Driver = "mongo"
	assert.Error(t, s.Validate())

	s = NewSettings()
	s.Store.Driver = DriverSQLite
	s.Store.Path = ""
	assert.Error(t, s.Validate())

	s = NewSettings()
	s.Store.Driver = DriverMemory
	assert.NoError(t, s.Validate())
}

func TestValidateStrictURLs(t *testing.T) {
	s := NewSettings()
	s.StrictURLs = true
	assert.Error(t, s.Validate(), "loopback defaults are rejected in strict mode")

	s.LLMQAURL = "https://qa.example.com"
	s.IngestorURL = "https://ingest.example.com"
	assert.NoError(t, s.Validate())

	s.IngestorURL = "http://ingest.example.com"
	assert.Error(t, s.Validate())
}
