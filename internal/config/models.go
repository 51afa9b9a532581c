package config

import "time"

// ServerConfig represents the configuration for the HTTP front end
type ServerConfig struct {
	ListenAddress   string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	MaxMessageBytes int64
}

// ArtifactsConfig represents where the pre-fitted artifacts live
type ArtifactsConfig struct {
	VectorizerPath   string
	ModelPath        string
	VectorizerSHA256 string
	ModelSHA256      string
	S3Region         string
}

// DatabaseConfig represents the configuration for the history backend
type DatabaseConfig struct {
	URL            string
	ConnectTimeout time.Duration
}

// SMTPConfig represents the configuration for the SMTP content filter
type SMTPConfig struct {
	Enabled            bool
	ListenAddress      string
	BlockSpam          bool
	RecordHistory      bool
	MaxBodySize        int
	StatusHeader       string
	LabelHeader        string
	ProcessingIDHeader string
	ModifySubject      bool
	SubjectPrefix      string
	PostfixEnabled     bool
	PostfixAddress     string
	PostfixPort        int
	WhitelistedDomains []string
}

// GetServer returns the HTTP server configuration
func (c *Config) GetServer() ServerConfig {
	return ServerConfig{
		ListenAddress:   c.GetString("server.listen_address"),
		ReadTimeout:     c.durationOr("server.read_timeout", 15*time.Second),
		WriteTimeout:    c.durationOr("server.write_timeout", 30*time.Second),
		IdleTimeout:     c.durationOr("server.idle_timeout", 120*time.Second),
		ShutdownTimeout: c.durationOr("server.shutdown_timeout", 30*time.Second),
		MaxMessageBytes: int64(c.GetInt("server.max_message_bytes")),
	}
}

// GetArtifacts returns the artifact configuration
func (c *Config) GetArtifacts() ArtifactsConfig {
	return ArtifactsConfig{
		VectorizerPath:   c.GetString("artifacts.vectorizer_path"),
		ModelPath:        c.GetString("artifacts.model_path"),
		VectorizerSHA256: c.GetString("artifacts.vectorizer_sha256"),
		ModelSHA256:      c.GetString("artifacts.model_sha256"),
		S3Region:         c.GetString("artifacts.s3_region"),
	}
}

// GetDatabase returns the history backend configuration
func (c *Config) GetDatabase() DatabaseConfig {
	return DatabaseConfig{
		URL:            c.GetString("database.url"),
		ConnectTimeout: c.durationOr("database.connect_timeout", 5*time.Second),
	}
}

// GetHistoryLimit returns how many history records are shown and kept in memory
func (c *Config) GetHistoryLimit() int {
	limit := c.GetInt("history.limit")
	if limit <= 0 {
		return 20
	}
	return limit
}

// GetSMTP returns the SMTP content filter configuration
func (c *Config) GetSMTP() SMTPConfig {
	return SMTPConfig{
		Enabled:            c.GetBool("smtp.enabled"),
		ListenAddress:      c.GetString("smtp.listen_address"),
		BlockSpam:          c.GetBool("smtp.block_spam"),
		RecordHistory:      c.GetBool("smtp.record_history"),
		MaxBodySize:        c.GetInt("smtp.max_body_size"),
		StatusHeader:       c.GetString("smtp.headers.status"),
		LabelHeader:        c.GetString("smtp.headers.label"),
		ProcessingIDHeader: c.GetString("smtp.headers.processing_id"),
		ModifySubject:      c.GetBool("smtp.modify_subject"),
		SubjectPrefix:      c.GetString("smtp.subject_prefix"),
		PostfixEnabled:     c.GetBool("smtp.postfix.enabled"),
		PostfixAddress:     c.GetString("smtp.postfix.address"),
		PostfixPort:        c.GetInt("smtp.postfix.port"),
		WhitelistedDomains: c.GetStringSlice("smtp.whitelisted_domains"),
	}
}

func (c *Config) durationOr(key string, fallback time.Duration) time.Duration {
	d, err := c.GetDuration(key)
	if err != nil {
		return fallback
	}
	return d
}
