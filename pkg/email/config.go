package email

// Config holds email transport configuration. Without Postmark tokens the
// sender falls back to writing messages to DevDir, or to the log when DevDir
// is empty.
type Config struct {
	PostmarkServerToken  string `env:"POSTMARK_SERVER_TOKEN"`
	PostmarkAccountToken string `env:"POSTMARK_ACCOUNT_TOKEN"`
	SenderEmail          string `env:"SENDER_EMAIL" envDefault:"no-reply@ordergate.local"`
	SupportEmail         string `env:"SUPPORT_EMAIL" envDefault:"support@ordergate.local"`
	DevDir               string `env:"EMAIL_DEV_DIR"`
}

// UsePostmark reports whether both Postmark tokens are configured.
func (c Config) UsePostmark() bool {
	return c.PostmarkServerToken != "" && c.PostmarkAccountToken != ""
}
