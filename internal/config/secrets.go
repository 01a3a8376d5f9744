package config

import (
	"fmt"
	"os"
	"strings"
)

// Secrets are the credentials the agent reads from the environment.
type Secrets struct {
	DatabaseURL        string
	RedisURL           string
	SlackToken         string
	GitHubToken        string
	AirtableAPIKey     string
	GoogleMapsAPIKey   string
	CheckrAPIKey       string
	DocuSignPrivateKey string
	WebhookToken       string
}

// ApplyEnv reads secrets from the environment. DOCUSIGN_PRIVATE_KEY may
// hold the PEM itself; otherwise the key is read from the configured file.
func (c *Config) ApplyEnv() error {
	s := Secrets{
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		RedisURL:           os.Getenv("REDIS_URL"),
		SlackToken:         os.Getenv("SLACK_TOKEN"),
		GitHubToken:        os.Getenv("GITHUB_TOKEN"),
		AirtableAPIKey:     os.Getenv("AIRTABLE_API_KEY"),
		GoogleMapsAPIKey:   os.Getenv("GOOGLE_MAPS_API_KEY"),
		CheckrAPIKey:       os.Getenv("CHECKR_API_KEY"),
		DocuSignPrivateKey: os.Getenv("DOCUSIGN_PRIVATE_KEY"),
		WebhookToken:       os.Getenv("WEBHOOK_TOKEN"),
	}
	if v := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); v != "" && c.CredentialsFile == "" {
		c.CredentialsFile = v
	}

	if s.DocuSignPrivateKey == "" && c.DocuSign.PrivateKeyFile != "" {
		data, err := os.ReadFile(c.DocuSign.PrivateKeyFile)
		if err != nil {
			return fmt.Errorf("failed to read docusign private key: %w", err)
		}
		s.DocuSignPrivateKey = string(data)
	}
	// Keys pasted into a single-line env var keep literal \n.
	s.DocuSignPrivateKey = strings.ReplaceAll(s.DocuSignPrivateKey, `\n`, "\n")

	c.Secrets = s
	return nil
}

// Require reports the first of names whose secret is empty.
func (s Secrets) Require(names ...string) error {
	values := map[string]string{
		"DATABASE_URL":         s.DatabaseURL,
		"REDIS_URL":            s.RedisURL,
		"SLACK_TOKEN":          s.SlackToken,
		"GITHUB_TOKEN":         s.GitHubToken,
		"AIRTABLE_API_KEY":     s.AirtableAPIKey,
		"GOOGLE_MAPS_API_KEY":  s.GoogleMapsAPIKey,
		"CHECKR_API_KEY":       s.CheckrAPIKey,
		"DOCUSIGN_PRIVATE_KEY": s.DocuSignPrivateKey,
		"WEBHOOK_TOKEN":        s.WebhookToken,
	}
	for _, name := range names {
		v, known := values[name]
		if !known {
			return fmt.Errorf("unknown secret %s", name)
		}
		if v == "" {
			return fmt.Errorf("%s is required but not set", name)
		}
	}
	return nil
}
