// Package config provides configuration loading and validation for the
// hiring agent.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/jonathan/hiring-agent/internal/envelope"
	"github.com/jonathan/hiring-agent/internal/phone"
)

// Role maps an open position to the spreadsheet its form writes into.
type Role struct {
	Name      string `json:"name" yaml:"name" validate:"required"`
	SheetID   string `json:"sheet_id" yaml:"sheet_id" validate:"required"`
	CompanyID int    `json:"company_id,omitempty" yaml:"company_id,omitempty"`
}

// DocuSign holds the e-signature account settings.
type DocuSign struct {
	BaseURL            string  `json:"base_url" yaml:"base_url" validate:"omitempty,url"`
	AuthURL            string  `json:"auth_url" yaml:"auth_url" validate:"omitempty,url"`
	AccountID          string  `json:"account_id" yaml:"account_id"`
	IntegrationID      string  `json:"integration_id" yaml:"integration_id"`
	UserID             string  `json:"user_id" yaml:"user_id"`
	PrivateKeyFile     string  `json:"private_key_file,omitempty" yaml:"private_key_file,omitempty"`
	OfferTemplate      string  `json:"offer_template" yaml:"offer_template"`
	AgreementsTemplate string  `json:"agreements_template" yaml:"agreements_template"`
	RequestsPerSecond  float64 `json:"requests_per_second,omitempty" yaml:"requests_per_second,omitempty" validate:"gte=0"`
}

// Config represents the hiring agent configuration file. Secrets are not
// read from the file; see ApplyEnv.
type Config struct {
	Company    string `json:"company" yaml:"company" validate:"required"`
	Roles      []Role `json:"roles" yaml:"roles" validate:"dive"`
	SheetRange string `json:"sheet_range" yaml:"sheet_range"`

	// FormTimezone is the IANA zone of the timestamps the forms write.
	FormTimezone string `json:"form_timezone" yaml:"form_timezone"`

	PhoneHeuristics []phone.Heuristic `json:"phone_heuristics,omitempty" yaml:"phone_heuristics,omitempty" validate:"dive"`

	Officer   envelope.Signer `json:"officer" yaml:"officer"`
	HR        envelope.Signer `json:"hr" yaml:"hr"`
	DocuSign  DocuSign        `json:"docusign" yaml:"docusign"`
	DriveName string          `json:"drive_name" yaml:"drive_name"`

	SlackChannel string `json:"slack_channel" yaml:"slack_channel"`

	IssueRepo     string   `json:"issue_repo" yaml:"issue_repo" validate:"omitempty,contains=/"`
	IssueAssignee string   `json:"issue_assignee,omitempty" yaml:"issue_assignee,omitempty"`
	IssueGroups   []string `json:"issue_groups,omitempty" yaml:"issue_groups,omitempty"`

	CheckrBaseURL string `json:"checkr_base_url,omitempty" yaml:"checkr_base_url,omitempty" validate:"omitempty,url"`

	AirtableBaseID string `json:"airtable_base_id" yaml:"airtable_base_id"`

	MaxConcurrentExtractions int64  `json:"max_concurrent_extractions,omitempty" yaml:"max_concurrent_extractions,omitempty" validate:"gte=0"`
	Schedule                 string `json:"schedule" yaml:"schedule"`
	ListenAddr               string `json:"listen_addr" yaml:"listen_addr"`
	LockFile                 string `json:"lock_file,omitempty" yaml:"lock_file,omitempty"`

	CredentialsFile string `json:"credentials_file,omitempty" yaml:"credentials_file,omitempty"`

	Secrets Secrets `json:"-" yaml:"-"`
}

// Defaults returns the values used for anything the file leaves empty.
func Defaults() Config {
	return Config{
		SheetRange:               "Form Responses 1!A1:Z",
		FormTimezone:             "America/Los_Angeles",
		PhoneHeuristics:          phone.DefaultHeuristics,
		DriveName:                "Hiring",
		SlackChannel:             "#hiring",
		MaxConcurrentExtractions: 2,
		Schedule:                 "@every 15m",
		ListenAddr:               ":8080",
		LockFile:                 filepath.Join(os.TempDir(), "hiring-agent.lock"),
		DocuSign: DocuSign{
			BaseURL:            "https://na3.docusign.net/restapi",
			AuthURL:            "https://account.docusign.com",
			OfferTemplate:      "Employee Offer Letter",
			AgreementsTemplate: "Employee Agreements: Mediation, PIIA",
			RequestsPerSecond:  5,
		},
	}
}

// LoadConfig loads configuration from a JSON or YAML file, chosen by
// extension.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	// Resolve path relative to current directory if not absolute
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config YAML: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config JSON: %w", err)
		}
	}

	return &cfg, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks that the configuration has valid values.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("config error: '%s' failed '%s' validation", fe.Namespace(), fe.Tag())
		}
		return fmt.Errorf("config error: %w", err)
	}

	seen := make(map[string]bool, len(c.Roles))
	for _, r := range c.Roles {
		if seen[r.SheetID] {
			return fmt.Errorf("config error: sheet %s is mapped to more than one role", r.SheetID)
		}
		seen[r.SheetID] = true
	}

	if _, err := c.Location(); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	return nil
}

// MergeWithDefaults returns a new Config with empty fields filled from
// defaults.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	if result.SheetRange == "" {
		result.SheetRange = defaults.SheetRange
	}
	if result.FormTimezone == "" {
		result.FormTimezone = defaults.FormTimezone
	}
	if len(result.PhoneHeuristics) == 0 {
		result.PhoneHeuristics = defaults.PhoneHeuristics
	}
	if result.DriveName == "" {
		result.DriveName = defaults.DriveName
	}
	if result.SlackChannel == "" {
		result.SlackChannel = defaults.SlackChannel
	}
	if result.MaxConcurrentExtractions == 0 {
		result.MaxConcurrentExtractions = defaults.MaxConcurrentExtractions
	}
	if result.Schedule == "" {
		result.Schedule = defaults.Schedule
	}
	if result.ListenAddr == "" {
		result.ListenAddr = defaults.ListenAddr
	}
	if result.LockFile == "" {
		result.LockFile = defaults.LockFile
	}

	ds := &result.DocuSign
	if ds.BaseURL == "" {
		ds.BaseURL = defaults.DocuSign.BaseURL
	}
	if ds.AuthURL == "" {
		ds.AuthURL = defaults.DocuSign.AuthURL
	}
	if ds.OfferTemplate == "" {
		ds.OfferTemplate = defaults.DocuSign.OfferTemplate
	}
	if ds.AgreementsTemplate == "" {
		ds.AgreementsTemplate = defaults.DocuSign.AgreementsTemplate
	}
	if ds.RequestsPerSecond == 0 {
		ds.RequestsPerSecond = defaults.DocuSign.RequestsPerSecond
	}

	return result
}

// Location returns the zone of form timestamps.
func (c *Config) Location() (*time.Location, error) {
	if c.FormTimezone == "" {
		return time.FixedZone("UTC-8", -8*60*60), nil
	}
	loc, err := time.LoadLocation(c.FormTimezone)
	if err != nil {
		return nil, fmt.Errorf("invalid form_timezone %q: %w", c.FormTimezone, err)
	}
	return loc, nil
}

// RoleForSheet returns the role whose form writes into sheetID.
func (c *Config) RoleForSheet(sheetID string) (Role, bool) {
	for _, r := range c.Roles {
		if r.SheetID == sheetID {
			return r, true
		}
	}
	return Role{}, false
}
