package profile

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// Profile is the configuration to start the main server.
type Profile struct {
	// Mode can be "prod" or "dev" or "demo"
	Mode string
	// Addr is the binding address for server
	Addr string
	// Port is the binding port for server
	Port int
	// Data is the data directory
	Data string
	// DSN points to where maya stores its own data
	DSN string
	// Driver is the database driver (sqlite or postgres)
	Driver string
	// Version is the current version of server
	Version string
	// Secret signs access and refresh tokens
	Secret string

	// AI configuration. Each key field is a comma-separated credential list;
	// keys are tried in order and rotated on rate-limit or auth failure.
	GeminiAPIKeys   string // MAYA_AI_GEMINI_API_KEYS
	GeminiModel     string // MAYA_AI_GEMINI_MODEL (default: gemini-1.5-flash-latest)
	OpenAIAPIKeys   string // MAYA_AI_OPENAI_API_KEYS
	OpenAIBaseURL   string // MAYA_AI_OPENAI_BASE_URL (default: https://api.openai.com/v1)
	OpenAIModel     string // MAYA_AI_OPENAI_MODEL (default: gpt-4o-mini)
	DeepSeekAPIKeys string // MAYA_AI_DEEPSEEK_API_KEYS
	DeepSeekBaseURL string // MAYA_AI_DEEPSEEK_BASE_URL (default: https://api.deepseek.com)
	DeepSeekModel   string // MAYA_AI_DEEPSEEK_MODEL (default: deepseek-chat)

	// Reminder email (SMTP) configuration.
	MailServer   string // MAYA_MAIL_SERVER
	MailPort     int    // MAYA_MAIL_PORT (default: 465)
	MailUsername string // MAYA_MAIL_USERNAME
	MailPassword string // MAYA_MAIL_PASSWORD
	MailFrom     string // MAYA_MAIL_FROM
}

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// splitKeys splits a comma-separated credential list, dropping empty entries.
func splitKeys(s string) []string {
	keys := []string{}
	for _, key := range strings.Split(s, ",") {
		if key = strings.TrimSpace(key); key != "" {
			keys = append(keys, key)
		}
	}
	return keys
}

// GeminiKeys returns the ordered Gemini credential list.
func (p *Profile) GeminiKeys() []string { return splitKeys(p.GeminiAPIKeys) }

// OpenAIKeys returns the ordered OpenAI credential list.
func (p *Profile) OpenAIKeys() []string { return splitKeys(p.OpenAIAPIKeys) }

// DeepSeekKeys returns the ordered DeepSeek credential list.
func (p *Profile) DeepSeekKeys() []string { return splitKeys(p.DeepSeekAPIKeys) }

// IsAIEnabled returns true if at least one provider credential is configured.
func (p *Profile) IsAIEnabled() bool {
	return len(p.GeminiKeys()) > 0 || len(p.OpenAIKeys()) > 0 || len(p.DeepSeekKeys()) > 0
}

// IsMailEnabled returns true if the SMTP channel is fully configured.
func (p *Profile) IsMailEnabled() bool {
	return p.MailServer != "" && p.MailUsername != "" && p.MailPassword != ""
}

func checkDataDir(dataDir string) (string, error) {
	// Convert to absolute path if relative path is supplied.
	if !filepath.IsAbs(dataDir) {
		relativeDir := filepath.Join(filepath.Dir(os.Args[0]), dataDir)
		absDir, err := filepath.Abs(relativeDir)
		if err != nil {
			return "", err
		}
		dataDir = absDir
	}

	// Trim trailing \ or / in case user supplies
	dataDir = strings.TrimRight(dataDir, "\\/")
	if _, err := os.Stat(dataDir); err != nil {
		return "", errors.Wrapf(err, "unable to access data folder %s", dataDir)
	}
	return dataDir, nil
}

func (p *Profile) Validate() error {
	if p.Mode != "demo" && p.Mode != "dev" && p.Mode != "prod" {
		p.Mode = "demo"
	}

	if p.Driver != "sqlite" && p.Driver != "postgres" {
		return errors.Errorf("unsupported database driver %q", p.Driver)
	}

	if p.Secret == "" {
		return errors.New("server secret is required")
	}

	if p.Driver == "sqlite" {
		dataDir, err := checkDataDir(p.Data)
		if err != nil {
			return err
		}
		p.Data = dataDir
		if p.DSN == "" {
			dbFile := fmt.Sprintf("maya_%s.db", p.Mode)
			p.DSN = filepath.Join(dataDir, dbFile)
		}
	} else if p.DSN == "" {
		return errors.New("dsn is required for postgres driver")
	}

	if p.MailPort == 0 {
		p.MailPort = 465
	}

	return nil
}
