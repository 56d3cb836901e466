package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Credentials mirrors the credentials file shared with the web login.
//
//	credentials:
//	  usernames:
//	    jsmith:
//	      name: John Smith
//	      email: jsmith@example.com
//	      password: $2b$12$...
//	cookie:
//	  name: fundqa_auth
//	  key: some_signature_key
//	  expiry_days: 30
type Credentials struct {
	Credentials struct {
		Usernames map[string]UserCredentials `yaml:"usernames"`
	} `yaml:"credentials"`
	Cookie        CookieConfig `yaml:"cookie"`
	PreAuthorized struct {
		Emails []string `yaml:"emails"`
	} `yaml:"pre-authorized"`
}

type UserCredentials struct {
	Name     string `yaml:"name"`
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
}

type CookieConfig struct {
	Name       string `yaml:"name"`
	Key        string `yaml:"key"`
	ExpiryDays int    `yaml:"expiry_days"`
}

// Expiry returns the session lifetime, one day when unset.
func (c CookieConfig) Expiry() time.Duration {
	if c.ExpiryDays <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(c.ExpiryDays) * 24 * time.Hour
}

func LoadCredentials(path string) (*Credentials, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read credentials file %s: %w", path, err)
	}

	creds := &Credentials{}
	if err := yaml.Unmarshal(data, creds); err != nil {
		return nil, fmt.Errorf("parse credentials file %s: %w", path, err)
	}

	if len(creds.Credentials.Usernames) == 0 {
		return nil, fmt.Errorf("credentials file %s contains no users", path)
	}
	if creds.Cookie.Key == "" {
		return nil, fmt.Errorf("credentials file %s: cookie.key is required", path)
	}
	if creds.Cookie.Name == "" {
		creds.Cookie.Name = "fundqa_auth"
	}

	return creds, nil
}
