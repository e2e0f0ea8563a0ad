package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable. Validation failures abort the
// run before any side effect.
func (c *Config) Validate() error {
	if err := c.validateAccount(); err != nil {
		return err
	}
	if err := c.validateS3(); err != nil {
		return err
	}
	if err := c.validateEmail(); err != nil {
		return err
	}
	if err := c.validateSMTP(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateAccount() error {
	if c.Account.Username == "" {
		return errors.New("ig_account.username must be set")
	}
	if c.Account.Password == "" {
		return errors.New("ig_account.password must be set")
	}
	if c.UserID <= 0 {
		return errors.New("ig_user_id must be set to the numeric account id")
	}
	if c.SessionFile == "" {
		return errors.New("session_file must not be empty")
	}
	return nil
}

func (c *Config) validateS3() error {
	required := []struct {
		key   string
		value string
	}{
		{"s3.region_name", c.S3.RegionName},
		{"s3.access_key_id", c.S3.AccessKeyID},
		{"s3.secret_access_key", c.S3.SecretAccessKey},
		{"s3.bucket_name", c.S3.BucketName},
		{"s3.bucket_folder", c.S3.BucketFolder},
	}
	for _, field := range required {
		if strings.TrimSpace(field.value) == "" {
			return fmt.Errorf("%s must be set", field.key)
		}
	}
	return nil
}

func (c *Config) validateEmail() error {
	if c.Email.FromAddress == "" {
		return errors.New("email.from_address must be set")
	}
	if len(c.Email.MailingList) == 0 {
		return errors.New("email.mailing_list must contain at least one address")
	}
	for _, addr := range c.Email.MailingList {
		if addr == "" {
			return errors.New("email.mailing_list must not contain empty addresses")
		}
	}
	return nil
}

func (c *Config) validateSMTP() error {
	if c.SMTP.Host == "" {
		return errors.New("smtp.host must be set")
	}
	if c.SMTP.Port <= 0 || c.SMTP.Port > 65535 {
		return fmt.Errorf("smtp.port %d is out of range", c.SMTP.Port)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "", "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	return nil
}
