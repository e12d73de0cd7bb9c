package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"folio/internal/config"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != 9000 {
		t.Errorf("expected port 9000, got %d", cfg.Port)
	}
	if cfg.Numbering.QuotationPrefix != "QUO" || cfg.Numbering.ProformaPrefix != "PI" || cfg.Numbering.InvoicePrefix != "INV" {
		t.Errorf("unexpected prefixes: %+v", cfg.Numbering)
	}
	if cfg.SMTP.Enabled() {
		t.Error("SMTP should be disabled without a host")
	}
	if !strings.Contains(cfg.Defaults.Terms, "Cancellation") {
		t.Errorf("default terms missing: %q", cfg.Defaults.Terms)
	}
}

func TestLoadYAMLThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "folio.yaml")
	yml := `
port: 8123
numbering:
  invoice_prefix: TAX
smtp:
  host: mail.example.com
  port: 2525
company:
  name: Test Lodge
`
	if err := os.WriteFile(path, []byte(yml), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("QUOTATION_PREFIX", "Q")
	t.Setenv("PORT", "8200")

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != 8200 {
		t.Errorf("env should override file port, got %d", cfg.Port)
	}
	if cfg.Numbering.InvoicePrefix != "TAX" {
		t.Errorf("expected TAX, got %s", cfg.Numbering.InvoicePrefix)
	}
	if cfg.Numbering.QuotationPrefix != "Q" {
		t.Errorf("expected Q, got %s", cfg.Numbering.QuotationPrefix)
	}
	if cfg.Numbering.ProformaPrefix != "PI" {
		t.Errorf("unset prefix should keep default, got %s", cfg.Numbering.ProformaPrefix)
	}
	if !cfg.SMTP.Enabled() || cfg.SMTP.Port != 2525 {
		t.Errorf("unexpected smtp config: %+v", cfg.SMTP)
	}
	if cfg.Company.Name != "Test Lodge" {
		t.Errorf("expected company override, got %s", cfg.Company.Name)
	}
}

func TestValidateRejectsBadPrefixes(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"empty", func(c *config.Config) { c.Numbering.InvoicePrefix = "" }},
		{"duplicate", func(c *config.Config) { c.Numbering.ProformaPrefix = "INV" }},
		{"dash", func(c *config.Config) { c.Numbering.QuotationPrefix = "Q-1" }},
		{"port", func(c *config.Config) { c.Port = 70000 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestLoadBadPortEnv(t *testing.T) {
	t.Setenv("PORT", "abc")
	if _, err := config.Load(""); err == nil {
		t.Error("expected error for non-numeric PORT")
	}
}
