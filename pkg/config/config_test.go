package config

import (
	"os"
	"path/filepath"
	"testing"
)

type testConf struct {
	Name string `yaml:"name"`
	Port int    `yaml:"port"`
}

func writeConf(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "conf.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadExpandsEnv(t *testing.T) {
	t.Setenv("CONF_TEST_NAME", "from-env")
	path := writeConf(t, "name: ${CONF_TEST_NAME}\nport: 9000\n")

	var c testConf
	if err := Load(path, &c); err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Name != "from-env" || c.Port != 9000 {
		t.Errorf("conf = %+v", c)
	}
}

func TestLoadEnvFallback(t *testing.T) {
	os.Unsetenv("CONF_TEST_MISSING")
	path := writeConf(t, "name: ${CONF_TEST_MISSING:-fallback}\nport: 1\n")

	var c testConf
	if err := Load(path, &c); err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Name != "fallback" {
		t.Errorf("name = %q, want fallback", c.Name)
	}
}

type validatedConf struct {
	Port int `yaml:"port"`
}

func (c *validatedConf) Validate() error {
	if c.Port <= 0 {
		return os.ErrInvalid
	}
	return nil
}

func TestLoadRunsValidator(t *testing.T) {
	path := writeConf(t, "port: 0\n")

	var c validatedConf
	if err := Load(path, &c); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestLoadMissingFile(t *testing.T) {
	var c testConf
	if err := Load(filepath.Join(t.TempDir(), "nope.yaml"), &c); err == nil {
		t.Fatal("expected error for missing file")
	}
}
