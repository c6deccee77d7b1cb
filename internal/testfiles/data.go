package testfiles

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TempDir(t *testing.T) (string, func()) {
	newDir, err := ioutil.TempDir(os.TempDir(), "promote-test")
	if err != nil {
		t.Fatal("failed to create temp directory")
	}

	cleanup := func() {
		if strings.HasPrefix(newDir, os.TempDir()) {
			if err := os.RemoveAll(newDir); err != nil {
				t.Errorf("Failed to delete %s: %v", newDir, err)
			}
		}
	}
	return newDir, cleanup
}

// WriteTestFiles writes the predetermined values files into dir.
func WriteTestFiles(dir string) error {
	return WriteFiles(dir, Files)
}

// WriteFiles creates each file, relative to dir, with its content.
func WriteFiles(dir string, files map[string]string) error {
	for name, content := range files {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0777); err != nil {
			return err
		}
		if err := ioutil.WriteFile(path, []byte(content), 0666); err != nil {
			return err
		}
	}
	return nil
}

// ----- DATA

// Services are the entity names of the files in Files.
var Services = []string{"auth", "billing", "payment-api"}

// Files are values files for a handful of services, as they'd be
// found in one environment.
var Files = map[string]string{
	"payment-api.yaml": `replicaCount: 2
image:
  repository: registry.example.com/payment-api
  tag: "1.4.2"
env:
- name: LOG_LEVEL
  value: info
- name: DB_HOST
  value: db.dev.internal
resources:
  limits:
    cpu: 500m
    memory: 512Mi
`,
	"auth.yml": `replicaCount: 1
image:
  repository: registry.example.com/auth
  tag: "2.0.0"
ingress:
  enabled: true
  hosts:
  - auth.dev.example.com
`,
	"billing.json": `{
    "replicaCount": 1,
    "image": {"repository": "registry.example.com/billing", "tag": "0.9.1"},
    "features": {"invoices": true, "refunds": false}
}
`,
	"README.md": "not a values file\n",
}
