package bootstrap

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"society-shield/backend/internal/observability/logger"
	"society-shield/backend/internal/platform/root/domain"
)

// RootBootstrapper ensures the root account exists; implemented by root.Service.
type RootBootstrapper interface {
	Bootstrap(ctx context.Context) (credential string, created bool, err error)
}

// RootCredential runs the root account bootstrap and hands a newly generated
// credential to the operator through a file readable only by the process owner.
type RootCredential struct {
	svc  RootBootstrapper
	path string
	log  *zap.Logger
	now  func() time.Time
}

// NewRootCredential returns a RootCredential runner writing to path.
func NewRootCredential(svc RootBootstrapper, path string) *RootCredential {
	return &RootCredential{
		svc:  svc,
		path: path,
		log:  logger.Named("bootstrap"),
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// Run bootstraps the root account. When no credential was generated nothing is written.
func (r *RootCredential) Run(ctx context.Context) (Outcome, error) {
	credential, created, err := r.svc.Bootstrap(ctx)
	if err != nil {
		return "", fmt.Errorf("bootstrap root account: %w", err)
	}
	if !created {
		return OutcomeDataExists, nil
	}
	if err := WriteCredentialFile(r.path, credential, r.now()); err != nil {
		return "", err
	}
	r.log.Warn("root credential generated; read it from the credential file and change it on first login",
		zap.String("file", r.path))
	return OutcomeCreated, nil
}

// WriteCredentialFile writes the root credential to path with mode 0600, replacing
// any previous file.
func WriteCredentialFile(path, credential string, generatedAt time.Time) error {
	if path == "" {
		return fmt.Errorf("write root credential: no file configured")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("write root credential: %w", err)
		}
	}
	var b strings.Builder
	fmt.Fprintf(&b, "loginId=%s\n", domain.LoginID)
	fmt.Fprintf(&b, "credential=%s\n", credential)
	fmt.Fprintf(&b, "generatedAt=%s\n", generatedAt.UTC().Format(time.RFC3339))
	b.WriteString("note=One-time bootstrap credential. Log in as root, change the password, then delete this file.\n")

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("write root credential: %w", err)
	}
	if err := f.Chmod(0o600); err != nil {
		f.Close()
		return fmt.Errorf("write root credential: %w", err)
	}
	if _, err := f.WriteString(b.String()); err != nil {
		f.Close()
		return fmt.Errorf("write root credential: %w", err)
	}
	return f.Close()
}
