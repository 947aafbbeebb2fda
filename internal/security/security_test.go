package security

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"secureshred/internal/config"
)

func TestCheckTarget(t *testing.T) {
	cfg := config.Default()

	for _, path := range []string{"/", "/etc", "/usr/", "/var/../var"} {
		assert.Error(t, CheckTarget(cfg, path), path)
	}

	for _, path := range []string{"/etc/app/secret.key", "/var/tmp/file", t.TempDir()} {
		assert.NoError(t, CheckTarget(cfg, path), path)
	}

	dir := t.TempDir()
	cfg.Security.ProtectedPaths = append(cfg.Security.ProtectedPaths, dir)
	assert.Error(t, CheckTarget(cfg, filepath.Join(dir, "sub", "..")))
	assert.NoError(t, CheckTarget(cfg, filepath.Join(dir, "sub")))

	assert.NoError(t, CheckTarget(nil, "/tmp/x"))
}

func TestSecurityChecks(t *testing.T) {
	require.NoError(t, SecurityChecks(nil))

	cfg := config.Default()
	cfg.Security.RefusePrivileged = true
	err := SecurityChecks(cfg)
	if IsPrivileged() {
		assert.Error(t, err)
	} else {
		assert.NoError(t, err)
	}
}
