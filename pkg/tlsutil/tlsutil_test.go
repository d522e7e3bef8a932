package tlsutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateDevCertificates(t *testing.T) {
	files, err := GenerateDevCertificates([]string{"localhost", "127.0.0.1"}, t.TempDir())
	require.NoError(t, err)

	for _, f := range []string{files.CAFile, files.CertFile, files.KeyFile} {
		info, err := os.Stat(f)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
	}

	server, err := ServerCredentials(files.CertFile, files.KeyFile, "")
	require.NoError(t, err)
	assert.Equal(t, "tls", server.Info().SecurityProtocol)

	mtls, err := ServerCredentials(files.CertFile, files.KeyFile, files.CAFile)
	require.NoError(t, err)
	assert.NotNil(t, mtls)

	client, err := ClientCredentials(files.CAFile, "localhost")
	require.NoError(t, err)
	assert.Equal(t, "localhost", client.Info().ServerName)
}

func TestCredentials_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := ServerCredentials(filepath.Join(dir, "missing.pem"), filepath.Join(dir, "missing-key.pem"), "")
	assert.ErrorContains(t, err, "load server key pair")

	bogus := filepath.Join(dir, "bogus.pem")
	require.NoError(t, os.WriteFile(bogus, []byte("not a certificate"), 0o600))
	_, err = ClientCredentials(bogus, "")
	assert.ErrorContains(t, err, "no certificates found")

	_, err = ClientCredentials(filepath.Join(dir, "absent.pem"), "")
	assert.ErrorContains(t, err, "read CA file")
}
