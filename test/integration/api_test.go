// Package integration provides end-to-end integration tests for the trust
// framework API against a real PostgreSQL database.
package integration

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cloudflare/circl/sign/ed25519"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocloud.dev/secrets"
	_ "gocloud.dev/secrets/localsecrets"

	"github.com/MCPTrustFramework/mcpf/internal/app"
	auditDomain "github.com/MCPTrustFramework/mcpf/internal/audit/domain"
	"github.com/MCPTrustFramework/mcpf/internal/config"
	credentialDomain "github.com/MCPTrustFramework/mcpf/internal/credential/domain"
	"github.com/MCPTrustFramework/mcpf/internal/testutil"
)

// testContext holds the running container and HTTP test server.
type testContext struct {
	container *app.Container
	server    *httptest.Server
}

// makeRequest performs an HTTP request and returns the response and body.
func (tc *testContext) makeRequest(
	t *testing.T,
	method, path string,
	body interface{},
) (*http.Response, []byte) {
	t.Helper()

	var bodyReader io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		require.NoError(t, err, "failed to marshal request body")
		bodyReader = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequest(method, tc.server.URL+path, bodyReader)
	require.NoError(t, err, "failed to create request")

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	require.NoError(t, err, "failed to perform request")

	respBody, err := io.ReadAll(resp.Body)
	require.NoError(t, err, "failed to read response body")
	require.NoError(t, resp.Body.Close())

	return resp, respBody
}

// wrapSigningKey generates a local keeper, wraps a fresh 32-byte signing root
// key with it, and returns the keeper URI plus the wrapped key in base64.
func wrapSigningKey(t *testing.T) (keyURI, wrappedB64 string) {
	t.Helper()
	ctx := context.Background()

	keeperKey := make([]byte, 32)
	_, err := rand.Read(keeperKey)
	require.NoError(t, err)
	keyURI = "base64key://" + base64.URLEncoding.EncodeToString(keeperKey)

	keeper, err := secrets.OpenKeeper(ctx, keyURI)
	require.NoError(t, err)
	defer keeper.Close()

	rootKey := make([]byte, 32)
	_, err = rand.Read(rootKey)
	require.NoError(t, err)

	wrapped, err := keeper.Encrypt(ctx, rootKey)
	require.NoError(t, err)
	return keyURI, base64.StdEncoding.EncodeToString(wrapped)
}

// setupTestContext migrates the test database, builds a container against it,
// and starts an httptest server on the API handler.
func setupTestContext(t *testing.T) *testContext {
	t.Helper()
	testutil.SkipIfNoPostgres(t)
	gin.SetMode(gin.TestMode)

	db := testutil.SetupPostgresDB(t)
	testutil.TeardownDB(t, db)

	keyURI, wrappedKey := wrapSigningKey(t)

	cfg := &config.Config{
		ServerHost:                "localhost",
		ServerPort:                0,
		DBDriver:                  "postgres",
		DBConnectionString:        testutil.GetPostgresTestDSN(),
		DBMaxOpenConnections:      5,
		DBMaxIdleConnections:      2,
		DBConnMaxLifetime:         5 * time.Minute,
		DBRetryMaxAttempts:        3,
		DBRetryBaseDelay:          10 * time.Millisecond,
		LogLevel:                  "error",
		ResolveCacheTTL:           time.Minute,
		VerifyCacheTTL:            time.Minute,
		RevocationRefreshInterval: time.Minute,
		ApprovalDefaultTimeout:    2 * time.Second,
		KMSProvider:               "local",
		KMSKeyURI:                 keyURI,
		AuditSigningKeyWrapped:    wrappedKey,
	}

	container := app.NewContainer(cfg)
	httpServer, err := container.HTTPServer()
	require.NoError(t, err, "failed to initialize HTTP server")

	server := httptest.NewServer(httpServer.GetHandler())
	t.Cleanup(func() {
		server.Close()
		_ = container.Shutdown(context.Background())
	})

	return &testContext{container: container, server: server}
}

func TestAPIIntegration(t *testing.T) {
	tc := setupTestContext(t)

	agentName := "trading.dbs.example.agent"
	agentDID := "did:web:trading.dbs.example.com"
	delegateName := "settlement.dbs.example.agent"
	delegateDID := "did:web:settlement.dbs.example.com"
	keyMaterial := base64.StdEncoding.EncodeToString(bytes.Repeat([]byte{0x42}, 32))

	registerAgent := func(name, did string) {
		resp, body := tc.makeRequest(t, http.MethodPost, "/v1/agents", map[string]interface{}{
			"name": name,
			"did":  did,
			"public_keys": []map[string]string{
				{"key_id": "key-1", "algorithm": "ed25519", "material": keyMaterial},
			},
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	}

	t.Run("register and resolve agent", func(t *testing.T) {
		registerAgent(agentName, agentDID)
		registerAgent(delegateName, delegateDID)

		resp, body := tc.makeRequest(t, http.MethodGet, "/v1/agents/resolve?name="+agentName, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

		var result map[string]interface{}
		require.NoError(t, json.Unmarshal(body, &result))
		assert.Equal(t, agentDID, result["did"])
		assert.Equal(t, float64(1), result["version"])
	})

	t.Run("resolve unknown name returns 404", func(t *testing.T) {
		resp, _ := tc.makeRequest(t, http.MethodGet, "/v1/agents/resolve?name=ghost.example.agent", nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("create policy and check delegation", func(t *testing.T) {
		resp, body := tc.makeRequest(t, http.MethodPost, "/v1/policies", map[string]interface{}{
			"name":            "dbs-internal-trading",
			"from_pattern":    "*.dbs.example.agent",
			"to_pattern":      "*.dbs.example.agent",
			"allowed_actions": []string{"trade"},
			"constraints":     map[string]interface{}{},
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))

		resp, body = tc.makeRequest(t, http.MethodPost, "/v1/delegations/check", map[string]string{
			"from_did": agentDID,
			"to_did":   delegateDID,
			"action":   "trade",
		})
		require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

		var decision map[string]interface{}
		require.NoError(t, json.Unmarshal(body, &decision))
		assert.Equal(t, true, decision["allowed"])

		resp, body = tc.makeRequest(t, http.MethodPost, "/v1/delegations/check", map[string]string{
			"from_did": agentDID,
			"to_did":   delegateDID,
			"action":   "transfer-funds",
		})
		require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
		require.NoError(t, json.Unmarshal(body, &decision))
		assert.Equal(t, false, decision["allowed"])
		assert.Equal(t, "no_applicable_policy", decision["reason_code"])
	})

	t.Run("verify agent without credential yields invalid verdict", func(t *testing.T) {
		resp, body := tc.makeRequest(t, http.MethodGet, "/v1/credentials/verify-agent?did="+agentDID, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

		var verdict map[string]interface{}
		require.NoError(t, json.Unmarshal(body, &verdict))
		assert.Equal(t, false, verdict["valid"])
	})

	t.Run("store credential and verify agent", func(t *testing.T) {
		issuerPub, issuerPriv, err := ed25519.GenerateKey(rand.Reader)
		require.NoError(t, err)

		issuerName := "issuer.dbs.example.agent"
		issuerDID := "did:web:issuer.dbs.example.com"
		resp, body := tc.makeRequest(t, http.MethodPost, "/v1/agents", map[string]interface{}{
			"name": issuerName,
			"did":  issuerDID,
			"public_keys": []map[string]string{
				{"key_id": "issuer-key", "algorithm": "ed25519", "material": base64.StdEncoding.EncodeToString(issuerPub)},
			},
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))

		issuedAt := time.Now().UTC().Truncate(time.Second).Add(-time.Minute)
		expiresAt := issuedAt.Add(24 * time.Hour)
		credential := &credentialDomain.Credential{
			SubjectDID: agentDID,
			IssuerDID:  issuerDID,
			Claims:     map[string]any{"role": "trader"},
			IssuedAt:   issuedAt,
			ExpiresAt:  expiresAt,
		}
		payload, err := credential.SigningBytes()
		require.NoError(t, err)
		signature := ed25519.Sign(issuerPriv, payload)

		resp, body = tc.makeRequest(t, http.MethodPost, "/v1/credentials", map[string]interface{}{
			"credential": map[string]interface{}{
				"subject_did": agentDID,
				"issuer_did":  issuerDID,
				"claims":      map[string]any{"role": "trader"},
				"issued_at":   issuedAt.Format(time.RFC3339),
				"expires_at":  expiresAt.Format(time.RFC3339),
				"proof": map[string]interface{}{
					"algorithm": "ed25519",
					"key_id":    "issuer-key",
					"signature": base64.StdEncoding.EncodeToString(signature),
				},
			},
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))

		resp, body = tc.makeRequest(t, http.MethodGet, "/v1/credentials/verify-agent?did="+agentDID, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

		var verdict map[string]interface{}
		require.NoError(t, json.Unmarshal(body, &verdict))
		assert.Equal(t, true, verdict["valid"], string(body))
	})

	t.Run("registry register and search", func(t *testing.T) {
		resp, body := tc.makeRequest(t, http.MethodPost, "/v1/registry/servers", map[string]interface{}{
			"name":         "market-data",
			"endpoint":     "https://mcp.dbs.example.com/market-data",
			"capabilities": []string{"quotes", "orders"},
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))

		resp, body = tc.makeRequest(t, http.MethodGet, "/v1/registry/servers?capability=quotes", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
		assert.Contains(t, string(body), "market-data")

		resp, body = tc.makeRequest(t, http.MethodGet, "/v1/registry/servers?capability=nonexistent", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.NotContains(t, string(body), "market-data")
	})

	t.Run("audit trail records operations and verifies", func(t *testing.T) {
		resp, body := tc.makeRequest(t, http.MethodGet, "/v1/audit?kind=resolution", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
		assert.Contains(t, string(body), agentDID)

		auditUseCase, err := tc.container.AuditUseCase()
		require.NoError(t, err)

		checked, err := auditUseCase.VerifyEntries(context.Background(), auditDomain.Filter{})
		require.NoError(t, err)
		assert.Greater(t, checked, 0)
	})

	t.Run("tampered audit entry fails verification", func(t *testing.T) {
		db, err := tc.container.DB()
		require.NoError(t, err)

		_, err = db.Exec(`UPDATE audit_entries SET outcome = 'success' WHERE reason_code = 'no_applicable_policy'`)
		require.NoError(t, err)

		auditUseCase, err := tc.container.AuditUseCase()
		require.NoError(t, err)

		_, err = auditUseCase.VerifyEntries(context.Background(), auditDomain.Filter{})
		require.ErrorIs(t, err, auditDomain.ErrSignatureMismatch)
	})
}
