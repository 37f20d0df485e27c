package cli

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/gogotex/pdfstore/internal/config"
	"github.com/gogotex/pdfstore/internal/oidc"
	"github.com/gogotex/pdfstore/internal/pdf/pdftest"
	"github.com/gogotex/pdfstore/internal/storage"
	"github.com/gogotex/pdfstore/internal/tokens"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() { gin.SetMode(gin.TestMode) }

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)
	err := rootCmd.Execute()
	return buf.String(), err
}

func writePDF(t *testing.T, data []byte) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "in.pdf")
	require.NoError(t, os.WriteFile(p, data, 0o600))
	return p
}

func TestVersionCmd(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "pdfstore version dev")
}

func TestPlanCmd_PrintsRanges(t *testing.T) {
	p := writePDF(t, pdftest.Uniform(6, 100000))

	out, err := execute(t, "plan", p, "--budget", "250000", "--margin", "1", "--build=false")
	require.NoError(t, err)
	assert.Contains(t, out, "pages:             6")
	assert.Contains(t, out, "pages per segment: 2")
	assert.Contains(t, out, "segments:          3")
	assert.Contains(t, out, "pages 1-2")
	assert.Contains(t, out, "pages 5-6")
}

func TestPlanCmd_Build(t *testing.T) {
	p := writePDF(t, pdftest.Uniform(6, 100000))

	out, err := execute(t, "plan", p, "--budget", "250000", "--margin", "1", "--build")
	require.NoError(t, err)
	assert.Contains(t, out, "segments:          3")
	assert.Contains(t, out, "bytes")
	assert.NotContains(t, out, "over budget")
}

func TestPlanCmd_RejectsGarbage(t *testing.T) {
	p := writePDF(t, []byte("not a pdf"))
	_, err := execute(t, "plan", p, "--build=false")
	require.Error(t, err)
}

func TestTokenCmd(t *testing.T) {
	const secret = "testsecret123456789012345678901234"
	out, err := execute(t, "token", "--sub", "admin-9", "--secret", secret, "--ttl", "1m")
	require.NoError(t, err)

	tok, err := tokens.NewHS256Verifier(secret).Verify(context.Background(), strings.TrimSpace(out))
	require.NoError(t, err)
	var claims map[string]interface{}
	require.NoError(t, tok.Claims(&claims))
	assert.Equal(t, "admin-9", claims["sub"])
}

func TestTokenCmd_NeedsSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	_, err := execute(t, "token", "--sub", "admin-9", "--secret", "")
	require.ErrorContains(t, err, "no signing secret")
}

func TestSelectVerifier(t *testing.T) {
	ctx := context.Background()
	t.Setenv("ALLOW_INSECURE_TOKEN", "")

	require.Nil(t, selectVerifier(ctx, &config.Config{}))
	require.IsType(t, &tokens.HS256Verifier{}, selectVerifier(ctx, &config.Config{JWT: config.JWTConfig{Secret: "s"}}))

	t.Setenv("ALLOW_INSECURE_TOKEN", "TRUE")
	require.IsType(t, &oidc.InsecureVerifier{}, selectVerifier(ctx, &config.Config{}))
}

func memoryConfig() *config.Config {
	return &config.Config{
		Registry: config.RegistryConfig{Backend: "memory", DeleteTimeout: time.Second},
		Storage:  storage.Config{Backend: storage.BackendMemory, Bucket: "docs"},
		JWT:      config.JWTConfig{Secret: "testsecret123456789012345678901234"},
		Ingest: config.IngestConfig{
			SegmentBudgetBytes: 250000,
			SafetyMargin:       1,
			AdaptiveShrink:     true,
			UploadAttempts:     3,
			UploadConcurrency:  2,
			MaxUploadBytes:     10 << 20,
			Folder:             "documents",
		},
	}
}

func TestBuildApp_Memory(t *testing.T) {
	a, err := buildApp(context.Background(), memoryConfig())
	require.NoError(t, err)
	defer a.Close(context.Background())

	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ready", nil))
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	a.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "pdfstore_")
}

func TestBuildApp_RedisRateLimit(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	cfg := memoryConfig()
	cfg.Redis = config.RedisConfig{Host: mr.Host(), Port: mr.Port()}
	cfg.RateLimit = config.RateLimitConfig{Enabled: true, UseRedis: true, RPS: 0, Burst: 1, WindowSeconds: 60}

	a, err := buildApp(context.Background(), cfg)
	require.NoError(t, err)
	defer a.Close(context.Background())

	get := func(path string) int {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.RemoteAddr = "203.0.113.80:1000"
		w := httptest.NewRecorder()
		a.router.ServeHTTP(w, req)
		return w.Code
	}
	require.Equal(t, http.StatusOK, get("/ready"))
	require.Equal(t, http.StatusTooManyRequests, get("/health"))
}

func TestBuildApp_UnknownRegistry(t *testing.T) {
	cfg := memoryConfig()
	cfg.Registry.Backend = "sqlite"
	_, err := buildApp(context.Background(), cfg)
	require.ErrorContains(t, err, "unknown registry backend")
}
