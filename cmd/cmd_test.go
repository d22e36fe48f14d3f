package cmd

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	t.Cleanup(func() { _ = tokenCmd.Flags().Set("ttl", "24h") })
	err := rootCmd.Execute()
	return buf.String(), err
}

func TestParseID(t *testing.T) {
	tests := map[string]struct {
		raw     string
		want    int64
		wantErr bool
	}{
		"positive":     {raw: "42", want: 42},
		"zero":         {raw: "0", wantErr: true},
		"negative":     {raw: "-3", wantErr: true},
		"not a number": {raw: "abc", wantErr: true},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			got, err := parseID(tc.raw)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestTokenCommand(t *testing.T) {
	t.Setenv("JWT_SECRET", "cli-secret")
	t.Setenv("JWT_ISSUER", "summarease")

	out, err := execute(t, "token", "7", "--ttl", "1h")
	require.NoError(t, err)

	raw := strings.TrimSpace(out)
	claims := &jwt.RegisteredClaims{}
	_, err = jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
		return []byte("cli-secret"), nil
	}, jwt.WithValidMethods([]string{"HS256"}), jwt.WithIssuer("summarease"))
	require.NoError(t, err)

	assert.Equal(t, "7", claims.Subject)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, time.Minute)
}

func TestTokenCommand_Errors(t *testing.T) {
	tests := map[string]struct {
		secret string
		args   []string
		want   string
	}{
		"missing secret": {args: []string{"token", "7"}, want: "JWT_SECRET"},
		"bad user id":    {secret: "s", args: []string{"token", "seven"}, want: "invalid id"},
		"non-positive ttl": {
			secret: "s",
			args:   []string{"token", "7", "--ttl", "0s"},
			want:   "ttl must be positive",
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Setenv("JWT_SECRET", tc.secret)
			_, err := execute(t, tc.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestProcessCommand_RequiresJobID(t *testing.T) {
	_, err := execute(t, "process")
	assert.Error(t, err)

	_, err = execute(t, "process", "nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid id")
}
