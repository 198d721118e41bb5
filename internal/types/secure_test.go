package types

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSecretString_RedactedEverywhere(t *testing.T) {
	s := SecretString("hunter2")

	assert.Equal(t, "***REDACTED***", s.String())
	assert.Equal(t, "***REDACTED***", fmt.Sprintf("%v", s))
	assert.Equal(t, "***REDACTED***", fmt.Sprintf("%s", s))

	raw, err := json.Marshal(struct {
		Salt SecretString `json:"salt"`
	}{Salt: s})
	require.NoError(t, err)
	assert.JSONEq(t, `{"salt":"***REDACTED***"}`, string(raw))
}

func TestSecretString_Unmask(t *testing.T) {
	assert.Equal(t, "hunter2", SecretString("hunter2").Unmask())
	assert.Empty(t, SecretString("").Unmask())
}
