package opa

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewHardcodedPolicyRetriever(t *testing.T) {
	policy, err := NewHardcodedPolicyRetriever("package orderdesk").GetPolicy()
	require.NoError(t, err)
	assert.Equal(t, "package orderdesk", policy)
}

func TestNewFilePolicyRetriever(t *testing.T) {
	cases := map[string]struct {
		path          string
		expectedStart string
		expectedError string
	}{
		"should read the policy file": {
			path:          "testdata/policy.rego",
			expectedStart: "package orderdesk",
		},
		"should fail on a missing file": {
			path:          "testdata/missing.rego",
			expectedError: "failed to read policy testdata/missing.rego",
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			policy, err := NewFilePolicyRetriever(tc.path).GetPolicy()
			if tc.expectedError != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.expectedError)
				return
			}

			require.NoError(t, err)
			assert.Contains(t, policy, tc.expectedStart)
		})
	}
}
