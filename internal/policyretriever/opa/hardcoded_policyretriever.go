package opa

import (
	"fmt"
	"os"

	"github.com/CameronXie/order-desk/internal/policyretriever"
)

type hardcodedPolicyRetriever struct {
	policy string
}

// GetPolicy returns the policy given at construction.
func (p *hardcodedPolicyRetriever) GetPolicy() (string, error) {
	return p.policy, nil
}

// NewHardcodedPolicyRetriever creates a PolicyRetriever with a provided hardcoded policy string.
func NewHardcodedPolicyRetriever(policy string) policyretriever.PolicyRetriever {
	return &hardcodedPolicyRetriever{
		policy: policy,
	}
}

type filePolicyRetriever struct {
	path string
}

// GetPolicy reads the policy file on every call, so edits apply without a restart.
func (p *filePolicyRetriever) GetPolicy() (string, error) {
	data, err := os.ReadFile(p.path)
	if err != nil {
		return "", fmt.Errorf("failed to read policy %s: %w", p.path, err)
	}
	return string(data), nil
}

// NewFilePolicyRetriever creates a PolicyRetriever reading a Rego module from path.
func NewFilePolicyRetriever(path string) policyretriever.PolicyRetriever {
	return &filePolicyRetriever{path: path}
}
