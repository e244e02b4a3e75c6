package grpc

import (
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var rpcPattern = regexp.MustCompile(`(?m)^\s*rpc\s+(\w+)\(google\.protobuf\.Struct\)\s+returns\s+\(google\.protobuf\.Struct\);`)

func TestLedgerServiceDesc_MatchesProto(t *testing.T) {
	data, err := os.ReadFile(filepath.Join("..", "..", "..", "proto", LedgerServiceDesc.Metadata.(string)))
	require.NoError(t, err)

	assert.Contains(t, string(data), "package budget.v1;")
	assert.Contains(t, string(data), "service LedgerService {")

	var declared []string
	for _, m := range rpcPattern.FindAllStringSubmatch(string(data), -1) {
		declared = append(declared, m[1])
	}

	var registered []string
	for _, m := range LedgerServiceDesc.Methods {
		registered = append(registered, m.MethodName)
	}

	assert.Equal(t, declared, registered)
	assert.Equal(t, ServiceName, "budget.v1.LedgerService")
}
