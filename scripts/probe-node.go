//go:build ignore

// probe-node.go checks that a Multichain node is reachable and that the
// configured stream exists and is subscribed, before batchd or batchctl are
// pointed at it.
//
// Run with: go run scripts/probe-node.go
//
// Configuration via environment:
//
//	MULTICHAIN_HOST          (default localhost)
//	MULTICHAIN_PORT          (default 8570)
//	MULTICHAIN_RPC_USER      (default multichainrpc)
//	MULTICHAIN_RPC_PASSWORD
//	LEDGER_STREAM            (default root)
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"
)

type rpcRequest struct {
	Method string `json:"method"`
	Params []any  `json:"params"`
	ID     int    `json:"id"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func main() {
	host := envOr("MULTICHAIN_HOST", "localhost")
	port := envOr("MULTICHAIN_PORT", "8570")
	user := envOr("MULTICHAIN_RPC_USER", "multichainrpc")
	pass := os.Getenv("MULTICHAIN_RPC_PASSWORD")
	stream := envOr("LEDGER_STREAM", "root")

	url := fmt.Sprintf("http://%s:%s", host, port)
	client := &http.Client{Timeout: 10 * time.Second}

	// Node reachable?
	var info struct {
		Version     string `json:"version"`
		ChainName   string `json:"chainname"`
		Blocks      int    `json:"blocks"`
		Connections int    `json:"connections"`
	}
	if err := call(client, url, user, pass, "getinfo", nil, &info); err != nil {
		fmt.Fprintf(os.Stderr, "✗ node unreachable at %s: %v\n", url, err)
		os.Exit(1)
	}
	fmt.Printf("✓ node %s (chain %q, %d blocks, %d peers)\n",
		info.Version, info.ChainName, info.Blocks, info.Connections)

	// Stream present and subscribed?
	var streams []struct {
		Name       string `json:"name"`
		Subscribed bool   `json:"subscribed"`
		Items      int    `json:"items"`
	}
	if err := call(client, url, user, pass, "liststreams", []any{stream}, &streams); err != nil {
		fmt.Fprintf(os.Stderr, "✗ stream %q not found: %v\n", stream, err)
		fmt.Fprintf(os.Stderr, "  create it with: multichain-cli %s create stream %s true\n", info.ChainName, stream)
		os.Exit(1)
	}
	for _, s := range streams {
		if !s.Subscribed {
			fmt.Fprintf(os.Stderr, "✗ stream %q exists but is not subscribed\n", s.Name)
			fmt.Fprintf(os.Stderr, "  subscribe with: multichain-cli %s subscribe %s\n", info.ChainName, s.Name)
			os.Exit(1)
		}
		fmt.Printf("✓ stream %q subscribed (%d items)\n", s.Name, s.Items)
	}
}

func call(client *http.Client, url, user, pass, method string, params []any, out any) error {
	if params == nil {
		params = []any{}
	}
	body, err := json.Marshal(rpcRequest{Method: method, Params: params, ID: 1})
	if err != nil {
		return err
	}

	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.SetBasicAuth(user, pass)
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var rpc rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&rpc); err != nil {
		return fmt.Errorf("decode response (HTTP %d): %w", resp.StatusCode, err)
	}
	if rpc.Error != nil {
		return fmt.Errorf("rpc error %d: %s", rpc.Error.Code, rpc.Error.Message)
	}
	return json.Unmarshal(rpc.Result, out)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
