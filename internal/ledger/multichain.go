package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// MultichainConfig holds the connection settings for a Multichain node.
// It is constructed once at startup from the process configuration and passed
// into NewMultichain; nothing here is re-read per call.
type MultichainConfig struct {
	RPCUser     string
	RPCPassword string
	Host        string
	Port        int

	// Timeout bounds every RPC round trip. Zero means 10s.
	Timeout time.Duration
}

// Multichain talks JSON-RPC 2.0 to a Multichain node. It implements Client.
type Multichain struct {
	url        string
	user       string
	password   string
	httpClient *http.Client
}

// NewMultichain creates a Multichain ledger client.
func NewMultichain(cfg MultichainConfig) *Multichain {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &Multichain{
		url:        fmt.Sprintf("http://%s:%d", cfg.Host, cfg.Port),
		user:       cfg.RPCUser,
		password:   cfg.RPCPassword,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// rpcRequest is the JSON-RPC 2.0 envelope Multichain expects.
type rpcRequest struct {
	Method  string `json:"method"`
	Params  []any  `json:"params"`
	JSONRPC string `json:"jsonrpc"`
	ID      int    `json:"id"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

// streamItem is the subset of a Multichain stream item the core needs.
// Data holds the published payload as a hex string.
type streamItem struct {
	Keys []string `json:"keys"`
	Key  string   `json:"key"`
	Data string   `json:"data"`
	TxID string   `json:"txid"`
}

// call performs one JSON-RPC round trip and unmarshals the result into out.
func (m *Multichain) call(ctx context.Context, method string, params []any, out any) error {
	body, err := json.Marshal(rpcRequest{
		Method:  method,
		Params:  params,
		JSONRPC: "2.0",
		ID:      1,
	})
	if err != nil {
		return &TransportError{Op: method, Err: fmt.Errorf("marshal request: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.url, bytes.NewReader(body))
	if err != nil {
		return &TransportError{Op: method, Err: fmt.Errorf("build request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(m.user, m.password)

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return &TransportError{Op: method, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 64<<20))
	if err != nil {
		return &TransportError{Op: method, Err: fmt.Errorf("read response: %w", err)}
	}

	// Multichain answers RPC-level errors with a non-200 status AND an error
	// object in the body; prefer the error object when it parses.
	var rpcResp rpcResponse
	if err := json.Unmarshal(respBody, &rpcResp); err != nil {
		return &TransportError{Op: method, Err: fmt.Errorf("status %d: unparseable response: %w", resp.StatusCode, err)}
	}
	if rpcResp.Error != nil {
		return &TransportError{Op: method, Err: fmt.Errorf("rpc error %d: %s", rpcResp.Error.Code, rpcResp.Error.Message)}
	}
	if resp.StatusCode != http.StatusOK {
		return &TransportError{Op: method, Err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}

	if out != nil {
		if err := json.Unmarshal(rpcResp.Result, out); err != nil {
			return &TransportError{Op: method, Err: fmt.Errorf("unmarshal result: %w", err)}
		}
	}
	return nil
}

// Append implements Client via the Multichain "publish" command. The payload
// is expected to already be hex text (the codec's wire form) and is sent
// verbatim as the data parameter.
func (m *Multichain) Append(ctx context.Context, stream, key string, payload []byte) (string, error) {
	var txid string
	if err := m.call(ctx, "publish", []any{stream, key, string(payload)}, &txid); err != nil {
		return "", err
	}
	return txid, nil
}

// ListForKey implements Client via "liststreamkeyitems".
func (m *Multichain) ListForKey(ctx context.Context, stream, key string) ([][]byte, error) {
	var items []streamItem
	if err := m.call(ctx, "liststreamkeyitems", []any{stream, key}, &items); err != nil {
		return nil, err
	}

	payloads := make([][]byte, 0, len(items))
	for _, it := range items {
		payloads = append(payloads, []byte(it.Data))
	}
	return payloads, nil
}

// ListAll implements Client via "liststreamitems". Multichain returns items
// in chain order, which for a single stream equals append order.
func (m *Multichain) ListAll(ctx context.Context, stream string) ([]Item, error) {
	var items []streamItem
	if err := m.call(ctx, "liststreamitems", []any{stream}, &items); err != nil {
		return nil, err
	}

	out := make([]Item, 0, len(items))
	for _, it := range items {
		key := it.Key
		if key == "" && len(it.Keys) > 0 {
			key = it.Keys[0]
		}
		out = append(out, Item{Key: key, Payload: []byte(it.Data)})
	}
	return out, nil
}
