// Package verify publishes contract source to an Etherscan-compatible block
// explorer (Etherscan, BscScan) and waits for the verification verdict.
package verify

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

const (
	DefaultPollInterval = 5 * time.Second
	codeFormat          = "solidity-single-file"
	alreadyVerified     = "already verified"
)

var ErrVerificationFailed = errors.New("source verification failed")

type (
	Request struct {
		Address          common.Address
		ContractName     string
		SourceCode       string
		CompilerVersion  string
		OptimizationUsed bool
		Runs             int
		EVMVersion       string
		ConstructorArgs  []byte
	}

	Explorer struct {
		apiURL       string
		apiKey       string
		client       *http.Client
		pollInterval time.Duration
		log          *zap.Logger
	}

	Option func(*Explorer)

	apiResponse struct {
		Status  string `json:"status"`
		Message string `json:"message"`
		Result  string `json:"result"`
	}
)

func WithHTTPClient(c *http.Client) Option {
	return func(e *Explorer) { e.client = c }
}

func WithPollInterval(d time.Duration) Option {
	return func(e *Explorer) {
		if d > 0 {
			e.pollInterval = d
		}
	}
}

func WithLogger(log *zap.Logger) Option {
	return func(e *Explorer) {
		if log != nil {
			e.log = log
		}
	}
}

func NewExplorer(apiURL, apiKey string, opts ...Option) *Explorer {
	e := &Explorer{
		apiURL:       apiURL,
		apiKey:       apiKey,
		client:       &http.Client{Timeout: 30 * time.Second},
		pollInterval: DefaultPollInterval,
		log:          zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Verify submits the source and polls until the explorer accepts or rejects
// it. A contract that is already verified counts as success.
func (e *Explorer) Verify(ctx context.Context, req Request) error {
	guid, done, err := e.submit(ctx, req)
	if err != nil {
		return err
	}
	if done {
		e.log.Info("source already verified", zap.Stringer("address", req.Address))
		return nil
	}

	ticker := time.NewTicker(e.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("wait for verification: %w", ctx.Err())
		case <-ticker.C:
		}

		resp, err := e.do(ctx, http.MethodGet, url.Values{
			"module": {"contract"},
			"action": {"checkverifystatus"},
			"guid":   {guid},
		})
		if err != nil {
			return err
		}
		result := strings.TrimSpace(resp.Result)
		switch {
		case strings.HasPrefix(result, "Pass"), strings.Contains(strings.ToLower(result), alreadyVerified):
			e.log.Info("source verified",
				zap.Stringer("address", req.Address),
				zap.String("contract", req.ContractName))
			return nil
		case strings.Contains(strings.ToLower(result), "pending"):
			e.log.Debug("verification pending", zap.String("guid", guid))
		default:
			return fmt.Errorf("%w: %s", ErrVerificationFailed, result)
		}
	}
}

func (e *Explorer) submit(ctx context.Context, req Request) (guid string, done bool, err error) {
	optimization := "0"
	if req.OptimizationUsed {
		optimization = "1"
	}
	form := url.Values{
		"module":                {"contract"},
		"action":                {"verifysourcecode"},
		"contractaddress":       {req.Address.Hex()},
		"sourceCode":            {req.SourceCode},
		"codeformat":            {codeFormat},
		"contractname":          {req.ContractName},
		"compilerversion":       {compilerVersion(req.CompilerVersion)},
		"optimizationUsed":      {optimization},
		"runs":                  {strconv.Itoa(req.Runs)},
		"constructorArguements": {hex.EncodeToString(req.ConstructorArgs)},
	}
	if req.EVMVersion != "" {
		form.Set("evmversion", req.EVMVersion)
	}

	resp, err := e.do(ctx, http.MethodPost, form)
	if err != nil {
		return "", false, err
	}
	if resp.Status == "1" {
		return resp.Result, false, nil
	}
	if strings.Contains(strings.ToLower(resp.Result), alreadyVerified) {
		return "", true, nil
	}
	return "", false, fmt.Errorf("%w: %s: %s", ErrVerificationFailed, resp.Message, resp.Result)
}

func (e *Explorer) do(ctx context.Context, method string, params url.Values) (apiResponse, error) {
	params.Set("apikey", e.apiKey)

	var (
		httpReq *http.Request
		err     error
	)
	if method == http.MethodPost {
		httpReq, err = http.NewRequestWithContext(ctx, method, e.apiURL, strings.NewReader(params.Encode()))
		if err == nil {
			httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		}
	} else {
		httpReq, err = http.NewRequestWithContext(ctx, method, e.apiURL+"?"+params.Encode(), nil)
	}
	if err != nil {
		return apiResponse{}, fmt.Errorf("build explorer request: %w", err)
	}

	httpResp, err := e.client.Do(httpReq)
	if err != nil {
		return apiResponse{}, fmt.Errorf("explorer request: %w", err)
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return apiResponse{}, fmt.Errorf("read explorer response: %w", err)
	}
	if httpResp.StatusCode != http.StatusOK {
		return apiResponse{}, fmt.Errorf("explorer returned %s", httpResp.Status)
	}

	var resp apiResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return apiResponse{}, fmt.Errorf("decode explorer response: %w", err)
	}
	return resp, nil
}

// compilerVersion renders solc versions the way explorers list them,
// e.g. v0.8.4+commit.c7e474f2.
func compilerVersion(v string) string {
	v = strings.TrimSpace(v)
	if v == "" || strings.HasPrefix(v, "v") {
		return v
	}
	return "v" + v
}
