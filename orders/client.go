// Package orders fetches sales orders from the Tiny ERP REST API and
// normalizes the known response shapes into a tagged Result.
package orders

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// httpTimeout bounds the orders API call
const httpTimeout = 10 * time.Second

// Client calls the Tiny orders endpoint. Exactly one outbound request is
// made per FetchOrders call: no retries, no pagination traversal, no
// caching.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a Client for the API at baseURL,
// e.g. "https://api.tiny.com.br/public-api/v3"
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: httpTimeout},
	}
}

// FetchOrders issues GET {base}/pedidos?dataAtualizacao={filterDate}&formato=json
// with an "Authorization: {tokenType} {accessToken}" header and interprets
// the response. All failures are folded into the Result; FetchOrders never
// panics and never returns an error to propagate.
func (c *Client) FetchOrders(ctx context.Context, accessToken, tokenType, filterDate string) Result {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/pedidos", nil)
	if err != nil {
		return Result{Kind: KindTransportError, Message: fmt.Sprintf("error contacting Tiny API: %s", err)}
	}

	q := req.URL.Query()
	q.Set("dataAtualizacao", filterDate)
	q.Set("formato", "json")
	req.URL.RawQuery = q.Encode()

	req.Header.Set("Authorization", tokenType+" "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Result{Kind: KindTransportError, Message: fmt.Sprintf("error contacting Tiny API: %s", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{Kind: KindTransportError, Message: fmt.Sprintf("error reading Tiny API response: %s", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := fmt.Sprintf("error contacting Tiny API: status %d", resp.StatusCode)
		if detail := remoteErrorDetail(body); detail != "" {
			msg += " - " + detail
		}
		return Result{Kind: KindTransportError, Message: msg}
	}

	return interpret(body)
}

// listResponse mirrors the fields of the Tiny list-orders response that the
// interpretation algorithm inspects. Everything else is carried opaquely.
type listResponse struct {
	Paginacao *struct {
		Total int `json:"total"`
	} `json:"paginacao"`
	Itens  json.RawMessage   `json:"itens"`
	Status json.RawMessage   `json:"status"`
	Erros  []json.RawMessage `json:"erros"`
}

// interpret applies the response interpretation rules:
//
//  1. paginacao.total > 0 and itens is an array -> Success with the items
//  2. paginacao.total > 0 but itens absent/not an array -> UnexpectedShape
//  3. otherwise, status "Erro" -> APIError with erros[0] (or "Unknown error")
//  4. otherwise -> UnexpectedShape carrying the status value verbatim
//
// A body that is not valid JSON, or whose "paginacao" object is missing
// entirely, is a ParseFailure rather than an UnexpectedShape.
func interpret(body []byte) Result {
	var data listResponse
	if err := json.Unmarshal(body, &data); err != nil {
		return Result{Kind: KindParseFailure, Message: fmt.Sprintf("an unexpected error occurred: %s", err)}
	}

	if data.Paginacao == nil {
		return Result{Kind: KindParseFailure, Message: `an unexpected error occurred: response has no "paginacao" object`}
	}

	if data.Paginacao.Total > 0 {
		if !isJSONArray(data.Itens) {
			return Result{Kind: KindUnexpectedShape, Message: "API returned OK but data format is unexpected."}
		}
		var items []Order
		if err := json.Unmarshal(data.Itens, &items); err != nil {
			return Result{Kind: KindUnexpectedShape, Message: "API returned OK but data format is unexpected."}
		}
		return Result{Kind: KindSuccess, Orders: items}
	}

	if rawToText(data.Status) == "Erro" {
		msg := "Unknown error"
		if len(data.Erros) > 0 {
			if s := rawToText(data.Erros[0]); s != "" {
				msg = s
			}
		}
		return Result{Kind: KindAPIError, Message: msg}
	}

	return Result{Kind: KindUnexpectedShape, Message: fmt.Sprintf("Unexpected API status: %s", rawToText(data.Status))}
}

// isJSONArray reports whether raw holds a JSON array
func isJSONArray(raw json.RawMessage) bool {
	trimmed := bytes.TrimLeft(raw, " \t\r\n")
	return len(trimmed) > 0 && trimmed[0] == '['
}

// rawToText renders a raw JSON value for display: strings are unquoted,
// a missing value becomes "null", anything else is passed through verbatim.
func rawToText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return "null"
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

// remoteErrorDetail extracts what it can from a non-2xx response body:
// compacted JSON when the body decodes, the raw text otherwise.
func remoteErrorDetail(body []byte) string {
	if len(bytes.TrimSpace(body)) == 0 {
		return ""
	}
	if json.Valid(body) {
		var buf bytes.Buffer
		if err := json.Compact(&buf, body); err == nil {
			return buf.String()
		}
	}
	return string(body)
}
