package binance

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/bytedance/sonic"
	"resty.dev/v3"

	"networth/pkg/core"
)

// REST endpoint paths. Spot, SAPI, and algo endpoints live on the api host;
// the fapi paths live on the futures host.
const (
	pathTickerPrice    = "/api/v3/ticker/price"
	pathSpotAccount    = "/api/v3/account"
	pathFuturesAccount = "/fapi/v2/account"
	pathFuturesBalance = "/fapi/v2/balance"
	pathWalletBalance  = "/sapi/v1/asset/wallet/balance"
	pathAlgoSpotOrders = "/sapi/v1/algo/spot/openOrders"
	pathAlgoFutOrders  = "/sapi/v1/algo/futures/openOrders"
)

const apiKeyHeader = "X-MBX-APIKEY"

// Protocol owns request authentication and error normalization for the
// Binance REST API.
type Protocol struct{}

// NewProtocol creates a new Protocol instance.
func NewProtocol() *Protocol {
	return &Protocol{}
}

// SignRequest signs a resty request with HMAC-SHA256 authentication.
// The signature covers the canonical encoding of every parameter that goes
// to the wire, signature excluded, so the signed bytes and the sent bytes
// agree. A fresh millisecond timestamp is generated per call; reusing a
// signed query is invalid because the signed timestamp ages out. recvWindow
// is appended only when positive, otherwise the exchange default applies.
func (p *Protocol) SignRequest(req *resty.Request, creds *core.Credentials, recvWindow time.Duration) error {
	if creds.Empty() {
		return core.ErrNoCredentials
	}

	// Sign over a copy. req.QueryParams is the request's own map;
	// re-attaching it through the setters would duplicate every value.
	canonical := url.Values{}
	for key, values := range req.QueryParams {
		canonical[key] = append([]string(nil), values...)
	}

	timestamp := strconv.FormatInt(time.Now().UnixMilli(), 10)
	canonical.Set("timestamp", timestamp)
	req.SetQueryParam("timestamp", timestamp)
	if recvWindow > 0 {
		window := strconv.FormatInt(recvWindow.Milliseconds(), 10)
		canonical.Set("recvWindow", window)
		req.SetQueryParam("recvWindow", window)
	}

	req.SetQueryParam("signature", signPayload(canonical.Encode(), creds.SecretKey))
	req.SetHeader(apiKeyHeader, creds.APIKey)

	return nil
}

// signPayload computes hex(HMAC-SHA256(secret, message)) over the exact
// byte sequence of the canonical query string.
func signPayload(message, secret string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(message))
	return hex.EncodeToString(h.Sum(nil))
}

type apiError struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
}

// ParseError converts a non-2xx response into a typed UpstreamError.
// Binance error bodies carry a negative numeric code; when absent the HTTP
// status decides the category.
func (p *Protocol) ParseError(endpoint string, resp *resty.Response) error {
	var apiErr apiError
	if err := sonic.Unmarshal(resp.Bytes(), &apiErr); err == nil && apiErr.Code != 0 {
		return core.NewUpstreamErrorWithCode(
			endpoint,
			mapErrorCode(apiErr.Code, resp.StatusCode()),
			resp.StatusCode(),
			strconv.Itoa(apiErr.Code),
			apiErr.Msg,
		)
	}
	return core.NewUpstreamError(
		endpoint,
		mapStatusCode(resp.StatusCode()),
		resp.StatusCode(),
		fmt.Sprintf("HTTP error: %s", resp.Status()),
	)
}

func mapErrorCode(code, status int) core.ErrorType {
	switch code {
	case -1015:
		return core.ErrorTypeRateLimit
	case -1022, -2014, -2015:
		return core.ErrorTypeAuthentication
	case -1100, -1101, -1102, -1103, -1104, -1105:
		return core.ErrorTypeBadRequest
	default:
		if status == http.StatusUnauthorized || status == http.StatusForbidden {
			return core.ErrorTypeAuthentication
		}
		if code > -2000 && code <= -1000 {
			return core.ErrorTypeBadRequest
		}
		return mapStatusCode(status)
	}
}

func mapStatusCode(status int) core.ErrorType {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return core.ErrorTypeAuthentication
	case status == http.StatusTooManyRequests || status == http.StatusTeapot:
		// 418 is the Binance auto-ban status.
		return core.ErrorTypeRateLimit
	case status == http.StatusRequestTimeout:
		return core.ErrorTypeTimeout
	case status >= http.StatusInternalServerError:
		return core.ErrorTypeServerError
	case status >= http.StatusBadRequest:
		return core.ErrorTypeBadRequest
	default:
		return core.ErrorTypeUnknown
	}
}
