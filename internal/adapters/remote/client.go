package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/subvault-dev/subvault-cli/internal/domain"
	"github.com/subvault-dev/subvault-cli/internal/ports"
)

const maxResponseBytes = 1 << 20

const (
	accountsPath     = "/v1/accounts"
	accessTokenPath  = "/v1/auth/access-token"
	storeLoginPath   = "/v1/auth/store-login"
	validatePath     = "/v1/auth/validate"
	subscriptionPath = "/v1/subscription"
	confirmPath      = "/v1/subscription/confirm"
	portalPath       = "/v1/subscription/portal"
)

const expiredTokenCode = "expired_token"

// Client talks to the subscription backend over HTTP.
type Client struct {
	BaseURL        string
	HTTPClient     *http.Client
	RequestTimeout time.Duration
}

var _ ports.SubscriptionService = (*Client)(nil)

type accountPayload struct {
	ExternalID string `json:"external_id"`
	Email      string `json:"email"`
}

type createAccountRequest struct {
	EmailToken string `json:"email_token,omitempty"`
}

type createAccountResponse struct {
	Account   accountPayload `json:"account"`
	AuthToken string         `json:"auth_token"`
}

type accessTokenRequest struct {
	AuthToken string `json:"auth_token"`
}

type accessTokenResponse struct {
	AccessToken string `json:"access_token"`
}

type storeLoginRequest struct {
	Signature   string `json:"signature"`
	SignedData  string `json:"signed_data"`
	PackageName string `json:"package_name"`
}

type storeLoginResponse struct {
	Account   accountPayload `json:"account"`
	AuthToken string         `json:"auth_token"`
}

type validateResponse struct {
	Account      accountPayload `json:"account"`
	Entitlements []string       `json:"entitlements"`
}

type subscriptionPayload struct {
	ProductID         string `json:"product_id"`
	StartedAt         string `json:"started_at"`
	ExpiresOrRenewsAt string `json:"expires_or_renews_at"`
	Status            string `json:"status"`
	Platform          string `json:"platform"`
}

type confirmRequest struct {
	PackageName   string `json:"package_name"`
	PurchaseToken string `json:"purchase_token"`
}

type confirmResponse struct {
	Subscription subscriptionPayload `json:"subscription"`
	Entitlements []string            `json:"entitlements"`
}

type portalResponse struct {
	URL string `json:"url"`
}

type apiErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (c *Client) AccessToken(ctx context.Context, authToken string) (string, error) {
	if authToken == "" {
		return "", errors.New("auth token is required")
	}

	var payload accessTokenResponse
	err := c.doJSON(ctx, http.MethodPost, accessTokenPath, "", accessTokenRequest{AuthToken: authToken}, &payload)
	if err != nil {
		return "", fmt.Errorf("exchange auth token: %w", err)
	}
	if payload.AccessToken == "" {
		return "", errors.New("access token response missing token")
	}
	return payload.AccessToken, nil
}

func (c *Client) CreateAccount(ctx context.Context, emailToken string) (ports.CreatedAccount, error) {
	var payload createAccountResponse
	err := c.doJSON(ctx, http.MethodPost, accountsPath, "", createAccountRequest{EmailToken: emailToken}, &payload)
	if err != nil {
		return ports.CreatedAccount{}, fmt.Errorf("create account: %w", err)
	}
	if payload.Account.ExternalID == "" || payload.AuthToken == "" {
		return ports.CreatedAccount{}, errors.New("create account response missing required fields")
	}
	return ports.CreatedAccount{
		Account:   toAccount(payload.Account),
		AuthToken: payload.AuthToken,
	}, nil
}

func (c *Client) StoreLogin(ctx context.Context, req ports.StoreLoginRequest) (ports.StoreLoginResponse, error) {
	if req.Signature == "" || req.SignedData == "" {
		return ports.StoreLoginResponse{}, errors.New("store purchase proof is required")
	}

	var payload storeLoginResponse
	body := storeLoginRequest{
		Signature:   req.Signature,
		SignedData:  req.SignedData,
		PackageName: req.PackageName,
	}
	err := c.doJSON(ctx, http.MethodPost, storeLoginPath, "", body, &payload)
	if err != nil {
		return ports.StoreLoginResponse{}, fmt.Errorf("store login: %w", err)
	}
	if payload.Account.ExternalID == "" || payload.AuthToken == "" {
		return ports.StoreLoginResponse{}, errors.New("store login response missing required fields")
	}
	return ports.StoreLoginResponse{
		Account:   toAccount(payload.Account),
		AuthToken: payload.AuthToken,
	}, nil
}

func (c *Client) ValidateToken(ctx context.Context, authToken string) (ports.TokenDetails, error) {
	if authToken == "" {
		return ports.TokenDetails{}, errors.New("auth token is required")
	}

	var payload validateResponse
	err := c.doJSON(ctx, http.MethodGet, validatePath, authToken, nil, &payload)
	if err != nil {
		if errors.Is(err, domain.ErrUnauthorized) {
			return ports.TokenDetails{}, domain.ErrTokenExpired
		}
		return ports.TokenDetails{}, fmt.Errorf("validate token: %w", err)
	}
	return ports.TokenDetails{
		Account:      toAccount(payload.Account),
		Entitlements: toEntitlements(payload.Entitlements),
	}, nil
}

func (c *Client) Subscription(ctx context.Context, accessToken string) (domain.Subscription, error) {
	var payload subscriptionPayload
	err := c.doJSON(ctx, http.MethodGet, subscriptionPath, accessToken, nil, &payload)
	if err != nil {
		if errors.Is(err, domain.ErrUnauthorized) {
			return domain.Subscription{}, domain.ErrUnauthorized
		}
		return domain.Subscription{}, fmt.Errorf("fetch subscription: %w", err)
	}
	sub, err := toSubscription(payload)
	if err != nil {
		return domain.Subscription{}, fmt.Errorf("fetch subscription: %w", err)
	}
	return sub, nil
}

func (c *Client) Confirm(ctx context.Context, accessToken, packageName, purchaseToken string) (ports.ConfirmResult, error) {
	if purchaseToken == "" {
		return ports.ConfirmResult{}, errors.New("purchase token is required")
	}

	var payload confirmResponse
	body := confirmRequest{PackageName: packageName, PurchaseToken: purchaseToken}
	err := c.doJSON(ctx, http.MethodPost, confirmPath, accessToken, body, &payload)
	if err != nil {
		return ports.ConfirmResult{}, fmt.Errorf("confirm purchase: %w", err)
	}
	sub, err := toSubscription(payload.Subscription)
	if err != nil {
		return ports.ConfirmResult{}, fmt.Errorf("confirm purchase: %w", err)
	}
	return ports.ConfirmResult{
		Subscription: sub,
		Entitlements: toEntitlements(payload.Entitlements),
	}, nil
}

func (c *Client) Portal(ctx context.Context, accessToken string) (string, error) {
	var payload portalResponse
	if err := c.doJSON(ctx, http.MethodGet, portalPath, accessToken, nil, &payload); err != nil {
		return "", fmt.Errorf("fetch portal url: %w", err)
	}
	if payload.URL == "" {
		return "", errors.New("portal response missing url")
	}
	return payload.URL, nil
}

func (c *Client) doJSON(ctx context.Context, method, path, bearer string, body, out any) error {
	endpoint, err := buildAPIURL(c.BaseURL, path)
	if err != nil {
		return err
	}

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	requestCtx, cancel := c.requestContext(ctx)
	defer cancel()

	req, err := http.NewRequestWithContext(requestCtx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return decodeAPIError(resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}

func (c *Client) requestContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, hasDeadline := ctx.Deadline(); hasDeadline {
		return ctx, func() {}
	}

	requestTimeout := c.RequestTimeout
	if requestTimeout <= 0 {
		requestTimeout = 30 * time.Second
	}

	return context.WithTimeout(ctx, requestTimeout)
}

func decodeAPIError(resp *http.Response) error {
	var apiErr apiErrorResponse
	decodeErr := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&apiErr)

	if apiErr.Code == expiredTokenCode {
		return domain.ErrTokenExpired
	}
	if resp.StatusCode == http.StatusUnauthorized {
		return domain.ErrUnauthorized
	}
	if decodeErr != nil || apiErr.Message == "" {
		return fmt.Errorf("status %d", resp.StatusCode)
	}
	if apiErr.Code != "" {
		return fmt.Errorf("%s: %s", apiErr.Code, apiErr.Message)
	}
	return errors.New(apiErr.Message)
}

func toAccount(p accountPayload) domain.Account {
	return domain.Account{ExternalID: p.ExternalID, Email: p.Email}
}

func toEntitlements(names []string) domain.Entitlements {
	if len(names) == 0 {
		return nil
	}
	ents := make(domain.Entitlements, 0, len(names))
	for _, name := range names {
		ents = append(ents, domain.Product(name))
	}
	return ents
}

func toSubscription(p subscriptionPayload) (domain.Subscription, error) {
	startedAt, err := parseTime(p.StartedAt)
	if err != nil {
		return domain.Subscription{}, fmt.Errorf("parse started_at: %w", err)
	}
	expiresAt, err := parseTime(p.ExpiresOrRenewsAt)
	if err != nil {
		return domain.Subscription{}, fmt.Errorf("parse expires_or_renews_at: %w", err)
	}

	status := domain.SubscriptionStatus(p.Status)
	if status == "" {
		status = domain.SubscriptionUnknown
	}

	return domain.Subscription{
		ProductID:         p.ProductID,
		StartedAt:         startedAt,
		ExpiresOrRenewsAt: expiresAt,
		Status:            status,
		Platform:          p.Platform,
	}, nil
}

func parseTime(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339, value)
}

func buildAPIURL(baseURL string, path string) (string, error) {
	if baseURL == "" {
		return "", errors.New("api base url is required")
	}

	parsed, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("parse api base url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", errors.New("api base url must use http or https")
	}
	if parsed.Host == "" {
		return "", errors.New("api base url host is required")
	}

	endpoint, err := parsed.Parse(path)
	if err != nil {
		return "", fmt.Errorf("parse api path: %w", err)
	}
	return endpoint.String(), nil
}
